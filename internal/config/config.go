// Package config assembles the service configuration from defaults,
// a JSON configuration file, environment variables and command line flags.
// Later sources win: flags override environment variables, which override
// the JSON file, which overrides the built-in defaults.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the complete runtime configuration of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	MongoURI            string        `env:"MONGO_URI"`
	MongoDatabase       string        `env:"MONGO_DATABASE" validate:"required"`
	CredAPIBaseURL      string        `env:"CRED_API_BASE_URL" validate:"url"`
	CredAPIKey          string        `env:"CRED_API_KEY"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ConfigFile          string
}

type jsonConfig struct {
	RunAddr             string `json:"server_address"`
	LogLevel            string `json:"log_level"`
	MongoURI            string `json:"mongo_uri"`
	MongoDatabase       string `json:"mongo_database"`
	CredAPIBaseURL      string `json:"cred_api_base_url"`
	CredAPIKey          string `json:"cred_api_key"`
	DBConnectionTimeout string `json:"db_connection_timeout"`
	TrustedSubnet       string `json:"trusted_subnet"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	MongoDatabase:       "taskbox",
	CredAPIBaseURL:      "https://identitytoolkit.googleapis.com",
	DBConnectionTimeout: 10 * time.Second,
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validate(values *Config) error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command line flags parsing.
// It is used in tests where the test binary's own flags would confuse the parser.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}

	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}

	if values.MongoDatabase == "" {
		values.MongoDatabase = defaults.MongoDatabase
	}

	if values.CredAPIBaseURL == "" {
		values.CredAPIBaseURL = defaults.CredAPIBaseURL
	}

	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
}

// configFilePathFromArgs extracts the configuration file path from raw
// command line arguments without registering flags. The path must be known
// before regular flags parsing because the file contents are a lower
// priority source than the flags themselves.
func configFilePathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-c" || args[i] == "-config" || args[i] == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(args[i], "-c="):
			return strings.TrimPrefix(args[i], "-c=")
		case strings.HasPrefix(args[i], "-config="):
			return strings.TrimPrefix(args[i], "-config=")
		case strings.HasPrefix(args[i], "--config="):
			return strings.TrimPrefix(args[i], "--config=")
		}
	}

	return ""
}

func applyJSONConfig(values *Config) error {
	if values.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(values.ConfigFile)
	if err != nil {
		return fmt.Errorf(
			"in internal/config/config.go/applyJSONConfig(): error while `os.ReadFile()` calling: %w",
			err,
		)
	}

	var fromFile jsonConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf(
			"in internal/config/config.go/applyJSONConfig(): error while `json.Unmarshal()` calling: %w",
			err,
		)
	}

	if fromFile.RunAddr != "" {
		values.RunAddr = fromFile.RunAddr
	}

	if fromFile.LogLevel != "" {
		values.LogLevel = fromFile.LogLevel
	}

	if fromFile.MongoURI != "" {
		values.MongoURI = fromFile.MongoURI
	}

	if fromFile.MongoDatabase != "" {
		values.MongoDatabase = fromFile.MongoDatabase
	}

	if fromFile.CredAPIBaseURL != "" {
		values.CredAPIBaseURL = fromFile.CredAPIBaseURL
	}

	if fromFile.CredAPIKey != "" {
		values.CredAPIKey = fromFile.CredAPIKey
	}

	if fromFile.DBConnectionTimeout != "" {
		timeout, err := time.ParseDuration(fromFile.DBConnectionTimeout)
		if err != nil {
			return fmt.Errorf(
				"in internal/config/config.go/applyJSONConfig(): error while `time.ParseDuration()` calling: %w",
				err,
			)
		}
		values.DBConnectionTimeout = timeout
	}

	if fromFile.TrustedSubnet != "" {
		values.TrustedSubnet = fromFile.TrustedSubnet
	}

	return nil
}

func applyEnvironment(values *Config) error {
	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return fmt.Errorf(
			"in internal/config/config.go/applyEnvironment(): error while `env.Parse()` calling: %w",
			err,
		)
	}

	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.MongoURI != "" {
		values.MongoURI = valuesFromEnv.MongoURI
	}

	if valuesFromEnv.MongoDatabase != "" {
		values.MongoDatabase = valuesFromEnv.MongoDatabase
	}

	if valuesFromEnv.CredAPIBaseURL != "" {
		values.CredAPIBaseURL = valuesFromEnv.CredAPIBaseURL
	}

	if valuesFromEnv.CredAPIKey != "" {
		values.CredAPIKey = valuesFromEnv.CredAPIKey
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}

	return nil
}

func applyFlags(values *Config) error {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	flags.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
	flags.StringVar(&values.MongoURI, "d", values.MongoURI, "A string with the document store connection details")
	flags.StringVar(&values.MongoDatabase, "n", values.MongoDatabase, "document store database name")
	flags.StringVar(&values.CredAPIBaseURL, "b", values.CredAPIBaseURL, "base address of the credential store API")
	flags.StringVar(&values.CredAPIKey, "k", values.CredAPIKey, "credential store API key")
	flags.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet trusted to read service internals")
	flags.StringVar(&values.ConfigFile, "c", values.ConfigFile, "path to a JSON configuration file")
	flags.StringVar(&values.ConfigFile, "config", values.ConfigFile, "path to a JSON configuration file")

	return flags.Parse(os.Args[1:])
}

// normalizeCredAPIBaseURL strips the trailing slash so that request paths
// can be appended uniformly.
func (c *Config) normalizeCredAPIBaseURL() {
	c.CredAPIBaseURL = strings.TrimRight(c.CredAPIBaseURL, "/")
}

// New assembles the configuration from all sources and validates the result.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := Config{}
	applyDefaults(&values, defaultConfig)

	if !options.disableFlagsParsing {
		values.ConfigFile = configFilePathFromArgs(os.Args[1:])
	}
	if values.ConfigFile == "" {
		values.ConfigFile = os.Getenv("CONFIG")
	}

	if err := applyJSONConfig(&values); err != nil {
		return nil, err
	}

	if err := applyEnvironment(&values); err != nil {
		return nil, err
	}

	if !options.disableFlagsParsing {
		if err := applyFlags(&values); err != nil {
			return nil, err
		}
	}

	values.normalizeCredAPIBaseURL()

	if err := validate(&values); err != nil {
		return nil, err
	}

	return &values, nil
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCredAPIBaseURL(t *testing.T) {
	values := Config{}

	applyDefaults(&values, defaultConfig)

	values.CredAPIBaseURL = "https://identitytoolkit.googleapis.com/"
	values.normalizeCredAPIBaseURL()

	assert.Equal(t, "https://identitytoolkit.googleapis.com", values.CredAPIBaseURL)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	values := Config{RunAddr: ":9090"}

	applyDefaults(&values, defaultConfig)

	assert.Equal(t, ":9090", values.RunAddr)
	assert.Equal(t, "info", values.LogLevel)
	assert.Equal(t, "taskbox", values.MongoDatabase)
	assert.Equal(t, 10*time.Second, values.DBConnectionTimeout)
}

const testJSON = `{
	"server_address": ":3000",
	"log_level": "debug",
	"mongo_uri": "mongodb://json-host:27017",
	"mongo_database": "taskbox_json",
	"cred_api_base_url": "http://json-credentials.example.com/",
	"cred_api_key": "json-key",
	"db_connection_timeout": "3s",
	"trusted_subnet": "10.0.0.0/24"
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mongodb://json-host:27017", cfg.MongoURI)
	assert.Equal(t, "taskbox_json", cfg.MongoDatabase)
	assert.Equal(t, "http://json-credentials.example.com", cfg.CredAPIBaseURL)
	assert.Equal(t, "json-key", cfg.CredAPIKey)
	assert.Equal(t, 3*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, "10.0.0.0/24", cfg.TrustedSubnet)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("CRED_API_KEY", "env-key")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.Equal(t, "env-key", cfg.CredAPIKey)
	assert.Equal(t, "mongodb://json-host:27017", cfg.MongoURI) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("CRED_API_KEY", "env-key")

	os.Args = []string{
		"testbin",
		"-a", ":6000",
		"-k", "cli-key",
	}

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "cli-key", cfg.CredAPIKey)
	assert.Equal(t, "mongodb://json-host:27017", cfg.MongoURI) // from JSON
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MONGO_URI", "mongodb://env-host:27017")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mongodb://env-host:27017", cfg.MongoURI)
	assert.Equal(t, "taskbox", cfg.MongoDatabase)
	assert.Equal(t, "https://identitytoolkit.googleapis.com", cfg.CredAPIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.DBConnectionTimeout)
}

func TestConfigRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestConfigRejectsMalformedTrustedSubnet(t *testing.T) {
	t.Setenv("TRUSTED_SUBNET", "not-a-cidr")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestConfigFilePathFromArgs(t *testing.T) {
	assert.Equal(t, "conf.json", configFilePathFromArgs([]string{"-c", "conf.json"}))
	assert.Equal(t, "conf.json", configFilePathFromArgs([]string{"-config", "conf.json"}))
	assert.Equal(t, "conf.json", configFilePathFromArgs([]string{"-a", ":8080", "-c=conf.json"}))
	assert.Equal(t, "conf.json", configFilePathFromArgs([]string{"--config=conf.json"}))
	assert.Equal(t, "", configFilePathFromArgs([]string{"-a", ":8080"}))
	assert.Equal(t, "", configFilePathFromArgs([]string{"-c"}))
}

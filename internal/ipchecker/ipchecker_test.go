package ipchecker

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMalformedCIDR(t *testing.T) {
	_, err := New("definitely not a subnet")
	assert.Error(t, err)
}

func TestGuard(t *testing.T) {
	type tTestCase struct {
		name          string
		trustedSubnet string
		realIPHeader  string
		remoteAddr    string
		expectedCode  int
	}

	testCases := []tTestCase{
		{
			name:          "no_subnet_configured_lets_everyone_in",
			trustedSubnet: "",
			remoteAddr:    "203.0.113.7:51234",
			expectedCode:  http.StatusOK,
		},
		{
			name:          "real_ip_inside_subnet",
			trustedSubnet: "192.168.1.0/24",
			realIPHeader:  "192.168.1.42",
			remoteAddr:    "203.0.113.7:51234",
			expectedCode:  http.StatusOK,
		},
		{
			name:          "real_ip_outside_subnet",
			trustedSubnet: "192.168.1.0/24",
			realIPHeader:  "10.0.0.5",
			remoteAddr:    "203.0.113.7:51234",
			expectedCode:  http.StatusForbidden,
		},
		{
			name:          "remote_addr_fallback_inside_subnet",
			trustedSubnet: "192.168.1.0/24",
			remoteAddr:    "192.168.1.9:51234",
			expectedCode:  http.StatusOK,
		},
		{
			name:          "remote_addr_fallback_outside_subnet",
			trustedSubnet: "192.168.1.0/24",
			remoteAddr:    "203.0.113.7:51234",
			expectedCode:  http.StatusForbidden,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			checker, err := New(testCase.trustedSubnet)
			require.NoError(t, err)

			guarded := checker.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			request.RemoteAddr = testCase.remoteAddr
			if testCase.realIPHeader != "" {
				request.Header.Set("X-Real-IP", testCase.realIPHeader)
			}
			recorder := httptest.NewRecorder()

			guarded.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.expectedCode, recorder.Code, "Response code didn't match expected value")
		})
	}
}

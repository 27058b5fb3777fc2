package testkit

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code.
func AssertStatusCode(t *testing.T, scenario *Scenario, got int) {
	t.Helper()
	assert.Equal(t, scenario.ExpectedCode, got,
		"[%s] HTTP status code mismatch", scenario.Name)
}

// AssertHeaders checks every expected header. An empty expected value
// asserts the header is absent.
func AssertHeaders(t *testing.T, scenario *Scenario, got http.Header) {
	t.Helper()
	for name, want := range scenario.ExpectedHeaders {
		if want == "" {
			assert.Empty(t, got.Values(name), "[%s] header %s should be absent", scenario.Name, name)
			continue
		}
		assert.Equal(t, want, got.Get(name), "[%s] header %s mismatch", scenario.Name, name)
	}
}

// AssertTextBody compares the body byte for byte.
func AssertTextBody(t *testing.T, scenario *Scenario, expected string, actual []byte) {
	t.Helper()
	assert.Equal(t, expected, string(actual), "[%s] response body mismatch", scenario.Name)
}

// AssertJSONBody compares expected and actual after decoding both, so key
// order and whitespace never matter.
func AssertJSONBody(t *testing.T, scenario *Scenario, expected, actual []byte) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t,
		json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", scenario.Name,
	)
	if !assert.NoError(t,
		json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", scenario.Name, string(actual),
	) {
		return
	}
	assert.Equal(t, expVal, actVal, "[%s] response body mismatch", scenario.Name)
}

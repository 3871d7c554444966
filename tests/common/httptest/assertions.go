//go:build unit || e2e

package httptest

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"booking-engine/internal/handler/httperr"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSuccessResponse checks the status and, for 2xx, decodes the body into target.
func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()

	if !assert.Equal(t, expectedStatus, w.Code, "unexpected status, body: %s", w.Body.String()) {
		return
	}
	if expectedStatus >= 200 && expectedStatus < 300 && target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "undecodable body: %s", w.Body.String())
	}
}

// AssertErrorCode checks the status and the machine-readable error code.
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedCode string) httperr.Response {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "unexpected status, body: %s", w.Body.String())

	var resp httperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "undecodable error body: %s", w.Body.String())
	assert.Equal(t, expectedCode, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Message)
	return resp
}

func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for k, v := range expected {
		assert.Equal(t, v, w.Header().Get(k), "header %s mismatch", k)
	}
}

// AssertSameResponse requires two responses to match in status and JSON body.
// Replay guarantees are checked with it.
func AssertSameResponse(t *testing.T, first, second *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, first.Code, second.Code)

	var a, b any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("responses differ (-first +second):\n%s", diff)
	}
}

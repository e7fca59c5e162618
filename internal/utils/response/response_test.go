package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name string
		code int
		body any
		want any
	}{
		{"success", http.StatusOK, map[string]float64{"score": 3}, Success{Response: map[string]float64{"score": 3}, Code: 200}},
		{"success with nil body", http.StatusOK, nil, Success{Response: nil, Code: 200}},
		{"forbidden default text", http.StatusForbidden, nil, Failure{Error: "Forbidden", Code: 403}},
		{"not found default text", http.StatusNotFound, "", Failure{Error: "Not Found", Code: 404}},
		{"invalid with errors", http.StatusUnprocessableEntity, []string{"field phone is required"},
			Failure{Error: []string{"field phone is required"}, Code: 422}},
		{"invalid with no errors", http.StatusUnprocessableEntity, []string{}, Failure{Error: "Invalid Request", Code: 422}},
		{"internal", http.StatusInternalServerError, nil, Failure{Error: "Internal Server Error", Code: 500}},
		{"unlisted code is not an error", http.StatusTeapot, "tea", Success{Response: "tea", Code: 418}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Envelope(tt.code, tt.body))
		})
	}
}

func TestIsError(t *testing.T) {
	for _, code := range []int{400, 403, 404, 422, 500} {
		assert.True(t, IsError(code), "code %d", code)
	}
	for _, code := range []int{200, 201, 204, 418, 502} {
		assert.False(t, IsError(code), "code %d", code)
	}
}

func TestWrite(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Write(w, http.StatusBadRequest, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "Bad Request", "code": 400}`, w.Body.String())

	w = httptest.NewRecorder()
	require.NoError(t, Write(w, http.StatusOK, map[string][]string{"1": {"books"}}))
	assert.JSONEq(t, `{"response": {"1": ["books"]}, "code": 200}`, w.Body.String())
}

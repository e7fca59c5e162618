// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every reply carries the status code twice: once on the HTTP status line
// and once in the body. Successful replies put the result under "response";
// error codes put the detail under "error":
//
//	{ "response": { "score": 3.5 }, "code": 200 }
//	{ "error": ["field phone ..."], "code": 422 }
package response

import (
	"encoding/json"
	"net/http"
)

// Success is the envelope for non-error status codes.
type Success struct {
	Response any `json:"response"`
	Code     int `json:"code"`
}

// Failure is the envelope for error status codes. Error is either a
// string or a list of validation messages.
type Failure struct {
	Error any `json:"error"`
	Code  int `json:"code"`
}

// errorTexts are the status codes answered with a Failure envelope.
var errorTexts = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusUnprocessableEntity: "Invalid Request",
	http.StatusInternalServerError: "Internal Server Error",
}

// IsError reports whether code is answered with a Failure envelope.
func IsError(code int) bool {
	_, ok := errorTexts[code]
	return ok
}

// Envelope wraps body for code. An error code with an empty body gets the
// standard text for that code.
func Envelope(code int, body any) any {
	text, isErr := errorTexts[code]
	if !isErr {
		return Success{Response: body, Code: code}
	}
	if isEmpty(body) {
		return Failure{Error: text, Code: code}
	}
	return Failure{Error: body, Code: code}
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Write wraps body in the envelope for code and writes it.
func Write(w http.ResponseWriter, code int, body any) error {
	return WriteJSON(w, code, Envelope(code, body))
}

func isEmpty(body any) bool {
	switch b := body.(type) {
	case nil:
		return true
	case string:
		return b == ""
	case []string:
		return len(b) == 0
	default:
		return false
	}
}

// Package method contains the HTTP handlers for the method endpoint.
//
// The transport owns everything the dispatcher does not: reading and
// decoding the body, request ids, route misses, turning panics and
// collaborator failures into 500, and the response envelope.
//
//	router.Handle("POST /method", method.New(dispatcher))
//	router.HandleFunc("/", method.NotFound)
package method

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/otus/scoring-api/internal/types"
	"github.com/otus/scoring-api/internal/utils/response"
)

// redacted replaces credential values in logged bodies.
const redacted = "[REDACTED]"

// RequestIDHeader carries the caller's correlation id.
const RequestIDHeader = "X-Request-Id"

// maxBodyBytes caps the request body.
const maxBodyBytes = 1 << 20

// Dispatcher handles one decoded method request.
type Dispatcher interface {
	Handle(ctx context.Context, body any, rc *types.RequestContext) (any, int, error)
}

// New handles POST /method.
//
// Request body (JSON):
//
//	{ "account": "horns&hoofs", "login": "h&f", "method": "online_score",
//	  "token": "55cc9ce5...", "arguments": { "phone": "79175002040", "email": "a@b.c" } }
//
// Success response (200 OK):
//
//	{ "response": { "score": 3.0 }, "code": 200 }
//
// Error responses:
//
//	400 Bad Request: body is empty, not JSON, or not a JSON object
//	403 Forbidden: token does not match
//	422 Invalid: validation errors (list) or unsupported method
//	500 Internal: store failure or unexpected panic
func New(d Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := &types.RequestContext{RequestID: requestID(r)}
		w.Header().Set(RequestIDHeader, rc.RequestID)

		body, err := decodeBody(r)
		if err != nil {
			slog.Info("rejecting malformed body",
				slog.String("request_id", rc.RequestID),
				slog.String("error", err.Error()))
			finish(w, rc, http.StatusBadRequest, nil)
			return
		}

		slog.Info("handling method request",
			slog.String("path", r.URL.Path),
			slog.String("request_id", rc.RequestID),
			slog.Any("body", redact(body)))

		result, code := dispatch(r.Context(), d, body, rc)
		finish(w, rc, code, result)
	}
}

// NotFound answers every route other than POST /method.
func NotFound(w http.ResponseWriter, r *http.Request) {
	rc := &types.RequestContext{RequestID: requestID(r)}
	w.Header().Set(RequestIDHeader, rc.RequestID)
	slog.Info("route not found",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", rc.RequestID))
	finish(w, rc, http.StatusNotFound, nil)
}

// dispatch calls d and converts both returned errors and panics into 500.
func dispatch(ctx context.Context, d Dispatcher, body any, rc *types.RequestContext) (result any, code int) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("unexpected error",
				slog.String("request_id", rc.RequestID),
				slog.String("panic", fmt.Sprint(p)))
			result, code = nil, http.StatusInternalServerError
		}
	}()

	result, code, err := d.Handle(ctx, body, rc)
	if err != nil {
		slog.Error("unexpected error",
			slog.String("request_id", rc.RequestID),
			slog.String("error", err.Error()))
		return nil, http.StatusInternalServerError
	}
	return result, code
}

// finish writes the envelope and logs the outcome. Error codes log at
// WARN so failed requests stand out in prod, where only INFO and up is kept.
func finish(w http.ResponseWriter, rc *types.RequestContext, code int, result any) {
	if err := response.Write(w, code, result); err != nil {
		slog.Error("failed to write response",
			slog.String("request_id", rc.RequestID),
			slog.String("error", err.Error()))
	}

	level := slog.LevelInfo
	if response.IsError(code) {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "request done",
		slog.String("request_id", rc.RequestID),
		slog.Int("code", code),
		slog.Any("has", rc.Has),
		slog.Int("nclients", rc.NClients))
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// decodeBody reads the body and decodes it as a JSON object. Numbers stay
// json.Number so integer fields can tell 7 from 7.0.
func decodeBody(r *http.Request) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("request body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	return obj, nil
}

// redact returns a shallow copy of body that is safe to log: the token is
// a bearer credential and never reaches the log.
func redact(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = v
	}
	if _, ok := out["token"]; ok {
		out["token"] = redacted
	}
	return out
}

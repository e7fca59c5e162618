package method

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otus/scoring-api/internal/api"
	"github.com/otus/scoring-api/internal/auth"
	"github.com/otus/scoring-api/internal/scoring"
	"github.com/otus/scoring-api/internal/types"
)

var clock = time.Date(2024, time.March, 15, 17, 30, 0, 0, time.Local)

type stubScorer struct{}

func (stubScorer) GetScore(context.Context, scoring.Input) (float64, error) { return 3.5, nil }

func (stubScorer) GetInterests(_ context.Context, id int64) ([]string, error) {
	return []string{"books"}, nil
}

// dispatcherFunc adapts a function to the Dispatcher interface.
type dispatcherFunc func(ctx context.Context, body any, rc *types.RequestContext) (any, int, error)

func (f dispatcherFunc) Handle(ctx context.Context, body any, rc *types.RequestContext) (any, int, error) {
	return f(ctx, body, rc)
}

func sha(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newRouter(d Dispatcher) *http.ServeMux {
	router := http.NewServeMux()
	router.Handle("POST /method", New(d))
	router.HandleFunc("/", NotFound)
	return router
}

func realDispatcher() Dispatcher {
	gate := auth.NewGate(auth.DefaultSalt, auth.DefaultAdminLogin, auth.DefaultAdminSalt)
	gate.Now = func() time.Time { return clock }
	d := api.New(gate, stubScorer{})
	d.Now = func() time.Time { return clock }
	return d
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w, decoded
}

func TestMethod_AdminOnlineScore(t *testing.T) {
	token := sha(clock.Format("2006010215") + "42")
	body := `{"account": "", "login": "admin", "method": "online_score", "token": "` + token + `",
		"arguments": {"phone": 71234567891, "email": "a@b.c"}}`

	w, got := do(t, newRouter(realDispatcher()), http.MethodPost, "/method", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"response": {"score": 42}, "code": 200}`, w.Body.String())
	assert.EqualValues(t, 200, got["code"])
}

func TestMethod_ClientsInterests(t *testing.T) {
	token := sha("horns&hoofsh&fOtus")
	body := `{"account": "horns&hoofs", "login": "h&f", "method": "clients_interests", "token": "` + token + `",
		"arguments": {"client_ids": [1, 2], "date": "19.07.2017"}}`

	w, _ := do(t, newRouter(realDispatcher()), http.MethodPost, "/method", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response": {"1": ["books"], "2": ["books"]}, "code": 200}`, w.Body.String())
}

func TestMethod_UserOnlineScore(t *testing.T) {
	token := sha("horns&hoofsh&fOtus")
	body := `{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "` + token + `",
		"arguments": {"first_name": "a", "last_name": "b"}}`

	w, _ := do(t, newRouter(realDispatcher()), http.MethodPost, "/method", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response": {"score": 3.5}, "code": 200}`, w.Body.String())
}

func TestMethod_InvalidArguments(t *testing.T) {
	token := sha("horns&hoofsh&fOtus")
	body := `{"account": "horns&hoofs", "login": "h&f", "method": "clients_interests", "token": "` + token + `",
		"arguments": {"client_ids": []}}`

	w, got := do(t, newRouter(realDispatcher()), http.MethodPost, "/method", body, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.EqualValues(t, 422, got["code"])
	errs, ok := got["error"].([]any)
	require.True(t, ok, "error should be a list: %v", got["error"])
	assert.NotEmpty(t, errs)
}

func TestMethod_Forbidden(t *testing.T) {
	body := `{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "bad", "arguments": {}}`

	w, _ := do(t, newRouter(realDispatcher()), http.MethodPost, "/method", body, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error": "Forbidden", "code": 403}`, w.Body.String())
}

func TestMethod_BadRequest(t *testing.T) {
	called := false
	d := dispatcherFunc(func(context.Context, any, *types.RequestContext) (any, int, error) {
		called = true
		return nil, http.StatusOK, nil
	})

	for _, body := range []string{"", "   ", "{", "not json", "[1, 2]", `"str"`, "42", `{} {}`} {
		w, _ := do(t, newRouter(d), http.MethodPost, "/method", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.JSONEq(t, `{"error": "Bad Request", "code": 400}`, w.Body.String())
	}
	assert.False(t, called)
}

func TestMethod_NotFound(t *testing.T) {
	router := newRouter(realDispatcher())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/other"},
		{http.MethodGet, "/"},
		{http.MethodGet, "/method"},
	} {
		w, _ := do(t, router, tc.method, tc.path, "{}", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"error": "Not Found", "code": 404}`, w.Body.String())
	}
}

func TestMethod_InternalError(t *testing.T) {
	failing := dispatcherFunc(func(context.Context, any, *types.RequestContext) (any, int, error) {
		return nil, http.StatusInternalServerError, errors.New("store down")
	})
	panicking := dispatcherFunc(func(context.Context, any, *types.RequestContext) (any, int, error) {
		panic("dispatcher bug")
	})

	for name, d := range map[string]Dispatcher{"error": failing, "panic": panicking} {
		t.Run(name, func(t *testing.T) {
			w, _ := do(t, newRouter(d), http.MethodPost, "/method", `{"method": "x"}`, nil)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error": "Internal Server Error", "code": 500}`, w.Body.String())
		})
	}
}

func TestMethod_RequestID(t *testing.T) {
	var seen string
	d := dispatcherFunc(func(_ context.Context, _ any, rc *types.RequestContext) (any, int, error) {
		seen = rc.RequestID
		return map[string]any{}, http.StatusOK, nil
	})
	router := newRouter(d)

	header := http.Header{RequestIDHeader: []string{"req-123"}}
	w, _ := do(t, router, http.MethodPost, "/method", `{}`, header)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w, _ = do(t, router, http.MethodPost, "/method", `{}`, nil)
	assert.Regexp(t, `^[0-9a-f]{32}$`, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestMethod_NumbersStayExact(t *testing.T) {
	var got any
	d := dispatcherFunc(func(_ context.Context, body any, _ *types.RequestContext) (any, int, error) {
		got = body.(map[string]any)["n"]
		return nil, http.StatusOK, nil
	})

	do(t, newRouter(d), http.MethodPost, "/method", `{"n": 71234567891}`, nil)
	assert.Equal(t, json.Number("71234567891"), got)
}

// captureLogs routes the default slog logger into a buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestMethod_LogsNeverCarryCredentials(t *testing.T) {
	logs := captureLogs(t)

	userToken := sha("horns&hoofsh&fOtus")
	adminToken := sha(clock.Format("2006010215") + "42")
	router := newRouter(realDispatcher())

	for _, body := range []string{
		`{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "` + userToken + `",
			"arguments": {"first_name": "a", "last_name": "b"}}`,
		`{"account": "", "login": "admin", "method": "online_score", "token": "` + adminToken + `",
			"arguments": {"phone": 71234567891, "email": "a@b.c"}}`,
		// a wrong token must not reveal the expected one either
		`{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "guess", "arguments": {}}`,
	} {
		do(t, router, http.MethodPost, "/method", body, nil)
	}

	out := logs.String()
	assert.NotContains(t, out, userToken)
	assert.NotContains(t, out, adminToken)
	assert.NotContains(t, out, "guess")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, "online_score")
}

func TestRedact(t *testing.T) {
	body := map[string]any{"login": "h&f", "token": "secret"}

	out := redact(body)

	assert.Equal(t, map[string]any{"login": "h&f", "token": redacted}, out)
	assert.Equal(t, "secret", body["token"], "input must not be modified")
	assert.NotContains(t, redact(map[string]any{"login": "h&f"}), "token")
}

func TestMethod_ErrorCodesLogAtWarn(t *testing.T) {
	logs := captureLogs(t)

	do(t, newRouter(realDispatcher()), http.MethodPost, "/method", "not json", nil)

	assert.Contains(t, logs.String(), `"level":"WARN","msg":"request done"`)
}

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/pkg/logger"
)

func bufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLoggingRecordsRouteStatusAndBytes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := chi.NewRouter()
	r.Use(Logging(bufferLogger(buf)))
	r.Get("/api/v1/items/{itemId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/items/abc", nil))
	require.Equal(t, http.StatusTeapot, resp.Code)

	entry := lastLogLine(t, buf)
	assert.Equal(t, "request.complete", entry["message"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
	assert.Equal(t, "/api/v1/items/{itemId}", entry["route"])
}

func TestLoggingKeepsProbesOutOfInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := Logging(bufferLogger(buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Empty(t, buf.String())
}

func TestRequestIDKeepsSafeInboundIDs(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seen = w.Header().Get(requestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "edge-1234:abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "edge-1234:abc", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id\nwith newline")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "bad id\nwith newline", seen)
	assert.Len(t, seen, 36)
}

func TestRecovererReturnsInternalEnvelope(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := Recoverer(bufferLogger(buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.Contains(t, buf.String(), "panic.recovered")
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

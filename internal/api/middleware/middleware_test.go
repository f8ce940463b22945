package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/edi-processor/internal/logger"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"request_id": RequestIDFromContext(r.Context())})
}

func TestAuth(t *testing.T) {
	h := Auth("secret")(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{name: "no key", path: "/api/files", want: http.StatusUnauthorized},
		{name: "wrong key", path: "/api/files", header: map[string]string{APIKeyHeader: "nope"}, want: http.StatusUnauthorized},
		{name: "api key header", path: "/api/files", header: map[string]string{APIKeyHeader: "secret"}, want: http.StatusOK},
		{name: "bearer token", path: "/api/files", header: map[string]string{"Authorization": "Bearer secret"}, want: http.StatusOK},
		{name: "basic auth ignored", path: "/api/files", header: map[string]string{"Authorization": "Basic secret"}, want: http.StatusUnauthorized},
		{name: "health is open", path: "/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuth_EmptyKeyAllowsAll(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth("")(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChain_RecoversPanicWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	h := Chain(log, "", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), "Panic recovered")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf).Level(zerolog.DebugLevel)

	h := RequestID(log)(Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "File not found")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/x", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

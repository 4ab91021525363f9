package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"success", http.StatusOK, `{"teams":[]}`, "level=INFO"},
		{"client error", http.StatusBadRequest, `{"error":"team_full"}`, "level=WARN"},
		{"server error", http.StatusInternalServerError, `{"error":"internal_error"}`, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			h := chimiddleware.RequestID(Logger(logger)(inner))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

			assert.Equal(t, tt.status, rr.Code)
			line := buf.String()
			assert.Contains(t, line, tt.wantLevel)
			assert.Contains(t, line, "path=/api/leaderboard")
			assert.Contains(t, line, "status=")
			assert.Contains(t, line, "requestID=")
		})
	}
}

func TestLogger_DefaultStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})

	rr := httptest.NewRecorder()
	Logger(logger)(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/teams/leave", nil))

	line := buf.String()
	assert.Contains(t, line, "status=200")
	assert.Contains(t, line, "bytes=5")
	assert.Contains(t, line, "method=POST")
	assert.NotContains(t, line, "requestID=")
}

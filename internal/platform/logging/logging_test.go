package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetup(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("json", "info", &buf)

		logger.Debug("hidden")
		logger.Info("shown", "key", "value")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "shown", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("text", "debug", &buf)

		logger.Debug("visible", "key", "value")

		assert.Contains(t, buf.String(), "msg=visible")
		assert.Contains(t, buf.String(), "key=value")
	})
}

func TestError(t *testing.T) {
	t.Run("oops error carries code and context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("json", "info", &buf)

		err := oops.Code("ACCOUNT_STORE_FAILED").With("operation", "create").Wrap(errors.New("disk full"))
		Error(logger, "signup failed", err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "signup failed", entry["msg"])
		assert.Equal(t, "ACCOUNT_STORE_FAILED", entry["code"])
		assert.Contains(t, entry["error"], "disk full")
		ctx, ok := entry["context"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "create", ctx["operation"])
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("json", "info", &buf)

		Error(logger, "boom", errors.New("plain"))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "plain", entry["error"])
		assert.NotContains(t, entry, "code")
	})
}

func TestAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := Setup("json", "info", &buf)

	r := gin.New()
	r.Use(AccessLog(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("store down"))
		c.Status(http.StatusInternalServerError)
	})

	tests := []struct {
		path      string
		wantLevel string
		wantErr   bool
	}{
		{path: "/ok", wantLevel: "INFO"},
		{path: "/missing", wantLevel: "WARN"},
		{path: "/fail", wantLevel: "ERROR", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.path, entry["path"])
			assert.Equal(t, "GET", entry["method"])
			if tt.wantErr {
				assert.Contains(t, entry["errors"], "store down")
			}
		})
	}
}

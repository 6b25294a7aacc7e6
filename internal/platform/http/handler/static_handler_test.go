package handler

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCSS = strings.Repeat(".alert { padding: 0.75rem 1rem; }\n", 64)

func setupStaticRouter(t *testing.T) *gin.Engine {
	t.Helper()
	root := http.FS(fstest.MapFS{
		"css/main.css": {Data: []byte(testCSS)},
		"css/tiny.css": {Data: []byte("p{}")},
	})
	h, err := NewStaticHandler("/public", root, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/public/*filepath", h)
	r.HEAD("/public/*filepath", h)
	return r
}

func TestStaticHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantCacheCtl string
	}{
		{"existing file", "/public/css/main.css", http.StatusOK, "public, max-age=3600"},
		{"missing file", "/public/css/none.css", http.StatusNotFound, ""},
		{"directory listing", "/public/css/", http.StatusNotFound, ""},
		{"prefix only", "/public/", http.StatusNotFound, ""},
		{"path traversal", "/public/../handler.go", http.StatusNotFound, ""},
	}

	router := setupStaticRouter(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCacheCtl, w.Header().Get("Cache-Control"))
		})
	}
}

func TestStaticHandler_Gzip(t *testing.T) {
	t.Parallel()

	router := setupStaticRouter(t)

	t.Run("compressed when accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/public/css/main.css", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		assert.Contains(t, w.Header().Get("Content-Type"), "text/css")

		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, testCSS, string(body))
	})

	t.Run("plain without accept-encoding", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/public/css/main.css", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, testCSS, w.Body.String())
	})

	t.Run("small files stay plain", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/public/css/tiny.css", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "p{}", w.Body.String())
	})
}

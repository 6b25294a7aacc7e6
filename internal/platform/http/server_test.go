package http

import (
	"net/http"
	"testing"
	"time"
)

func TestNewServer(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := NewServer(":3000", mux)

	if srv.Addr != ":3000" {
		t.Errorf("expected addr ':3000', got %q", srv.Addr)
	}
	if srv.Handler != mux {
		t.Error("expected handler to be set")
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("expected ReadHeaderTimeout 5s, got %v", srv.ReadHeaderTimeout)
	}
	if srv.WriteTimeout == 0 || srv.ReadTimeout == 0 || srv.IdleTimeout == 0 {
		t.Error("all server timeouts must be set")
	}
}

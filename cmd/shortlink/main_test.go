package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte("OK"))
		case "/api/shorten":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"shortUrl":"http://sho.rt/0a1b2c3d"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"shorten", []string{"--api", srv.URL, "https://example.com"}, 0, "http://sho.rt/0a1b2c3d\n"},
		{"status", []string{"--api", srv.URL, "--status"}, 0, "Healthy - OK\n"},
		{"missing url", []string{"--api", srv.URL}, 2, ""},
		{"too many args", []string{"--api", srv.URL, "a", "b"}, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code, stderr.String())
			assert.Equal(t, tt.wantOut, stdout.String())
		})
	}
}

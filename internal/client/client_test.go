package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestShorten(t *testing.T) {
	c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/shorten", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body shortenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/long", body.LongURL)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"shortUrl":"http://localhost:5000/1a2b3c4d"}`))
	})

	shortURL, err := c.Shorten(context.Background(), "https://example.com/long")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/1a2b3c4d", shortURL)
}

func TestShorten_ServerError(t *testing.T) {
	tests := []struct {
		name    string
		status      int
		contentType string
		body        string
		wantMsg     string
	}{
		{"error field", http.StatusBadRequest, "application/json", `{"error":"longUrl is required"}`, "longUrl is required"},
		{"no error field", http.StatusInternalServerError, "application/json", `{}`, "Failed to shorten URL."},
		{"not json", http.StatusBadGateway, "text/html", `<html>bad gateway</html>`, "Failed to shorten URL."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Shorten(context.Background(), "https://example.com")
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantHealthy bool
		wantErr     bool
		wantLine    string
	}{
		{"ok", http.StatusOK, "OK", true, false, "Healthy - OK"},
		{"lowercase with newline", http.StatusOK, "ok\n", true, false, "Healthy - ok\n"},
		{"unexpected body", http.StatusOK, "degraded", false, false, "Unhealthy - degraded"},
		{"server error", http.StatusServiceUnavailable, "Service Unavailable", false, true, "Unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			st := CheckStatus(context.Background(), c)
			assert.Equal(t, tt.wantHealthy, st.Healthy)
			assert.Equal(t, tt.wantLine, st.String())
			if tt.wantErr {
				require.Error(t, st.Err)
				assert.Equal(t, "Status: 503", st.Err.Error())
			} else {
				assert.NoError(t, st.Err)
			}
		})
	}
}

func TestCheckStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	st := CheckStatus(context.Background(), New(url))
	assert.False(t, st.Healthy)
	assert.Error(t, st.Err)
	assert.Equal(t, "Unhealthy", st.String())
}

type stubShortener struct {
	shortURL string
	err      error
	seen     []Form
	form     *Form
}

func (s *stubShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	// Loading is visible while the request is in flight.
	s.seen = append(s.seen, *s.form)
	return s.shortURL, s.err
}

func TestForm_Submit(t *testing.T) {
	api := &stubShortener{shortURL: "http://sho.rt/abcdef01"}
	form := NewForm(api)
	api.form = form
	form.LongURL = "https://example.com"
	form.Error = "stale"

	var states []Form
	form.OnChange(func(f Form) { states = append(states, f) })

	form.Submit(context.Background())

	require.Len(t, api.seen, 1)
	assert.True(t, api.seen[0].Loading)
	assert.Empty(t, api.seen[0].Error)

	assert.Equal(t, "http://sho.rt/abcdef01", form.ShortURL)
	assert.Empty(t, form.Error)
	assert.False(t, form.Loading)
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
}

func TestForm_SubmitError(t *testing.T) {
	api := &stubShortener{err: &APIError{StatusCode: 400, Message: "longUrl is required"}}
	form := NewForm(api)
	api.form = form
	form.ShortURL = "http://sho.rt/old"

	form.Submit(context.Background())

	assert.Empty(t, form.ShortURL)
	assert.Equal(t, "longUrl is required", form.Error)
	assert.False(t, form.Loading)
}

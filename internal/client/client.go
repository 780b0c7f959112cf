package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	defaultTimeout = 5 * time.Second

	shortenFailed = "Failed to shorten URL."
)

// Client talks to the shortener API.
type Client struct {
	http *req.Client
}

type shortenRequest struct {
	LongURL string `json:"longUrl"`
}

type shortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError is a non-2xx answer from the API. Message is the server's error
// field, or a generic text when the body carries none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// New returns a client for the API at baseURL (DefaultBaseURL when empty).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	http := req.C().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetUserAgent("shorty-client").
		SetCommonHeader("Accept", "application/json")
	return &Client{http: http}
}

// Shorten asks the API for a short URL pointing at longURL.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	var out shortenResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBodyJsonMarshal(shortenRequest{LongURL: longURL}).
		SetSuccessResult(&out).
		SetErrorResult(&apiErr).
		Post("/api/shorten")

	// A non-2xx answer whose body is not JSON still counts as an API error.
	if resp != nil && resp.Response != nil && !resp.IsSuccessState() {
		msg := apiErr.Error
		if msg == "" {
			msg = shortenFailed
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err != nil {
		return "", fmt.Errorf("shorten: %w", err)
	}
	if out.ShortURL == "" {
		return "", errors.New("shorten: response has no shortUrl")
	}
	return out.ShortURL, nil
}

// Health fetches GET /health and returns its body. A non-2xx answer is an
// error reading "Status: <code>".
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/plain").
		Get("/health")
	if err != nil {
		return "", err
	}
	if !resp.IsSuccessState() {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Status: %d", resp.StatusCode),
		}
	}
	return resp.String(), nil
}

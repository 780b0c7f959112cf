package client

import (
	"context"
	"strings"
)

// HealthChecker is the part of Client CheckStatus needs.
type HealthChecker interface {
	Health(ctx context.Context) (string, error)
}

// Status is the outcome of one health probe.
type Status struct {
	Healthy bool
	Body    string
	Err     error
}

// String renders the status line shown to users.
func (s Status) String() string {
	switch {
	case s.Err != nil:
		return "Unhealthy"
	case s.Healthy:
		return "Healthy - " + s.Body
	default:
		return "Unhealthy - " + s.Body
	}
}

// CheckStatus probes the API. It is healthy only when the body, trimmed and
// upper-cased, is OK.
func CheckStatus(ctx context.Context, c HealthChecker) Status {
	body, err := c.Health(ctx)
	if err != nil {
		return Status{Err: err}
	}
	return Status{
		Healthy: strings.ToUpper(strings.TrimSpace(body)) == "OK",
		Body:    body,
	}
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_RetriesUntilDatabaseAnswers(t *testing.T) {
	var order []string
	schemaCalls := 0

	err := Bootstrap(context.Background(), nil, time.Millisecond,
		Step{Name: "urls", Run: func(ctx context.Context) error {
			schemaCalls++
			if schemaCalls < 3 {
				return errors.New("dial tcp: connection refused")
			}
			order = append(order, "urls")
			return nil
		}},
		Step{Name: "url_visits", Run: func(ctx context.Context) error {
			order = append(order, "url_visits")
			return nil
		}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, schemaCalls)
	assert.Equal(t, []string{"urls", "url_visits"}, order)
}

func TestBootstrap_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	later := false
	err := Bootstrap(ctx, nil, 5*time.Millisecond,
		Step{Name: "urls", Run: func(ctx context.Context) error { return errors.New("down") }},
		Step{Name: "url_visits", Run: func(ctx context.Context) error { later = true; return nil }},
	)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, later)
}

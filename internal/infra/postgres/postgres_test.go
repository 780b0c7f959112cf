package postgres

import (
	"testing"
	"time"

	"github.com/sifan077/shorty/config"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.PostgresConfig{User: "postgres", Database: "urls"},
			want: "postgres://postgres@localhost:5432/urls?sslmode=disable",
		},
		{
			name: "escaped credentials",
			cfg: config.PostgresConfig{
				Host: "db", Port: 6543, User: "shorty", Password: "s/cret",
				Database: "urls", SSLMode: "require",
			},
			want: "postgres://shorty:s%2Fcret@db:6543/urls?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnString(tt.cfg))
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 30*time.Second, parseDuration("30s", time.Minute))
}

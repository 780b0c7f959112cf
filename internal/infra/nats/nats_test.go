package natsclient

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/shorty/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "nats://localhost:4222", buildURL(config.NATSConfig{}))
	assert.Equal(t, "nats://broker:4333", buildURL(config.NATSConfig{Host: "broker", Port: 4333}))
}

func TestOptions(t *testing.T) {
	apply := func(cfg config.NATSConfig) nats.Options {
		o := nats.GetDefaultOptions()
		for _, opt := range options(cfg, zap.NewNop()) {
			require.NoError(t, opt(&o))
		}
		return o
	}

	o := apply(config.NATSConfig{})
	assert.Equal(t, "shorty", o.Name)
	assert.Equal(t, -1, o.MaxReconnect)
	assert.NotNil(t, o.DisconnectedErrCB)
	assert.NotNil(t, o.ReconnectedCB)
	assert.Empty(t, o.User)

	o = apply(config.NATSConfig{User: "svc", Password: "pw"})
	assert.Equal(t, "svc", o.User)
	assert.Equal(t, "pw", o.Password)
}

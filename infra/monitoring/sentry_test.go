package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/config"
	coremon "github.com/kilianp07/rideshare/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitorBadDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorIgnoresNil(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@sentry.example.com/1", Environment: "test"})
	require.NoError(t, err)
	assert.NotPanics(t, func() { m.CaptureException(nil, map[string]string{"run_id": "r1"}) })
}

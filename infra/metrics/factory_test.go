package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/core/factory"
	coremetrics "github.com/kilianp07/rideshare/core/metrics"
)

func TestBuiltinSinksRegistered(t *testing.T) {
	assert.Subset(t, coremetrics.SinkTypes(), []string{"nop", "prometheus", "influx"})
}

func TestFactory_PrometheusSink(t *testing.T) {
	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{
		{Type: "prometheus", Conf: map[string]any{"namespace": "factory_test"}},
		{Type: "nop"},
	})
	require.NoError(t, err)
	multi, ok := s.(*coremetrics.MultiSink)
	require.True(t, ok)
	assert.IsType(t, &PromSink{}, multi.Sinks[0])
}

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasflow/canvasflow/config"
)

func TestInit_Disabled(t *testing.T) {
	t.Parallel()

	p, err := Init(config.TelemetryConfig{Enabled: false}, "test", nil)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestShutdown_NilProviders(t *testing.T) {
	t.Parallel()

	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

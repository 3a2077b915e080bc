package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sentinel/internal/config"
)

func TestZapLogger_SetLevel(t *testing.T) {
	log, err := NewZapLogger(&config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, "warn", log.Level())

	child := log.WithComponent("detector")
	require.NotNil(t, child)

	log.SetLevel("debug")
	assert.Equal(t, "debug", log.Level())
	assert.True(t, log.Core().Enabled(-1))

	log.SetLevel("not-a-level")
	assert.Equal(t, "info", log.Level())
}

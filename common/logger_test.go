package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	require.NotNil(t, Logger())
	assert.False(t, Logger().Core().Enabled(zap.ErrorLevel))
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Logger().Info("frame", zap.Int("passes", 3))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "frame", logs.All()[0].Message)

	SetLogger(nil)
	assert.False(t, Logger().Core().Enabled(zap.ErrorLevel))
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}

package simviewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerDebugSwitch(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	l := NewZapLogger(zap.New(core), level)

	l.Debugf("hidden %d", 1)
	assert.False(t, l.DebugEnabled())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)

	l.SetDebug(false)
	l.Warnf("careful")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown 2", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LoggingConfig{Level: "debug", Format: "plain", Prefix: "sv"})
	require.NoError(t, err)
	assert.IsType(t, &DefaultLogger{}, l)
	assert.True(t, l.DebugEnabled())

	l, err = NewLogger(LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)
	assert.False(t, l.DebugEnabled())

	l, err = NewLogger(LoggingConfig{Level: "nonsense", Format: "console"})
	require.NoError(t, err)
	assert.False(t, l.DebugEnabled())
}

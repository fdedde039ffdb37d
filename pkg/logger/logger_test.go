package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("chatty"))
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("test", "warn")
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	console := NewConsoleLogger(true)
	assert.True(t, console.Core().Enabled(zapcore.DebugLevel))
	assert.False(t, NewConsoleLogger(false).Core().Enabled(zapcore.InfoLevel))
}

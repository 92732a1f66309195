package internal

import (
	"testing"

	"github.com/lychee-technology/jsonerd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		cfg   jsonerd.LoggingConfig
		level zapcore.Level
	}{
		{cfg: jsonerd.LoggingConfig{}, level: zapcore.InfoLevel},
		{cfg: jsonerd.LoggingConfig{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{cfg: jsonerd.LoggingConfig{Level: "WARN", Format: "json"}, level: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		logger, err := NewLogger(tt.cfg)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.level), tt.cfg.Level)
		assert.False(t, logger.Core().Enabled(tt.level-1), tt.cfg.Level)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(jsonerd.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

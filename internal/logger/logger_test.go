package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/aliskhannn/spanish-trainer/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "production info", cfg: config.Config{Env: "production", LogLevel: "info"}, enabled: zapcore.InfoLevel},
		{name: "local debug", cfg: config.Config{Env: "local", LogLevel: "debug"}, enabled: zapcore.DebugLevel},
		{name: "bad level", cfg: config.Config{LogLevel: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.enabled-1))
		})
	}
}

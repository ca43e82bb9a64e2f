package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "json", false},
		{"DEBUG", "text", false},
		{"warn", "", false},
		{"error", "console", false},
		{"verbose", "json", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			l, err := New(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l.SugaredLogger)
		})
	}
}

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.With("API_KEY", "bv-v1-abc").Info("authenticated",
		"tenant_id", "t1",
		"hmac_secret", "raw")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, redacted, fields["API_KEY"])
	assert.Equal(t, redacted, fields["hmac_secret"])
	assert.Equal(t, "t1", fields["tenant_id"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Debug("discarded", "k", "v")
	l.Sync()
}

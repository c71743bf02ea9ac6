package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestMinimalEncoder(t *testing.T) {
	enc := newMinimalEncoder()

	t.Run("info lines omit the level marker", func(t *testing.T) {
		entry := zapcore.Entry{
			Level:   zapcore.InfoLevel,
			Time:    time.Date(2025, 3, 1, 13, 4, 35, 0, time.UTC),
			Message: "chains complete",
		}
		buf, err := enc.EncodeEntry(entry, nil)
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "13:04:35")
		assert.Contains(t, out, "chains complete")
		assert.NotContains(t, out, "INFO")
	})

	t.Run("warn lines carry a bold marker", func(t *testing.T) {
		entry := zapcore.Entry{
			Level:   zapcore.WarnLevel,
			Time:    time.Now(),
			Message: "low acceptance rate",
		}
		buf, err := enc.EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "WARN")
	})

	t.Run("numeric fields render as key=value", func(t *testing.T) {
		entry := zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Now(), Message: "sampling"}
		buf, err := enc.EncodeEntry(entry, []zapcore.Field{
			zap.Int("chains", 4),
			zap.Float64("accept", 0.234),
			zap.String("engine", "mcmc"),
		})
		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "chains=")
		assert.Contains(t, out, "4")
		assert.Contains(t, out, "0.234")
		assert.Contains(t, out, "engine=")
	})

	t.Run("component names abbreviate", func(t *testing.T) {
		assert.Equal(t, "i.mcmc", abbreviateName("infer.mcmc"))
		assert.Equal(t, "fitcache", abbreviateName("fitcache"))
	})
}

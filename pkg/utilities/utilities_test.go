package utilities

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Dev)
	assert.Equal(t, "debug", cfg.Level)

	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_LEVEL", "warn")
	cfg = ConfigFromEnv()
	assert.False(t, cfg.Dev)
	assert.Equal(t, "warn", cfg.Level)
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("verbose"))
}

func TestInitWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "auth.log")
	lg, err := Init(Config{Level: "info", File: file})
	require.NoError(t, err)

	lg.Info("hello")
	_ = lg.Sync()

	matches, err := filepath.Glob(file + ".*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestIDSource(t *testing.T) {
	ids := NewIDSource(1)
	a, b := ids.Next(), ids.Next()
	assert.NotEqual(t, a, b)
	_, err := strconv.ParseInt(a, 10, 64)
	assert.NoError(t, err)

	// node numbers above 1023 are invalid, so the source falls back to KSUIDs
	fallback := NewIDSource(5000).Next()
	_, err = ksuid.Parse(fallback)
	assert.NoError(t, err)

	var nilSource *IDSource
	assert.NotEmpty(t, nilSource.Next())
}

func TestSnowflakeNodeFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "")
	assert.Equal(t, int64(1), SnowflakeNodeFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "7")
	assert.Equal(t, int64(7), SnowflakeNodeFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "x")
	assert.Equal(t, int64(1), SnowflakeNodeFromEnv())
}

func TestNewKSUID(t *testing.T) {
	_, err := ksuid.Parse(NewKSUID())
	assert.NoError(t, err)
}

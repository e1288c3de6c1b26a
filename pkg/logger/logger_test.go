package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	return entry
}

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Env: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithCycleID(ctx, 42)
	ctx = log.WithMarketID(ctx, 7)

	log.Error(ctx, "settlement failed", errors.New("boom"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.EqualValues(t, 42, entry["cycle_id"])
	assert.EqualValues(t, 7, entry["market_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "stack")
}

func TestLoggerFieldsDoNotLeakAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf})

	base := log.WithJob(context.Background(), "cycle-phase")
	_ = log.WithFields(base, map[string]any{"advanced": 3})
	log.Info(base, "round done")

	entry := decodeLine(t, buf)
	assert.Equal(t, "cycle-phase", entry["job"])
	assert.NotContains(t, entry, "advanced")
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	assert.Contains(t, decodeLine(t, buf), "stack")

	buf.Reset()
	quiet := New(Options{Output: buf})
	quiet.Warn(context.Background(), "warny")
	assert.NotContains(t, decodeLine(t, buf), "stack")
}

func TestLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Level: ParseLevel("warn"), Output: buf})
	log.Info(context.Background(), "hidden")
	log.Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len(), buf.String())
}

func TestLoggerConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Format: "console", Output: buf})
	log.Info(context.Background(), "cycle opened")
	assert.Contains(t, buf.String(), "cycle opened")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

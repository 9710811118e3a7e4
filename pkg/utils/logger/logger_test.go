package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContextFieldsReachOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "app.log")
	errOut := filepath.Join(dir, "err.log")

	l, err := New(Config{Level: "debug", Format: "json", OutputPath: out, ErrorPath: errOut, Service: "interview-service"})
	require.NoError(t, err)
	global.Store(l)
	t.Cleanup(func() { global.Store(nil) })

	ctx := ContextWithUser(ContextWithTrace(context.Background(), "trace-1", "req-1"), 42)
	require.Equal(t, "trace-1", TraceID(ctx))

	Info(ctx, "interview started", zap.Int64("interview_id", 7))
	Error(ctx, "report failed")
	require.NoError(t, Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "interview started", entry["msg"])
	require.Equal(t, "trace-1", entry["trace_id"])
	require.Equal(t, "req-1", entry["request_id"])
	require.EqualValues(t, 42, entry["user_id"])
	require.EqualValues(t, 7, entry["interview_id"])
	require.Equal(t, "interview-service", entry["service"])

	errData, err := os.ReadFile(errOut)
	require.NoError(t, err)
	require.Contains(t, string(errData), "report failed")
	require.NotContains(t, string(errData), "interview started")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestNoLoggerIsNoop(t *testing.T) {
	global.Store(nil)
	Warn(context.Background(), "dropped")
	require.NoError(t, Sync())
	require.Empty(t, TraceID(context.Background()))
}

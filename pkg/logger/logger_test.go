package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	assert.NotNil(t, logger)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)

	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	entry := logrus.NewEntry(logrus.New()).WithField("component", "registry")

	ctx = WithLogger(ctx, entry)
	got := GetLogger(ctx)

	assert.Equal(t, entry.Logger, got.Logger)
	assert.Equal(t, "registry", got.Data["component"])
}

func TestGetLoggerFallsBackToGlobal(t *testing.T) {
	ctx := context.Background()
	got := GetLogger(ctx)

	assert.Equal(t, L.Logger, got.Logger)
	assert.Equal(t, ctx, got.Context)
}

func TestSetLogLevel(t *testing.T) {
	defer func() { require.NoError(t, SetLogLevel("info")) }()

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("not-a-level"))
}

func TestSetLogFormatJSON(t *testing.T) {
	defer SetLogFormat("fmt")

	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)
	SetLogFormat("json")

	L.Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["message"])
	assert.Contains(t, record, "timestamp")
	assert.Contains(t, record, "logLevel")
}

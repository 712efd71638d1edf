package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.NotNil(t, logger.zap)
	assert.Equal(t, cfg, logger.config)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{
		zap:    zap.New(core),
		config: NewDefaultConfig(),
	}

	ctx := context.Background()

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
		message string
	}{
		{
			name:    "trace",
			logFunc: func() { logger.Trace(ctx, "trace message", zap.String("key", "val")) },
			level:   TraceLevel,
			message: "trace message",
		},
		{
			name:    "debug",
			logFunc: func() { logger.Debug(ctx, "debug message", zap.String("key", "val")) },
			level:   zapcore.DebugLevel,
			message: "debug message",
		},
		{
			name:    "info",
			logFunc: func() { logger.Info(ctx, "info message", zap.String("key", "val")) },
			level:   zapcore.InfoLevel,
			message: "info message",
		},
		{
			name:    "warn",
			logFunc: func() { logger.Warn(ctx, "warn message", zap.String("key", "val")) },
			level:   zapcore.WarnLevel,
			message: "warn message",
		},
		{
			name:    "error",
			logFunc: func() { logger.Error(ctx, "error message", zap.String("key", "val")) },
			level:   zapcore.ErrorLevel,
			message: "error message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.logFunc()

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, tt.message, logs[0].Message)
		})
	}
}

func TestLogger_WriterOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Caller.Enabled = false

	logger, err := NewLoggerWithWriter(cfg, &buf)
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req_1")
	logger.Info(ctx, "ranked", zap.Int("sections", 5))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ranked", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "req_1", entry["request.id"])
	assert.Equal(t, "personarank", entry["service"])
	assert.EqualValues(t, 5, entry["sections"])
}

func TestLogger_TraceLevelEncoding(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = TraceLevel
	cfg.Caller.Enabled = false

	logger, err := NewLoggerWithWriter(cfg, &buf)
	require.NoError(t, err)

	logger.Trace(context.Background(), "score breakdown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace", entry["level"])
}

func TestLogger_Children(t *testing.T) {
	tl := NewTestLogger()
	child := tl.Named("ranking").With(zap.String("stage", "rerank"))

	child.Info(context.Background(), "stage done")

	entries := tl.FilterMessage("stage done").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ranking", entries[0].LoggerName)
	tl.AssertField(t, "stage done", "stage", "rerank")
}

func TestFromContext(t *testing.T) {
	t.Run("missing logger returns nop", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		l.Info(context.Background(), "dropped")
	})

	t.Run("stored logger is returned", func(t *testing.T) {
		tl := NewTestLogger()
		ctx := WithLogger(context.Background(), tl.Logger)
		FromContext(ctx).Warn(ctx, "stored")
		tl.AssertLogged(t, zapcore.WarnLevel, "stored")
	})
}

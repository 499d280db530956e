package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/afcpln/listingnet/internal/logger"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), "", "test", logger.Discard())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_InstallsSDKProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	beforeLogs := global.GetLoggerProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(before)
		global.SetLoggerProvider(beforeLogs)
	})

	shutdown, err := Setup(context.Background(), "http://127.0.0.1:4317", "test", logger.Discard())
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	_, ok = global.GetLoggerProvider().(*sdklog.LoggerProvider)
	assert.True(t, ok)
	assert.True(t, LogHandler().Enabled(context.Background(), slog.LevelInfo))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

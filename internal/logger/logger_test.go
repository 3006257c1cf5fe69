package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	require.Equal(t, EnvDev, DetectEnv())

	t.Setenv("APP_ENV", "staging")
	require.Equal(t, EnvStage, DetectEnv())

	t.Setenv("APP_ENV", "production")
	require.Equal(t, EnvProd, DetectEnv())
}

func TestParseEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	require.Equal(t, EnvProd, ParseEnv(""))
	require.Equal(t, EnvStage, ParseEnv("stage"))
	require.Equal(t, EnvDev, ParseEnv("local"))
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Service: "demo",
		Version: "v0.0.1",
		Env:     EnvDev,
		Level:   slog.LevelDebug,
		Output:  &buf,
	})

	slog.Info("hello world")

	out := buf.String()
	require.NotContains(t, out, "{")
	require.Contains(t, out, "hello world")
	require.Contains(t, out, "service=demo")
	require.Contains(t, out, "env=dev")
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              EnvProd,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})

	slog.Info("booted", slog.String("k", "v"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	require.Equal(t, "booted", m["msg"])
	require.Equal(t, "demo", m["service"])
	require.Equal(t, "prod", m["env"])
	require.Equal(t, "1.2.3", m["version"])
	require.Equal(t, "INFO", m["level"])
	require.Equal(t, "v", m["k"])
}

func TestFromContext_PropagatesTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Service:          "demo",
		Env:              EnvProd,
		Backend:          BackendZap,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03},
		SpanID:     trace.SpanID{0x04, 0x05},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	FromContext(ctx).InfoContext(ctx, "with trace")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	require.Equal(t, sc.TraceID().String(), m["trace_id"])
	require.Equal(t, sc.SpanID().String(), m["span_id"])
	require.Equal(t, "with trace", m["msg"])
}

func TestFromContext_UsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil)).With("req_id", "abc")

	FromContext(WithContext(context.Background(), l)).Info("scoped")

	require.Contains(t, buf.String(), "req_id=abc")
	require.Contains(t, buf.String(), "scoped")
}

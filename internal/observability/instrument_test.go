package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  minsev.Severity
	}{
		{level: slog.LevelDebug, want: minsev.SeverityDebug},
		{level: slog.LevelInfo, want: minsev.SeverityInfo},
		{level: slog.LevelWarn, want: minsev.SeverityWarn},
		{level: slog.LevelError, want: minsev.SeverityError},
	}

	for _, tt := range tests {
		if got := severityFor(tt.level); got != tt.want {
			t.Errorf("severityFor(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestInstrumentFormats(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	for _, format := range []string{"text", "json", "otel"} {
		shutdown, err := Instrument(context.Background(), slog.LevelInfo, format, Exporter{})
		if err != nil {
			t.Fatalf("instrument %s: %v", format, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown %s: %v", format, err)
		}
	}

	if _, err := Instrument(context.Background(), slog.LevelInfo, "xml", Exporter{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestInstrumentOTelRemoteFailureCreatesNothing(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	previousConsole := newConsoleExporter
	t.Cleanup(func() { newConsoleExporter = previousConsole })

	created := 0
	newConsoleExporter = func() (sdklog.Exporter, error) {
		created++
		return stdoutlog.New(stdoutlog.WithWriter(io.Discard))
	}

	_, err := Instrument(context.Background(), slog.LevelInfo, "otel", Exporter{
		Endpoint: "http://127.0.0.1:4318",
		Protocol: "udp",
	})
	if err == nil {
		t.Fatal("expected error for unsupported OTLP protocol")
	}
	if created != 0 {
		t.Fatalf("console exporter created %d times before the remote exporter failed", created)
	}
	if slog.Default() != previous {
		t.Fatal("default logger replaced despite the error")
	}
}

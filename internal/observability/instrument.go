// Package observability configures process-wide logging.
//
// Formats "text" and "json" write slog records to stderr. Format "otel" routes
// slog through the OpenTelemetry log SDK, printing records to stderr and, when an
// OTLP endpoint is configured, exporting them to a collector. Stdout stays free
// for command output.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/moosedb/moose"

// OTLP protocols accepted by Exporter.Protocol.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Exporter describes an optional OTLP log destination.
type Exporter struct {
	Endpoint string
	Protocol string
}

// ShutdownFunc flushes and stops the logging pipeline.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and the W3C trace context propagator.
// The returned ShutdownFunc must be called before the process exits.
func Instrument(ctx context.Context, level slog.Level, format string, exp Exporter) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text", "":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return noopShutdown, nil
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
		return noopShutdown, nil
	case "otel":
		return instrumentOTel(ctx, level, exp)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// newConsoleExporter prints OpenTelemetry log records to stderr.
var newConsoleExporter = func() (sdklog.Exporter, error) {
	return stdoutlog.New(stdoutlog.WithWriter(os.Stderr))
}

func instrumentOTel(ctx context.Context, level slog.Level, exp Exporter) (ShutdownFunc, error) {
	// The remote exporter is created first; a failure then leaves nothing to clean up.
	var remote sdklog.Exporter
	if exp.Endpoint != "" {
		var err error
		if remote, err = newOTLPExporter(ctx, exp); err != nil {
			return nil, err
		}
	}

	console, err := newConsoleExporter()
	if err != nil {
		if remote != nil {
			err = errors.Join(err, remote.Shutdown(ctx))
		}
		return nil, fmt.Errorf("creating console log exporter: %w", err)
	}

	severity := severityFor(level)
	providerOpts := []sdklog.LoggerProviderOption{
		sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewSimpleProcessor(console), severity)),
	}
	if remote != nil {
		providerOpts = append(providerOpts,
			sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewBatchProcessor(remote), severity)),
		)
	}

	provider := sdklog.NewLoggerProvider(providerOpts...)
	global.SetLoggerProvider(provider)
	slog.SetDefault(slog.New(otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))))

	return func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}, nil
}

func newOTLPExporter(ctx context.Context, exp Exporter) (sdklog.Exporter, error) {
	switch exp.Protocol {
	case ProtocolGRPC:
		e, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpointURL(exp.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating OTLP gRPC log exporter: %w", err)
		}
		return e, nil
	case ProtocolHTTP, "":
		e, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(exp.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating OTLP HTTP log exporter: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", exp.Protocol)
	}
}

// severityFor maps a slog level onto the OpenTelemetry severity filter.
func severityFor(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

func noopShutdown(context.Context) error { return nil }

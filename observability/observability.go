package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

type Observability struct {
	mp       metric.MeterProvider
	log      *slog.Logger
	shutdown []func(ctx context.Context) error
}

/*
New creates the observability implementation used by the engine: logger is
mandatory, metrics selects the metric exporter ("stdout" or empty for
disabled).
*/
func New(metrics string, log *slog.Logger) (*Observability, error) {
	obs := &Observability{
		mp:  noop.NewMeterProvider(),
		log: log,
	}

	switch metrics {
	case "":
	case "stdout":
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("creating stdout metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("tokengate"))),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		)
		obs.mp = mp
		obs.shutdown = append(obs.shutdown, mp.Shutdown)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter %q", metrics)
	}

	return obs, nil
}

// NOP creates observability implementation where everything is no-op.
func NOP() *Observability {
	return &Observability{
		mp:  noop.NewMeterProvider(),
		log: slog.New(discardHandler{}),
	}
}

func (o *Observability) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return o.mp.Meter(name, opts...)
}

func (o *Observability) Logger() *slog.Logger { return o.log }

func (o *Observability) Shutdown() (err error) {
	ctx := context.Background()
	for _, f := range o.shutdown {
		if e := f(ctx); e != nil {
			err = e
		}
	}
	return err
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

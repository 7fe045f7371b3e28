package observability

import (
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	testlogger "github.com/tokengate-org/tokengate/internal/testutils/logger"
)

type Observability struct {
	mp  metric.MeterProvider
	log *slog.Logger
}

/*
NOP creates observability implementation where everything is no-op.
Use it for tests for which it absolutely doesn't make sense to create
any logs or metrics.
*/
func NOP() *Observability {
	return &Observability{
		mp:  noop.NewMeterProvider(),
		log: testlogger.NOP(),
	}
}

// Default creates observability for test t: logs via t.Log, no-op metrics.
func Default(t testing.TB) *Observability {
	return &Observability{
		mp:  noop.NewMeterProvider(),
		log: testlogger.New(t),
	}
}

func (o *Observability) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return o.mp.Meter(name, opts...)
}

func (o *Observability) Logger() *slog.Logger { return o.log }

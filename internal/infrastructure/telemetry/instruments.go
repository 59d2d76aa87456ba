package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when instruments are requested from a nil meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Counter is an int64 counter taking attributes as varargs
type Counter struct{ c metric.Int64Counter }

func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.c.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) { c.Add(ctx, 1, attrs...) }

// Histogram records float64 values, durations in seconds
type Histogram struct{ h metric.Float64Histogram }

func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.h.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// InstrumentSet creates several instruments on one meter and keeps the first failure,
// so callers check a single error after declaring everything.
type InstrumentSet struct {
	meter metric.Meter
	err   error
}

func Instruments(meter metric.Meter) *InstrumentSet {
	s := &InstrumentSet{meter: meter}
	if meter == nil {
		s.err = ErrMeterNil
	}
	return s
}

func (s *InstrumentSet) Err() error { return s.err }

func (s *InstrumentSet) Counter(name, description, unit string) *Counter {
	if s.err != nil {
		return nil
	}
	c, err := s.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		s.err = fmt.Errorf("counter %s: %w", name, err)
		return nil
	}
	return &Counter{c: c}
}

// Histogram uses the SDK default buckets when none are given
func (s *InstrumentSet) Histogram(name, description, unit string, buckets ...float64) *Histogram {
	if s.err != nil {
		return nil
	}
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := s.meter.Float64Histogram(name, opts...)
	if err != nil {
		s.err = fmt.Errorf("histogram %s: %w", name, err)
		return nil
	}
	return &Histogram{h: h}
}

var (
	AttrMovementType = attribute.Key("movement_type")
	AttrOutcome      = attribute.Key("outcome")
	AttrStrategy     = attribute.Key("strategy")
	AttrDryRun       = attribute.Key("dry_run")
)

// BatchDurationBuckets suit jobs taking from a tenth of a second to minutes
var BatchDurationBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300}

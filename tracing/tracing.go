package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/bsv-blockchain/teranode-blockstore/ulogger"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bsv-blockchain/teranode-blockstore"

type Options func(s *TraceOptions)

type TraceOptions struct {
	ParentStat *gocore.Stat
	Histogram  prometheus.Observer
	Counter    prometheus.Counter
	Logger     ulogger.Logger
	LogMessage string
	LogArgs    []interface{}
	Tags       []attribute.KeyValue
}

func WithParentStat(stat *gocore.Stat) Options {
	return func(s *TraceOptions) {
		s.ParentStat = stat
	}
}

// WithHistogram sets the prometheus histogram to be observed when the span is finished.
func WithHistogram(histogram prometheus.Observer) Options {
	return func(s *TraceOptions) {
		s.Histogram = histogram
	}
}

// WithCounter sets the prometheus counter to be incremented when the span is finished.
func WithCounter(counter prometheus.Counter) Options {
	return func(s *TraceOptions) {
		s.Counter = counter
	}
}

// WithTag adds a string attribute to the span.
func WithTag(key, value string) Options {
	return func(s *TraceOptions) {
		s.Tags = append(s.Tags, attribute.String(key, value))
	}
}

// WithLogMessage sets the logger and log message to be used when starting the span and when the span is finished.
// The message is logged at DEBUG level, store calls are far too frequent for INFO.
func WithLogMessage(logger ulogger.Logger, format string, args ...interface{}) Options {
	return func(s *TraceOptions) {
		s.Logger = logger
		s.LogMessage = format
		s.LogArgs = args
	}
}

// StartTracing starts a new span with the given name and returns a context with the span, the gocore stat
// for the call and a function to finish both.
func StartTracing(ctx context.Context, name string, setOptions ...Options) (context.Context, *gocore.Stat, func()) {
	options := &TraceOptions{}
	for _, opt := range setOptions {
		opt(options)
	}

	spanCtx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(options.Tags...))

	var stat *gocore.Stat
	if options.ParentStat != nil {
		stat, spanCtx = NewStatFromContext(spanCtx, name, options.ParentStat)
	} else {
		stat, spanCtx = StartStatFromContext(spanCtx, name)
	}

	start := gocore.CurrentTime()

	if options.Logger != nil && options.LogMessage != "" {
		options.Logger.Debugf(options.LogMessage, options.LogArgs...)
	}

	return spanCtx, stat, func() {
		span.End()
		stat.AddTime(start)

		if options.Histogram != nil {
			options.Histogram.Observe(float64(time.Since(start).Microseconds()) / 1_000_000)
		}

		if options.Counter != nil {
			options.Counter.Inc()
		}

		if options.Logger != nil && options.LogMessage != "" {
			done := fmt.Sprintf(" DONE in %s", time.Since(start))
			options.Logger.Debugf(options.LogMessage+done, options.LogArgs...)
		}
	}
}

// RecordError marks the span held by ctx as failed. It is a no-op for a nil error.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

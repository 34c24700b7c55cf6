package sql

import (
	"context"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

// sqlError classifies a driver error and wraps it with message. Driver error types never leave
// this package.
func (s *Store) sqlError(err error, message string, params ...interface{}) error {
	if err == nil {
		return nil
	}

	var tErr *errors.Error
	if errors.As(err, &tErr) {
		return err
	}

	params = append(params, err)

	switch {
	case errors.Is(err, context.Canceled):
		return errors.NewContextCanceledError(message, params...)
	case errors.Is(err, context.DeadlineExceeded), s.dialect.IsUnavailableError(err):
		return errors.NewStorageUnavailableError(message, params...)
	case s.dialect.IsCorruptionError(err):
		return errors.NewStorageCorruptionError(message, params...)
	default:
		return errors.NewStorageError(message, params...)
	}
}

// startOperation opens a span for op and returns the function that finishes it. The finish
// function records *errp, if any, on the span and in the error counter.
func (s *Store) startOperation(ctx context.Context, op string, errp *error, counter prometheus.Counter) (context.Context, func()) {
	opts := []tracing.Options{
		tracing.WithHistogram(prometheusBlockStoreDuration.WithLabelValues(op)),
		tracing.WithTag("engine", string(s.engine)),
	}

	if counter != nil {
		opts = append(opts, tracing.WithCounter(counter))
	}

	ctx, _, deferFn := tracing.StartTracing(ctx, "blockstore:sql:"+op, opts...)

	return ctx, func() {
		if *errp != nil {
			tracing.RecordError(ctx, *errp)
			prometheusBlockStoreErrors.WithLabelValues(op, errorCode(*errp)).Inc()
		}

		deferFn()
	}
}

// withTimeout bounds a single store operation by the configured database timeout.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}

func errorCode(err error) string {
	var tErr *errors.Error
	if errors.As(err, &tErr) {
		return tErr.Code().String()
	}

	return errors.ERR_UNKNOWN.String()
}

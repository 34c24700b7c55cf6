// Package ulogger is the logging facade used by the block stores and the CLI. Two backends are
// available: zerolog (default) and the gocore logger.
package ulogger

type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
	Duplicate(options ...Option) Logger
}

const defaultService = "blockstore"

// New returns a logger for service using the backend selected by WithLoggerType.
func New(service string, options ...Option) Logger {
	opts := applyOptions(options)

	if opts.loggerType == "gocore" {
		return NewGoCoreLogger(service, options...)
	}

	return NewZeroLogger(service, options...)
}

func applyOptions(options []Option) *Options {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return opts
}

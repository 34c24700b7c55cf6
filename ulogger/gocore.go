package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger adapts a gocore logger. Its level is fixed when it is created.
type GoCoreLogger struct {
	*gocore.Logger
	service   string
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = defaultService
	}

	opts := applyOptions(options)

	return &GoCoreLogger{
		Logger:    gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)),
		service:   service,
		skipFrame: opts.skip,
	}
}

// New returns a logger for another service at this logger's level, unless WithLevel overrides it.
func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	level := g.Logger.GetLogLevel()

	opts := applyOptions(options)
	if opts.logLevel != DefaultOptions().logLevel {
		level = gocore.NewLogLevelFromString(opts.logLevel)
	}

	return &GoCoreLogger{
		Logger:    gocore.Log(service, level),
		service:   service,
		skipFrame: opts.skip,
	}
}

// Duplicate shares the underlying gocore logger. A level option creates a fresh one for the same
// service instead.
func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	opts := applyOptions(options)

	d := &GoCoreLogger{Logger: g.Logger, service: g.service, skipFrame: g.skipFrame}

	if opts.logLevel != DefaultOptions().logLevel {
		d.Logger = gocore.Log(g.service, gocore.NewLogLevelFromString(opts.logLevel))
	}

	if opts.skip != 0 {
		d.skipFrame = opts.skip
	}

	return d
}

// SetLogLevel is a no-op, gocore loggers take their level at creation.
func (g *GoCoreLogger) SetLogLevel(_ string) {}

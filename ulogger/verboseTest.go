package ulogger

import (
	"strings"
	"sync"
	"testing"

	"github.com/ordishs/gocore"
)

var levelRank = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
	"FATAL": 4,
}

// VerboseTestLogger writes log lines to the test log, so they are shown only for failing tests
// or with go test -v. Lines below the configured level are dropped.
type VerboseTestLogger struct {
	tb      testing.TB
	service string
	mu      sync.Mutex
	level   string
}

func NewVerboseTestLogger(tb testing.TB, options ...Option) *VerboseTestLogger {
	opts := DefaultOptions()
	opts.logLevel = "DEBUG"

	for _, o := range options {
		o(opts)
	}

	l := &VerboseTestLogger{tb: tb, service: defaultService}
	l.SetLogLevel(opts.logLevel)

	return l
}

func (l *VerboseTestLogger) LogLevel() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return int(gocore.NewLogLevelFromString(l.level))
}

// SetLogLevel falls back to DEBUG for unknown level names.
func (l *VerboseTestLogger) SetLogLevel(level string) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if _, ok := levelRank[level]; !ok {
		level = "DEBUG"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = level
}

func (l *VerboseTestLogger) New(service string, options ...Option) Logger {
	opts := applyOptions(options)

	l.mu.Lock()
	child := &VerboseTestLogger{tb: l.tb, service: service, level: l.level}
	l.mu.Unlock()

	if opts.logLevel != DefaultOptions().logLevel {
		child.SetLogLevel(opts.logLevel)
	}

	return child
}

func (l *VerboseTestLogger) Duplicate(options ...Option) Logger {
	return l.New(l.service, options...)
}

func (l *VerboseTestLogger) Debugf(format string, args ...interface{}) {
	l.logf("DEBUG", format, args...)
}

func (l *VerboseTestLogger) Infof(format string, args ...interface{}) {
	l.logf("INFO", format, args...)
}

func (l *VerboseTestLogger) Warnf(format string, args ...interface{}) {
	l.logf("WARN", format, args...)
}

func (l *VerboseTestLogger) Errorf(format string, args ...interface{}) {
	l.logf("ERROR", format, args...)
}

func (l *VerboseTestLogger) Fatalf(format string, args ...interface{}) {
	l.tb.Helper()
	l.tb.Fatalf("[FATAL] ["+l.service+"] "+format, args...)
}

func (l *VerboseTestLogger) logf(level string, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelRank[level] < levelRank[l.level] {
		return
	}

	l.tb.Helper()
	l.tb.Logf("["+level+"] ["+l.service+"] "+format, args...)
}

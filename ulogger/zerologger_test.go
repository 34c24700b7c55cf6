package ulogger

import (
	"bytes"
	"testing"

	"github.com/ordishs/gocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLogger_Levels(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := NewZeroLogger("blockstore", WithWriter(buf), WithLevel("WARN"))
	assert.Equal(t, int(gocore.WARN), logger.LogLevel())

	logger.Infof("hidden %d", 1)
	assert.NotContains(t, buf.String(), "hidden 1")

	logger.Warnf("visible %d", 2)
	assert.Contains(t, buf.String(), "visible 2")

	logger.SetLogLevel("debug")
	assert.Equal(t, int(gocore.DEBUG), logger.LogLevel())

	logger.Debugf("now shown")
	assert.Contains(t, buf.String(), "now shown")
}

func TestZeroLogger_NewInheritsWriterAndLevel(t *testing.T) {
	buf := &bytes.Buffer{}

	parent := NewZeroLogger("parent", WithWriter(buf), WithLevel("ERROR"))
	child := parent.New("child")

	require.Equal(t, int(gocore.ERROR), child.LogLevel())

	child.Warnf("dropped")
	child.Errorf("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestZeroLogger_Duplicate(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := NewZeroLogger("blockstore", WithWriter(buf), WithLevel("INFO"))
	dup := logger.Duplicate(WithLevel("DEBUG"))

	assert.Equal(t, int(gocore.DEBUG), dup.LogLevel())
	assert.Equal(t, int(gocore.INFO), logger.LogLevel())
}

func TestNew_DefaultsToZerolog(t *testing.T) {
	logger := New("blockstore", WithWriter(&bytes.Buffer{}))

	_, ok := logger.(*ZLoggerWrapper)
	assert.True(t, ok)
}

func TestTestLogger(t *testing.T) {
	var logger Logger = TestLogger{}

	logger.Infof("nothing %s", "happens")
	assert.Equal(t, logger, logger.New("other"))
	assert.Equal(t, 0, logger.LogLevel())
}

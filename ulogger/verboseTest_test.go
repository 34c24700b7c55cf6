package ulogger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Logf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestVerboseTestLogger(t *testing.T) {
	tb := &recordingTB{TB: t}

	logger := NewVerboseTestLogger(tb, WithLevel("WARN"))
	logger.Infof("dropped %d", 1)
	logger.Warnf("kept %d", 2)

	require.Len(t, tb.lines, 1)
	assert.Equal(t, "[WARN] [blockstore] kept 2", tb.lines[0])

	child := logger.New("sql", WithLevel("DEBUG"))
	child.Debugf("from child")

	require.Len(t, tb.lines, 2)
	assert.Equal(t, "[DEBUG] [sql] from child", tb.lines[1])

	// the parent keeps its own level
	logger.Debugf("still dropped")
	assert.Len(t, tb.lines, 2)

	logger.SetLogLevel("nonsense")
	logger.Debugf("shown at the fallback level")
	assert.Len(t, tb.lines, 3)
}

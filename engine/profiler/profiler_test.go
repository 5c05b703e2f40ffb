package profiler

import (
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLogsAtInterval(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	p := NewProfiler(logger)
	assert.False(t, p.Tick())
	assert.Empty(t, hook.AllEntries())

	p.SetInterval(0)
	p.Observe(300 * time.Microsecond)
	p.Observe(100 * time.Microsecond)
	require.True(t, p.Tick())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "frame stats", entry.Message)
	// two frames share the observed 400µs
	assert.Equal(t, int64(200), entry.Data["update_us"])
	assert.Contains(t, entry.Data, "heap_mb")
}

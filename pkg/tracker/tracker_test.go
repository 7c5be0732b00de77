package tracker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_FirstSightingOnly(t *testing.T) {
	tr := New()

	assert.True(t, tr.Observe("agent-A"))
	assert.False(t, tr.Observe("agent-A"))
	assert.True(t, tr.Observe("agent-B"))
}

func TestObserve_ConcurrentFirstSighting(t *testing.T) {
	tr := New()

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Observe("agent-A") {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), firsts.Load(), "exactly one caller sees the first sighting")
}

func TestReset(t *testing.T) {
	tr := New()
	tr.Observe("agent-A")
	tr.Observe("agent-B")

	tr.Reset()

	assert.Equal(t, Status{Count: 0, IDs: []string{}}, tr.Snapshot())
	assert.True(t, tr.Observe("agent-A"), "reset forgets prior sightings")
}

func TestSnapshot_SortedIDs(t *testing.T) {
	tr := New()
	tr.Observe("agent-C")
	tr.Observe("agent-A")
	tr.Observe("agent-B")

	status := tr.Snapshot()
	require.Equal(t, 3, status.Count)
	assert.Equal(t, []string{"agent-A", "agent-B", "agent-C"}, status.IDs)
}

package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retrieveCount(m *mockDetectionSource) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retrieveCalls
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	source := &mockDetectionSource{}
	runner := NewRunner(source, newMockBinStore(), newMockWatermarkStore(), fastRunParameter())
	scheduler := NewScheduler(20*time.Millisecond, runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- scheduler.Start(ctx)
	}()

	// Wait for the initial catch-up run plus at least one tick.
	deadline := time.Now().Add(2 * time.Second)
	for retrieveCount(source) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.GreaterOrEqual(t, retrieveCount(source), 2)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	// The shutdown path performs one final pass.
	assert.GreaterOrEqual(t, retrieveCount(source), 3)
}

func TestNewScheduler_RequiresRunner(t *testing.T) {
	require.Panics(t, func() { NewScheduler(time.Minute, nil) })
}

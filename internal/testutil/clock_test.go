package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameClock_StartsAtStart(t *testing.T) {
	clock := NewFrameClock(2, 10)
	assert.Equal(t, float32(2), clock.Next())
	assert.Equal(t, int64(1), clock.Frame())
}

func TestFrameClock_NoDrift(t *testing.T) {
	clock := NewFrameClock(0, 30)
	var last float32
	for i := 0; i < 301; i++ {
		last = clock.Next()
	}
	assert.Equal(t, float32(10), last, "frame 300 at 30fps is exactly 10s")
}

func TestFrameClock_Reset(t *testing.T) {
	clock := NewFrameClock(1, 4)
	clock.Next()
	clock.Next()
	assert.Equal(t, float32(1.5), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Frame())
	assert.Equal(t, float32(1), clock.Next())
}

func TestFrameClock_PanicsOnBadRate(t *testing.T) {
	assert.Panics(t, func() { NewFrameClock(0, 0) })
}

func TestFrameClock_ThreadSafe(t *testing.T) {
	clock := NewFrameClock(0, 100)
	const goroutines = 20
	const calls = 50

	var wg sync.WaitGroup
	seen := make(chan float32, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seen <- clock.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[float32]bool)
	for v := range seen {
		unique[v] = true
	}
	require.Len(t, unique, goroutines*calls, "every frame handed out once")
	assert.Equal(t, int64(goroutines*calls), clock.Frame())
}

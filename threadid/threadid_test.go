package threadid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPublicAPIRoundTrip exercises the package-level singleton end to
// end. SetCapacity is one-shot for the whole process, so this is
// deliberately the only test in this package that calls it.
func TestPublicAPIRoundTrip(t *testing.T) {
	SetCapacity(16)
	require.Equal(t, uint32(16), Capacity())

	const n = 16
	var wg, recorded sync.WaitGroup
	seen := make(chan uint32, n)
	done := make(chan struct{})
	wg.Add(n)
	recorded.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			defer Release()
			seen <- Self()
			recorded.Done()
			<-done // stay live until every goroutine holds an index
		}()
	}
	recorded.Wait()
	close(done)
	wg.Wait()
	close(seen)

	set := make(map[uint32]struct{})
	for idx := range seen {
		require.Less(t, idx, uint32(n))
		set[idx] = struct{}{}
	}
	require.Len(t, set, n)
}

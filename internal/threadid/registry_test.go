package threadid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/bravolock/internal/fatalerr"
)

func newTestRegistry() *Registry {
	return NewRegistry(fatalerr.NewTesting(zap.NewNop()))
}

func TestSelfCachesPerGoroutine(t *testing.T) {
	r := newTestRegistry()
	r.SetCapacity(8)

	first := r.Self()
	second := r.Self()
	require.Equal(t, first, second, "repeated Self() calls on the same goroutine must return the same index")
}

func TestSetCapacityTwiceFatal(t *testing.T) {
	r := newTestRegistry()
	r.SetCapacity(4)

	var v *fatalerr.Violation
	func() {
		defer func() {
			v, _ = recover().(*fatalerr.Violation)
		}()
		r.SetCapacity(4)
	}()
	require.NotNil(t, v)
}

func TestSetCapacityAfterSelfFatal(t *testing.T) {
	r := newTestRegistry()
	r.Self() // lazily inits with DefaultCapacity and marks selfCalled

	var v *fatalerr.Violation
	func() {
		defer func() {
			v, _ = recover().(*fatalerr.Violation)
		}()
		r.SetCapacity(4)
	}()
	require.NotNil(t, v)
}

func TestSetCapacityZeroFatal(t *testing.T) {
	r := newTestRegistry()
	require.Panics(t, func() {
		r.SetCapacity(0)
	})
}

func TestCapacityDefaultsTo256(t *testing.T) {
	r := newTestRegistry()
	require.Equal(t, uint32(DefaultCapacity), r.Capacity())
}

// TestDenseIndexUniquenessAndRecycling is spec.md section 8 scenario 6:
// N goroutines each get a distinct index in [0, capacity); after they
// exit (and Release), a fresh batch of goroutines again gets a full,
// distinct set of indices (some recycled).
func TestDenseIndexUniquenessAndRecycling(t *testing.T) {
	const capacity = 8
	r := newTestRegistry()
	r.SetCapacity(capacity)

	collect := func() []uint32 {
		var mu sync.Mutex
		seen := make([]uint32, 0, capacity)
		var wg, recorded sync.WaitGroup
		start := make(chan struct{})
		done := make(chan struct{})
		wg.Add(capacity)
		recorded.Add(capacity)
		for i := 0; i < capacity; i++ {
			go func() {
				defer wg.Done()
				defer r.Release()
				<-start
				idx := r.Self()
				mu.Lock()
				seen = append(seen, idx)
				mu.Unlock()
				recorded.Done()
				<-done // stay live until every goroutine holds an index
			}()
		}
		close(start)
		recorded.Wait()
		close(done)
		wg.Wait()
		return seen
	}

	assertDistinctInRange := func(seen []uint32) {
		require.Len(t, seen, capacity)
		set := make(map[uint32]struct{}, capacity)
		for _, idx := range seen {
			require.Less(t, idx, uint32(capacity))
			set[idx] = struct{}{}
		}
		require.Len(t, set, capacity, "all indices must be distinct")
	}

	assertDistinctInRange(collect())
	assertDistinctInRange(collect())
}

// TestAllocationOverflowIsFatal spawns capacity goroutines that hold their
// index (never releasing), then a further goroutine whose Self() call
// must observe the pool exhausted.
func TestAllocationOverflowIsFatal(t *testing.T) {
	const capacity = 4
	r := newTestRegistry()
	r.SetCapacity(capacity)

	var g errgroup.Group
	holder := make(chan struct{})
	release := make(chan struct{})
	for i := 0; i < capacity; i++ {
		g.Go(func() error {
			r.Self()
			holder <- struct{}{}
			<-release
			return nil
		})
	}
	for i := 0; i < capacity; i++ {
		<-holder
	}

	var v *fatalerr.Violation
	func() {
		defer func() {
			v, _ = recover().(*fatalerr.Violation)
		}()
		r.Self()
	}()
	require.NotNil(t, v, "allocating beyond capacity must be a fatal contract violation")

	close(release)
	require.NoError(t, g.Wait())
}

func TestReleaseWithoutSelfIsNoop(t *testing.T) {
	r := newTestRegistry()
	r.SetCapacity(4)
	require.NotPanics(t, r.Release)
}

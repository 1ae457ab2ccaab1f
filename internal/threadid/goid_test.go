package threadid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGID(t *testing.T) {
	cases := []struct {
		name string
		buf  string
		want int64
	}{
		{"well formed", "goroutine 17 [running]:\nmain.main()\n", 17},
		{"multi digit", "goroutine 123456 [chan receive]:\n", 123456},
		{"missing prefix", "not a stack trace at all", 0},
		{"empty", "", 0},
		{"prefix with no digits", "goroutine [running]:\n", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseGID([]byte(tc.buf)))
		})
	}
}

func TestGoroutineIDIsStableWithinAGoroutineAndDistinctAcrossGoroutines(t *testing.T) {
	first := goroutineID()
	second := goroutineID()
	require.Equal(t, first, second, "calling from the same goroutine twice must agree")

	const n = 8
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ids <- goroutineID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]struct{}{first: {}}
	for id := range ids {
		require.NotZero(t, id)
		_, dup := seen[id]
		require.False(t, dup, "two goroutines reported the same id")
		seen[id] = struct{}{}
	}
}

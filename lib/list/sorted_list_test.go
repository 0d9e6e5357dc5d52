package list

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/lib/xlog"
	"github.com/benz9527/xcoll/observability"
)

type validator interface {
	Validate() error
}

type sortedList interface {
	infra.Sorted[int]
	validator
}

func newObservedRecorder(component string) (observability.OpsRecorder, *observer.ObservedLogs) {
	core := xlog.NewObservedCore()
	logger := xlog.NewXLogger(xlog.WithXLoggerCore(core), xlog.WithXLoggerLevel(xlog.LogLevelDebug))
	return observability.NewOpsRecorder(component, observability.WithRecorderXLogger(logger)), core.Logs()
}

var listConstructors = []struct {
	name string
	new  func(opts ...ListOption) sortedList
}{
	{CoarseListComponent, func(opts ...ListOption) sortedList { return NewCoarseList[int](opts...) }},
	{FineListComponent, func(opts ...ListOption) sortedList { return NewFineList[int](opts...) }},
}

func TestSortedList_AddAndRender(t *testing.T) {
	testcases := []struct {
		name     string
		values   []int
		expected string
	}{
		{"empty", nil, "[]"},
		{"single", []int{5}, "[5]"},
		{"unordered", []int{3, 1, 2}, "[1, 2, 3]"},
		{"duplicates", []int{5, 2, 1, 2}, "[1, 2, 2, 5]"},
		{"descending", []int{9, 7, 5, 3, 1}, "[1, 3, 5, 7, 9]"},
		{"negative", []int{0, -3, 3, -1}, "[-3, -1, 0, 3]"},
	}
	for _, c := range listConstructors {
		for _, tc := range testcases {
			t.Run(c.name+"/"+tc.name, func(tt *testing.T) {
				l := c.new()
				for _, v := range tc.values {
					l.Add(v)
				}
				require.Equal(tt, tc.expected, l.String())
				require.Equal(tt, int64(len(tc.values)), l.Len())
				require.NoError(tt, l.Validate())
			})
		}
	}
}

func TestSortedList_Remove(t *testing.T) {
	testcases := []struct {
		name     string
		values   []int
		removed  []int
		expected string
	}{
		{"head", []int{1, 2, 3}, []int{1}, "[2, 3]"},
		{"middle", []int{1, 2, 3}, []int{2}, "[1, 3]"},
		{"tail", []int{1, 2, 3}, []int{3}, "[1, 2]"},
		{"one duplicate", []int{2, 1, 2, 5}, []int{2}, "[1, 2, 5]"},
		{"all", []int{4, 4, 4}, []int{4, 4, 4}, "[]"},
		{"round trip", []int{8, 6, 7, 5, 3, 0, 9}, []int{0, 3, 5, 6, 7, 8, 9}, "[]"},
	}
	for _, c := range listConstructors {
		for _, tc := range testcases {
			t.Run(c.name+"/"+tc.name, func(tt *testing.T) {
				recorder, logs := newObservedRecorder(c.name)
				l := c.new(WithListOpsRecorder(recorder))
				for _, v := range tc.values {
					l.Add(v)
				}
				for _, v := range tc.removed {
					require.NoError(tt, l.Remove(v))
				}
				require.Equal(tt, tc.expected, l.String())
				require.Equal(tt, int64(len(tc.values)-len(tc.removed)), l.Len())
				require.NoError(tt, l.Validate())
				require.Equal(tt, 0, logs.Len())
			})
		}
	}
}

func TestSortedList_RemoveAbsent(t *testing.T) {
	testcases := []struct {
		name   string
		values []int
		absent int
	}{
		{"empty", nil, 1},
		{"below head", []int{1, 2, 3}, 0},
		{"gap", []int{1, 3}, 2},
		{"past tail", []int{1, 2, 3}, 5},
	}
	for _, c := range listConstructors {
		for _, tc := range testcases {
			t.Run(c.name+"/"+tc.name, func(tt *testing.T) {
				recorder, logs := newObservedRecorder(c.name)
				l := c.new(WithListOpsRecorder(recorder))
				for _, v := range tc.values {
					l.Add(v)
				}
				before := l.String()
				for i := 1; i <= 2; i++ {
					err := l.Remove(tc.absent)
					require.ErrorIs(tt, err, infra.ErrNotFound)
					require.Equal(tt, before, l.String())
					require.Equal(tt, int64(len(tc.values)), l.Len())

					entries := logs.FilterMessage("value not found").All()
					require.Len(tt, entries, i)
					require.Equal(tt, c.name, entries[i-1].LoggerName)
					require.EqualValues(tt, tc.absent, entries[i-1].ContextMap()["value"])
				}
			})
		}
	}
}

func TestSortedList_DefaultRecorder(t *testing.T) {
	for _, c := range listConstructors {
		l := c.new()
		l.Add(1)
		require.ErrorIs(t, l.Remove(5), infra.ErrNotFound)
		require.Equal(t, "[1]", l.String())
	}
}

type stamped struct {
	key, seq int
}

func (s stamped) CompareTo(that stamped) int {
	return s.key - that.key
}

func (s stamped) String() string {
	return fmt.Sprintf("%d#%d", s.key, s.seq)
}

func TestSortedList_EqualValuesNewestFirst(t *testing.T) {
	lists := []infra.Sorted[stamped]{
		NewCoarseListOf[stamped](),
		NewFineListOf[stamped](),
	}
	for _, l := range lists {
		l.Add(stamped{2, 1})
		l.Add(stamped{1, 1})
		l.Add(stamped{2, 2})
		l.Add(stamped{3, 1})
		l.Add(stamped{2, 3})
		require.Equal(t, "[1#1, 2#3, 2#2, 2#1, 3#1]", l.String())

		// The first equal node is removed.
		require.NoError(t, l.Remove(stamped{key: 2}))
		require.Equal(t, "[1#1, 2#2, 2#1, 3#1]", l.String())
	}
}

func TestSortedList_ConcurrentDisjointRanges(t *testing.T) {
	const (
		workers   = 8
		perWorker = 500
	)
	for _, c := range listConstructors {
		t.Run(c.name, func(tt *testing.T) {
			l := c.new()
			wg := sync.WaitGroup{}
			wg.Add(workers)
			for w := 0; w < workers; w++ {
				go func(base int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						l.Add(base + i)
					}
					// Remove the odd offsets.
					for i := 1; i < perWorker; i += 2 {
						if err := l.Remove(base + i); err != nil {
							panic(err)
						}
					}
				}(w * perWorker)
			}
			wg.Wait()

			require.NoError(tt, l.Validate())
			require.Equal(tt, int64(workers*perWorker/2), l.Len())
			snapshot := l.Snapshot()
			require.Len(tt, snapshot, workers*perWorker/2)
			for i, v := range snapshot {
				require.Equal(tt, i*2, v)
			}
		})
	}
}

func TestSortedList_ConcurrentSameValues(t *testing.T) {
	for _, c := range listConstructors {
		t.Run(c.name, func(tt *testing.T) {
			l := c.new()
			wg := sync.WaitGroup{}
			wg.Add(4)
			for w := 0; w < 4; w++ {
				go func() {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						l.Add(i % 10)
						_ = l.String()
					}
				}()
			}
			wg.Wait()
			require.NoError(tt, l.Validate())
			require.Equal(tt, int64(800), l.Len())
			for i := 0; i < 800; i++ {
				require.NoError(tt, l.Remove(i%10))
			}
			require.Equal(tt, "[]", l.String())
		})
	}
}

func TestFineList_SnapshotDuringUpdates(t *testing.T) {
	l := NewFineList[int]()
	for i := 0; i < 256; i++ {
		l.Add(i)
	}
	unsorted := atomic.Int32{}
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 255; i >= 0; i-- {
			_ = l.Remove(i)
			l.Add(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 64; i++ {
			if !sort.IntsAreSorted(l.Snapshot()) {
				unsorted.Add(1)
			}
		}
	}()
	wg.Wait()
	require.Zero(t, unsorted.Load())
	require.NoError(t, l.Validate())
	require.Equal(t, int64(256), l.Len())
}

func ExampleFineList() {
	l := NewFineList[int]()
	l.Add(3)
	l.Add(1)
	l.Add(2)
	fmt.Println(l)
	_ = l.Remove(2)
	fmt.Println(l, l.Len())
	// Output:
	// [1, 2, 3]
	// [1, 3] 2
}

func BenchmarkFineList_Add(b *testing.B) {
	l := NewFineList[int]()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			l.Add(i % 256)
			i++
		}
	})
}

func BenchmarkCoarseList_Add(b *testing.B) {
	l := NewCoarseList[int]()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			l.Add(i % 256)
			i++
		}
	})
}

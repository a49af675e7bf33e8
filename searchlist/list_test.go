package searchlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/IvanBrykalov/searchlist/policy"
)

// recordingMetrics counts hook calls; safe for concurrent use.
type recordingMetrics struct {
	mu       sync.Mutex
	admits   map[Role]int
	releases map[Role]int
	cancels  map[Role]int
	outcomes map[Role][]bool
	waited   map[Role][]time.Duration
	waiting  []int
	size     int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		admits:   map[Role]int{},
		releases: map[Role]int{},
		cancels:  map[Role]int{},
		outcomes: map[Role][]bool{},
		waited:   map[Role][]time.Duration{},
	}
}

func (m *recordingMetrics) Admit(r Role, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admits[r]++
	m.waited[r] = append(m.waited[r], d)
}

func (m *recordingMetrics) Release(r Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases[r]++
}

func (m *recordingMetrics) Cancel(r Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels[r]++
}

func (m *recordingMetrics) Outcome(r Role, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[r] = append(m.outcomes[r], ok)
}

func (m *recordingMetrics) Waiting(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiting = append(m.waiting, n)
}

func (m *recordingMetrics) Size(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = n
}

var _ Metrics = (*recordingMetrics)(nil)

// Insert/Search/Remove semantics on a single goroutine.
func TestList_InsertSearchRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New[int](Options[int]{CheckInvariant: true})

	found, err := l.Search(ctx, 5)
	require.NoError(t, err)
	require.False(t, found, "empty list")

	require.NoError(t, l.Insert(ctx, 5))
	require.NoError(t, l.Insert(ctx, 10))
	require.Equal(t, 2, l.Len())

	found, err = l.Search(ctx, 5)
	require.NoError(t, err)
	require.True(t, found)

	removed, err := l.Remove(ctx, 5)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = l.Remove(ctx, 5)
	require.NoError(t, err)
	require.False(t, removed, "second remove of a single occurrence")

	found, err = l.Search(ctx, 10)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, l.Len())
}

// Removing one occurrence of a duplicated item leaves the others.
func TestList_Duplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New[string](Options[string]{})
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Insert(ctx, "dup"))
	}

	for left := 2; left >= 0; left-- {
		removed, err := l.Remove(ctx, "dup")
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, left, l.Len())

		found, err := l.Search(ctx, "dup")
		require.NoError(t, err)
		require.Equal(t, left > 0, found)
	}
}

// A nil item is a programming error; the list stays untouched.
func TestList_NilItemPanics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New[*int](Options[*int]{})

	require.PanicsWithError(t, "searchlist: nil item passed to Insert", func() { _ = l.Insert(ctx, nil) })
	require.PanicsWithError(t, "searchlist: nil item passed to Search", func() { _, _ = l.Search(ctx, nil) })
	require.PanicsWithError(t, "searchlist: nil item passed to Remove", func() { _, _ = l.Remove(ctx, nil) })

	if diff := cmp.Diff(Stats{}, l.Stats()); diff != "" {
		t.Fatalf("stats changed after rejected items (-want +got):\n%s", diff)
	}

	v := 1
	require.NoError(t, l.Insert(ctx, &v))
	found, err := l.Search(ctx, &v)
	require.NoError(t, err)
	require.True(t, found)
}

func TestList_NilInterfaceItemPanics(t *testing.T) {
	t.Parallel()

	l := New[error](Options[error]{})
	var e *nilErr
	require.Panics(t, func() { _ = l.Insert(context.Background(), nil) })
	require.Panics(t, func() { _ = l.Insert(context.Background(), e) }, "typed nil pointer inside interface")
	require.NoError(t, l.Insert(context.Background(), errors.New("x")))
}

type nilErr struct{}

func (*nilErr) Error() string { return "nil" }

// Options.Equal replaces == for matching.
func TestList_CustomEqual(t *testing.T) {
	t.Parallel()

	type user struct {
		ID   int
		Name string
	}
	ctx := context.Background()
	l := New[user](Options[user]{
		Equal: func(a, b user) bool { return a.ID == b.ID },
	})

	require.NoError(t, l.Insert(ctx, user{ID: 1, Name: "ann"}))

	found, err := l.Search(ctx, user{ID: 1})
	require.NoError(t, err)
	require.True(t, found, "match by ID only")

	removed, err := l.Remove(ctx, user{ID: 1, Name: "someone else"})
	require.NoError(t, err)
	require.True(t, removed)
	require.Zero(t, l.Len())
}

func TestList_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := New[int](Options[int]{})

	for _, v := range []int{1, 2, 3} {
		require.NoError(t, l.Insert(ctx, v))
	}
	_, _ = l.Search(ctx, 1)
	_, _ = l.Search(ctx, 9)
	_, _ = l.Remove(ctx, 2)
	_, _ = l.Remove(ctx, 9)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _ = l.Search(cancelled, 1)

	want := Stats{
		Len:      2,
		Searches: 2,
		Found:    1,
		Inserts:  3,
		Removes:  2,
		Removed:  1,
		Canceled: 1,
	}
	if diff := cmp.Diff(want, l.Stats()); diff != "" {
		t.Fatalf("unexpected stats (-want +got):\n%s", diff)
	}
}

// An already-done context fails fast for every role and changes nothing.
func TestList_CanceledContextFailsFast(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newRecordingMetrics()
	l := New[int](Options[int]{Metrics: m})

	err := l.Insert(ctx, 1)
	require.ErrorIs(t, err, ErrCanceled)
	require.ErrorIs(t, err, context.Canceled)

	found, err := l.Search(ctx, 1)
	require.ErrorIs(t, err, ErrCanceled)
	require.False(t, found)

	removed, err := l.Remove(ctx, 1)
	require.ErrorIs(t, err, ErrCanceled)
	require.False(t, removed)

	require.Zero(t, l.Len())
	require.Equal(t, policy.State{}, l.Stats().State)
	require.Equal(t, map[Role]int{RoleInsert: 1, RoleSearch: 1, RoleRemove: 1}, m.cancels)
	require.Empty(t, m.waiting, "a fail-fast remover must not register intent")
}

// Metrics see every admission, release and outcome.
func TestList_MetricsHooks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newRecordingMetrics()
	l := New[int](Options[int]{Metrics: m, Logger: zaptest.NewLogger(t)})

	require.NoError(t, l.Insert(ctx, 1))
	require.NoError(t, l.Insert(ctx, 2))
	_, _ = l.Search(ctx, 2)
	_, _ = l.Remove(ctx, 1)
	_, _ = l.Remove(ctx, 7)

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Equal(t, map[Role]int{RoleInsert: 2, RoleSearch: 1, RoleRemove: 2}, m.admits)
	require.Equal(t, m.admits, m.releases)
	require.Equal(t, []bool{true}, m.outcomes[RoleSearch])
	require.Equal(t, []bool{true, false}, m.outcomes[RoleRemove])
	require.Equal(t, []int{1, 0, 1, 0}, m.waiting)
	require.Equal(t, 1, m.size)
}

// Admission waits are timed with the configured clock.
func TestList_WaitTimedWithClock(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClock()
	m := newRecordingMetrics()
	l := New[int](Options[int]{Metrics: m, Clock: clk}).(*list[int])

	require.NoError(t, l.ctrl.beginSearch(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = l.Remove(context.Background(), 1)
	}()
	waitState(t, l.ctrl, func(s policy.State) bool { return s.WaitingRemove == 1 })

	clk.Advance(3 * time.Second)
	l.ctrl.endSearch()
	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Equal(t, []time.Duration{3 * time.Second}, m.waited[RoleRemove])
}

func TestRole_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "search", RoleSearch.String())
	require.Equal(t, "insert", RoleInsert.String())
	require.Equal(t, "remove", RoleRemove.String())
	require.Equal(t, "unknown", Role(42).String())
}

package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
	n     int64
}

func (f *fakePurger) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSweep_PassesClock(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p := &fakePurger{n: 3}
	s := New(p, time.Minute, func() time.Time { return at })

	require.EqualValues(t, 3, s.Sweep(context.Background()))
	require.Equal(t, []time.Time{at}, p.calls)
}

func TestRun_KeepsGoingAfterErrors(t *testing.T) {
	p := &fakePurger{err: errors.New("db down")}
	s := New(p, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return p.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

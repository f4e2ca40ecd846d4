package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls map[string]int
	block chan struct{}
	err   error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{calls: make(map[string]int)}
}

func (r *fakeRunner) RunSource(_ context.Context, source string) error {
	r.mu.Lock()
	r.calls[source]++
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return r.err
}

func (r *fakeRunner) count(source string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[source]
}

func TestSchedulerRunsOnStart(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	sched := New(Config{
		Spec:       "@every 1h",
		Sources:    []string{"pracuj", "justjoin"},
		RunOnStart: true,
	}, runner, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return runner.count("pracuj") == 1 && runner.count("justjoin") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerFiresOnTicks(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	sched := New(Config{
		Spec:    "@every 20ms",
		Sources: []string{"pracuj"},
	}, runner, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return runner.count("pracuj") >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerSkipsWhileRunActive(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.block = make(chan struct{})
	sched := New(Config{
		Spec:    "@every 20ms",
		Sources: []string{"pracuj"},
	}, runner, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))

	require.Eventually(t, func() bool {
		return runner.count("pracuj") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Several ticks pass while the first run is still blocked.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, runner.count("pracuj"))

	close(runner.block)
	sched.Stop()
}

func TestSchedulerStopWaitsForActiveRun(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.block = make(chan struct{})
	sched := New(Config{
		Spec:       "@every 1h",
		Sources:    []string{"pracuj"},
		RunOnStart: true,
	}, runner, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))
	require.Eventually(t, func() bool {
		return runner.count("pracuj") == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		sched.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was still active")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the run finished")
	}
}

func TestSchedulerIgnoresTicksAfterCancel(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	sched := New(Config{
		Spec:       "@every 1h",
		Sources:    []string{"pracuj"},
		RunOnStart: true,
	}, runner, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, runner.count("pracuj"))
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	sched := New(Config{
		Spec:    "not a cron spec",
		Sources: []string{"pracuj"},
	}, newFakeRunner(), zap.NewNop())

	require.Error(t, sched.Start(context.Background()))
}

func TestSchedulerRequiresSources(t *testing.T) {
	t.Parallel()

	sched := New(Config{Spec: "@every 1h"}, newFakeRunner(), zap.NewNop())
	require.Error(t, sched.Start(context.Background()))
}

func TestSchedulerLogsRunErrors(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.err = errors.New("board unreachable")
	sched := New(Config{
		Spec:       "@every 1h",
		Sources:    []string{"pracuj"},
		RunOnStart: true,
	}, runner, zap.NewNop())

	require.NoError(t, sched.Start(context.Background()))
	require.Eventually(t, func() bool {
		return runner.count("pracuj") == 1
	}, 2*time.Second, 10*time.Millisecond)
	sched.Stop()

	// A failed run releases the per-source guard for the next tick.
	require.False(t, sched.active["pracuj"])
}

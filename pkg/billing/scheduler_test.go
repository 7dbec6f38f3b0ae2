package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unip1801/antaeus/pkg/models"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps chan time.Duration
	wake   chan struct{}
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{
		now:    now,
		sleeps: make(chan time.Duration, 16),
		wake:   make(chan struct{}),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps <- d
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.wake:
		return nil
	}
}

type fakePassRunner struct {
	passes chan struct{}
}

func newFakePassRunner() *fakePassRunner {
	return &fakePassRunner{passes: make(chan struct{}, 16)}
}

func (f *fakePassRunner) HandlePayments(ctx context.Context) ([]models.Invoice, error) {
	f.passes <- struct{}{}
	return nil, nil
}

func awaitSleep(t *testing.T, clock *fakeClock) time.Duration {
	t.Helper()
	select {
	case d := <-clock.sleeps:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never reached its suspension")
		return 0
	}
}

func TestSchedulerStartStopContract(t *testing.T) {
	clock := newFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	s := NewScheduler(newFakePassRunner(), clock, 1, testLogger(), nil)

	assert.False(t, s.Status())
	assert.True(t, s.Start())
	assert.False(t, s.Start(), "second start must be a no-op")
	assert.True(t, s.Status())

	awaitSleep(t, clock)

	assert.True(t, s.Stop())
	assert.False(t, s.Stop(), "second stop must be a no-op")
	assert.False(t, s.Status())
}

func TestSchedulerRunsPassOnTriggerDay(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 1, 0, time.UTC)
	clock := newFakeClock(now)
	engine := newFakePassRunner()
	s := NewScheduler(engine, clock, 1, testLogger(), nil)

	require.True(t, s.Start())
	defer s.Stop()

	select {
	case <-engine.passes:
	case <-time.After(2 * time.Second):
		t.Fatal("no pass ran on the trigger day")
	}

	// After the pass the loop sleeps until April 1st, 00:00.
	want := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC).Sub(now)
	assert.Equal(t, want, awaitSleep(t, clock))
}

func TestSchedulerSkipsPassOffTriggerDay(t *testing.T) {
	clock := newFakeClock(time.Date(2026, time.March, 15, 8, 30, 0, 0, time.UTC))
	engine := newFakePassRunner()
	s := NewScheduler(engine, clock, 1, testLogger(), nil)

	require.True(t, s.Start())
	defer s.Stop()

	awaitSleep(t, clock)
	select {
	case <-engine.passes:
		t.Fatal("pass ran although today is not the trigger day")
	default:
	}
}

func TestSchedulerWakesIntoNextIteration(t *testing.T) {
	clock := newFakeClock(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	engine := newFakePassRunner()
	s := NewScheduler(engine, clock, 1, testLogger(), nil)

	require.True(t, s.Start())
	defer s.Stop()

	awaitSleep(t, clock)

	// The boundary arrives: advance the clock and release the suspension.
	clock.set(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	clock.wake <- struct{}{}

	select {
	case <-engine.passes:
	case <-time.After(2 * time.Second):
		t.Fatal("no pass ran after waking on the boundary")
	}
}

func TestSchedulerStopInterruptsSuspension(t *testing.T) {
	clock := newFakeClock(time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(newFakePassRunner(), clock, 1, testLogger(), nil)

	require.True(t, s.Start())
	awaitSleep(t, clock)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Stop()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not interrupt the suspension")
	}
}

type blockingRunner struct {
	started chan context.Context
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan context.Context, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingRunner) HandlePayments(ctx context.Context) ([]models.Invoice, error) {
	b.started <- ctx
	<-b.release
	return nil, nil
}

// Stop while a pass is charging must wait for it and must not cancel the
// context the pass runs under; otherwise store writes fail mid-pass and
// already-charged invoices stay PENDING.
func TestSchedulerStopLetsInFlightPassFinish(t *testing.T) {
	clock := newFakeClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	engine := newBlockingRunner()
	s := NewScheduler(engine, clock, 1, testLogger(), nil)

	require.True(t, s.Start())

	var passCtx context.Context
	select {
	case passCtx = <-engine.started:
	case <-time.After(2 * time.Second):
		t.Fatal("pass never started")
	}

	stopped := make(chan bool, 1)
	go func() { stopped <- s.Stop() }()

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, passCtx.Err(), "in-flight pass context must stay live across Stop")
	select {
	case <-stopped:
		t.Fatal("stop returned while a pass was still in flight")
	default:
	}

	close(engine.release)
	select {
	case ok := <-stopped:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the pass finished")
	}
	assert.NoError(t, passCtx.Err())
}

// The loop survives a panicking pass and schedules the next boundary.
func TestSchedulerSurvivesPanickingPass(t *testing.T) {
	clock := newFakeClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(panickingRunner{}, clock, 1, testLogger(), nil)

	require.True(t, s.Start())
	defer s.Stop()

	awaitSleep(t, clock)
	assert.True(t, s.Status())
}

type panickingRunner struct{}

func (panickingRunner) HandlePayments(ctx context.Context) ([]models.Invoice, error) {
	panic("boom")
}

func TestFirstOfNextMonth(t *testing.T) {
	loc := time.UTC

	got := firstOfNextMonth(time.Date(2026, time.March, 14, 9, 26, 53, 0, loc))
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, loc), got)

	// December rolls into January of the next year.
	got = firstOfNextMonth(time.Date(2026, time.December, 31, 23, 59, 59, 0, loc))
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, loc), got)
}

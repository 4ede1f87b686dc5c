package api

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/planning"
	"github.com/warp/budget-engine/planning/store"
)

type fakeRoller struct {
	calls    atomic.Int32
	reloaded bool
	err      error
}

func (f *fakeRoller) Rollover(context.Context) (bool, error) {
	f.calls.Add(1)
	return f.reloaded, f.err
}

func TestScheduler_CheckNowRecordsLastRun(t *testing.T) {
	roller := &fakeRoller{reloaded: true}
	rs := NewRolloverScheduler(roller, nil)

	_, ok := rs.LastRun()
	assert.False(t, ok)

	run := rs.CheckNow(context.Background())
	assert.True(t, run.Reloaded)
	assert.NoError(t, run.Err)

	last, ok := rs.LastRun()
	require.True(t, ok)
	assert.Equal(t, run, last)

	roller.err = errors.New("store down")
	roller.reloaded = false
	run = rs.CheckNow(context.Background())
	assert.Error(t, run.Err)
	last, _ = rs.LastRun()
	assert.Error(t, last.Err)
}

func TestScheduler_StartStop(t *testing.T) {
	roller := &fakeRoller{}
	rs := NewRolloverScheduler(roller, nil)
	rs.CheckInterval = 5 * time.Millisecond

	rs.Start()
	rs.Start() // no-op
	assert.Eventually(t, func() bool { return roller.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	rs.Stop()

	after := roller.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, roller.calls.Load(), "no checks after Stop")
	rs.Stop() // no-op
}

func TestScheduler_Disabled(t *testing.T) {
	roller := &fakeRoller{}
	rs := NewRolloverScheduler(roller, nil)
	rs.Enabled = false
	rs.CheckInterval = time.Millisecond

	rs.Start()
	time.Sleep(10 * time.Millisecond)
	rs.Stop()
	assert.Zero(t, roller.calls.Load())
}

type steppingClock struct {
	at atomic.Pointer[time.Time]
}

func (c *steppingClock) Now() time.Time { return *c.at.Load() }
func (c *steppingClock) Set(t time.Time) { c.at.Store(&t) }

func TestScheduler_RollsSessionIntoNextMonth(t *testing.T) {
	// GIVEN: A session loaded in March 2025 with a lock on May
	// WHEN: The clock moves to April and the scheduler checks
	// THEN: The timeline moves forward and the May lock follows its
	//       calendar month

	clock := &steppingClock{}
	clock.Set(march2025)
	mem := store.NewMemory()
	session := planning.NewSession(planning.DefaultSessionConfig(), mem, mem, planning.WithClock(clock))
	ctx := context.Background()

	snap, err := session.Load(ctx)
	require.NoError(t, err)
	may := snap.Grid.CurrentMonth().Index + 2
	_, err = session.EditCell(ctx, may, "Housing", "900")
	require.NoError(t, err)

	rs := NewRolloverScheduler(session, nil)
	run := rs.CheckNow(ctx)
	require.NoError(t, run.Err)
	assert.False(t, run.Reloaded, "same month")

	clock.Set(time.Date(2025, time.April, 2, 8, 0, 0, 0, time.UTC))
	run = rs.CheckNow(ctx)
	require.NoError(t, run.Err)
	assert.True(t, run.Reloaded)

	snap, err = session.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Apr 2025", snap.Grid.CurrentMonth().Label)

	mayAfter := snap.Grid.CurrentMonth().Index + 1
	m, ok := snap.Grid.Month(mayAfter)
	require.True(t, ok)
	assert.Equal(t, "May 2025", m.Label)
	assert.Equal(t, []string{"Housing"}, snap.Locks[mayAfter])
	assert.True(t, snap.Grid.Value("Housing", mayAfter).Equal(planning.NewValue(900)))
}

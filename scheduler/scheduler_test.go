package scheduler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(log *[]string, name string) Callback {
	return func() error {
		*log = append(*log, name)
		return nil
	}
}

func TestTimeoutOrderByDueTime(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(record(&log, "A"), 10)
	s.SetTimeout(record(&log, "B"), 0)

	require.NoError(t, s.Flush())
	assert.Equal(t, []string{"B", "A"}, log)
	assert.Equal(t, int64(10), s.Now())
}

func TestSameDueTimeKeepsInsertionOrder(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(record(&log, "1"), 5)
	s.SetTimeout(record(&log, "2"), 5)
	s.SetTimeout(record(&log, "3"), -20)

	require.NoError(t, s.Flush())
	assert.Equal(t, []string{"3", "1", "2"}, log)
}

func TestMicrotasksRunBeforeTimers(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(func() error {
		log = append(log, "timer")
		s.QueueMicrotask(record(&log, "micro-from-timer"))
		return nil
	}, 0)
	s.SetTimeout(record(&log, "timer2"), 0)
	s.QueueMicrotask(func() error {
		log = append(log, "micro")
		s.QueueMicrotask(record(&log, "nested"))
		return nil
	})

	require.NoError(t, s.Flush())
	assert.Equal(t, []string{"micro", "nested", "timer", "micro-from-timer", "timer2"}, log)
}

func TestIntervalReschedulesUntilCleared(t *testing.T) {
	s := New(Options{})
	var ticks []int64
	var id int64
	id = s.SetInterval(func() error {
		ticks = append(ticks, s.Now())
		if len(ticks) == 3 {
			s.Clear(id)
		}
		return nil
	}, 5)

	require.NoError(t, s.Flush())
	assert.Equal(t, []int64{5, 10, 15}, ticks)
	assert.True(t, s.Idle())
}

func TestIdsAreMonotonicAcrossKinds(t *testing.T) {
	s := New(Options{})
	a := s.SetTimeout(func() error { return nil }, 1)
	b := s.SetInterval(func() error { return nil }, 1)
	s.Clear(a)
	c := s.SetTimeout(func() error { return nil }, 1)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestClearUnknownIdIsIgnored(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(record(&log, "kept"), 1)
	s.Clear(99)
	require.NoError(t, s.Flush())
	assert.Equal(t, []string{"kept"}, log)
}

func TestAdvanceByRunsOnlyDueTasks(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(record(&log, "early"), 10)
	s.SetTimeout(record(&log, "late"), 50)

	require.NoError(t, s.AdvanceBy(20))
	assert.Equal(t, []string{"early"}, log)
	assert.Equal(t, int64(20), s.Now())

	require.NoError(t, s.AdvanceTo(50))
	assert.Equal(t, []string{"early", "late"}, log)
}

func TestRunNextJumpsClock(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(record(&log, "x"), 100)

	ran, err := s.RunNext()
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int64(100), s.Now())

	ran, err = s.RunNext()
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestRunDueLeavesFutureTasks(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(record(&log, "now"), 0)
	s.SetTimeout(record(&log, "later"), 1)

	require.NoError(t, s.RunDue())
	assert.Equal(t, []string{"now"}, log)
	assert.Len(t, s.Pending(), 1)
}

func TestPendingSnapshot(t *testing.T) {
	s := New(Options{})
	s.SetTimeout(func() error { return nil }, 30)
	s.SetInterval(func() error { return nil }, 10)
	cleared := s.SetTimeout(func() error { return nil }, 5)
	s.Clear(cleared)

	want := []Task{
		{ID: 2, DueAt: 10, Order: 2, Interval: 10, Repeat: true},
		{ID: 1, DueAt: 30, Order: 1, Interval: 30},
	}
	if diff := cmp.Diff(want, s.Pending(), cmpopts.IgnoreUnexported(Task{})); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestStepLimitExceeded(t *testing.T) {
	s := New(Options{StepLimit: 20})
	s.SetInterval(func() error { return nil }, 0)

	err := s.Flush()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepLimitExceeded))
	assert.Contains(t, err.Error(), "limit=20")
	assert.Contains(t, err.Error(), "next=interval#1")
}

func TestCallbackErrorStopsRun(t *testing.T) {
	s := New(Options{})
	var log []string
	s.SetTimeout(func() error { return errors.New("boom") }, 0)
	s.SetTimeout(record(&log, "after"), 0)

	err := s.Flush()
	require.EqualError(t, err, "boom")
	assert.Empty(t, log)
	assert.Len(t, s.Pending(), 1)
}

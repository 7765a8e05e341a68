// Package scheduler is the cooperative task queue behind timers,
// intervals and microtasks. Time is virtual: it only moves when the host
// advances or flushes the queue.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/finitefield-org/browser-tester-sub000/logging"
)

// ErrStepLimitExceeded is returned when a run executes more tasks than the
// configured step budget.
var ErrStepLimitExceeded = errors.New("scheduler step limit exceeded")

// DefaultStepLimit bounds a single run call.
const DefaultStepLimit = 10000

// Callback is the work of one task.
type Callback func() error

// Task is a pending timer or interval.
type Task struct {
	ID       int64
	DueAt    int64
	Order    int64
	Interval int64
	Repeat   bool

	callback  Callback
	cancelled bool
}

func (t *Task) String() string {
	kind := "timeout"
	if t.Repeat {
		kind = "interval"
	}
	return fmt.Sprintf("%s#%d@%d", kind, t.ID, t.DueAt)
}

// Options configures a Scheduler.
type Options struct {
	StepLimit int
	Logger    logrus.FieldLogger
}

// Scheduler owns the virtual clock and the task queues.
type Scheduler struct {
	now       int64
	nextID    int64
	nextOrder int64

	timers     *priorityqueue.Queue
	live       map[int64]*Task
	microtasks []Callback

	running *Task

	stepLimit int
	steps     int
	log       logrus.FieldLogger
}

func byDueThenOrder(a, b interface{}) int {
	ta, tb := a.(*Task), b.(*Task)
	switch {
	case ta.DueAt < tb.DueAt:
		return -1
	case ta.DueAt > tb.DueAt:
		return 1
	case ta.Order < tb.Order:
		return -1
	case ta.Order > tb.Order:
		return 1
	}
	return 0
}

// New creates a scheduler at virtual time zero.
func New(opts Options) *Scheduler {
	limit := opts.StepLimit
	if limit <= 0 {
		limit = DefaultStepLimit
	}
	return &Scheduler{
		timers:    priorityqueue.NewWith(byDueThenOrder),
		live:      make(map[int64]*Task),
		stepLimit: limit,
		log:       logging.OrDiscard(opts.Logger),
	}
}

// Now returns the virtual time in milliseconds.
func (s *Scheduler) Now() int64 {
	return s.now
}

// StepLimit returns the per-run task budget.
func (s *Scheduler) StepLimit() int {
	return s.stepLimit
}

// SetTimeout schedules cb once after delay milliseconds.
func (s *Scheduler) SetTimeout(cb Callback, delay int64) int64 {
	return s.schedule(cb, delay, false)
}

// SetInterval schedules cb every interval milliseconds until cleared.
func (s *Scheduler) SetInterval(cb Callback, interval int64) int64 {
	return s.schedule(cb, interval, true)
}

func (s *Scheduler) schedule(cb Callback, delay int64, repeat bool) int64 {
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	t := &Task{
		ID:       s.nextID,
		DueAt:    s.now + delay,
		Interval: delay,
		Repeat:   repeat,
		callback: cb,
	}
	s.enqueue(t)
	return t.ID
}

func (s *Scheduler) enqueue(t *Task) {
	s.nextOrder++
	t.Order = s.nextOrder
	s.live[t.ID] = t
	s.timers.Enqueue(t)
}

// Clear cancels a timer or interval. Unknown ids are ignored. Clearing the
// interval that is currently running prevents its reschedule.
func (s *Scheduler) Clear(id int64) {
	if t, ok := s.live[id]; ok {
		t.cancelled = true
		delete(s.live, id)
	}
	if s.running != nil && s.running.ID == id {
		s.running.cancelled = true
	}
}

// QueueMicrotask appends cb to the microtask queue.
func (s *Scheduler) QueueMicrotask(cb Callback) {
	s.microtasks = append(s.microtasks, cb)
}

// PendingMicrotasks reports the number of queued microtasks.
func (s *Scheduler) PendingMicrotasks() int {
	return len(s.microtasks)
}

// Pending returns a snapshot of live timers ordered by (DueAt, Order).
func (s *Scheduler) Pending() []Task {
	out := make([]Task, 0, len(s.live))
	for _, t := range s.live {
		cp := *t
		cp.callback = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return byDueThenOrder(&out[i], &out[j]) < 0
	})
	return out
}

// peek returns the next live timer, discarding cancelled entries.
func (s *Scheduler) peek() *Task {
	for {
		head, ok := s.timers.Peek()
		if !ok {
			return nil
		}
		t := head.(*Task)
		if !t.cancelled {
			return t
		}
		s.timers.Dequeue()
	}
}

func (s *Scheduler) begin() {
	s.steps = 0
}

func (s *Scheduler) step() error {
	s.steps++
	if s.steps > s.stepLimit {
		next := "none"
		if t := s.peek(); t != nil {
			next = t.String()
		}
		return errors.Wrapf(ErrStepLimitExceeded, "limit=%d now=%d pending=%d next=%s",
			s.stepLimit, s.now, len(s.live)+len(s.microtasks), next)
	}
	return nil
}

func (s *Scheduler) drainMicrotasks() error {
	for len(s.microtasks) > 0 {
		if err := s.step(); err != nil {
			return err
		}
		cb := s.microtasks[0]
		s.microtasks = s.microtasks[1:]
		if err := cb(); err != nil {
			return err
		}
	}
	return nil
}

// RunMicrotasks drains the microtask queue, including microtasks queued
// while draining.
func (s *Scheduler) RunMicrotasks() error {
	s.begin()
	return s.drainMicrotasks()
}

func (s *Scheduler) runTask(t *Task) error {
	if err := s.step(); err != nil {
		return err
	}
	s.timers.Dequeue()
	delete(s.live, t.ID)
	if t.DueAt > s.now {
		s.now = t.DueAt
	}
	s.log.WithFields(logrus.Fields{"task": t.ID, "due": t.DueAt, "interval": t.Repeat}).Debug("run task")

	s.running = t
	err := t.callback()
	s.running = nil
	if t.Repeat && !t.cancelled {
		t.DueAt += t.Interval
		s.enqueue(t)
	}
	if err != nil {
		return err
	}
	return s.drainMicrotasks()
}

// RunNext drains microtasks, then runs the next timer even if it is not yet
// due, moving the clock forward to it. It reports whether a timer ran.
func (s *Scheduler) RunNext() (bool, error) {
	s.begin()
	if err := s.drainMicrotasks(); err != nil {
		return false, err
	}
	t := s.peek()
	if t == nil {
		return false, nil
	}
	return true, s.runTask(t)
}

// RunDue runs every task due at the current time, microtasks first.
func (s *Scheduler) RunDue() error {
	s.begin()
	return s.runUntil(s.now)
}

// AdvanceBy moves the clock forward by ms, running tasks as they fall due.
func (s *Scheduler) AdvanceBy(ms int64) error {
	if ms < 0 {
		ms = 0
	}
	return s.AdvanceTo(s.now + ms)
}

// AdvanceTo moves the clock to ts, running tasks as they fall due. The
// clock never moves backwards.
func (s *Scheduler) AdvanceTo(ts int64) error {
	s.begin()
	if err := s.runUntil(ts); err != nil {
		return err
	}
	if ts > s.now {
		s.now = ts
	}
	return nil
}

func (s *Scheduler) runUntil(ts int64) error {
	if err := s.drainMicrotasks(); err != nil {
		return err
	}
	for {
		t := s.peek()
		if t == nil || t.DueAt > ts {
			return nil
		}
		if err := s.runTask(t); err != nil {
			return err
		}
	}
}

// Flush runs tasks until both queues are empty or the step budget runs out.
func (s *Scheduler) Flush() error {
	s.begin()
	if err := s.drainMicrotasks(); err != nil {
		return err
	}
	for {
		t := s.peek()
		if t == nil {
			return nil
		}
		if err := s.runTask(t); err != nil {
			return err
		}
	}
}

// Idle reports whether no timers or microtasks are pending.
func (s *Scheduler) Idle() bool {
	return len(s.microtasks) == 0 && s.peek() == nil
}

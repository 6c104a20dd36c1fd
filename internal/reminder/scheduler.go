package reminder

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lomoval/otus-golang/event_planner/internal/metrics"
	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

// leadTime converts minutes to a duration. ok is false when it does not fit into time.Duration.
func leadTime(minutesBefore float64) (d time.Duration, ok bool) {
	v := minutesBefore * float64(time.Minute)
	if math.IsNaN(v) || v >= math.MaxInt64 || v <= math.MinInt64 {
		return 0, false
	}
	return time.Duration(v), true
}

// ReminderTime returns the moment a reminder should fire for an event at the given time.
// Lead times beyond the time.Duration range saturate at the zero time.
func ReminderTime(at time.Time, minutesBefore float64) time.Time {
	d, ok := leadTime(minutesBefore)
	if !ok {
		return time.Time{}
	}
	return at.Add(-d)
}

type pendingReminder struct {
	timer clockwork.Timer
}

// Scheduler arms one-shot reminder timers keyed by event ID.
type Scheduler struct {
	clock    clockwork.Clock
	notifier Notifier
	metrics  *metrics.Metrics

	mu     sync.Mutex
	timers map[string]*pendingReminder
}

func NewScheduler(clock clockwork.Clock, notifier Notifier, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		clock:    clock,
		notifier: notifier,
		metrics:  m,
		timers:   make(map[string]*pendingReminder),
	}
}

// Schedule arms a reminder for e. It returns false when the event has no reminder
// or the reminder moment is not in the future.
func (s *Scheduler) Schedule(e storage.Event) bool {
	if !e.ReminderSet || e.ReminderMinutesBefore == nil {
		return false
	}
	now := s.clock.Now()
	untilEvent := e.Date.Sub(now)
	lead, ok := leadTime(*e.ReminderMinutesBefore)
	if !ok || lead >= untilEvent {
		log.Debugf("reminder for event %q at %s is already in the past",
			e.ID, ReminderTime(e.Date, *e.ReminderMinutesBefore))
		return false
	}
	delay := untilEvent - lead

	n := Notification{EventID: e.ID, UserID: e.UserID, Name: e.Name, Time: e.Date}
	p := &pendingReminder{}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[e.ID]; ok {
		old.timer.Stop()
	}
	p.timer = s.clock.AfterFunc(delay, func() { s.fire(p, n) })
	s.timers[e.ID] = p
	s.metrics.RemindersScheduled.Inc()
	s.metrics.RemindersPending.Set(float64(len(s.timers)))
	log.Debugf("reminder for event %q armed at %s", e.ID, now.Add(delay))
	return true
}

// fire notifies only while p is still the pending reminder for its event.
func (s *Scheduler) fire(p *pendingReminder, n Notification) {
	s.mu.Lock()
	if s.timers[n.EventID] != p {
		s.mu.Unlock()
		return
	}
	delete(s.timers, n.EventID)
	s.metrics.RemindersPending.Set(float64(len(s.timers)))
	s.mu.Unlock()

	if err := s.notifier.Notify(context.Background(), n); err != nil {
		s.metrics.IncSent(metrics.StatusFailed)
		log.Errorf("failed to send reminder for event %q: %v", n.EventID, err)
		return
	}
	s.metrics.IncSent(metrics.StatusSuccess)
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all pending reminders and returns how many were cancelled.
func (s *Scheduler) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopped := 0
	for id, p := range s.timers {
		p.timer.Stop()
		stopped++
		delete(s.timers, id)
	}
	s.metrics.RemindersPending.Set(0)
	return stopped
}

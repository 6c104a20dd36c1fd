package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lomoval/otus-golang/event_planner/internal/metrics"
	"github.com/lomoval/otus-golang/event_planner/internal/reminder"
	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	memorystorage "github.com/lomoval/otus-golang/event_planner/internal/storage/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2030, 6, 15, 12, 0, 0, 0, time.Local)

type countingNotifier struct {
	mu    sync.Mutex
	names []string
}

func (c *countingNotifier) Notify(_ context.Context, n reminder.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, n.Name)
	return nil
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

type testApp struct {
	*App
	clock     clockwork.FakeClock
	scheduler *reminder.Scheduler
	notifier  *countingNotifier
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	m := metrics.New(prometheus.NewRegistry())
	n := &countingNotifier{}
	s := reminder.NewScheduler(clock, n, m)
	t.Cleanup(func() { s.Stop() })
	return testApp{
		App:       New(memorystorage.New(), s, clock, m),
		clock:     clock,
		scheduler: s,
		notifier:  n,
	}
}

func minutesPtr(v float64) *float64 {
	return &v
}

func register(t *testing.T, a testApp, username string) storage.User {
	t.Helper()
	u, err := a.Register(context.Background(), username, "pass")
	require.NoError(t, err)
	return u
}

func TestRegisterLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("register and login", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")
		require.NotEmpty(t, u.ID)

		logged, err := a.Login(ctx, "testuser", "pass")
		require.NoError(t, err)
		require.Equal(t, u.ID, logged.ID)

		resolved, err := a.ResolveToken(ctx, logged.ID)
		require.NoError(t, err)
		require.Equal(t, "testuser", resolved.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		a := newTestApp(t)
		register(t, a, "testuser")
		_, err := a.Register(ctx, "testuser", "other")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("empty fields", func(t *testing.T) {
		a := newTestApp(t)
		for _, tc := range []struct{ username, password string }{
			{"", "pass"},
			{"user", ""},
			{"", ""},
		} {
			_, err := a.Register(ctx, tc.username, tc.password)
			require.ErrorIs(t, err, ErrValidation)
		}
		_, err := a.Login(ctx, "user", "pass")
		require.ErrorIs(t, err, ErrAuth)
	})

	t.Run("wrong password", func(t *testing.T) {
		a := newTestApp(t)
		register(t, a, "testuser")
		_, err := a.Login(ctx, "testuser", "wrong")
		require.ErrorIs(t, err, ErrAuth)
		_, err = a.Login(ctx, "unknown", "pass")
		require.ErrorIs(t, err, ErrAuth)
	})

	t.Run("invalid token", func(t *testing.T) {
		a := newTestApp(t)
		register(t, a, "testuser")
		_, err := a.ResolveToken(ctx, "")
		require.ErrorIs(t, err, ErrAuth)
		_, err = a.ResolveToken(ctx, "_non_exists_")
		require.ErrorIs(t, err, ErrAuth)
	})
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("create with reminder", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		e, err := a.CreateEvent(ctx, u, EventInput{
			Name:                  "Meeting",
			Description:           "Team meeting",
			Date:                  "2099-12-31",
			Time:                  "10:00",
			Category:              "Meetings",
			ReminderMinutesBefore: minutesPtr(30),
		})
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		require.Equal(t, u.ID, e.UserID)
		require.True(t, e.Date.Equal(time.Date(2099, 12, 31, 10, 0, 0, 0, time.Local)))
		require.True(t, e.ReminderSet)
		require.Equal(t, 30.0, *e.ReminderMinutesBefore)
		require.Equal(t, 1, a.scheduler.Pending())

		events, err := a.ListEvents(ctx, u, "")
		require.NoError(t, err)
		require.Equal(t, []storage.Event{e}, events)
	})

	t.Run("defaults", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		e, err := a.CreateEvent(ctx, u, EventInput{Name: "Party", Date: "2099-12-31", Time: "20:00"})
		require.NoError(t, err)
		require.Equal(t, "", e.Description)
		require.Equal(t, DefaultCategory, e.Category)
		require.Nil(t, e.ReminderMinutesBefore)
		require.False(t, e.ReminderSet)
		require.Equal(t, 0, a.scheduler.Pending())
	})

	t.Run("zero lead time is no reminder", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		e, err := a.CreateEvent(ctx, u, EventInput{
			Name: "Party", Date: "2099-12-31", Time: "20:00", ReminderMinutesBefore: minutesPtr(0),
		})
		require.NoError(t, err)
		require.Nil(t, e.ReminderMinutesBefore)
		require.False(t, e.ReminderSet)
	})

	t.Run("fractional lead time", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		e, err := a.CreateEvent(ctx, u, EventInput{
			Name: "Party", Date: "2099-12-31", Time: "20:00", ReminderMinutesBefore: minutesPtr(30.5),
		})
		require.NoError(t, err)
		require.True(t, e.ReminderSet)
		require.Equal(t, 30.5, *e.ReminderMinutesBefore)
		require.Equal(t, 1, a.scheduler.Pending())
	})

	t.Run("seconds accepted", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		e, err := a.CreateEvent(ctx, u, EventInput{Name: "Party", Date: "2099-12-31", Time: "20:00:30"})
		require.NoError(t, err)
		require.True(t, e.Date.Equal(time.Date(2099, 12, 31, 20, 0, 30, 0, time.Local)))
	})

	t.Run("validation", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		for name, in := range map[string]EventInput{
			"no name":      {Date: "2099-12-31", Time: "10:00"},
			"no date":      {Name: "Meeting", Time: "10:00"},
			"no time":      {Name: "Meeting", Date: "2099-12-31"},
			"bad date":     {Name: "Meeting", Date: "2099-13-31", Time: "10:00"},
			"bad time":     {Name: "Meeting", Date: "2099-12-31", Time: "25:00"},
			"not a date":   {Name: "Meeting", Date: "tomorrow", Time: "10:00"},
			"february 30":  {Name: "Meeting", Date: "2099-02-30", Time: "10:00"},
			"missing zero": {Name: "Meeting", Date: "2099-1-31", Time: "10:00"},
		} {
			_, err := a.CreateEvent(ctx, u, in)
			require.ErrorIs(t, err, ErrValidation, name)
		}

		events, err := a.Storage.ListEventsByOwner(ctx, u.ID)
		require.NoError(t, err)
		require.Empty(t, events)
	})

	t.Run("reminder fires", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		date := now.Add(2 * time.Hour)
		_, err := a.CreateEvent(ctx, u, EventInput{
			Name:                  "Call",
			Date:                  date.Format("2006-01-02"),
			Time:                  date.Format("15:04"),
			ReminderMinutesBefore: minutesPtr(30),
		})
		require.NoError(t, err)

		a.clock.Advance(90 * time.Minute)
		require.Eventually(t, func() bool { return a.notifier.count() == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("reminder already in the past", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")

		date := now.Add(10 * time.Minute)
		e, err := a.CreateEvent(ctx, u, EventInput{
			Name:                  "Call",
			Date:                  date.Format("2006-01-02"),
			Time:                  date.Format("15:04"),
			ReminderMinutesBefore: minutesPtr(30),
		})
		require.NoError(t, err)
		require.True(t, e.ReminderSet)
		require.Equal(t, 0, a.scheduler.Pending())

		a.clock.Advance(time.Hour)
		time.Sleep(10 * time.Millisecond)
		require.Equal(t, 0, a.notifier.count())
	})
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, a testApp, u storage.User, in EventInput) storage.Event {
		t.Helper()
		e, err := a.CreateEvent(ctx, u, in)
		require.NoError(t, err)
		return e
	}

	t.Run("owner only", func(t *testing.T) {
		a := newTestApp(t)
		userA := register(t, a, "a")
		userB := register(t, a, "b")
		create(t, a, userA, EventInput{Name: "A", Date: "2099-12-31", Time: "10:00"})

		events, err := a.ListEvents(ctx, userB, SortByDate)
		require.NoError(t, err)
		require.NotNil(t, events)
		require.Empty(t, events)
	})

	t.Run("past events excluded", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")
		create(t, a, u, EventInput{Name: "Past", Date: "2020-01-01", Time: "10:00"})
		create(t, a, u, EventInput{Name: "Future", Date: "2099-12-31", Time: "10:00"})

		for _, sortBy := range []string{"", SortByDate, SortByCategory, SortByReminder, "unknown"} {
			events, err := a.ListEvents(ctx, u, sortBy)
			require.NoError(t, err)
			require.Len(t, events, 1, sortBy)
			require.Equal(t, "Future", events[0].Name)
		}
	})

	t.Run("event at current moment is listed", func(t *testing.T) {
		a := newTestApp(t)
		u := register(t, a, "testuser")
		create(t, a, u, EventInput{Name: "Now", Date: now.Format("2006-01-02"), Time: now.Format("15:04")})

		events, err := a.ListEvents(ctx, u, "")
		require.NoError(t, err)
		require.Len(t, events, 1)
	})

	a := newTestApp(t)
	u := register(t, a, "testuser")
	create(t, a, u, EventInput{Name: "3", Date: "2099-03-01", Time: "10:00", Category: "work"})
	create(t, a, u, EventInput{
		Name: "1", Date: "2099-01-01", Time: "10:00", Category: "Birthday", ReminderMinutesBefore: minutesPtr(10),
	})
	create(t, a, u, EventInput{Name: "2", Date: "2099-02-01", Time: "10:00", Category: "appointments"})
	create(t, a, u, EventInput{
		Name: "4", Date: "2099-01-15", Time: "10:00", Category: "work", ReminderMinutesBefore: minutesPtr(5),
	})

	names := func(events []storage.Event) []string {
		res := make([]string, 0, len(events))
		for _, e := range events {
			res = append(res, e.Name)
		}
		return res
	}

	t.Run("insertion order", func(t *testing.T) {
		events, err := a.ListEvents(ctx, u, "")
		require.NoError(t, err)
		require.Equal(t, []string{"3", "1", "2", "4"}, names(events))

		events, err = a.ListEvents(ctx, u, "name")
		require.NoError(t, err)
		require.Equal(t, []string{"3", "1", "2", "4"}, names(events))
	})

	t.Run("sort by date", func(t *testing.T) {
		events, err := a.ListEvents(ctx, u, SortByDate)
		require.NoError(t, err)
		require.Equal(t, []string{"1", "4", "2", "3"}, names(events))
		for i := 1; i < len(events); i++ {
			require.False(t, events[i].Date.Before(events[i-1].Date))
		}
	})

	t.Run("sort by category", func(t *testing.T) {
		events, err := a.ListEvents(ctx, u, SortByCategory)
		require.NoError(t, err)
		require.Equal(t, []string{"2", "1", "3", "4"}, names(events))
	})

	t.Run("sort by reminder", func(t *testing.T) {
		events, err := a.ListEvents(ctx, u, SortByReminder)
		require.NoError(t, err)
		require.Equal(t, []string{"1", "4", "3", "2"}, names(events))
	})
}

package streak

import (
	"context"
	"time"
)

const (
	// breakDays is the largest gap, in calendar days, that still counts as a
	// continuation of the same absence run. Anything wider starts a new run.
	breakDays = 10
	// notifyAfter is the run length at which a notification becomes due.
	notifyAfter = 3
)

// Streak is a per-student rolling count of consecutive absence days.
type Streak struct {
	StudentID         string    `json:"student_id"`
	Days              int       `json:"days"`
	LastAbsence       time.Time `json:"last_absence"`
	NotificationLevel int       `json:"notification_level"`
	Notified          bool      `json:"notified"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Store persists streak rows.
type Store interface {
	Get(ctx context.Context, studentID string) (*Streak, error)
	Create(ctx context.Context, s Streak) error
	Update(ctx context.Context, s Streak) error
}

// Tracker applies absence events to per-student streaks.
type Tracker struct {
	store Store
}

// NewTracker creates a tracker backed by a store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// RecordAbsence folds one absence on the given calendar day into the student's
// streak. Same-day repeats are ignored, a gap of 1..10 days extends the run,
// and a wider gap starts a fresh one. The first tracked absence is created
// already-notified so no alert fires for a single missed day.
func (t *Tracker) RecordAbsence(ctx context.Context, studentID string, day time.Time) (*Streak, error) {
	day = truncateDay(day)

	cur, err := t.store.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		s := Streak{
			StudentID:   studentID,
			Days:        1,
			LastAbsence: day,
			Notified:    true,
		}
		if err := t.store.Create(ctx, s); err != nil {
			return nil, err
		}
		return &s, nil
	}

	gap := wholeDays(cur.LastAbsence, day)
	switch {
	case gap <= 0:
		// Same-day duplicate or backdated correction; leave the row alone.
		return cur, nil
	case gap > breakDays:
		cur.Days = 1
		cur.LastAbsence = day
		cur.NotificationLevel = 0
		cur.Notified = true
	default:
		cur.Days++
		cur.LastAbsence = day
		if cur.Days >= notifyAfter {
			cur.NotificationLevel = cur.Days
			cur.Notified = false
		}
	}
	if err := t.store.Update(ctx, *cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// truncateDay drops the time-of-day component, keeping the calendar date in UTC.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wholeDays returns the calendar-day difference from a to b.
func wholeDays(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)) / (24 * time.Hour))
}

package streak

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository persists streaks in Postgres.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the streak row for a student, or nil when none exists.
func (r *Repository) Get(ctx context.Context, studentID string) (*Streak, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, days, last_absence, notification_level, notified, updated_at
		FROM absence_streaks WHERE student_id = $1
	`, studentID)
	var s Streak
	if err := row.Scan(&s.StudentID, &s.Days, &s.LastAbsence, &s.NotificationLevel, &s.Notified, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a fresh streak row.
func (r *Repository) Create(ctx context.Context, s Streak) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO absence_streaks (student_id, days, last_absence, notification_level, notified, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.StudentID, s.Days, s.LastAbsence, s.NotificationLevel, s.Notified, time.Now().UTC())
	return err
}

// Update rewrites the streak row for a student.
func (r *Repository) Update(ctx context.Context, s Streak) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE absence_streaks
		SET days = $2, last_absence = $3, notification_level = $4, notified = $5, updated_at = $6
		WHERE student_id = $1
	`, s.StudentID, s.Days, s.LastAbsence, s.NotificationLevel, s.Notified, time.Now().UTC())
	return err
}

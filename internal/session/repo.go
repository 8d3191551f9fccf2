package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists attendance rows in Postgres.
type Repository struct {
	db *sql.DB
}

var _ RecordStore = (*Repository)(nil)

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a record is already stored for the exact key.
func (r *Repository) Exists(ctx context.Context, studentID, batchID, subjectID string, day time.Time, timeOfDay string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM attendance_records
		WHERE student_id = $1 AND batch_id = $2 AND subject_id = $3 AND day = $4 AND time_of_day = $5
		LIMIT 1
	`, studentID, batchID, subjectID, day, timeOfDay)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InsertAll writes every row of a session in one transaction. A unique-index
// violation on the attendance key surfaces as a ConflictError so two racing
// submissions cannot both commit.
func (r *Repository) InsertAll(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance_records
			(id, session_id, teacher_id, batch_id, subject_id, day, time_of_day, student_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.SessionID, rec.TeacherID, rec.BatchID, rec.SubjectID,
			rec.Day, rec.TimeOfDay, rec.StudentID, rec.Status,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return &ConflictError{StudentID: rec.StudentID}
			}
			return err
		}
	}
	return tx.Commit()
}

// BySession returns every row sharing a session id.
func (r *Repository) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, teacher_id, batch_id, subject_id, day, time_of_day, student_id, status, created_at
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY student_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Filter scopes record listings.
type Filter struct {
	BatchID   string
	SubjectID string
	StudentID string
	Day       *time.Time
	Limit     int
	Offset    int
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	query := `SELECT id, session_id, teacher_id, batch_id, subject_id, day, time_of_day, student_id, status, created_at FROM attendance_records`
	args := []any{}
	clauses := []string{}
	if f.BatchID != "" {
		args = append(args, f.BatchID)
		clauses = append(clauses, fmt.Sprintf("batch_id = $%d", len(args)))
	}
	if f.SubjectID != "" {
		args = append(args, f.SubjectID)
		clauses = append(clauses, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if f.StudentID != "" {
		args = append(args, f.StudentID)
		clauses = append(clauses, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if f.Day != nil {
		args = append(args, *f.Day)
		clauses = append(clauses, fmt.Sprintf("day = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.TeacherID, &rec.BatchID, &rec.SubjectID,
			&rec.Day, &rec.TimeOfDay, &rec.StudentID, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

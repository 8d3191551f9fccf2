package directory

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Staff is a teacher or admin user permitted to take attendance.
type Staff struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Student carries the contact details needed for absence notification.
type Student struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	GuardianEmail string `json:"guardian_email,omitempty"`
}

// Repository reads the staff, student and subject directories from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindStaff resolves an external employee id to a teacher or admin.
// Returns nil when no such user holds either role.
func (r *Repository) FindStaff(ctx context.Context, employeeID string) (*Staff, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, employee_id, name, email, role, created_at
		FROM staff
		WHERE employee_id = $1 AND role IN ('teacher', 'admin')
	`, employeeID)
	var s Staff
	if err := row.Scan(&s.ID, &s.EmployeeID, &s.Name, &s.Email, &s.Role, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetStudent returns a student by id, or nil when unknown.
func (r *Repository) GetStudent(ctx context.Context, studentID string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, name, email, guardian_email
		FROM students WHERE student_id = $1
	`, studentID)
	var s Student
	if err := row.Scan(&s.StudentID, &s.Name, &s.Email, &s.GuardianEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// SubjectName returns the display name for a subject, falling back to the id.
func (r *Repository) SubjectName(ctx context.Context, subjectID string) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT name FROM subjects WHERE subject_id = $1`, subjectID)
	var name string
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subjectID, nil
		}
		return "", err
	}
	if name == "" {
		return subjectID, nil
	}
	return name, nil
}

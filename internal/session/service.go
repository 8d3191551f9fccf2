package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/directory"
	"rollcall/internal/metrics"
	"rollcall/internal/queue"
)

// Record is one student's row within a recorded session.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	TeacherID string    `json:"teacher_id"`
	BatchID   string    `json:"batch_id"`
	SubjectID string    `json:"subject_id"`
	Day       time.Time `json:"date"`
	TimeOfDay string    `json:"time"`
	StudentID string    `json:"student_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is returned to the submitting teacher on success.
type Result struct {
	SessionID string `json:"sessionId"`
	TeacherID string `json:"teacherId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// RecordStore persists attendance rows.
type RecordStore interface {
	Exists(ctx context.Context, studentID, batchID, subjectID string, day time.Time, timeOfDay string) (bool, error)
	InsertAll(ctx context.Context, records []Record) error
	BySession(ctx context.Context, sessionID string) ([]Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
}

// Directory resolves the submitting teacher and subject display names.
type Directory interface {
	FindStaff(ctx context.Context, employeeID string) (*directory.Staff, error)
	SubjectName(ctx context.Context, subjectID string) (string, error)
}

// Service coordinates validation, duplicate checks and the committing write.
type Service struct {
	records RecordStore
	dir     Directory
	q       queue.Queue
}

// NewService creates a service.
func NewService(records RecordStore, dir Directory, q queue.Queue) *Service {
	return &Service{records: records, dir: dir, q: q}
}

// Take records one attendance session. Every row shares one freshly generated
// session id and the insert is all-or-nothing; once the rows are committed,
// absence events are published best-effort and can no longer fail the request.
func (s *Service) Take(ctx context.Context, sub Submission) (Result, error) {
	day, verr := sub.Validate()
	if verr != nil {
		return Result{}, verr
	}

	// Every student is checked before any insert begins; the unique index on
	// the key closes the remaining race inside the insert transaction.
	for _, entry := range sub.Students {
		exists, err := s.records.Exists(ctx, entry.Student, sub.Batch, sub.Subject, day, sub.Time)
		if err != nil {
			return Result{}, err
		}
		if exists {
			metrics.DuplicateConflicts.Inc()
			return Result{}, &ConflictError{StudentID: entry.Student}
		}
	}

	teacher, err := s.dir.FindStaff(ctx, sub.Teacher)
	if err != nil {
		return Result{}, err
	}
	if teacher == nil {
		return Result{}, ErrTeacherNotFound
	}

	sessionID := uuid.NewString()
	records := make([]Record, 0, len(sub.Students))
	for _, entry := range sub.Students {
		records = append(records, Record{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			TeacherID: teacher.ID,
			BatchID:   sub.Batch,
			SubjectID: sub.Subject,
			Day:       day,
			TimeOfDay: sub.Time,
			StudentID: entry.Student,
			Status:    entry.AttendanceStatus,
		})
	}

	if err := s.records.InsertAll(ctx, records); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.DuplicateConflicts.Inc()
			return Result{}, conflict
		}
		return Result{}, err
	}
	metrics.SessionsRecorded.Inc()
	metrics.RecordsWritten.Add(float64(len(records)))

	s.publishAbsences(ctx, sessionID, sub, day)

	return Result{
		SessionID: sessionID,
		TeacherID: teacher.ID,
		Date:      day.Format(time.DateOnly),
		Time:      sub.Time,
	}, nil
}

// publishAbsences fans out one event per absent student. Failures are logged
// and swallowed: the attendance rows are already committed and stay authoritative.
func (s *Service) publishAbsences(ctx context.Context, sessionID string, sub Submission, day time.Time) {
	subjectName, err := s.dir.SubjectName(ctx, sub.Subject)
	if err != nil {
		log.Printf("subject name lookup failed for %s: %v", sub.Subject, err)
		subjectName = sub.Subject
	}
	for _, entry := range sub.Students {
		if entry.AttendanceStatus != StatusAbsent {
			continue
		}
		msg, err := queue.NewAbsenceMessage(queue.AbsenceEvent{
			SessionID:   sessionID,
			StudentID:   entry.Student,
			SubjectID:   sub.Subject,
			SubjectName: subjectName,
			Date:        day.Format(time.DateOnly),
			Time:        sub.Time,
		})
		if err != nil {
			log.Printf("absence event encode failed for %s: %v", entry.Student, err)
			continue
		}
		if err := s.q.Publish(ctx, msg); err != nil {
			log.Printf("absence event publish failed for %s: %v", entry.Student, err)
			continue
		}
		metrics.AbsencesPublished.Inc()
	}
}

// Records returns all rows sharing a session id.
func (s *Service) Records(ctx context.Context, sessionID string) ([]Record, error) {
	return s.records.BySession(ctx, sessionID)
}

// ListRecords returns rows matching the filter.
func (s *Service) ListRecords(ctx context.Context, f Filter) ([]Record, error) {
	return s.records.List(ctx, f)
}

package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"rollcall/internal/directory"
	"rollcall/internal/metrics"
	"rollcall/internal/queue"
	"rollcall/internal/streak"
)

// Email is one outbound message.
type Email struct {
	ToName  string
	ToAddr  string
	Subject string
	Body    string
}

// Mailer delivers emails. Implementations must not block on retries.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// StudentDirectory resolves student contact details.
type StudentDirectory interface {
	GetStudent(ctx context.Context, studentID string) (*directory.Student, error)
}

// Dispatcher handles absence events: it advances the student's streak and
// sends the absence email. Both steps are best-effort; failures are logged
// and never propagated, since the attendance rows are already committed.
type Dispatcher struct {
	dir     StudentDirectory
	mailer  Mailer
	tracker *streak.Tracker
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(dir StudentDirectory, mailer Mailer, tracker *streak.Tracker) *Dispatcher {
	return &Dispatcher{dir: dir, mailer: mailer, tracker: tracker}
}

// HandleAbsence processes one absence event.
func (d *Dispatcher) HandleAbsence(ctx context.Context, evt queue.AbsenceEvent) {
	day, err := time.ParseInLocation(time.DateOnly, evt.Date, time.UTC)
	if err != nil {
		log.Printf("absence event for %s carries bad date %q: %v", evt.StudentID, evt.Date, err)
		return
	}

	if _, err := d.tracker.RecordAbsence(ctx, evt.StudentID, day); err != nil {
		log.Printf("streak update failed for %s: %v", evt.StudentID, err)
	}

	student, err := d.dir.GetStudent(ctx, evt.StudentID)
	if err != nil {
		log.Printf("student lookup failed for %s: %v", evt.StudentID, err)
		return
	}
	if student == nil || student.Email == "" {
		log.Printf("no email on file for student %s, skipping absence mail", evt.StudentID)
		return
	}

	mail := Email{
		ToName:  student.Name,
		ToAddr:  student.Email,
		Subject: fmt.Sprintf("Absence recorded: %s on %s", evt.SubjectName, evt.Date),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYou were marked absent for %s on %s at %s. If you believe this is a mistake, please contact your teacher.\n",
			student.Name, evt.SubjectName, evt.Date, evt.Time,
		),
	}
	if err := d.mailer.Send(ctx, mail); err != nil {
		metrics.EmailsFailed.Inc()
		log.Printf("absence mail to %s failed: %v", student.Email, err)
		return
	}
	metrics.EmailsSent.Inc()
}

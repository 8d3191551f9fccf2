package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"rollcall/internal/directory"
	"rollcall/internal/queue"
	"rollcall/internal/streak"
)

type memStreaks struct {
	rows map[string]streak.Streak
}

func (m *memStreaks) Get(_ context.Context, id string) (*streak.Streak, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStreaks) Create(_ context.Context, s streak.Streak) error {
	m.rows[s.StudentID] = s
	return nil
}

func (m *memStreaks) Update(_ context.Context, s streak.Streak) error {
	m.rows[s.StudentID] = s
	return nil
}

type fakeStudents struct {
	students map[string]*directory.Student
	err      error
}

func (f *fakeStudents) GetStudent(_ context.Context, id string) (*directory.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.students[id], nil
}

type captureMailer struct {
	sent []Email
	err  error
}

func (m *captureMailer) Send(_ context.Context, e Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func testEvent() queue.AbsenceEvent {
	return queue.AbsenceEvent{
		SessionID:   "sess-1",
		StudentID:   "S100",
		SubjectID:   "S1",
		SubjectName: "Mathematics",
		Date:        "2024-03-01",
		Time:        "09:00",
	}
}

func TestHandleAbsenceSendsMailAndUpdatesStreak(t *testing.T) {
	streaks := &memStreaks{rows: make(map[string]streak.Streak)}
	mailer := &captureMailer{}
	dir := &fakeStudents{students: map[string]*directory.Student{
		"S100": {StudentID: "S100", Name: "Asha", Email: "asha@example.com"},
	}}
	d := NewDispatcher(dir, mailer, streak.NewTracker(streaks))

	d.HandleAbsence(context.Background(), testEvent())

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	if mailer.sent[0].ToAddr != "asha@example.com" {
		t.Errorf("mail went to %s", mailer.sent[0].ToAddr)
	}
	s, ok := streaks.rows["S100"]
	if !ok {
		t.Fatal("no streak row created")
	}
	if s.Days != 1 {
		t.Errorf("streak days = %d, want 1", s.Days)
	}
	want, _ := time.ParseInLocation(time.DateOnly, "2024-03-01", time.UTC)
	if !s.LastAbsence.Equal(want) {
		t.Errorf("last absence = %v, want %v", s.LastAbsence, want)
	}
}

func TestHandleAbsenceUnknownStudentSkipsMail(t *testing.T) {
	streaks := &memStreaks{rows: make(map[string]streak.Streak)}
	mailer := &captureMailer{}
	d := NewDispatcher(&fakeStudents{students: map[string]*directory.Student{}}, mailer, streak.NewTracker(streaks))

	d.HandleAbsence(context.Background(), testEvent())

	if len(mailer.sent) != 0 {
		t.Errorf("sent %d mails for unknown student", len(mailer.sent))
	}
	// Streak still advances; tracking does not depend on mail delivery.
	if _, ok := streaks.rows["S100"]; !ok {
		t.Error("streak row missing for unknown student")
	}
}

func TestHandleAbsenceMailFailureIsSwallowed(t *testing.T) {
	streaks := &memStreaks{rows: make(map[string]streak.Streak)}
	mailer := &captureMailer{err: errors.New("smtp down")}
	dir := &fakeStudents{students: map[string]*directory.Student{
		"S100": {StudentID: "S100", Name: "Asha", Email: "asha@example.com"},
	}}
	d := NewDispatcher(dir, mailer, streak.NewTracker(streaks))

	// Must not panic or abort; the failure is logged only.
	d.HandleAbsence(context.Background(), testEvent())

	if _, ok := streaks.rows["S100"]; !ok {
		t.Error("streak row missing after mail failure")
	}
}

func TestHandleAbsenceBadDateIgnored(t *testing.T) {
	streaks := &memStreaks{rows: make(map[string]streak.Streak)}
	mailer := &captureMailer{}
	d := NewDispatcher(&fakeStudents{}, mailer, streak.NewTracker(streaks))

	evt := testEvent()
	evt.Date = "03/01/2024"
	d.HandleAbsence(context.Background(), evt)

	if len(streaks.rows) != 0 || len(mailer.sent) != 0 {
		t.Error("malformed event should not touch state")
	}
}

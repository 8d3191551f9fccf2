package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rollcall/internal/directory"
	"rollcall/internal/queue"
)

type fakeRecords struct {
	existing    map[string]bool
	inserted    []Record
	existsCalls int
	insertErr   error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{existing: make(map[string]bool)}
}

func recordKey(studentID, batchID, subjectID string, day time.Time, tod string) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", studentID, batchID, subjectID, day.Format(time.DateOnly), tod)
}

func (f *fakeRecords) Exists(_ context.Context, studentID, batchID, subjectID string, day time.Time, tod string) (bool, error) {
	f.existsCalls++
	return f.existing[recordKey(studentID, batchID, subjectID, day, tod)], nil
}

func (f *fakeRecords) InsertAll(_ context.Context, records []Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeRecords) BySession(_ context.Context, sessionID string) ([]Record, error) {
	var out []Record
	for _, r := range f.inserted {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) List(_ context.Context, _ Filter) ([]Record, error) {
	return f.inserted, nil
}

type fakeDirectory struct {
	staff map[string]*directory.Staff
}

func (f *fakeDirectory) FindStaff(_ context.Context, employeeID string) (*directory.Staff, error) {
	return f.staff[employeeID], nil
}

func (f *fakeDirectory) SubjectName(_ context.Context, subjectID string) (string, error) {
	return "Subject " + subjectID, nil
}

func validSubmission() Submission {
	return Submission{
		Teacher: "T1",
		Batch:   "B1",
		Subject: "S1",
		Date:    "2024-03-01",
		Time:    "09:00",
		Students: []RosterEntry{
			{Student: "S100", AttendanceStatus: "absent"},
			{Student: "S101", AttendanceStatus: "present"},
			{Student: "S102", AttendanceStatus: "absent"},
		},
	}
}

func newTestService(records RecordStore) (*Service, *queue.InMemory) {
	dir := &fakeDirectory{staff: map[string]*directory.Staff{
		"T1": {ID: "11111111-1111-1111-1111-111111111111", EmployeeID: "T1", Role: "teacher"},
	}}
	q := queue.NewInMemory(16)
	return NewService(records, dir, q), q
}

func TestTakeCreatesOneRowPerStudent(t *testing.T) {
	records := newFakeRecords()
	svc, _ := newTestService(records)

	res, err := svc.Take(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionID == "" {
		t.Fatal("no session id returned")
	}
	if res.Date != "2024-03-01" || res.Time != "09:00" {
		t.Errorf("result date/time = %s/%s", res.Date, res.Time)
	}
	if len(records.inserted) != 3 {
		t.Fatalf("inserted %d rows, want 3", len(records.inserted))
	}
	for _, r := range records.inserted {
		if r.SessionID != res.SessionID {
			t.Errorf("row %s carries session %s, want %s", r.StudentID, r.SessionID, res.SessionID)
		}
		if r.TeacherID != "11111111-1111-1111-1111-111111111111" {
			t.Errorf("row %s carries teacher %s", r.StudentID, r.TeacherID)
		}
	}
}

func TestDuplicateRejectsWholeSubmission(t *testing.T) {
	records := newFakeRecords()
	day, _ := time.ParseInLocation(time.DateOnly, "2024-03-01", time.UTC)
	records.existing[recordKey("S101", "B1", "S1", day, "09:00")] = true
	svc, _ := newTestService(records)

	_, err := svc.Take(context.Background(), validSubmission())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.StudentID != "S101" {
		t.Errorf("conflict names student %s, want S101", conflict.StudentID)
	}
	if len(records.inserted) != 0 {
		t.Errorf("inserted %d rows, want 0 on conflict", len(records.inserted))
	}
}

func TestBadTimeFailsBeforeStoreAccess(t *testing.T) {
	records := newFakeRecords()
	svc, _ := newTestService(records)

	sub := validSubmission()
	sub.Time = "9:00"
	_, err := svc.Take(context.Background(), sub)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if records.existsCalls != 0 {
		t.Errorf("store was queried %d times during validation failure", records.existsCalls)
	}
}

func TestValidationReportsEveryField(t *testing.T) {
	records := newFakeRecords()
	svc, _ := newTestService(records)

	sub := validSubmission()
	sub.Teacher = ""
	sub.Time = "25:00"
	sub.Students[0].AttendanceStatus = "late"
	_, err := svc.Take(context.Background(), sub)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Fields) < 3 {
		t.Errorf("got %d field errors, want at least 3: %v", len(verr.Fields), verr.Fields)
	}
}

func TestUnknownTeacherRejected(t *testing.T) {
	records := newFakeRecords()
	svc, _ := newTestService(records)

	sub := validSubmission()
	sub.Teacher = "nobody"
	_, err := svc.Take(context.Background(), sub)
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Fatalf("err = %v, want ErrTeacherNotFound", err)
	}
	if len(records.inserted) != 0 {
		t.Error("rows were inserted for an unknown teacher")
	}
}

func TestAbsenceEventsPublished(t *testing.T) {
	records := newFakeRecords()
	svc, q := newTestService(records)

	res, err := svc.Take(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}

	absent := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-messages:
			evt, err := queue.DecodeAbsence(msg)
			if err != nil {
				t.Fatal(err)
			}
			if evt.SessionID != res.SessionID {
				t.Errorf("event session = %s, want %s", evt.SessionID, res.SessionID)
			}
			if evt.SubjectName != "Subject S1" {
				t.Errorf("event subject name = %s", evt.SubjectName)
			}
			absent[evt.StudentID] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for absence events")
		}
	}
	if !absent["S100"] || !absent["S102"] {
		t.Errorf("absence events for %v, want S100 and S102", absent)
	}
}

func TestInsertConflictSurfaces(t *testing.T) {
	records := newFakeRecords()
	records.insertErr = &ConflictError{StudentID: "S100"}
	svc, _ := newTestService(records)

	_, err := svc.Take(context.Background(), validSubmission())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError from insert", err)
	}
}

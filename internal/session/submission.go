package session

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Attendance statuses accepted on a roster entry.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// RosterEntry is one student's marking within a submission.
type RosterEntry struct {
	Student          string `json:"student" validate:"required"`
	AttendanceStatus string `json:"attendanceStatus" validate:"required,oneof=present absent"`
}

// Submission is one teacher's roster for a (batch, subject, date, time) tuple.
type Submission struct {
	Teacher  string        `json:"teacher" validate:"required"`
	Batch    string        `json:"batch" validate:"required"`
	Subject  string        `json:"subject" validate:"required"`
	Date     string        `json:"date" validate:"required"`
	Time     string        `json:"time" validate:"required,hhmm"`
	Students []RosterEntry `json:"students" validate:"required,min=1,dive"`
}

var (
	hhmmRe   = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	// 24-hour HH:mm wall-clock time.
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks the whole submission and reports every problem at once.
// The parsed calendar date is returned so callers never re-parse the string.
func (s Submission) Validate() (time.Time, *ValidationError) {
	var fields []FieldError
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, FieldError{Msg: messageFor(fe)})
			}
		} else {
			fields = append(fields, FieldError{Msg: err.Error()})
		}
	}

	var day time.Time
	if s.Date != "" {
		var err error
		day, err = time.ParseInLocation(time.DateOnly, s.Date, time.UTC)
		if err != nil {
			fields = append(fields, FieldError{Msg: "date must be a valid YYYY-MM-DD date"})
		}
	}

	if len(fields) > 0 {
		return time.Time{}, &ValidationError{Fields: fields}
	}
	return day, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", jsonName(fe))
	case "min":
		return fmt.Sprintf("%s must have at least %s entry", jsonName(fe), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", jsonName(fe), fe.Param())
	case "hhmm":
		return fmt.Sprintf("%s must be a 24-hour HH:mm time", jsonName(fe))
	default:
		return fmt.Sprintf("%s is invalid", jsonName(fe))
	}
}

// jsonName lowercases the leading struct path segment to match the wire field names.
func jsonName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Teacher":
		return "teacher"
	case "Batch":
		return "batch"
	case "Subject":
		return "subject"
	case "Date":
		return "date"
	case "Time":
		return "time"
	case "Students":
		return "students"
	case "Student":
		return "student"
	case "AttendanceStatus":
		return "attendanceStatus"
	default:
		return fe.Field()
	}
}

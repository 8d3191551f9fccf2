package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the attendance pipeline; exported on /metrics.
var (
	SessionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sessions_recorded_total",
		Help: "Attendance sessions committed.",
	})
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_records_written_total",
		Help: "Attendance rows written.",
	})
	DuplicateConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_duplicate_conflicts_total",
		Help: "Submissions rejected because a record already existed for the key.",
	})
	AbsencesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_absences_published_total",
		Help: "Absence events published to the queue.",
	})
	AbsencesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_absences_processed_total",
		Help: "Absence events handled by the worker.",
	})
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_emails_sent_total",
		Help: "Absence emails handed to the mail provider.",
	})
	EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_emails_failed_total",
		Help: "Absence emails that could not be delivered.",
	})
)

package recorder

import (
	"time"

	"NinetyDays/internal/model"
)

// EventRecord is one journaled ledger event.
type EventRecord struct {
	ID          string
	Timestamp   time.Time
	Kind        model.EventKind
	Participant model.Identity
	Payload     string // JSON of the event fields
	TotalFunds  string
	TotalBonus  string
	FeesAccrued string
	ActiveCount int
}

// AuditRecord holds the outcome of a periodic bookkeeping audit.
type AuditRecord struct {
	Summary   model.Summary
	Violation string // empty when conservation held
	Shortfall string // custody shortfall in smallest units
	SaveError string // last failed state-file write, if not yet recovered
}

// Recorder persists the event history for later analysis.
type Recorder interface {
	Publish(events []model.Event, summary model.Summary) error
	RecordAudit(rec *AuditRecord) error
	RecentEvents(limit int) ([]EventRecord, error)
	Close() error
}

// participantOf returns the identity an event is about, if any.
func participantOf(ev model.Event) model.Identity {
	switch e := ev.(type) {
	case model.EntryRecorded:
		return e.Participant
	case model.DaysAdvanced:
		return e.Participant
	case model.ChallengeCompleted:
		return e.Participant
	case model.ExitRecorded:
		return e.Participant
	case model.ValueTransferred:
		return e.To
	case model.AdministrationTransferred:
		return e.Next
	}
	return ""
}

package model

import "math/big"

// EventKind names a ledger event.
type EventKind string

const (
	KindEntryRecorded             EventKind = "EntryRecorded"
	KindDaysAdvanced              EventKind = "DaysAdvanced"
	KindChallengeCompleted        EventKind = "ChallengeCompleted"
	KindExitRecorded              EventKind = "ExitRecorded"
	KindBonusDistributed          EventKind = "BonusDistributed"
	KindValueTransferred          EventKind = "ValueTransferred"
	KindEntriesAccessChanged      EventKind = "EntriesAccessChanged"
	KindAdministrationTransferred EventKind = "AdministrationTransferred"
)

// Event is emitted by every ledger state transition. Args returns the
// event fields in their published order.
type Event interface {
	Kind() EventKind
	Args() []any
}

// EntryRecorded is emitted when a participant enters the challenge.
type EntryRecorded struct {
	Participant Identity `json:"participant"`
	Net         *big.Int `json:"net"`
	Days        int      `json:"days"`
}

func (e EntryRecorded) Kind() EventKind { return KindEntryRecorded }
func (e EntryRecorded) Args() []any     { return []any{e.Participant, e.Net, e.Days} }

// DaysAdvanced is emitted when elapsed days are applied to a record.
type DaysAdvanced struct {
	Participant   Identity `json:"participant"`
	CommittedDays int      `json:"committed_days"`
	DaysLeft      int      `json:"days_left"`
}

func (e DaysAdvanced) Kind() EventKind { return KindDaysAdvanced }
func (e DaysAdvanced) Args() []any     { return []any{e.Participant, e.CommittedDays, e.DaysLeft} }

// ChallengeCompleted is emitted when a record reaches zero days left.
type ChallengeCompleted struct {
	Participant   Identity `json:"participant"`
	CommittedDays int      `json:"committed_days"`
	DaysLeft      int      `json:"days_left"`
}

func (e ChallengeCompleted) Kind() EventKind { return KindChallengeCompleted }
func (e ChallengeCompleted) Args() []any {
	return []any{e.Participant, e.CommittedDays, e.DaysLeft}
}

// ExitRecorded is emitted on an early, penalised exit.
type ExitRecorded struct {
	Participant Identity `json:"participant"`
	Payout      *big.Int `json:"payout"`
	DaysLeft    int      `json:"days_left"`
}

func (e ExitRecorded) Kind() EventKind { return KindExitRecorded }
func (e ExitRecorded) Args() []any     { return []any{e.Participant, e.Payout, e.DaysLeft} }

// BonusDistributed is emitted when the bonus pool is shared out.
type BonusDistributed struct {
	Participants int      `json:"participants"`
	Share        *big.Int `json:"share"`
}

func (e BonusDistributed) Kind() EventKind { return KindBonusDistributed }
func (e BonusDistributed) Args() []any     { return []any{e.Participants, e.Share} }

// ValueTransferred is emitted whenever value leaves the ledger's custody.
type ValueTransferred struct {
	Amount *big.Int `json:"amount"`
	From   Identity `json:"from"`
	To     Identity `json:"to"`
}

func (e ValueTransferred) Kind() EventKind { return KindValueTransferred }
func (e ValueTransferred) Args() []any     { return []any{e.Amount, e.From, e.To} }

// EntriesAccessChanged is emitted when entries are opened or closed.
type EntriesAccessChanged struct {
	Open bool `json:"open"`
}

func (e EntriesAccessChanged) Kind() EventKind { return KindEntriesAccessChanged }
func (e EntriesAccessChanged) Args() []any     { return []any{e.Open} }

// AdministrationTransferred is emitted when the administrator changes.
type AdministrationTransferred struct {
	Previous Identity `json:"previous"`
	Next     Identity `json:"next"`
}

func (e AdministrationTransferred) Kind() EventKind { return KindAdministrationTransferred }
func (e AdministrationTransferred) Args() []any     { return []any{e.Previous, e.Next} }

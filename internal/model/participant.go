package model

import (
	"math/big"
	"time"
)

// Identity is the opaque, stable identity of a caller.
type Identity string

// Participant is the per-identity challenge record. Records are never
// removed; exit and completion only deactivate them.
type Participant struct {
	Balance       *big.Int  `json:"balance"`
	CommittedDays int       `json:"committed_days"`
	DaysLeft      int       `json:"days_left"`
	LastUpdate    time.Time `json:"last_update"`
	Active        bool      `json:"active"`
}

// Clone returns a deep copy of the record.
func (p *Participant) Clone() *Participant {
	c := *p
	c.Balance = new(big.Int).Set(p.Balance)
	return &c
}

// LedgerState is the complete, serialisable state of a challenge ledger.
type LedgerState struct {
	Self          Identity                  `json:"self"`
	Administrator Identity                  `json:"administrator"`
	EntriesOpen   bool                      `json:"entries_open"`
	TotalFunds    *big.Int                  `json:"total_funds"`
	TotalBonus    *big.Int                  `json:"total_bonus"`
	FeesAccrued   *big.Int                  `json:"fees_accrued"`
	ActiveCount   int                       `json:"active_count"`
	Participants  map[Identity]*Participant `json:"participants"`
}

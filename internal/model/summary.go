package model

import (
	"math/big"
	"time"
)

// Summary is a read-only view of the ledger totals.
type Summary struct {
	Administrator  Identity  `json:"administrator"`
	EntriesOpen    bool      `json:"entries_open"`
	ActiveCount    int       `json:"active_count"`
	TotalFunds     *big.Int  `json:"total_funds"`
	TotalBonus     *big.Int  `json:"total_bonus"`
	FeesAccrued    *big.Int  `json:"fees_accrued"`
	CustodyBalance *big.Int  `json:"custody_balance"`
	Participants   int       `json:"participants"`
	TakenAt        time.Time `json:"taken_at"`
}

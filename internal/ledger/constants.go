package ledger

import (
	"time"

	"NinetyDays/internal/model"
)

// Policy parameters. Rates are in basis points of the amount they apply to.
const (
	ServiceFeeBP       = 100
	EarlyExitPenaltyBP = 2900
	basisPoints        = 10000

	DefaultCommitDays = 90
	MaxCommitDays     = 90

	DayDuration = 86400 * time.Second
)

// Amount thresholds in smallest units. Treat as read-only.
var (
	MinEntryDefault = model.MustParseUnits("0.01")
	MinEntryOther   = model.MustParseUnits("0.05")
	BonusThreshold  = model.MustParseUnits("0.1")
)

package ledger

import (
	"errors"
	"math/big"

	"NinetyDays/internal/model"
)

// Business rule rejections. The messages are user visible and fixed.
var (
	ErrEntriesClosed       = errors.New("Challenge is closed.")
	ErrAlreadyActive       = errors.New("You already have entered the challenge")
	ErrBelowMinimumEntry   = errors.New("Minimum entry price not met")
	ErrInvalidCommitment   = errors.New("Maximum challenge length is 90 days.")
	ErrNotActive           = errors.New("You are not in the challenge.")
	ErrTooSoon             = errors.New("Can not update temporally.")
	ErrUnauthorized        = errors.New("You are not allowed to perform this action.")
	ErrInsufficientBonus   = errors.New("Insufficient bonus balance.")
	ErrInsufficientFees    = errors.New("Insufficient fees balance.")
	ErrInsufficientBalance = errors.New("Insufficient contract balance.")
	ErrInvalidIdentity     = errors.New("Invalid identity.")
)

// MinimumEntryError reports a deposit below the minimum for the requested
// commitment. It matches ErrBelowMinimumEntry with errors.Is.
type MinimumEntryError struct {
	Minimum *big.Int
}

func (e *MinimumEntryError) Error() string {
	return "Minimum entry price is " + model.FormatUnits(e.Minimum)
}

func (e *MinimumEntryError) Is(target error) bool {
	return target == ErrBelowMinimumEntry
}

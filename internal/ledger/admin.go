package ledger

import (
	"fmt"
	"math/big"

	"NinetyDays/internal/model"
)

// TakeFees pays the accrued service fees out to the administrator.
func (l *Ledger) TakeFees(caller model.Identity) ([]model.Event, error) {
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	if l.feesAccrued.Sign() == 0 {
		return nil, ErrInsufficientFees
	}
	amount := new(big.Int).Set(l.feesAccrued)
	if err := l.custody.Credit(l.admin, amount); err != nil {
		return nil, fmt.Errorf("credit fees: %w", err)
	}
	l.totalFunds.Sub(l.totalFunds, amount)
	l.feesAccrued.SetInt64(0)
	return []model.Event{
		model.ValueTransferred{Amount: amount, From: l.self, To: l.admin},
	}, nil
}

// WithdrawStray sweeps the entire custody balance to the administrator. It
// ignores the bookkeeping on purpose: it exists to recover value that was
// sent to the ledger outside of Enter.
func (l *Ledger) WithdrawStray(caller model.Identity) ([]model.Event, error) {
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	amount := l.custody.Balance()
	if amount.Sign() == 0 {
		return nil, ErrInsufficientBalance
	}
	amount = new(big.Int).Set(amount)
	if err := l.custody.Credit(l.admin, amount); err != nil {
		return nil, fmt.Errorf("credit custody balance: %w", err)
	}
	return []model.Event{
		model.ValueTransferred{Amount: amount, From: l.self, To: l.admin},
	}, nil
}

// SetEntriesOpen opens or closes the challenge to new entries.
func (l *Ledger) SetEntriesOpen(caller model.Identity, open bool) ([]model.Event, error) {
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	l.entriesOpen = open
	return []model.Event{model.EntriesAccessChanged{Open: open}}, nil
}

// TransferAdministration hands the administrator role to next.
func (l *Ledger) TransferAdministration(caller, next model.Identity) ([]model.Event, error) {
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	if next == "" {
		return nil, ErrInvalidIdentity
	}
	prev := l.admin
	l.admin = next
	return []model.Event{model.AdministrationTransferred{Previous: prev, Next: next}}, nil
}

// Package custody holds the value the ledger has taken custody of and
// journals every movement in and out.
package custody

import (
	"errors"
	"fmt"
	"math/big"

	"NinetyDays/internal/model"
)

var (
	ErrInsufficientCustody = errors.New("insufficient custody balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// State is the serialisable form of a Vault.
type State struct {
	Held     *big.Int                    `json:"held"`
	Received map[model.Identity]*big.Int `json:"received"`
	Paid     map[model.Identity]*big.Int `json:"paid"`
}

// Vault is an in-process custody account. Every call either moves the full
// amount or nothing. It is not safe for concurrent use.
type Vault struct {
	held     *big.Int
	received map[model.Identity]*big.Int
	paid     map[model.Identity]*big.Int
}

// NewVault returns an empty vault.
func NewVault() *Vault {
	return &Vault{
		held:     new(big.Int),
		received: make(map[model.Identity]*big.Int),
		paid:     make(map[model.Identity]*big.Int),
	}
}

// RestoreVault rebuilds a vault from its state.
func RestoreVault(s State) (*Vault, error) {
	v := NewVault()
	if s.Held != nil {
		if s.Held.Sign() < 0 {
			return nil, fmt.Errorf("negative custody balance %s", s.Held)
		}
		v.held.Set(s.Held)
	}
	for id, amt := range s.Received {
		v.received[id] = new(big.Int).Set(amt)
	}
	for id, amt := range s.Paid {
		v.paid[id] = new(big.Int).Set(amt)
	}
	return v, nil
}

// State returns a deep copy of the vault's state.
func (v *Vault) State() State {
	s := State{
		Held:     new(big.Int).Set(v.held),
		Received: make(map[model.Identity]*big.Int, len(v.received)),
		Paid:     make(map[model.Identity]*big.Int, len(v.paid)),
	}
	for id, amt := range v.received {
		s.Received[id] = new(big.Int).Set(amt)
	}
	for id, amt := range v.paid {
		s.Paid[id] = new(big.Int).Set(amt)
	}
	return s
}

// Receive takes custody of value sent along with a ledger call.
func (v *Vault) Receive(from model.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	v.held.Add(v.held, amount)
	addTo(v.received, from, amount)
	return nil
}

// Deposit takes custody of value sent directly, outside any ledger call.
// Only WithdrawStray can recover it.
func (v *Vault) Deposit(from model.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return v.Receive(from, amount)
}

// Credit releases amount from custody to the destination.
func (v *Vault) Credit(to model.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Cmp(v.held) > 0 {
		return fmt.Errorf("credit %s to %s with %s held: %w", amount, to, v.held, ErrInsufficientCustody)
	}
	v.held.Sub(v.held, amount)
	addTo(v.paid, to, amount)
	return nil
}

// Balance returns the value currently held.
func (v *Vault) Balance() *big.Int {
	return new(big.Int).Set(v.held)
}

// PaidTo returns the total value ever credited to id.
func (v *Vault) PaidTo(id model.Identity) *big.Int {
	if amt, ok := v.paid[id]; ok {
		return new(big.Int).Set(amt)
	}
	return new(big.Int)
}

// ReceivedFrom returns the total value ever received from id.
func (v *Vault) ReceivedFrom(id model.Identity) *big.Int {
	if amt, ok := v.received[id]; ok {
		return new(big.Int).Set(amt)
	}
	return new(big.Int)
}

func addTo(m map[model.Identity]*big.Int, id model.Identity, amount *big.Int) {
	if cur, ok := m[id]; ok {
		cur.Add(cur, amount)
		return
	}
	m[id] = new(big.Int).Set(amount)
}

// Package ledger implements the challenge staking ledger: deposit intake,
// fee extraction, the day countdown, early-exit penalties and the bonus
// pool that redistributes penalties to participants still committed.
//
// A Ledger is not safe for concurrent use. Callers serialise access, either
// by owning it from a single goroutine or by holding one lock around every
// call (see internal/challenge).
package ledger

import (
	"fmt"
	"math/big"
	"time"

	"NinetyDays/internal/model"
)

// Custody moves value in and out of the ledger's custody. Each call is
// all-or-nothing: on error no value has moved.
type Custody interface {
	// Receive records value that arrived with the triggering call.
	Receive(from model.Identity, amount *big.Int) error
	// Credit moves amount out of custody to the destination.
	Credit(to model.Identity, amount *big.Int) error
	// Balance is the actual value held, which may exceed the bookkeeping.
	Balance() *big.Int
}

// Ledger owns all global and per-participant challenge state.
type Ledger struct {
	self        model.Identity
	admin       model.Identity
	entriesOpen bool

	totalFunds  *big.Int
	totalBonus  *big.Int
	feesAccrued *big.Int

	activeCount  int
	participants map[model.Identity]*model.Participant

	custody Custody
	clock   Clock
}

// New creates an empty ledger with entries open. self is the ledger's own
// custody identity and admin the initial administrator.
func New(self, admin model.Identity, custody Custody, clock Clock) *Ledger {
	return &Ledger{
		self:         self,
		admin:        admin,
		entriesOpen:  true,
		totalFunds:   new(big.Int),
		totalBonus:   new(big.Int),
		feesAccrued:  new(big.Int),
		participants: make(map[model.Identity]*model.Participant),
		custody:      custody,
		clock:        clock,
	}
}

// Restore rebuilds a ledger from a snapshot, rejecting snapshots whose
// counters disagree with their records.
func Restore(state model.LedgerState, custody Custody, clock Clock) (*Ledger, error) {
	l := New(state.Self, state.Administrator, custody, clock)
	l.entriesOpen = state.EntriesOpen
	l.totalFunds = cloneOrZero(state.TotalFunds)
	l.totalBonus = cloneOrZero(state.TotalBonus)
	l.feesAccrued = cloneOrZero(state.FeesAccrued)
	l.activeCount = state.ActiveCount
	for id, p := range state.Participants {
		if p == nil || p.Balance == nil {
			return nil, fmt.Errorf("participant %s: missing balance", id)
		}
		l.participants[id] = p.Clone()
	}
	if err := l.CheckConservation(); err != nil {
		return nil, fmt.Errorf("restore ledger: %w", err)
	}
	return l, nil
}

// Snapshot returns a deep copy of the complete ledger state.
func (l *Ledger) Snapshot() model.LedgerState {
	state := model.LedgerState{
		Self:          l.self,
		Administrator: l.admin,
		EntriesOpen:   l.entriesOpen,
		TotalFunds:    new(big.Int).Set(l.totalFunds),
		TotalBonus:    new(big.Int).Set(l.totalBonus),
		FeesAccrued:   new(big.Int).Set(l.feesAccrued),
		ActiveCount:   l.activeCount,
		Participants:  make(map[model.Identity]*model.Participant, len(l.participants)),
	}
	for id, p := range l.participants {
		state.Participants[id] = p.Clone()
	}
	return state
}

// CheckConservation verifies by full scan that the active counter matches
// the records and that totalFunds equals active balances plus both pools.
func (l *Ledger) CheckConservation() error {
	sum := new(big.Int)
	active := 0
	for id, p := range l.participants {
		if p.DaysLeft > p.CommittedDays || p.DaysLeft < 0 {
			return fmt.Errorf("participant %s: %d days left of %d committed", id, p.DaysLeft, p.CommittedDays)
		}
		if !p.Active {
			continue
		}
		active++
		sum.Add(sum, p.Balance)
	}
	if active != l.activeCount {
		return fmt.Errorf("active count %d, records show %d", l.activeCount, active)
	}
	sum.Add(sum, l.totalBonus)
	sum.Add(sum, l.feesAccrued)
	if sum.Cmp(l.totalFunds) != 0 {
		return fmt.Errorf("total funds %s, balances and pools sum to %s", l.totalFunds, sum)
	}
	return nil
}

// Summary returns the ledger totals.
func (l *Ledger) Summary() model.Summary {
	return model.Summary{
		Administrator:  l.admin,
		EntriesOpen:    l.entriesOpen,
		ActiveCount:    l.activeCount,
		TotalFunds:     l.TotalFunds(),
		TotalBonus:     l.TotalBonus(),
		FeesAccrued:    l.FeesAccrued(),
		CustodyBalance: l.custody.Balance(),
		Participants:   len(l.participants),
		TakenAt:        l.clock.Now(),
	}
}

// IsActive reports whether id holds an open commitment.
func (l *Ledger) IsActive(id model.Identity) bool {
	p, ok := l.participants[id]
	return ok && p.Active
}

// BalanceOf returns the value id currently owns inside the ledger. The
// ledger's own identity reports the undistributed fees; identities without
// an active commitment own nothing.
func (l *Ledger) BalanceOf(id model.Identity) *big.Int {
	if id == l.self {
		return l.FeesAccrued()
	}
	p, ok := l.participants[id]
	if !ok || !p.Active {
		return new(big.Int)
	}
	return new(big.Int).Set(p.Balance)
}

// Record returns the stored record for id. Inactive records keep the values
// they had when they were closed; unknown identities return zeros.
func (l *Ledger) Record(id model.Identity) (balance *big.Int, committedDays int, lastUpdate time.Time, daysLeft int) {
	p, ok := l.participants[id]
	if !ok {
		return new(big.Int), 0, time.Time{}, 0
	}
	return new(big.Int).Set(p.Balance), p.CommittedDays, p.LastUpdate, p.DaysLeft
}

func (l *Ledger) ActiveCount() int              { return l.activeCount }
func (l *Ledger) TotalFunds() *big.Int          { return new(big.Int).Set(l.totalFunds) }
func (l *Ledger) TotalBonus() *big.Int          { return new(big.Int).Set(l.totalBonus) }
func (l *Ledger) FeesAccrued() *big.Int         { return new(big.Int).Set(l.feesAccrued) }
func (l *Ledger) EntriesOpen() bool             { return l.entriesOpen }
func (l *Ledger) Administrator() model.Identity { return l.admin }
func (l *Ledger) Self() model.Identity          { return l.self }

func (l *Ledger) activeRecord(id model.Identity) (*model.Participant, error) {
	p, ok := l.participants[id]
	if !ok || !p.Active {
		return nil, ErrNotActive
	}
	return p, nil
}

func (l *Ledger) requireAdmin(caller model.Identity) error {
	if caller != l.admin {
		return ErrUnauthorized
	}
	return nil
}

// bps returns floor(amount * rate / 10000).
func bps(amount *big.Int, rate int64) *big.Int {
	v := new(big.Int).Mul(amount, big.NewInt(rate))
	return v.Quo(v, big.NewInt(basisPoints))
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

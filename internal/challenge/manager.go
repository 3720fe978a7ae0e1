// Package challenge hosts a challenge ledger as a long-lived service: one
// lock around the ledger and its custody vault, a state file rewritten
// after every mutation, and event fan-out to the configured sinks.
package challenge

import (
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/sasha-s/go-deadlock"

	"NinetyDays/internal/custody"
	"NinetyDays/internal/ledger"
	"NinetyDays/internal/model"
)

// Sink receives the events of every successful operation together with
// the ledger totals right after it.
type Sink interface {
	Publish(events []model.Event, summary model.Summary) error
}

// Manager serialises all ledger operations behind a single lock.
type Manager struct {
	mu       deadlock.Mutex
	ledger   *ledger.Ledger
	vault    *custody.Vault
	filePath string
	sinks    []Sink
	// saveErr is the last failed state write; cleared by the next good one.
	saveErr error
}

// NewManager creates a Manager, loading or initializing state from disk.
// self and admin only apply to a fresh state; an existing file keeps its
// own administrator but must belong to the same ledger identity.
func NewManager(filePath string, self, admin model.Identity, clock ledger.Clock, sinks ...Sink) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	m := &Manager{filePath: filePath, sinks: sinks}
	if state.Ledger == nil {
		m.vault = custody.NewVault()
		m.ledger = ledger.New(self, admin, m.vault, clock)
		log.Printf("[INFO] new challenge ledger %s administered by %s", self, admin)
	} else {
		if state.Ledger.Self != self {
			return nil, fmt.Errorf("state file %s belongs to ledger %q, not %q", filePath, state.Ledger.Self, self)
		}
		if m.vault, err = custody.RestoreVault(state.Custody); err != nil {
			return nil, fmt.Errorf("restore custody: %w", err)
		}
		if m.ledger, err = ledger.Restore(*state.Ledger, m.vault, clock); err != nil {
			return nil, err
		}
		log.Printf("[INFO] challenge ledger %s restored: %d active participants", self, m.ledger.ActiveCount())
	}

	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Enter stakes deposit for caller.
func (m *Manager) Enter(caller model.Identity, days int, deposit *big.Int) ([]model.Event, error) {
	return m.apply("enter", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.Enter(caller, days, deposit)
	})
}

// Exit withdraws caller early.
func (m *Manager) Exit(caller model.Identity) ([]model.Event, error) {
	return m.apply("exit", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.Exit(caller)
	})
}

// AdvanceDays applies the days caller has completed since the last update.
func (m *Manager) AdvanceDays(caller model.Identity) ([]model.Event, error) {
	return m.apply("advance", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.AdvanceDays(caller)
	})
}

// ForceBonusDistribution shares the whole bonus pool among active
// participants. Administrator only.
func (m *Manager) ForceBonusDistribution(caller model.Identity) ([]model.Event, error) {
	return m.apply("force bonus", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.ForceBonusDistribution(caller)
	})
}

// TakeFees pays the accrued service fees to the administrator.
func (m *Manager) TakeFees(caller model.Identity) ([]model.Event, error) {
	return m.apply("take fees", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.TakeFees(caller)
	})
}

// WithdrawStray pays the entire custody balance to the administrator.
func (m *Manager) WithdrawStray(caller model.Identity) ([]model.Event, error) {
	return m.apply("withdraw stray", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.WithdrawStray(caller)
	})
}

// SetEntriesOpen opens or closes the challenge to new entries.
func (m *Manager) SetEntriesOpen(caller model.Identity, open bool) ([]model.Event, error) {
	return m.apply("set entries", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.SetEntriesOpen(caller, open)
	})
}

// TransferAdministration hands the administrator role to next.
func (m *Manager) TransferAdministration(caller, next model.Identity) ([]model.Event, error) {
	return m.apply("transfer administration", func(l *ledger.Ledger) ([]model.Event, error) {
		return l.TransferAdministration(caller, next)
	})
}

// Deposit sends value straight to the ledger's custody without entering the
// challenge. It emits no event; only WithdrawStray recovers it.
func (m *Manager) Deposit(from model.Identity, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.vault.Deposit(from, amount); err != nil {
		return err
	}
	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save challenge state after deposit: %v", err)
	}
	return nil
}

// Summary returns the current ledger totals.
func (m *Manager) Summary() model.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Summary()
}

// ParticipantView is the read-only view of one identity.
type ParticipantView struct {
	ID            model.Identity
	Active        bool
	Balance       *big.Int
	CommittedDays int
	DaysLeft      int
	LastUpdate    time.Time
	PaidOut       *big.Int
}

// Participant returns the view of id, or false if id never entered.
func (m *Manager) Participant(id model.Identity) (ParticipantView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, committed, lastUpdate, daysLeft := m.ledger.Record(id)
	if committed == 0 {
		return ParticipantView{}, false
	}
	return ParticipantView{
		ID:            id,
		Active:        m.ledger.IsActive(id),
		Balance:       balance,
		CommittedDays: committed,
		DaysLeft:      daysLeft,
		LastUpdate:    lastUpdate,
		PaidOut:       m.vault.PaidTo(id),
	}, true
}

// AuditReport is the outcome of a full bookkeeping check.
type AuditReport struct {
	Summary   model.Summary
	Violation error
	// Shortfall is how much less custody holds than the bookkeeping owes.
	Shortfall *big.Int
	// SaveError is set while the state file lags the in-memory ledger.
	SaveError error
}

// OK reports whether the audit found nothing wrong.
func (r AuditReport) OK() bool {
	return r.Violation == nil && r.Shortfall.Sign() == 0 && r.SaveError == nil
}

// Audit verifies conservation by full scan and compares the bookkeeping
// with what custody actually holds.
func (m *Manager) Audit() AuditReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := AuditReport{
		Summary:   m.ledger.Summary(),
		Violation: m.ledger.CheckConservation(),
		Shortfall: new(big.Int),
		SaveError: m.saveErr,
	}
	if gap := new(big.Int).Sub(report.Summary.TotalFunds, report.Summary.CustodyBalance); gap.Sign() > 0 {
		report.Shortfall = gap
	}
	return report
}

// Checkpoint rewrites the state file.
func (m *Manager) Checkpoint() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save()
}

func (m *Manager) apply(op string, fn func(*ledger.Ledger) ([]model.Event, error)) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events, err := fn(m.ledger)
	if err != nil {
		return nil, err
	}

	// The operation has committed and value may have moved, so a failed
	// write does not fail it; Audit reports the lag until a save succeeds.
	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save challenge state after %s: %v", op, err)
	}

	summary := m.ledger.Summary()
	for _, s := range m.sinks {
		if err := s.Publish(events, summary); err != nil {
			log.Printf("[ERROR] publish %s events to %T: %v", op, s, err)
		}
	}
	return events, nil
}

func (m *Manager) save() error {
	snap := m.ledger.Snapshot()
	err := SaveState(m.filePath, &PersistedState{
		Ledger:  &snap,
		Custody: m.vault.State(),
	})
	if err != nil {
		m.saveErr = fmt.Errorf("save %s: %w", m.filePath, err)
		return m.saveErr
	}
	if m.saveErr != nil {
		log.Printf("[INFO] state file %s caught up after earlier failure", m.filePath)
		m.saveErr = nil
	}
	return nil
}

package ledger

import (
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NinetyDays/internal/custody"
	"NinetyDays/internal/model"
)

const (
	self  model.Identity = "ledger"
	admin model.Identity = "admin"
)

var signers = []model.Identity{"admin", "s1", "s2", "s3", "s4", "s5", "s6", "s7"}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger(t *testing.T) (*Ledger, *custody.Vault, *fakeClock) {
	t.Helper()
	vault := custody.NewVault()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(self, admin, vault, clock), vault, clock
}

func units(s string) *big.Int {
	return model.MustParseUnits(s)
}

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return v
}

func requireAmount(t *testing.T, want string, got *big.Int) {
	t.Helper()
	require.Equal(t, want, got.String())
}

// eventLines renders events as Kind[arg arg ...] so they compare by value.
func eventLines(events []model.Event) []string {
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("%s%v", ev.Kind(), ev.Args())
	}
	return lines
}

func requireEvents(t *testing.T, events []model.Event, want ...string) {
	t.Helper()
	require.Equal(t, want, eventLines(events))
}

func requireConserved(t *testing.T, l *Ledger) {
	t.Helper()
	require.NoError(t, l.CheckConservation())
}

func mustEnter(t *testing.T, l *Ledger, id model.Identity, days int, deposit string) []model.Event {
	t.Helper()
	events, err := l.Enter(id, days, units(deposit))
	require.NoError(t, err)
	requireConserved(t, l)
	return events
}

func mustExit(t *testing.T, l *Ledger, id model.Identity) []model.Event {
	t.Helper()
	events, err := l.Exit(id)
	require.NoError(t, err)
	requireConserved(t, l)
	return events
}

func mustAdvance(t *testing.T, l *Ledger, id model.Identity) []model.Event {
	t.Helper()
	events, err := l.AdvanceDays(id)
	require.NoError(t, err)
	requireConserved(t, l)
	return events
}

// stateLine flattens a snapshot into a comparable string.
func stateLine(s model.LedgerState) string {
	line := fmt.Sprintf("admin=%s open=%v funds=%s bonus=%s fees=%s active=%d",
		s.Administrator, s.EntriesOpen, s.TotalFunds, s.TotalBonus, s.FeesAccrued, s.ActiveCount)
	for _, id := range signers {
		if p, ok := s.Participants[id]; ok {
			line += fmt.Sprintf(" %s{%s %d/%d %d %v}", id, p.Balance, p.DaysLeft, p.CommittedDays, p.LastUpdate.Unix(), p.Active)
		}
	}
	return line
}

package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NinetyDays/internal/custody"
)

func TestEnter(t *testing.T) {
	l, _, _ := newTestLedger(t)

	_, err := l.Enter(admin, 90, units("0.005"))
	require.EqualError(t, err, "Minimum entry price is 0.01")
	require.ErrorIs(t, err, ErrBelowMinimumEntry)

	_, err = l.Enter(admin, 89, units("0.01"))
	require.EqualError(t, err, "Minimum entry price is 0.05")
	var minErr *MinimumEntryError
	require.ErrorAs(t, err, &minErr)
	requireAmount(t, "50000000000000000", minErr.Minimum)
	require.False(t, l.IsActive(admin))

	events := mustEnter(t, l, admin, 90, "0.01")
	requireEvents(t, events, "EntryRecorded[admin 9900000000000000 90]")
	require.True(t, l.IsActive(admin))
	require.Equal(t, 1, l.ActiveCount())

	_, err = l.Enter(admin, 90, units("0.01"))
	require.ErrorIs(t, err, ErrAlreadyActive)
	require.EqualError(t, err, "You already have entered the challenge")

	events = mustEnter(t, l, "s1", 0, "0.01")
	requireEvents(t, events, "EntryRecorded[s1 9900000000000000 90]")
	require.Equal(t, 2, l.ActiveCount())

	balance, committed, _, daysLeft := l.Record("s1")
	requireAmount(t, "9900000000000000", balance)
	require.Equal(t, 90, committed)
	require.Equal(t, 90, daysLeft)

	events = mustEnter(t, l, "s2", 89, "0.05")
	requireEvents(t, events, "EntryRecorded[s2 49500000000000000 89]")
	require.Equal(t, 3, l.ActiveCount())

	balance, committed, _, daysLeft = l.Record("s2")
	requireAmount(t, "49500000000000000", balance)
	require.Equal(t, 89, committed)
	require.Equal(t, 89, daysLeft)
}

func TestEnter_InvalidCommitment(t *testing.T) {
	l, vault, _ := newTestLedger(t)

	for _, days := range []int{-1, 91, 365} {
		_, err := l.Enter("s1", days, units("1"))
		require.ErrorIs(t, err, ErrInvalidCommitment, "days=%d", days)
	}
	_, err := l.Enter(self, 0, units("1"))
	require.ErrorIs(t, err, ErrInvalidIdentity)
	_, err = l.Enter("", 0, units("1"))
	require.ErrorIs(t, err, ErrInvalidIdentity)

	require.Zero(t, l.ActiveCount())
	require.Zero(t, vault.Balance().Sign())
}

func TestBalances(t *testing.T) {
	l, vault, _ := newTestLedger(t)

	requireEvents(t, mustEnter(t, l, admin, 0, "0.04"), "EntryRecorded[admin 39600000000000000 90]")

	requireAmount(t, "40000000000000000", l.TotalFunds())
	requireAmount(t, "400000000000000", l.BalanceOf(self))
	requireAmount(t, "39600000000000000", l.BalanceOf(admin))
	requireAmount(t, "0", l.BalanceOf("s1"))
	requireAmount(t, "40000000000000000", vault.Balance())
}

func TestAdvanceDays(t *testing.T) {
	l, _, clock := newTestLedger(t)
	mustEnter(t, l, admin, 0, "0.04")

	_, err := l.AdvanceDays(admin)
	require.ErrorIs(t, err, ErrTooSoon)
	require.EqualError(t, err, "Can not update temporally.")

	clock.Advance(DayDuration)
	requireEvents(t, mustAdvance(t, l, admin), "DaysAdvanced[admin 90 89]")

	_, err = l.AdvanceDays(admin)
	require.ErrorIs(t, err, ErrTooSoon)

	clock.Advance(DayDuration - time.Second)
	_, err = l.AdvanceDays(admin)
	require.ErrorIs(t, err, ErrTooSoon)

	clock.Advance(time.Second)
	requireEvents(t, mustAdvance(t, l, admin), "DaysAdvanced[admin 90 88]")

	_, _, lastUpdate, daysLeft := l.Record(admin)
	require.Equal(t, 88, daysLeft)
	require.Equal(t, clock.Now(), lastUpdate)
	require.Equal(t, 1, l.ActiveCount())
}

func TestAdvanceDays_AppliesWholeElapsedDays(t *testing.T) {
	l, _, clock := newTestLedger(t)
	mustEnter(t, l, admin, 10, "0.05")

	clock.Advance(5*DayDuration + 23*time.Hour)
	requireEvents(t, mustAdvance(t, l, admin), "DaysAdvanced[admin 10 5]")

	clock.Advance(30 * DayDuration)
	requireEvents(t, mustAdvance(t, l, admin),
		"DaysAdvanced[admin 10 0]",
		"ValueTransferred[49500000000000000 ledger admin]",
		"ChallengeCompleted[admin 10 0]",
	)
	require.False(t, l.IsActive(admin))
}

func TestAdvanceDays_NotActive(t *testing.T) {
	l, _, _ := newTestLedger(t)
	_, err := l.AdvanceDays("s1")
	require.ErrorIs(t, err, ErrNotActive)
}

func TestCompletion(t *testing.T) {
	l, vault, clock := newTestLedger(t)
	requireEvents(t, mustEnter(t, l, admin, 3, "0.05"), "EntryRecorded[admin 49500000000000000 3]")

	clock.Advance(DayDuration)
	requireEvents(t, mustAdvance(t, l, admin), "DaysAdvanced[admin 3 2]")

	clock.Advance(DayDuration)
	requireEvents(t, mustAdvance(t, l, admin), "DaysAdvanced[admin 3 1]")
	requireAmount(t, "49500000000000000", l.BalanceOf(admin))

	clock.Advance(DayDuration)
	requireEvents(t, mustAdvance(t, l, admin),
		"DaysAdvanced[admin 3 0]",
		"ValueTransferred[49500000000000000 ledger admin]",
		"ChallengeCompleted[admin 3 0]",
	)

	require.Zero(t, l.ActiveCount())
	requireAmount(t, "0", l.BalanceOf(admin))
	requireAmount(t, "500000000000000", l.TotalFunds())
	requireAmount(t, "49500000000000000", vault.PaidTo(admin))
	requireAmount(t, "0", l.TotalBonus())

	balance, _, _, daysLeft := l.Record(admin)
	requireAmount(t, "49500000000000000", balance)
	require.Zero(t, daysLeft)

	_, err := l.AdvanceDays(admin)
	require.ErrorIs(t, err, ErrNotActive)
}

func TestExit(t *testing.T) {
	l, vault, clock := newTestLedger(t)
	mustEnter(t, l, admin, 3, "0.05")

	clock.Advance(DayDuration)
	requireEvents(t, mustAdvance(t, l, admin), "DaysAdvanced[admin 3 2]")

	requireEvents(t, mustExit(t, l, admin),
		"ValueTransferred[35145000000000000 ledger admin]",
		"ExitRecorded[admin 35145000000000000 2]",
	)

	require.Zero(t, l.ActiveCount())
	require.False(t, l.IsActive(admin))
	requireAmount(t, "0", l.BalanceOf(admin))
	requireAmount(t, "14855000000000000", l.TotalFunds())
	requireAmount(t, "14355000000000000", l.TotalBonus())
	requireAmount(t, "35145000000000000", vault.PaidTo(admin))

	balance, _, _, daysLeft := l.Record(admin)
	requireAmount(t, "49500000000000000", balance)
	require.Equal(t, 2, daysLeft)

	_, err := l.Exit(admin)
	require.ErrorIs(t, err, ErrNotActive)

	// A closed record can be replaced by a new commitment.
	requireEvents(t, mustEnter(t, l, admin, 10, "0.05"), "EntryRecorded[admin 49500000000000000 10]")
	requireAmount(t, "64855000000000000", l.TotalFunds())
	_, committed, _, daysLeft := l.Record(admin)
	require.Equal(t, 10, committed)
	require.Equal(t, 10, daysLeft)
}

func TestEntriesAccess(t *testing.T) {
	l, _, _ := newTestLedger(t)

	events, err := l.SetEntriesOpen(admin, false)
	require.NoError(t, err)
	requireEvents(t, events, "EntriesAccessChanged[false]")
	require.False(t, l.EntriesOpen())

	_, err = l.Enter(admin, 0, units("0.01"))
	require.EqualError(t, err, "Challenge is closed.")

	_, err = l.SetEntriesOpen("s1", true)
	require.EqualError(t, err, "You are not allowed to perform this action.")
	require.False(t, l.EntriesOpen())

	_, err = l.Enter("s1", 0, units("0.01"))
	require.ErrorIs(t, err, ErrEntriesClosed)

	events, err = l.SetEntriesOpen(admin, true)
	require.NoError(t, err)
	requireEvents(t, events, "EntriesAccessChanged[true]")
	mustEnter(t, l, admin, 0, "0.01")
}

func TestFailedTransferLeavesLedgerUntouched(t *testing.T) {
	l, vault, clock := newTestLedger(t)
	mustEnter(t, l, "s1", 0, "1")
	mustEnter(t, l, "s2", 2, "1")

	// Sweeping custody leaves the bookkeeping with nothing to pay from.
	_, err := l.WithdrawStray(admin)
	require.NoError(t, err)
	require.Zero(t, vault.Balance().Sign())
	before := stateLine(l.Snapshot())

	_, err = l.Exit("s1")
	require.ErrorIs(t, err, custody.ErrInsufficientCustody)
	require.Equal(t, before, stateLine(l.Snapshot()))

	clock.Advance(2 * DayDuration)
	_, err = l.AdvanceDays("s2")
	require.ErrorIs(t, err, custody.ErrInsufficientCustody)
	require.Equal(t, before, stateLine(l.Snapshot()))

	_, err = l.TakeFees(admin)
	require.True(t, errors.Is(err, custody.ErrInsufficientCustody))
	require.Equal(t, before, stateLine(l.Snapshot()))
	requireConserved(t, l)
}

package ledger

import (
	"fmt"
	"math/big"

	"NinetyDays/internal/model"
)

// Enter stakes deposit against a commitment of requestedDays (0 means the
// default 90). The service fee is kept in the fee pool and the rest becomes
// the participant's balance.
func (l *Ledger) Enter(caller model.Identity, requestedDays int, deposit *big.Int) ([]model.Event, error) {
	if !l.entriesOpen {
		return nil, ErrEntriesClosed
	}
	if caller == "" || caller == l.self {
		return nil, ErrInvalidIdentity
	}
	if l.IsActive(caller) {
		return nil, ErrAlreadyActive
	}

	days := requestedDays
	if days == 0 {
		days = DefaultCommitDays
	}
	if days < 0 || days > MaxCommitDays {
		return nil, ErrInvalidCommitment
	}
	minimum := MinEntryOther
	if days == DefaultCommitDays {
		minimum = MinEntryDefault
	}
	if deposit == nil || deposit.Cmp(minimum) < 0 {
		return nil, &MinimumEntryError{Minimum: new(big.Int).Set(minimum)}
	}

	fee := bps(deposit, ServiceFeeBP)
	net := new(big.Int).Sub(deposit, fee)

	if err := l.custody.Receive(caller, deposit); err != nil {
		return nil, fmt.Errorf("receive deposit: %w", err)
	}

	l.participants[caller] = &model.Participant{
		Balance:       net,
		CommittedDays: days,
		DaysLeft:      days,
		LastUpdate:    l.clock.Now(),
		Active:        true,
	}
	l.totalFunds.Add(l.totalFunds, deposit)
	l.feesAccrued.Add(l.feesAccrued, fee)
	l.activeCount++

	return []model.Event{
		model.EntryRecorded{Participant: caller, Net: new(big.Int).Set(net), Days: days},
	}, nil
}

// Exit withdraws caller early. The penalty share of the balance stays in
// the bonus pool, the rest is paid out, and the bonus pool is then checked
// against the distribution threshold.
func (l *Ledger) Exit(caller model.Identity) ([]model.Event, error) {
	p, err := l.activeRecord(caller)
	if err != nil {
		return nil, err
	}

	gross := p.Balance
	penalty := bps(gross, EarlyExitPenaltyBP)
	payout := new(big.Int).Sub(gross, penalty)

	if err := l.custody.Credit(caller, payout); err != nil {
		return nil, fmt.Errorf("credit exit payout: %w", err)
	}

	l.totalFunds.Sub(l.totalFunds, payout)
	l.totalBonus.Add(l.totalBonus, penalty)
	p.Active = false
	l.activeCount--

	events := []model.Event{
		model.ValueTransferred{Amount: new(big.Int).Set(payout), From: l.self, To: caller},
		model.ExitRecorded{Participant: caller, Payout: payout, DaysLeft: p.DaysLeft},
	}
	if ev, ok := l.distributeThreshold(); ok {
		events = append(events, ev)
	}
	return events, nil
}

// AdvanceDays applies every whole day elapsed since the record was last
// updated. Reaching zero days left completes the challenge and pays the
// full balance back.
func (l *Ledger) AdvanceDays(caller model.Identity) ([]model.Event, error) {
	p, err := l.activeRecord(caller)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	elapsed := int64(now.Sub(p.LastUpdate) / DayDuration)
	if elapsed < 1 {
		return nil, ErrTooSoon
	}
	applied := p.DaysLeft
	if elapsed < int64(applied) {
		applied = int(elapsed)
	}
	daysLeft := p.DaysLeft - applied

	var payout *big.Int
	if daysLeft == 0 {
		payout = new(big.Int).Set(p.Balance)
		if err := l.custody.Credit(caller, payout); err != nil {
			return nil, fmt.Errorf("credit completion payout: %w", err)
		}
	}

	p.DaysLeft = daysLeft
	p.LastUpdate = now
	events := []model.Event{
		model.DaysAdvanced{Participant: caller, CommittedDays: p.CommittedDays, DaysLeft: daysLeft},
	}
	if payout == nil {
		return events, nil
	}

	l.totalFunds.Sub(l.totalFunds, payout)
	p.Active = false
	l.activeCount--
	return append(events,
		model.ValueTransferred{Amount: payout, From: l.self, To: caller},
		model.ChallengeCompleted{Participant: caller, CommittedDays: p.CommittedDays, DaysLeft: 0},
	), nil
}

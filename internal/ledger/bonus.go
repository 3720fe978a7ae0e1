package ledger

import (
	"math/big"

	"NinetyDays/internal/model"
)

// distributeThreshold shares one threshold's worth of the bonus pool once
// the pool has reached it. It runs a single pass per call; the rest of the
// pool waits for the next exit or a forced distribution.
func (l *Ledger) distributeThreshold() (model.Event, bool) {
	if l.activeCount == 0 || l.totalBonus.Cmp(BonusThreshold) < 0 {
		return nil, false
	}
	share := new(big.Int).Quo(BonusThreshold, big.NewInt(int64(l.activeCount)))
	if share.Sign() == 0 {
		return nil, false
	}
	return l.distribute(share), true
}

// ForceBonusDistribution shares the whole bonus pool equally among active
// participants. Division dust stays in the pool.
func (l *Ledger) ForceBonusDistribution(caller model.Identity) ([]model.Event, error) {
	if err := l.requireAdmin(caller); err != nil {
		return nil, err
	}
	if l.totalBonus.Sign() == 0 || l.activeCount == 0 {
		return nil, ErrInsufficientBonus
	}
	share := new(big.Int).Quo(l.totalBonus, big.NewInt(int64(l.activeCount)))
	if share.Sign() == 0 {
		return nil, ErrInsufficientBonus
	}
	return []model.Event{l.distribute(share)}, nil
}

// distribute credits share to every active participant and takes exactly
// what was credited out of the bonus pool.
func (l *Ledger) distribute(share *big.Int) model.Event {
	n := 0
	for _, p := range l.participants {
		if !p.Active {
			continue
		}
		p.Balance.Add(p.Balance, share)
		n++
	}
	l.totalBonus.Sub(l.totalBonus, new(big.Int).Mul(share, big.NewInt(int64(n))))
	return model.BonusDistributed{Participants: n, Share: new(big.Int).Set(share)}
}

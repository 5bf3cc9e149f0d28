package allocator

import (
	"fmt"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

const percentBase = 100

// TierShare is the percentage of the post-jackpot/referral remainder paid
// into one prize pool.
type TierShare struct {
	Pool    domain.PoolKey
	Percent uint64
}

// SplitTable describes how a ticket fee is divided. Operations is taken off
// the top, jackpot and referral come out of what is left, and the tiers
// split the remainder after those two.
type SplitTable struct {
	OperationsPct uint64
	JackpotPct    uint64
	ReferralPct   uint64
	Tiers         []TierShare
}

// DefaultSplitTable is the production table: 10% operations, then 60%
// jackpot and 20% referral, then eight tiers totalling 100%.
func DefaultSplitTable() SplitTable {
	return SplitTable{
		OperationsPct: 10,
		JackpotPct:    60,
		ReferralPct:   20,
		Tiers: []TierShare{
			{Pool: domain.PoolFive, Percent: 20},
			{Pool: domain.PoolFourBall, Percent: 18},
			{Pool: domain.PoolFour, Percent: 16},
			{Pool: domain.PoolThreeBall, Percent: 14},
			{Pool: domain.PoolThree, Percent: 12},
			{Pool: domain.PoolTwoBall, Percent: 10},
			{Pool: domain.PoolOneBall, Percent: 7},
			{Pool: domain.PoolBall, Percent: 3},
		},
	}
}

// Validate checks the table is well formed: percentages in range, tiers
// summing to exactly 100 and every pool fed by exactly one entry.
func (t SplitTable) Validate() error {
	if t.OperationsPct > percentBase {
		return fmt.Errorf("%w: operations %d%% exceeds 100", domain.ErrInvalidSplitTable, t.OperationsPct)
	}
	if t.JackpotPct+t.ReferralPct > percentBase {
		return fmt.Errorf("%w: jackpot %d%% + referral %d%% exceeds 100", domain.ErrInvalidSplitTable, t.JackpotPct, t.ReferralPct)
	}

	var seen [domain.NumPools]bool
	seen[domain.PoolOperations] = true
	seen[domain.PoolFiveBall] = true
	seen[domain.PoolReferral] = true

	var tierSum uint64
	for _, tier := range t.Tiers {
		if !tier.Pool.Valid() {
			return fmt.Errorf("%w: unknown pool %d", domain.ErrInvalidSplitTable, tier.Pool)
		}
		if seen[tier.Pool] {
			return fmt.Errorf("%w: %s assigned twice", domain.ErrInvalidSplitTable, tier.Pool)
		}
		seen[tier.Pool] = true
		tierSum += tier.Percent
	}
	if tierSum != percentBase {
		return fmt.Errorf("%w: tier shares sum to %d, expected 100", domain.ErrInvalidSplitTable, tierSum)
	}
	for k, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: %s has no share", domain.ErrInvalidSplitTable, domain.PoolKey(k))
		}
	}
	return nil
}

// ParseTierPercents assigns percentages to the tier pools in the default
// table order (pool_5 first, pool_ball last).
func ParseTierPercents(raw []uint64) ([]TierShare, error) {
	order := DefaultSplitTable().Tiers
	if len(raw) != len(order) {
		return nil, fmt.Errorf("%w: expected %d tier percentages, got %d", domain.ErrInvalidSplitTable, len(order), len(raw))
	}
	tiers := make([]TierShare, len(order))
	for i, tier := range order {
		tiers[i] = TierShare{Pool: tier.Pool, Percent: raw[i]}
	}
	return tiers, nil
}

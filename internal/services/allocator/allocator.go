package allocator

import (
	"fmt"

	"github.com/hxuan190/lotto-treasury/internal/common"
	"github.com/hxuan190/lotto-treasury/internal/domain"
)

// FeeAllocator splits a ticket fee into the round pools. It holds no state
// besides its table and is safe for concurrent use.
type FeeAllocator struct {
	table SplitTable
}

func NewFeeAllocator(table SplitTable) (*FeeAllocator, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &FeeAllocator{table: table}, nil
}

func (a *FeeAllocator) Table() SplitTable {
	return a.table
}

// Breakdown computes the eleven increments for one ticket. It fails with
// ErrDistributionMismatch when the floored shares do not add back up to the
// ticket price; no remainder is ever redistributed.
func (a *FeeAllocator) Breakdown(ticketPrice uint64) (*domain.AllocationBreakdown, error) {
	if ticketPrice == 0 {
		return nil, fmt.Errorf("%w: ticket price must be positive", domain.ErrInvalidAmount)
	}

	var shares domain.PoolState

	operations := common.NewChecked(ticketPrice).MulDiv("operations fee", a.table.OperationsPct, percentBase)
	remaining := common.NewChecked(ticketPrice).Sub("remaining after operations", operations.Value())

	jackpot := remaining.MulDiv("jackpot", a.table.JackpotPct, percentBase)
	referral := remaining.MulDiv("referral", a.table.ReferralPct, percentBase)
	afterJR := remaining.Sub("remaining after jackpot", jackpot.Value()).Sub("remaining after referral", referral.Value())

	for _, step := range []common.Checked{operations, remaining, jackpot, referral, afterJR} {
		if err := step.Err(); err != nil {
			return nil, err
		}
	}

	shares[domain.PoolOperations] = operations.Value()
	shares[domain.PoolFiveBall] = jackpot.Value()
	shares[domain.PoolReferral] = referral.Value()

	rest := afterJR.Value()
	for _, tier := range a.table.Tiers {
		amount, err := common.NewChecked(rest).MulDiv(tier.Pool.String(), tier.Percent, percentBase).Result()
		if err != nil {
			return nil, err
		}
		shares[tier.Pool] = amount
	}

	breakdown := &domain.AllocationBreakdown{TicketPrice: ticketPrice, Shares: shares}
	total, err := breakdown.Total()
	if err != nil {
		return nil, err
	}
	if total != ticketPrice {
		return nil, fmt.Errorf("%w: distributed %d of %d", domain.ErrDistributionMismatch, total, ticketPrice)
	}
	return breakdown, nil
}

// Allocate computes the breakdown and adds it to pools. pools is written
// only when every step, including each pool addition, has succeeded.
func (a *FeeAllocator) Allocate(ticketPrice uint64, pools *domain.PoolState) (*domain.AllocationBreakdown, error) {
	breakdown, err := a.Breakdown(ticketPrice)
	if err != nil {
		return nil, err
	}
	next, err := pools.Add(breakdown.Shares)
	if err != nil {
		return nil, err
	}
	*pools = next
	return breakdown, nil
}

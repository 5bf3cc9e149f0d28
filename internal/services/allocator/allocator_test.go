package allocator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

const ticketPrice = 2_000_000

func newDefaultAllocator(t *testing.T) *FeeAllocator {
	t.Helper()
	a, err := NewFeeAllocator(DefaultSplitTable())
	require.NoError(t, err)
	return a
}

func TestBreakdown_DefaultTicket(t *testing.T) {
	b, err := newDefaultAllocator(t).Breakdown(ticketPrice)
	require.NoError(t, err)

	want := map[domain.PoolKey]uint64{
		domain.PoolOperations: 200_000,
		domain.PoolFiveBall:   1_080_000,
		domain.PoolReferral:   360_000,
		domain.PoolFive:       72_000,
		domain.PoolFourBall:   64_800,
		domain.PoolFour:       57_600,
		domain.PoolThreeBall:  50_400,
		domain.PoolThree:      43_200,
		domain.PoolTwoBall:    36_000,
		domain.PoolOneBall:    25_200,
		domain.PoolBall:       10_800,
	}
	for k, v := range want {
		require.Equal(t, v, b.Shares[k], k.String())
	}

	total, err := b.Total()
	require.NoError(t, err)
	require.Equal(t, uint64(ticketPrice), total)
}

func TestBreakdown_ExactForMultiplesOf5000(t *testing.T) {
	a := newDefaultAllocator(t)
	for _, price := range []uint64{5_000, 35_000, 16_665_000, 125_000_000, 2_000_000_000_000} {
		b, err := a.Breakdown(price)
		require.NoError(t, err, "price %d", price)
		total, err := b.Total()
		require.NoError(t, err)
		require.Equal(t, price, total)
	}
}

func TestBreakdown_Mismatch(t *testing.T) {
	a := newDefaultAllocator(t)

	_, err := a.Breakdown(ticketPrice + 1)
	require.ErrorIs(t, err, domain.ErrDistributionMismatch)
	require.ErrorContains(t, err, "distributed 2000000 of 2000001")

	for _, price := range []uint64{999, 1_000, 7_000} {
		_, err = a.Breakdown(price)
		require.ErrorIs(t, err, domain.ErrDistributionMismatch, "price %d", price)
	}
}

func TestBreakdown_ZeroPrice(t *testing.T) {
	_, err := newDefaultAllocator(t).Breakdown(0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestBreakdown_HugePriceDoesNotOverflow(t *testing.T) {
	// 256-bit intermediates keep price*percent exact; the floored shares
	// then fail to add back up, which is the only possible failure.
	_, err := newDefaultAllocator(t).Breakdown(math.MaxUint64)
	require.ErrorIs(t, err, domain.ErrDistributionMismatch)
	require.NotErrorIs(t, err, domain.ErrArithmeticOverflow)
}

func TestAllocate_Accumulates(t *testing.T) {
	a := newDefaultAllocator(t)
	var pools domain.PoolState

	single, err := a.Breakdown(ticketPrice)
	require.NoError(t, err)

	const n = 50
	for i := 0; i < n; i++ {
		before := pools
		_, err := a.Allocate(ticketPrice, &pools)
		require.NoError(t, err)
		for _, k := range domain.AllPoolKeys() {
			require.GreaterOrEqual(t, pools[k], before[k], k.String())
		}
	}

	total, err := pools.Total()
	require.NoError(t, err)
	require.Equal(t, uint64(n*ticketPrice), total)
	require.Equal(t, uint64(n*1_080_000), pools[domain.PoolFiveBall])
	for _, k := range domain.AllPoolKeys() {
		require.Equal(t, n*single.Shares[k], pools[k], k.String())
	}
}

func TestAllocate_MismatchLeavesPools(t *testing.T) {
	a := newDefaultAllocator(t)
	var pools domain.PoolState
	_, err := a.Allocate(ticketPrice, &pools)
	require.NoError(t, err)
	snapshot := pools

	_, err = a.Allocate(ticketPrice+1, &pools)
	require.ErrorIs(t, err, domain.ErrDistributionMismatch)
	require.Equal(t, snapshot, pools)
}

func TestAllocate_OverflowLeavesPools(t *testing.T) {
	a := newDefaultAllocator(t)
	var pools domain.PoolState
	pools[domain.PoolOperations] = 5
	pools[domain.PoolFiveBall] = math.MaxUint64 - 1_000
	snapshot := pools

	_, err := a.Allocate(ticketPrice, &pools)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)
	require.Equal(t, snapshot, pools)
}

func TestSplitTable_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *SplitTable)
	}{
		{name: "operations over 100", mutate: func(t *SplitTable) { t.OperationsPct = 101 }},
		{name: "jackpot plus referral over 100", mutate: func(t *SplitTable) { t.JackpotPct = 81 }},
		{name: "tiers short of 100", mutate: func(t *SplitTable) { t.Tiers[0].Percent = 19 }},
		{name: "tier assigned twice", mutate: func(t *SplitTable) { t.Tiers[1].Pool = t.Tiers[0].Pool }},
		{name: "tier on jackpot pool", mutate: func(t *SplitTable) { t.Tiers[0].Pool = domain.PoolFiveBall }},
		{name: "unknown pool", mutate: func(t *SplitTable) { t.Tiers[0].Pool = domain.PoolKey(42) }},
		{name: "missing tier", mutate: func(t *SplitTable) {
			t.Tiers[0].Percent += t.Tiers[7].Percent
			t.Tiers = t.Tiers[:7]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := DefaultSplitTable()
			tt.mutate(&table)
			require.ErrorIs(t, table.Validate(), domain.ErrInvalidSplitTable)

			_, err := NewFeeAllocator(table)
			require.ErrorIs(t, err, domain.ErrInvalidSplitTable)
		})
	}

	require.NoError(t, DefaultSplitTable().Validate())
}

func TestParseTierPercents(t *testing.T) {
	tiers, err := ParseTierPercents([]uint64{20, 18, 16, 14, 12, 10, 7, 3})
	require.NoError(t, err)
	require.Equal(t, DefaultSplitTable().Tiers, tiers)

	_, err = ParseTierPercents([]uint64{50, 50})
	require.ErrorIs(t, err, domain.ErrInvalidSplitTable)
}

package domain

import (
	"fmt"
	"math/bits"
	"time"
)

// PoolKey identifies one of the accumulators a ticket fee is split into.
type PoolKey uint8

const (
	PoolFiveBall PoolKey = iota // jackpot
	PoolFive
	PoolFourBall
	PoolFour
	PoolThreeBall
	PoolThree
	PoolTwoBall
	PoolOneBall
	PoolBall
	PoolReferral
	PoolOperations

	NumPools = int(PoolOperations) + 1
)

var poolKeyNames = [NumPools]string{
	"pool_5_ball",
	"pool_5",
	"pool_4_ball",
	"pool_4",
	"pool_3_ball",
	"pool_3",
	"pool_2_ball",
	"pool_1_ball",
	"pool_ball",
	"pool_referral",
	"pool_operations",
}

func (k PoolKey) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return poolKeyNames[k]
}

func (k PoolKey) Valid() bool {
	return int(k) < NumPools
}

// ParsePoolKey resolves a pool name such as "pool_4_ball".
func ParsePoolKey(name string) (PoolKey, bool) {
	for i, n := range poolKeyNames {
		if n == name {
			return PoolKey(i), true
		}
	}
	return 0, false
}

// AllPoolKeys returns every pool in storage order.
func AllPoolKeys() []PoolKey {
	keys := make([]PoolKey, NumPools)
	for i := range keys {
		keys[i] = PoolKey(i)
	}
	return keys
}

// PoolState holds the balance of every pool of a round, indexed by PoolKey.
// It is a value type: copies are independent.
type PoolState [NumPools]uint64

func (s PoolState) Get(k PoolKey) uint64 {
	return s[k]
}

// Add returns s + inc. The receiver is never modified, so on overflow the
// caller still holds the untouched state.
func (s PoolState) Add(inc PoolState) (PoolState, error) {
	next := s
	for i := range next {
		sum, carry := bits.Add64(next[i], inc[i], 0)
		if carry != 0 {
			return s, fmt.Errorf("%w: %s + %d", ErrArithmeticOverflow, PoolKey(i), inc[i])
		}
		next[i] = sum
	}
	return next, nil
}

// Total sums every pool, failing on overflow.
func (s PoolState) Total() (uint64, error) {
	var total uint64
	for i, v := range s {
		sum, carry := bits.Add64(total, v, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: total at %s", ErrArithmeticOverflow, PoolKey(i))
		}
		total = sum
	}
	return total, nil
}

// Map renders the state keyed by pool name, for JSON responses and logs.
func (s PoolState) Map() map[string]uint64 {
	out := make(map[string]uint64, NumPools)
	for i, v := range s {
		out[PoolKey(i).String()] = v
	}
	return out
}

// Round is one accounting period and owns exactly one PoolState.
type Round struct {
	ID          uint64
	Pools       PoolState
	TicketsSold uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AllocationBreakdown is the per-ticket split produced by the fee allocator.
type AllocationBreakdown struct {
	TicketPrice uint64
	Shares      PoolState
}

func (b *AllocationBreakdown) Total() (uint64, error) {
	return b.Shares.Total()
}

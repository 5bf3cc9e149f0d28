package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const (
	DefaultComputeUnits = 200000
	MaxComputeUnits     = 1400000
	computeUnitBuffer   = 1.1
	minFeePerCU         = 100
)

// Urgency selects which percentile of recent prioritization fees to pay.
type Urgency uint8

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyExtreme
)

// DefaultFees apply when the RPC has no recent samples (microLamports per CU).
var DefaultFees = map[Urgency]uint64{
	UrgencyLow:     1000,
	UrgencyMedium:  10000,
	UrgencyHigh:    100000,
	UrgencyExtreme: 1000000,
}

func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow, nil
	case "", "medium":
		return UrgencyMedium, nil
	case "high":
		return UrgencyHigh, nil
	case "extreme":
		return UrgencyExtreme, nil
	default:
		return UrgencyMedium, fmt.Errorf("unknown urgency %q", s)
	}
}

func (u Urgency) percentile() int {
	switch u {
	case UrgencyLow:
		return 50
	case UrgencyHigh:
		return 90
	case UrgencyExtreme:
		return 99
	default:
		return 75
	}
}

// FeeCalculator prices compute units from recent fees paid for the
// accounts a transfer writes.
type FeeCalculator struct {
	rpcClient *rpc.Client
}

func NewFeeCalculator(rpcClient *rpc.Client) *FeeCalculator {
	return &FeeCalculator{rpcClient: rpcClient}
}

// FeePerCU never fails: without samples it falls back to DefaultFees.
func (f *FeeCalculator) FeePerCU(ctx context.Context, urgency Urgency, accounts []solana.PublicKey) uint64 {
	recent, err := f.rpcClient.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return DefaultFees[urgency]
	}

	fees := make([]uint64, 0, len(recent))
	for _, fee := range recent {
		if fee.PrioritizationFee > 0 {
			fees = append(fees, fee.PrioritizationFee)
		}
	}
	if len(fees) == 0 {
		return DefaultFees[urgency]
	}

	sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })
	fee := percentile(fees, urgency.percentile())
	if fee < minFeePerCU {
		fee = minFeePerCU
	}
	return fee
}

func percentile(sorted []uint64, p int) uint64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	k := float64(p) / 100.0 * float64(len(sorted)-1)
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		c = len(sorted) - 1
	}
	d := k - float64(f)
	return uint64(float64(sorted[f])*(1-d) + float64(sorted[c])*d)
}

// EstimateComputeUnits simulates tx and adds a buffer to the units
// consumed. Any simulation problem yields DefaultComputeUnits.
func EstimateComputeUnits(ctx context.Context, rpcClient *rpc.Client, tx *solana.Transaction) uint32 {
	res, err := rpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             rpc.CommitmentProcessed,
		ReplaceRecentBlockhash: true,
	})
	if err != nil || res == nil || res.Value == nil || res.Value.Err != nil {
		return DefaultComputeUnits
	}
	if res.Value.UnitsConsumed == nil || *res.Value.UnitsConsumed == 0 {
		return DefaultComputeUnits
	}

	units := uint64(float64(*res.Value.UnitsConsumed) * computeUnitBuffer)
	if units > MaxComputeUnits {
		units = MaxComputeUnits
	}
	return uint32(units)
}

// SetComputeUnitLimitInstruction sets the compute unit limit
type SetComputeUnitLimitInstruction struct {
	Units uint32
}

func NewSetComputeUnitLimitInstruction(units uint32) *SetComputeUnitLimitInstruction {
	return &SetComputeUnitLimitInstruction{Units: units}
}

func (ix *SetComputeUnitLimitInstruction) ProgramID() solana.PublicKey {
	return ComputeBudgetProgramID
}

func (ix *SetComputeUnitLimitInstruction) Accounts() []*solana.AccountMeta {
	return nil
}

func (ix *SetComputeUnitLimitInstruction) Data() ([]byte, error) {
	data := make([]byte, 5)
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:], ix.Units)
	return data, nil
}

// SetComputeUnitPriceInstruction sets the compute unit price
type SetComputeUnitPriceInstruction struct {
	MicroLamports uint64
}

func NewSetComputeUnitPriceInstruction(microLamports uint64) *SetComputeUnitPriceInstruction {
	return &SetComputeUnitPriceInstruction{MicroLamports: microLamports}
}

func (ix *SetComputeUnitPriceInstruction) ProgramID() solana.PublicKey {
	return ComputeBudgetProgramID
}

func (ix *SetComputeUnitPriceInstruction) Accounts() []*solana.AccountMeta {
	return nil
}

func (ix *SetComputeUnitPriceInstruction) Data() ([]byte, error) {
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], ix.MicroLamports)
	return data, nil
}

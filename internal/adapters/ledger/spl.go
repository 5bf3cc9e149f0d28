package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/lotto-treasury/internal/metrics"
)

type BlockhashProvider interface {
	GetBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

// SPLLedger pays out of a custody token account owned by authority. The
// authority also pays fees and, when missing, creates the recipient's
// associated token account. Transfer returns once the transaction is
// confirmed, not when it is submitted.
type SPLLedger struct {
	rpcClient *rpc.Client
	authority solana.PrivateKey
	blockhash BlockhashProvider
	fees      *FeeCalculator
	urgency   Urgency

	status       StatusClient
	pollInterval time.Duration
}

func NewSPLLedger(rpcClient *rpc.Client, authority solana.PrivateKey, blockhash BlockhashProvider, urgency Urgency) *SPLLedger {
	return &SPLLedger{
		rpcClient: rpcClient,
		authority: authority,
		blockhash: blockhash,
		fees:      NewFeeCalculator(rpcClient),
		urgency:   urgency,

		status:       rpcClient,
		pollInterval: DefaultConfirmInterval,
	}
}

func (l *SPLLedger) Transfer(ctx context.Context, req TransferRequest) (solana.Signature, error) {
	dest, err := req.Destination()
	if err != nil {
		return solana.Signature{}, err
	}
	payer := l.authority.PublicKey()

	body := make([]solana.Instruction, 0, 2)
	exists, err := l.accountExists(ctx, dest)
	if err != nil {
		return solana.Signature{}, err
	}
	if !exists {
		body = append(body, associatedtokenaccount.NewCreateInstruction(payer, req.Recipient, req.Mint).Build())
	}
	body = append(body, token.NewTransferInstruction(req.Amount, req.Source, dest, payer, []solana.PublicKey{}).Build())

	blockhash, lastValid, err := l.blockhash.GetBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get blockhash: %w", err)
	}

	feePerCU := l.fees.FeePerCU(ctx, l.urgency, []solana.PublicKey{req.Source, dest})
	metrics.PriorityFee.Set(float64(feePerCU))

	draft, err := l.build(body, DefaultComputeUnits, feePerCU, blockhash)
	if err != nil {
		return solana.Signature{}, err
	}
	units := EstimateComputeUnits(ctx, l.rpcClient, draft)

	tx, err := l.build(body, units, feePerCU, blockhash)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := l.rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to submit transaction: %w", err)
	}
	if err := AwaitConfirmation(ctx, l.status, sig, lastValid, l.pollInterval); err != nil {
		return sig, err
	}
	return sig, nil
}

// build assembles and signs a transfer transaction.
func (l *SPLLedger) build(body []solana.Instruction, units uint32, feePerCU uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	instructions := make([]solana.Instruction, 0, len(body)+2)
	instructions = append(instructions,
		NewSetComputeUnitLimitInstruction(units),
		NewSetComputeUnitPriceInstruction(feePerCU),
	)
	instructions = append(instructions, body...)

	payer := l.authority.PublicKey()
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &l.authority
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

func (l *SPLLedger) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	_, err := l.rpcClient.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", account, err)
	}
	return true, nil
}

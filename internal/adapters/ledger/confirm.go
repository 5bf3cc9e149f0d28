package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const DefaultConfirmInterval = 500 * time.Millisecond

var (
	ErrTransactionFailed  = errors.New("transaction failed on chain")
	ErrTransactionExpired = errors.New("transaction expired before confirmation")
)

// StatusClient is the part of the RPC client confirmation polls.
type StatusClient interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

// AwaitConfirmation polls sig until it reaches confirmed commitment. It fails
// when the transaction errors on chain, when the chain passes
// lastValidBlockHeight without landing it, or when ctx ends.
func AwaitConfirmation(ctx context.Context, client StatusClient, sig solana.Signature, lastValidBlockHeight uint64, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultConfirmInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		landed, err := signatureConfirmed(ctx, client, sig)
		if err != nil || landed {
			return err
		}

		height, err := client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err == nil && lastValidBlockHeight > 0 && height > lastValidBlockHeight {
			// One last look: it may have landed in the final valid block.
			if landed, err := signatureConfirmed(ctx, client, sig); err != nil || landed {
				return err
			}
			return fmt.Errorf("%w: %s (block height %d > %d)", ErrTransactionExpired, sig, height, lastValidBlockHeight)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("awaiting confirmation of %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// signatureConfirmed reports whether sig reached confirmed commitment. RPC
// errors are treated as "not yet" so a flaky node does not fail a payout that
// may still land.
func signatureConfirmed(ctx context.Context, client StatusClient, sig solana.Signature) (bool, error) {
	out, err := client.GetSignatureStatuses(ctx, true, sig)
	if err != nil || out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}
	status := out.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err)
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return true, nil
	}
	return false, nil
}

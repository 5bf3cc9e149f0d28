package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

// scriptedStatus replays one status per poll; the last entry repeats.
type scriptedStatus struct {
	statuses []*rpc.SignatureStatusesResult
	heights  []uint64
	polls    int
}

func (s *scriptedStatus) GetSignatureStatuses(_ context.Context, _ bool, _ ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	i := min(s.polls, len(s.statuses)-1)
	s.polls++
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{s.statuses[i]}}, nil
}

func (s *scriptedStatus) GetBlockHeight(_ context.Context, _ rpc.CommitmentType) (uint64, error) {
	if len(s.heights) == 0 {
		return 0, errors.New("unavailable")
	}
	h := s.heights[0]
	if len(s.heights) > 1 {
		s.heights = s.heights[1:]
	}
	return h, nil
}

func TestAwaitConfirmation(t *testing.T) {
	sig := solana.Signature{7}
	processed := &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed}
	confirmed := &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
	failed := &rpc.SignatureStatusesResult{
		ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
		Err:                map[string]any{"InstructionError": []any{1, map[string]any{"Custom": 1}}},
	}

	tests := []struct {
		name    string
		client  *scriptedStatus
		lastOK  uint64
		wantErr error
	}{
		{
			name:   "confirmed after processing",
			client: &scriptedStatus{statuses: []*rpc.SignatureStatusesResult{nil, processed, confirmed}, heights: []uint64{100}},
			lastOK: 250,
		},
		{
			name:    "failed on chain",
			client:  &scriptedStatus{statuses: []*rpc.SignatureStatusesResult{processed, failed}, heights: []uint64{100}},
			lastOK:  250,
			wantErr: ErrTransactionFailed,
		},
		{
			name:    "blockhash expired",
			client:  &scriptedStatus{statuses: []*rpc.SignatureStatusesResult{nil}, heights: []uint64{249, 250, 251}},
			lastOK:  250,
			wantErr: ErrTransactionExpired,
		},
		{
			name:   "landed in the last valid block",
			client: &scriptedStatus{statuses: []*rpc.SignatureStatusesResult{nil, confirmed}, heights: []uint64{251}},
			lastOK: 250,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AwaitConfirmation(context.Background(), tt.client, sig, tt.lastOK, time.Millisecond)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAwaitConfirmation_ContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := &scriptedStatus{statuses: []*rpc.SignatureStatusesResult{nil}}
	err := AwaitConfirmation(ctx, client, solana.Signature{1}, 0, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Greater(t, client.polls, 1)
}

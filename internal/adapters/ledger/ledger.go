package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lotto-treasury/internal/common"
	"github.com/hxuan190/lotto-treasury/internal/domain"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// TransferRequest moves Amount of Mint from the Source token account to the
// Recipient wallet's associated token account.
type TransferRequest struct {
	Source    solana.PublicKey
	Recipient solana.PublicKey
	Mint      solana.PublicKey
	Amount    uint64
}

func (r TransferRequest) Destination() (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(r.Recipient, r.Mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecipient, err)
	}
	return ata, nil
}

// MemoryLedger keeps token account balances in memory. A transfer either
// moves the full amount or changes nothing.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[solana.PublicKey]uint64
	seq      uint64
	failWith error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[solana.PublicKey]uint64)}
}

func (l *MemoryLedger) Fund(account solana.PublicKey, amount uint64) {
	l.mu.Lock()
	l.balances[account] = amount
	l.mu.Unlock()
}

func (l *MemoryLedger) Balance(account solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// FailWith makes every following transfer fail with err. A nil err clears it.
func (l *MemoryLedger) FailWith(err error) {
	l.mu.Lock()
	l.failWith = err
	l.mu.Unlock()
}

func (l *MemoryLedger) Transfer(_ context.Context, req TransferRequest) (solana.Signature, error) {
	dest, err := req.Destination()
	if err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failWith != nil {
		return solana.Signature{}, l.failWith
	}
	src := l.balances[req.Source]
	if src < req.Amount {
		return solana.Signature{}, fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, req.Source, src, req.Amount)
	}
	credited, err := common.CheckedAdd("credit destination", l.balances[dest], req.Amount)
	if err != nil {
		return solana.Signature{}, err
	}

	l.balances[req.Source] = src - req.Amount
	l.balances[dest] = credited
	l.seq++

	var sig solana.Signature
	binary.LittleEndian.PutUint64(sig[:8], l.seq)
	copy(sig[8:40], dest[:])
	return sig, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lotto-treasury/internal/adapters/blockchain"
	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/services"
)

const LEDGER_SERVICE = "ledger-service"

type transferer interface {
	Transfer(ctx context.Context, req TransferRequest) (solana.Signature, error)
}

// Service exposes the custody ledger to the container. Without a custody
// key it runs dry: transfers settle against an in-memory ledger whose vault
// is pre-funded.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	ledger transferer
	dryRun bool
}

func (svc *Service) ID() string {
	return LEDGER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)

	rpcConf := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	exchangeConf := c.GetConfig(config.EXCHANGE_CONFIG_KEY).(*config.ExchangeConfig)
	if rpcConf == nil || exchangeConf == nil {
		return errors.New("invalid ledger config")
	}

	if rpcConf.CustodyKey == "" {
		vault, err := solana.PublicKeyFromBase58(exchangeConf.Vault)
		if err != nil {
			return fmt.Errorf("invalid vault %q: %w", exchangeConf.Vault, err)
		}
		mem := NewMemoryLedger()
		mem.Fund(vault, math.MaxUint64)
		svc.ledger = mem
		svc.dryRun = true
		svc.logger.Warn().Str("vault", vault.String()).Msg("[ledgerService] CUSTODY_KEY not set, running dry with an in-memory ledger")
		return nil
	}

	authority, err := solana.PrivateKeyFromBase58(rpcConf.CustodyKey)
	if err != nil {
		return fmt.Errorf("invalid custody key: %w", err)
	}
	urgency, err := ParseUrgency(exchangeConf.PriorityUrgency)
	if err != nil {
		return err
	}
	blockhashCache := c.Instance(blockchain.BLOCKHASH_CACHE_SERVICE).(*blockchain.BlockhashCacheService)

	svc.ledger = NewSPLLedger(rpc.New(rpcConf.RPCUrl), authority, blockhashCache, urgency)
	svc.logger.Info().Str("authority", authority.PublicKey().String()).Msg("[ledgerService] custody ledger ready")
	return nil
}

func (svc *Service) DryRun() bool {
	return svc.dryRun
}

func (svc *Service) Transfer(ctx context.Context, req TransferRequest) (solana.Signature, error) {
	return svc.ledger.Transfer(ctx, req)
}

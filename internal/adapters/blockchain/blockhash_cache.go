package blockchain

import (
	"context"
	"sync"
	"time"

	pb "github.com/andrew-solarstorm/yellowstone-grpc-client-go/proto"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/services"
)

const BLOCKHASH_CACHE_SERVICE = "cache-blockhash-svc"

const (
	// blockhashTTL is how long a streamed blockhash is served without
	// asking the RPC.
	blockhashTTL = 2 * time.Second
	// blockhashValidity is the number of blocks a blockhash stays usable.
	blockhashValidity = 150
)

type CachedBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
	UpdatedAt            time.Time
}

// BlockhashCacheService keeps the latest blockhash from the block meta
// stream so custody transfers can be signed without an RPC round trip.
type BlockhashCacheService struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	mu        sync.RWMutex
	current   *CachedBlockhash
	ySvc      *yellowstone.Service
	rpcClient *rpc.Client
	subID     string
	now       func() time.Time
}

func (svc *BlockhashCacheService) ID() string {
	return BLOCKHASH_CACHE_SERVICE
}

func (svc *BlockhashCacheService) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.now = time.Now
	svc.ySvc = c.Instance(yellowstone.YELLOWSTONE_SERVICE).(*yellowstone.Service)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	svc.rpcClient = rpc.New(rpcConfig.RPCUrl)
	return nil
}

func (svc *BlockhashCacheService) Start() error {
	if err := svc.refresh(context.Background()); err != nil {
		svc.logger.Warn().Err(err).Msg("[blockhashCache] initial fetch failed, will retry on first request")
	}

	subID, err := svc.ySvc.SubscribeBlockMeta(svc.handleBlockMeta)
	if err != nil {
		svc.logger.Error().Err(err).Msg("[blockhashCache] failed to subscribe to block meta")
		return err
	}
	svc.subID = subID
	svc.logger.Info().Str("subID", subID).Msg("[blockhashCache] subscribed to block meta")
	return nil
}

func (svc *BlockhashCacheService) Stop() error {
	if svc.subID != "" {
		return svc.ySvc.Unsubscribe(svc.subID)
	}
	return nil
}

func (svc *BlockhashCacheService) handleBlockMeta(update *pb.SubscribeUpdate) error {
	meta := update.GetBlockMeta()
	if meta == nil || meta.GetBlockhash() == "" {
		return nil
	}

	blockhash, err := solana.HashFromBase58(meta.GetBlockhash())
	if err != nil {
		svc.logger.Debug().Err(err).Str("blockhash", meta.GetBlockhash()).Msg("[blockhashCache] undecodable blockhash")
		return nil
	}

	// Zero marks the expiry height as unknown.
	var lastValid uint64
	if bh := meta.GetBlockHeight(); bh != nil {
		lastValid = bh.GetBlockHeight() + blockhashValidity
	}
	svc.store(blockhash, lastValid, meta.GetSlot())
	return nil
}

func (svc *BlockhashCacheService) refresh(ctx context.Context) error {
	res, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return err
	}
	svc.store(res.Value.Blockhash, res.Value.LastValidBlockHeight, res.Context.Slot)
	return nil
}

func (svc *BlockhashCacheService) store(hash solana.Hash, lastValid, slot uint64) {
	svc.mu.Lock()
	svc.current = &CachedBlockhash{
		Blockhash:            hash,
		LastValidBlockHeight: lastValid,
		Slot:                 slot,
		UpdatedAt:            svc.now(),
	}
	svc.mu.Unlock()
}

// GetBlockhash serves the streamed blockhash while it is fresh, otherwise
// asks the RPC. A cached value is still returned when the RPC fails.
func (svc *BlockhashCacheService) GetBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	svc.mu.RLock()
	cached := svc.current
	svc.mu.RUnlock()

	if cached != nil && svc.now().Sub(cached.UpdatedAt) < blockhashTTL {
		return cached.Blockhash, cached.LastValidBlockHeight, nil
	}

	if err := svc.refresh(ctx); err != nil {
		if cached != nil {
			svc.logger.Warn().Err(err).Uint64("slot", cached.Slot).Msg("[blockhashCache] rpc refresh failed, serving cached blockhash")
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
		return solana.Hash{}, 0, err
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.current.Blockhash, svc.current.LastValidBlockHeight, nil
}

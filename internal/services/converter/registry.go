package converter

import (
	"context"
	"fmt"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

const decimalsCacheSize = 256

// AssetRegistry holds the assets the exchange trades, by symbol. Mint
// decimals are read from chain on first use and cached.
type AssetRegistry struct {
	mu       sync.RWMutex
	assets   map[string]domain.Asset
	client   AccountFetcher
	decimals *lru.Cache[solana.PublicKey, uint8]
}

func NewAssetRegistry(client AccountFetcher, assets ...domain.Asset) (*AssetRegistry, error) {
	cache, err := lru.New[solana.PublicKey, uint8](decimalsCacheSize)
	if err != nil {
		return nil, err
	}
	r := &AssetRegistry{
		assets:   make(map[string]domain.Asset, len(assets)),
		client:   client,
		decimals: cache,
	}
	for _, asset := range assets {
		r.Register(asset)
	}
	return r, nil
}

func (r *AssetRegistry) Register(asset domain.Asset) {
	r.mu.Lock()
	r.assets[asset.Symbol] = asset
	r.mu.Unlock()
}

func (r *AssetRegistry) Lookup(symbol string) (domain.Asset, error) {
	r.mu.RLock()
	asset, ok := r.assets[symbol]
	r.mu.RUnlock()
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: %s", domain.ErrUnknownAsset, symbol)
	}
	return asset, nil
}

// Resolve looks up symbol and fills in its decimals from the mint account.
// Without an RPC client the registered decimals are returned unchanged.
func (r *AssetRegistry) Resolve(ctx context.Context, symbol string) (domain.Asset, error) {
	asset, err := r.Lookup(symbol)
	if err != nil {
		return domain.Asset{}, err
	}
	if r.client == nil || asset.Mint.IsZero() {
		return asset, nil
	}
	decimals, err := r.mintDecimals(ctx, asset.Mint)
	if err != nil {
		return domain.Asset{}, err
	}
	asset.Decimals = decimals
	return asset, nil
}

func (r *AssetRegistry) mintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	if decimals, ok := r.decimals.Get(mint); ok {
		return decimals, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info, err := r.client.GetAccountInfo(timeoutCtx, mint)
	if err != nil {
		return 0, fmt.Errorf("fetch mint %s: %w", mint, err)
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return 0, fmt.Errorf("%w: mint %s not found", domain.ErrUnknownAsset, mint)
	}

	var mintState token.Mint
	if err := bin.NewBinDecoder(info.Value.Data.GetBinary()).Decode(&mintState); err != nil {
		return 0, fmt.Errorf("decode mint %s: %w", mint, err)
	}

	r.decimals.Add(mint, mintState.Decimals)
	return mintState.Decimals, nil
}

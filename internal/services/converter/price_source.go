package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

// PriceSource returns the current rate for an asset.
type PriceSource interface {
	GetQuote(ctx context.Context, asset domain.Asset) (domain.RateQuote, error)
}

// AccountFetcher is the slice of the RPC client the converter reads from.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// FixedPriceSource serves constant rates, keyed by asset symbol, expressed
// as units of the asset per one common unit. Quotes are stamped at read time
// so they are always fresh.
type FixedPriceSource struct {
	rates map[string]decimal.Decimal
	now   func() time.Time
}

func NewFixedPriceSource(rates map[string]decimal.Decimal) *FixedPriceSource {
	copied := make(map[string]decimal.Decimal, len(rates))
	for symbol, rate := range rates {
		copied[symbol] = rate
	}
	return &FixedPriceSource{rates: copied, now: time.Now}
}

// ParseFixedRates builds a rate table from decimal strings.
func ParseFixedRates(rates map[string]string) (map[string]decimal.Decimal, error) {
	parsed := make(map[string]decimal.Decimal, len(rates))
	for symbol, raw := range rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: rate %q for %s: %v", domain.ErrInvalidQuote, raw, symbol, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("%w: rate for %s must be positive", domain.ErrInvalidQuote, symbol)
		}
		parsed[symbol] = rate
	}
	return parsed, nil
}

func (s *FixedPriceSource) GetQuote(_ context.Context, asset domain.Asset) (domain.RateQuote, error) {
	rate, ok := s.rates[asset.Symbol]
	if !ok {
		return domain.RateQuote{}, fmt.Errorf("%w: no fixed rate for %s", domain.ErrInvalidQuote, asset.Symbol)
	}
	return domain.RateQuote{
		Feed:        "fixed:" + asset.Symbol,
		Value:       rate,
		Basis:       domain.BasisAssetPerCommon,
		PublishTime: s.now(),
	}, nil
}

package domain

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Asset is a token the exchange can price. Decimals is the number of
// fractional digits of the smallest unit; Feed is the oracle account
// publishing its price, if any.
type Asset struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals uint8
	Feed     solana.PublicKey
}

// RateBasis states which way a quote value is expressed against the common
// unit (USD / USDT).
type RateBasis uint8

const (
	// BasisAssetPerCommon: how many units of the asset one common unit buys.
	// The fixed rate table uses this form (0.0065 SOL per USDT).
	BasisAssetPerCommon RateBasis = iota
	// BasisCommonPerAsset: the common-unit price of one unit of the asset.
	// Oracle feeds publish this form.
	BasisCommonPerAsset
)

func (b RateBasis) String() string {
	switch b {
	case BasisAssetPerCommon:
		return "asset_per_common"
	case BasisCommonPerAsset:
		return "common_per_asset"
	default:
		return "UNKNOWN"
	}
}

// RateQuote is a timestamped rate. It is fetched per conversion and never
// persisted. A zero MaxAge means the converter's bound applies.
type RateQuote struct {
	Feed        string
	Value       decimal.Decimal
	Basis       RateBasis
	PublishTime time.Time
	MaxAge      time.Duration
}

// Validate checks the quote is positive and no older than bound at now. The
// quote's own MaxAge tightens bound when it is smaller.
func (q RateQuote) Validate(now time.Time, bound time.Duration) error {
	if !q.Value.IsPositive() {
		return fmt.Errorf("%w: %s rate %s is not positive", ErrInvalidQuote, q.Feed, q.Value.String())
	}
	if q.Basis != BasisAssetPerCommon && q.Basis != BasisCommonPerAsset {
		return fmt.Errorf("%w: %s has unknown basis %d", ErrInvalidQuote, q.Feed, q.Basis)
	}
	if q.PublishTime.IsZero() {
		return fmt.Errorf("%w: %s has no publish time", ErrInvalidQuote, q.Feed)
	}
	if q.MaxAge > 0 && q.MaxAge < bound {
		bound = q.MaxAge
	}
	if age := now.Sub(q.PublishTime); age > bound {
		return fmt.Errorf("%w: %s is %s old (max %s)", ErrStaleQuote, q.Feed, age.Truncate(time.Millisecond), bound)
	}
	return nil
}

// ConversionRequest asks for Amount smallest units of Input to be exchanged
// into Output and paid to Recipient.
type ConversionRequest struct {
	Amount    uint64
	Input     Asset
	Output    Asset
	Recipient solana.PublicKey
}

// ConversionResult records an executed (or previewed) conversion. Factor is
// the output smallest units granted per input smallest unit before
// truncation.
type ConversionResult struct {
	ID          string
	AmountIn    uint64
	AmountOut   uint64
	Factor      decimal.Decimal
	InputQuote  RateQuote
	OutputQuote RateQuote
	Recipient   solana.PublicKey
	Signature   solana.Signature
	ExecutedAt  time.Time
}

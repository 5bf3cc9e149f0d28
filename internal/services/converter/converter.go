package converter

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

// DefaultMaxQuoteAge is the staleness bound applied to every quote.
const DefaultMaxQuoteAge = 60 * time.Second

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// RateConverter turns an input amount into an output amount through the
// common unit (USD/USDT) both quotes are expressed against.
//
// For a quote in BasisAssetPerCommon, value v means one common unit buys v
// units of the asset; in BasisCommonPerAsset one unit of the asset is worth
// v common units. Hence
//
//	common = amount / v_in    (asset per common)
//	common = amount * v_in    (common per asset)
//	out    = common * v_out   (asset per common)
//	out    = common / v_out   (common per asset)
//
// All products are formed first and the single division at the end
// truncates toward zero. The discarded remainder is below one output unit.
type RateConverter struct {
	maxAge        time.Duration
	scaleDecimals bool
	now           func() time.Time
}

// NewRateConverter builds a converter whose staleness bound is maxAge. The
// bound can only be tightened: zero or anything above DefaultMaxQuoteAge
// falls back to DefaultMaxQuoteAge.
func NewRateConverter(maxAge time.Duration, scaleDecimals bool) *RateConverter {
	if maxAge <= 0 || maxAge > DefaultMaxQuoteAge {
		maxAge = DefaultMaxQuoteAge
	}
	return &RateConverter{
		maxAge:        maxAge,
		scaleDecimals: scaleDecimals,
		now:           time.Now,
	}
}

// SetClock replaces the time source used for staleness checks.
func (c *RateConverter) SetClock(now func() time.Time) {
	c.now = now
}

func (c *RateConverter) MaxAge() time.Duration {
	return c.maxAge
}

// Convert converts amount with no decimal scaling between the two assets.
func (c *RateConverter) Convert(amount uint64, rateIn, rateOut domain.RateQuote) (uint64, error) {
	result, err := c.convert(amount, rateIn, rateOut, 0)
	if err != nil {
		return 0, err
	}
	return result.AmountOut, nil
}

// ConvertAssets converts req.Amount of req.Input into req.Output. When the
// converter scales decimals the result is expressed in the output mint's
// smallest unit.
func (c *RateConverter) ConvertAssets(req domain.ConversionRequest, rateIn, rateOut domain.RateQuote) (*domain.ConversionResult, error) {
	var shift int32
	if c.scaleDecimals {
		shift = int32(req.Output.Decimals) - int32(req.Input.Decimals)
	}
	result, err := c.convert(req.Amount, rateIn, rateOut, shift)
	if err != nil {
		return nil, err
	}
	result.Recipient = req.Recipient
	return result, nil
}

func (c *RateConverter) convert(amount uint64, rateIn, rateOut domain.RateQuote, shift int32) (*domain.ConversionResult, error) {
	now := c.now()
	if err := rateIn.Validate(now, c.maxAge); err != nil {
		return nil, err
	}
	if err := rateOut.Validate(now, c.maxAge); err != nil {
		return nil, err
	}

	num := decimal.New(1, shift)
	den := decimal.NewFromInt(1)

	switch rateIn.Basis {
	case domain.BasisAssetPerCommon:
		den = den.Mul(rateIn.Value)
	case domain.BasisCommonPerAsset:
		num = num.Mul(rateIn.Value)
	}
	switch rateOut.Basis {
	case domain.BasisAssetPerCommon:
		num = num.Mul(rateOut.Value)
	case domain.BasisCommonPerAsset:
		den = den.Mul(rateOut.Value)
	}

	amountDec := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	quotient, _ := amountDec.Mul(num).QuoRem(den, 0)
	if quotient.GreaterThan(maxUint64) {
		return nil, fmt.Errorf("%w: %d converts to %s, beyond uint64", domain.ErrArithmeticOverflow, amount, quotient.String())
	}

	return &domain.ConversionResult{
		AmountIn:    amount,
		AmountOut:   quotient.BigInt().Uint64(),
		Factor:      num.Div(den),
		InputQuote:  rateIn,
		OutputQuote: rateOut,
	}, nil
}

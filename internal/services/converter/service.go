package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lotto-treasury/internal/adapters/ledger"
	"github.com/hxuan190/lotto-treasury/internal/adapters/persistence"
	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/domain"
	"github.com/hxuan190/lotto-treasury/internal/metrics"
	"github.com/hxuan190/lotto-treasury/internal/services"
)

const EXCHANGE_SERVICE = "exchange-service"

// Ledger moves tokens out of custody.
type Ledger interface {
	Transfer(ctx context.Context, req ledger.TransferRequest) (solana.Signature, error)
}

type ConversionStore interface {
	SaveConversion(ctx context.Context, result *domain.ConversionResult) error
	ListConversions(ctx context.Context) ([]*domain.ConversionResult, error)
}

// Pair names the two assets a Service exchanges and the vault paying out.
type Pair struct {
	InputSymbol  string
	OutputSymbol string
	Vault        solana.PublicKey
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	converter *RateConverter
	prices    PriceSource
	registry  *AssetRegistry
	ledger    Ledger
	store     ConversionStore
	pair      Pair
}

func NewService(converter *RateConverter, prices PriceSource, registry *AssetRegistry, l Ledger, store ConversionStore, pair Pair) *Service {
	svc := &Service{
		converter: converter,
		prices:    prices,
		registry:  registry,
		ledger:    l,
		store:     store,
		pair:      pair,
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return EXCHANGE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)

	conf := c.GetConfig(config.EXCHANGE_CONFIG_KEY).(*config.ExchangeConfig)
	rpcConf := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	if conf == nil || rpcConf == nil {
		return errors.New("invalid exchange config")
	}

	input, err := assetFromConfig(conf.InputSymbol, conf.InputMint, conf.InputFeed)
	if err != nil {
		return err
	}
	output, err := assetFromConfig(conf.OutputSymbol, conf.OutputMint, conf.OutputFeed)
	if err != nil {
		return err
	}
	vault, err := solana.PublicKeyFromBase58(conf.Vault)
	if err != nil {
		return fmt.Errorf("invalid vault %q: %w", conf.Vault, err)
	}

	rpcClient := rpc.New(rpcConf.RPCUrl)

	var prices PriceSource
	switch conf.PriceMode {
	case config.PriceModePyth:
		prices = NewPythPriceSource(rpcClient)
	default:
		rates, err := ParseFixedRates(map[string]string{
			input.Symbol:  conf.FixedInputRate,
			output.Symbol: conf.FixedOutputRate,
		})
		if err != nil {
			return err
		}
		prices = NewFixedPriceSource(rates)
	}

	var fetcher AccountFetcher
	if conf.ScaleDecimals {
		fetcher = rpcClient
	}
	registry, err := NewAssetRegistry(fetcher, input, output)
	if err != nil {
		return err
	}

	svc.converter = NewRateConverter(conf.MaxQuoteAge, conf.ScaleDecimals)
	svc.prices = prices
	svc.registry = registry
	svc.ledger = c.Instance(ledger.LEDGER_SERVICE).(*ledger.Service)
	svc.store = c.Instance(persistence.REPOSITORY_SERVICE).(*persistence.Repository).Storage()
	svc.pair = Pair{InputSymbol: input.Symbol, OutputSymbol: output.Symbol, Vault: vault}

	svc.logger.Info().
		Str("mode", conf.PriceMode).
		Str("input", input.Symbol).
		Str("output", output.Symbol).
		Bool("scaleDecimals", conf.ScaleDecimals).
		Msg("[exchangeService] configured")
	return nil
}

func assetFromConfig(symbol, mint, feed string) (domain.Asset, error) {
	asset := domain.Asset{Symbol: symbol}
	if mint != "" {
		pk, err := solana.PublicKeyFromBase58(mint)
		if err != nil {
			return asset, fmt.Errorf("invalid mint %q for %s: %w", mint, symbol, err)
		}
		asset.Mint = pk
	}
	if feed != "" {
		pk, err := solana.PublicKeyFromBase58(feed)
		if err != nil {
			return asset, fmt.Errorf("invalid feed %q for %s: %w", feed, symbol, err)
		}
		asset.Feed = pk
	}
	return asset, nil
}

// Quote prices amount with fresh rates. Nothing is transferred or recorded.
func (svc *Service) Quote(ctx context.Context, amount uint64) (*domain.ConversionResult, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	req, rateIn, rateOut, err := svc.prepare(ctx, amount, solana.PublicKey{})
	if err != nil {
		return nil, err
	}
	return svc.converter.ConvertAssets(req, rateIn, rateOut)
}

// Exchange converts amount and pays the result out of the vault to the
// recipient's token account. The conversion is recorded only after the
// transfer succeeded.
func (svc *Service) Exchange(ctx context.Context, recipient solana.PublicKey, amount uint64) (*domain.ConversionResult, error) {
	start := time.Now()
	result, err := svc.exchange(ctx, recipient, amount)
	metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ConversionRequests.WithLabelValues(conversionStatus(err)).Inc()
		svc.logger.Warn().Err(err).
			Str("recipient", recipient.String()).
			Uint64("amountIn", amount).
			Msg("[exchangeService] conversion rejected")
		return nil, err
	}

	metrics.ConversionRequests.WithLabelValues("ok").Inc()
	metrics.ConvertedAmount.Add(float64(result.AmountOut))
	svc.logger.Info().
		Str("id", result.ID).
		Str("recipient", recipient.String()).
		Uint64("amountIn", result.AmountIn).
		Uint64("amountOut", result.AmountOut).
		Str("signature", result.Signature.String()).
		Msg("[exchangeService] conversion executed")
	return result, nil
}

func (svc *Service) exchange(ctx context.Context, recipient solana.PublicKey, amount uint64) (*domain.ConversionResult, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: empty recipient", domain.ErrInvalidRecipient)
	}

	req, rateIn, rateOut, err := svc.prepare(ctx, amount, recipient)
	if err != nil {
		return nil, err
	}
	result, err := svc.converter.ConvertAssets(req, rateIn, rateOut)
	if err != nil {
		return nil, err
	}
	if result.AmountOut == 0 {
		return nil, fmt.Errorf("%w: %d converts to zero output units", domain.ErrInvalidAmount, amount)
	}

	sig, err := svc.ledger.Transfer(ctx, ledger.TransferRequest{
		Source:    svc.pair.Vault,
		Recipient: recipient,
		Mint:      req.Output.Mint,
		Amount:    result.AmountOut,
	})
	if err != nil {
		metrics.TransferFailures.Inc()
		if errors.Is(err, domain.ErrTransferFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	result.ID = uuid.NewString()
	result.Signature = sig
	result.ExecutedAt = time.Now()

	// The transfer is final at this point; a failed write is logged, not
	// surfaced as a failed conversion.
	if err := svc.store.SaveConversion(ctx, result); err != nil {
		svc.logger.Error().Err(err).Str("id", result.ID).Str("signature", sig.String()).Msg("[exchangeService] failed to record conversion")
	}
	return result, nil
}

func (svc *Service) prepare(ctx context.Context, amount uint64, recipient solana.PublicKey) (domain.ConversionRequest, domain.RateQuote, domain.RateQuote, error) {
	var (
		req             domain.ConversionRequest
		rateIn, rateOut domain.RateQuote
		input, output   domain.Asset
		err             error
	)
	if input, err = svc.registry.Resolve(ctx, svc.pair.InputSymbol); err != nil {
		return req, rateIn, rateOut, err
	}
	if output, err = svc.registry.Resolve(ctx, svc.pair.OutputSymbol); err != nil {
		return req, rateIn, rateOut, err
	}
	if rateIn, err = svc.prices.GetQuote(ctx, input); err != nil {
		return req, rateIn, rateOut, err
	}
	if rateOut, err = svc.prices.GetQuote(ctx, output); err != nil {
		return req, rateIn, rateOut, err
	}

	now := time.Now()
	metrics.QuoteAge.WithLabelValues(rateIn.Feed).Observe(now.Sub(rateIn.PublishTime).Seconds())
	metrics.QuoteAge.WithLabelValues(rateOut.Feed).Observe(now.Sub(rateOut.PublishTime).Seconds())

	req = domain.ConversionRequest{Amount: amount, Input: input, Output: output, Recipient: recipient}
	return req, rateIn, rateOut, nil
}

// History lists recorded conversions.
func (svc *Service) History(ctx context.Context) ([]*domain.ConversionResult, error) {
	return svc.store.ListConversions(ctx)
}

// Rates reports the current quote for both assets of the pair.
func (svc *Service) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, 2)
	for _, symbol := range []string{svc.pair.InputSymbol, svc.pair.OutputSymbol} {
		asset, err := svc.registry.Lookup(symbol)
		if err != nil {
			return nil, err
		}
		quote, err := svc.prices.GetQuote(ctx, asset)
		if err != nil {
			return nil, err
		}
		out[symbol] = quote.Value
	}
	return out, nil
}

func (svc *Service) Pair() Pair {
	return svc.pair
}

func conversionStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrStaleQuote):
		return "stale_quote"
	case errors.Is(err, domain.ErrInvalidQuote):
		return "invalid_quote"
	case errors.Is(err, domain.ErrArithmeticOverflow):
		return "overflow"
	case errors.Is(err, domain.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidRecipient):
		return "invalid_request"
	default:
		return "error"
	}
}

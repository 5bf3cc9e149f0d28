package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

const (
	PriceModeFixed = "fixed"
	PriceModePyth  = "pyth"

	// MaxQuoteAgeLimit caps MAX_QUOTE_AGE_SECONDS; it may only tighten it.
	MaxQuoteAgeLimit = 60 * time.Second
)

type ExchangeConfig struct {
	// PriceMode selects the price source: "fixed" uses the constant rates
	// below, "pyth" reads the on-chain feeds. Default: "fixed"
	PriceMode string

	InputSymbol  string
	InputMint    string
	OutputSymbol string
	OutputMint   string

	// Fixed rates, in units of the asset per one USDT.
	FixedInputRate  string
	FixedOutputRate string

	// Pyth price accounts for the input and output assets.
	InputFeed  string
	OutputFeed string

	// ScaleDecimals converts between the two mints' smallest units using
	// their on-chain decimals. When false amounts map unit for unit.
	ScaleDecimals bool

	// Vault is the custody token account paying out converted amounts.
	Vault string

	// MaxQuoteAge bounds how old a quote may be. Default and maximum: 60s
	MaxQuoteAge time.Duration

	// PriorityUrgency is one of low, medium, high, extreme. Default: medium
	PriorityUrgency string
}

func (c *ExchangeConfig) Key() string {
	return EXCHANGE_CONFIG_KEY
}

func (c *ExchangeConfig) Load() error {
	c.PriceMode = common.GetEnvOrDefault("PRICE_MODE", PriceModeFixed)
	c.InputSymbol = common.GetEnvOrDefault("EXCHANGE_INPUT_SYMBOL", "SOL")
	c.InputMint = common.GetEnvOrDefault("EXCHANGE_INPUT_MINT", "So11111111111111111111111111111111111111112")
	c.OutputSymbol = common.GetEnvOrDefault("EXCHANGE_OUTPUT_SYMBOL", "TOKEN1")
	c.OutputMint = common.GetEnvOrDefault("EXCHANGE_OUTPUT_MINT", "")
	c.FixedInputRate = common.GetEnvOrDefault("FIXED_INPUT_RATE", "0.0065")
	c.FixedOutputRate = common.GetEnvOrDefault("FIXED_OUTPUT_RATE", "12.17")
	c.InputFeed = common.GetEnvOrDefault("PYTH_INPUT_FEED", "")
	c.OutputFeed = common.GetEnvOrDefault("PYTH_OUTPUT_FEED", "")
	c.ScaleDecimals = common.GetEnvOrDefault("EXCHANGE_SCALE_DECIMALS", "false") == "true"
	c.Vault = common.GetEnvOrDefault("EXCHANGE_VAULT", "")
	c.MaxQuoteAge = time.Duration(common.GetEnvOrDefaultInt("MAX_QUOTE_AGE_SECONDS", 60)) * time.Second
	c.PriorityUrgency = common.GetEnvOrDefault("PRIORITY_URGENCY", "medium")
	return c.Validate()
}

func (c *ExchangeConfig) Validate() error {
	switch c.PriceMode {
	case PriceModeFixed:
	case PriceModePyth:
		if c.InputFeed == "" || c.OutputFeed == "" {
			return errors.New("invalid exchange config: pyth mode needs PYTH_INPUT_FEED and PYTH_OUTPUT_FEED")
		}
	default:
		return fmt.Errorf("invalid exchange config: unknown price mode %q", c.PriceMode)
	}
	if c.OutputMint == "" || c.Vault == "" {
		return errors.New("invalid exchange config: EXCHANGE_OUTPUT_MINT and EXCHANGE_VAULT are required")
	}
	if c.MaxQuoteAge <= 0 || c.MaxQuoteAge > MaxQuoteAgeLimit {
		return fmt.Errorf("invalid exchange config: MAX_QUOTE_AGE_SECONDS must be within (0, %d]", int(MaxQuoteAgeLimit.Seconds()))
	}
	return nil
}

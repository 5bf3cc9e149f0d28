package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTreasuryConfig_LoadDefaults(t *testing.T) {
	var c TreasuryConfig
	require.NoError(t, c.Load())
	require.Equal(t, uint64(2_000_000), c.TicketPrice)
	require.Equal(t, []uint64{20, 18, 16, 14, 12, 10, 7, 3}, c.TierPercents)
	require.Equal(t, uint64(60), c.JackpotPct)
}

func TestTreasuryConfig_LoadOverrides(t *testing.T) {
	t.Setenv("TICKET_PRICE", "5000")
	t.Setenv("SPLIT_TIER_PCTS", " 30, 20 ,10,10,10,10,5,5 ")
	var c TreasuryConfig
	require.NoError(t, c.Load())
	require.Equal(t, uint64(5000), c.TicketPrice)
	require.Equal(t, []uint64{30, 20, 10, 10, 10, 10, 5, 5}, c.TierPercents)

	t.Setenv("TICKET_PRICE", "-1")
	require.Error(t, c.Load())

	t.Setenv("TICKET_PRICE", "0")
	require.Error(t, c.Load())
}

func TestExchangeConfig_Validate(t *testing.T) {
	valid := ExchangeConfig{
		PriceMode:   PriceModeFixed,
		OutputMint:  "So11111111111111111111111111111111111111112",
		Vault:       "So11111111111111111111111111111111111111112",
		MaxQuoteAge: 60 * time.Second,
	}
	require.NoError(t, valid.Validate())

	pyth := valid
	pyth.PriceMode = PriceModePyth
	require.Error(t, pyth.Validate())
	pyth.InputFeed, pyth.OutputFeed = "feedA", "feedB"
	require.NoError(t, pyth.Validate())

	unknown := valid
	unknown.PriceMode = "chainlink"
	require.Error(t, unknown.Validate())

	for _, age := range []time.Duration{0, 61 * time.Second, 600 * time.Second} {
		wide := valid
		wide.MaxQuoteAge = age
		require.Error(t, wide.Validate(), "max quote age %s", age)
	}
	tight := valid
	tight.MaxQuoteAge = 30 * time.Second
	require.NoError(t, tight.Validate())

	noVault := valid
	noVault.Vault = ""
	require.Error(t, noVault.Validate())
}

func TestExchangeConfig_LoadRejectsWideQuoteAge(t *testing.T) {
	t.Setenv("EXCHANGE_OUTPUT_MINT", "So11111111111111111111111111111111111111112")
	t.Setenv("EXCHANGE_VAULT", "So11111111111111111111111111111111111111112")
	t.Setenv("MAX_QUOTE_AGE_SECONDS", "600")
	var c ExchangeConfig
	require.Error(t, c.Load())

	t.Setenv("MAX_QUOTE_AGE_SECONDS", "60")
	require.NoError(t, c.Load())
	require.Equal(t, 60*time.Second, c.MaxQuoteAge)
}

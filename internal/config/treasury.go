package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
)

type TreasuryConfig struct {
	// TicketPrice is the fee of one ticket in the smallest unit of the
	// ticket token. Default: 2000000
	TicketPrice uint64

	// Split table percentages. Defaults: 10 / 60 / 20.
	OperationsPct uint64
	JackpotPct    uint64
	ReferralPct   uint64

	// TierPercents feed pool_5, pool_4_ball, pool_4, pool_3_ball, pool_3,
	// pool_2_ball, pool_1_ball and pool_ball in that order.
	// Default: "20,18,16,14,12,10,7,3"
	TierPercents []uint64

	// DBPath is the path to the BoltDB file holding rounds and conversions.
	// Default: "./data/treasury.db"
	DBPath string

	// PersistenceEnabled controls whether rounds are persisted to disk.
	// Default: true
	PersistenceEnabled bool
}

func (c *TreasuryConfig) Key() string {
	return TREASURY_CONFIG_KEY
}

func (c *TreasuryConfig) Load() error {
	var err error
	if c.TicketPrice, err = parseUint(common.GetEnvOrDefault("TICKET_PRICE", "2000000")); err != nil {
		return fmt.Errorf("TICKET_PRICE: %w", err)
	}
	if c.OperationsPct, err = parseUint(common.GetEnvOrDefault("SPLIT_OPERATIONS_PCT", "10")); err != nil {
		return fmt.Errorf("SPLIT_OPERATIONS_PCT: %w", err)
	}
	if c.JackpotPct, err = parseUint(common.GetEnvOrDefault("SPLIT_JACKPOT_PCT", "60")); err != nil {
		return fmt.Errorf("SPLIT_JACKPOT_PCT: %w", err)
	}
	if c.ReferralPct, err = parseUint(common.GetEnvOrDefault("SPLIT_REFERRAL_PCT", "20")); err != nil {
		return fmt.Errorf("SPLIT_REFERRAL_PCT: %w", err)
	}
	if c.TierPercents, err = parseUintList(common.GetEnvOrDefault("SPLIT_TIER_PCTS", "20,18,16,14,12,10,7,3")); err != nil {
		return fmt.Errorf("SPLIT_TIER_PCTS: %w", err)
	}
	c.DBPath = common.GetEnvOrDefault("TREASURY_DB_PATH", "./data/treasury.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("TREASURY_PERSISTENCE_ENABLED", "true") == "true"
	return c.Validate()
}

func (c *TreasuryConfig) Validate() error {
	if c.TicketPrice == 0 {
		return fmt.Errorf("invalid treasury config: ticket price must be positive")
	}
	return nil
}

func parseUint(raw string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
}

func parseUintList(raw string) ([]uint64, error) {
	parts := strings.Split(raw, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := parseUint(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

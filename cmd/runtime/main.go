package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/lotto-treasury/internal/adapters/blockchain"
	"github.com/hxuan190/lotto-treasury/internal/adapters/ledger"
	"github.com/hxuan190/lotto-treasury/internal/adapters/persistence"
	"github.com/hxuan190/lotto-treasury/internal/common"
	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/http"
	"github.com/hxuan190/lotto-treasury/internal/services/allocator"
	"github.com/hxuan190/lotto-treasury/internal/services/converter"
)

// @title Lotto Treasury API
// @version 1.0
// @description Ticket fee allocation into prize pools and fixed/oracle priced token exchange.
// @description
// @description ## Amounts
// @description - Every amount is in smallest token units and serialized as a decimal string
// @description - A 2000000 ticket splits into 11 pools that always sum to the ticket price
// @description - Conversions truncate toward zero and reject quotes older than 60 seconds
// @description
// @description ## Admin routes
// @description - Routes under /api/v1/admin require the X-Admin-Token header
// @BasePath /
// @schemes https http
// @tag.name rounds
// @tag.description Rounds, prize pools and ticket fee splits
// @tag.name exchange
// @tag.description Quotes and custody payouts

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&yellowstone.Config{},
		&config.TreasuryConfig{},
		&config.ExchangeConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// core (repository)
		&persistence.Repository{},

		&yellowstone.Service{},
		&blockchain.BlockhashCacheService{},
		&ledger.Service{},

		&allocator.Service{},
		&converter.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}

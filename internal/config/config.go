package config

import (
	"errors"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/rs/zerolog"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY  = "general-config"
	RPC_CONFIG_KEY      = "rpc-config"
	TREASURY_CONFIG_KEY = "treasury-config"
	EXCHANGE_CONFIG_KEY = "exchange-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
	// AdminToken guards the admin routes. Empty disables them.
	AdminToken string
	// RateLimit is requests per second per client IP, RateBurst the bucket size.
	RateLimit int
	RateBurst int
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.AdminToken = common.GetEnvOrDefault("ADMIN_TOKEN", "")
	gc.RateLimit = common.GetEnvOrDefaultInt("HTTP_RATE_LIMIT", 10)
	gc.RateBurst = common.GetEnvOrDefaultInt("HTTP_RATE_BURST", 20)
	if level, err := zerolog.ParseLevel(strings.ToLower(gc.LogLevel)); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	if gc.RateLimit <= 0 || gc.RateBurst <= 0 {
		return errors.New("invalid server config: rate limit and burst must be positive")
	}
	return nil
}

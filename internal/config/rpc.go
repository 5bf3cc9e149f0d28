package config

import (
	"errors"
	"os"
)

type RPCConfig struct {
	RPCUrl string
	// CustodyKey is the base58 private key of the authority owning the
	// custody vault. It signs and pays for outbound transfers.
	CustodyKey string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.CustodyKey = os.Getenv("CUSTODY_KEY")
	return nil
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config")
	}
	return nil
}

package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	envListenAddress = "LISTEN_ADDRESS"
	envSolanaRPCURL  = "SOLANA_RPC_URL"
	envSolanaKeypair = "SOLANA_KEYPAIR"
	envDatabaseURL   = "DATABASE_URL"

	defaultListenAddress = ":3001"
	defaultSolanaRPCURL  = "https://api.mainnet-beta.solana.com"
)

// Config is the process configuration, read from the environment. A .env
// file in the working directory is loaded first when present.
type Config struct {
	ListenAddress string
	SolanaRPCURL  string

	// Operator secret key, as a base58 string or a JSON byte array
	SolanaKeypair string

	// Optional; stores fall back to in-memory implementations when unset
	DatabaseURL string
}

func Load() (*Config, error) {
	// Missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddress: getEnv(envListenAddress, defaultListenAddress),
		SolanaRPCURL:  getEnv(envSolanaRPCURL, defaultSolanaRPCURL),
		SolanaKeypair: os.Getenv(envSolanaKeypair),
		DatabaseURL:   os.Getenv(envDatabaseURL),
	}

	if len(cfg.SolanaKeypair) == 0 {
		return nil, errors.Errorf("%s is not defined", envSolanaKeypair)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); len(value) > 0 {
		return value
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Env        string
	ListenAddr string

	BlockscoutAPIKey string
	EtherscanAPIKey  string
	EtherscanBase    string

	PinataJWT       string
	PinataAPIKey    string
	PinataAPISecret string

	DatabaseURL string

	HTTPTimeout     time.Duration
	TransferWorkers int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func Load() Config {
	return Config{
		Env:              getenv("APP_ENV", "development"),
		ListenAddr:       getenv("LISTEN_ADDR", ":3001"),
		BlockscoutAPIKey: os.Getenv("BLOCKSCOUT_API_KEY"),
		EtherscanAPIKey:  os.Getenv("ETHERSCAN_API_KEY"),
		EtherscanBase:    getenv("ETHERSCAN_BASE_URL", "https://api-sepolia.etherscan.io"),
		PinataJWT:        os.Getenv("PINATA_JWT"),
		PinataAPIKey:     os.Getenv("PINATA_API_KEY"),
		PinataAPISecret:  os.Getenv("PINATA_API_SECRET"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPTimeout:      time.Duration(getenvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		TransferWorkers:  getenvInt("TRANSFER_WORKERS", 8),
	}
}

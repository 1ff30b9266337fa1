package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN        string
	RedisURL        string
	JWTSecret       string
	Port            string
	CachingAllowed  bool
	CacheTTLSeconds int
	TreasuryRefresh int // seconds between treasury overview refreshes
	ChainIdleSecs   int // idle seconds before a pooled RPC connection is torn down
	PriceFeedURL    string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

func Load() Config {
	return Config{
		MySQLDSN:        getenv("MYSQL_DSN", "dev:test@tcp(localhost:3306)/polkassembly"),
		RedisURL:        getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:       getenv("JWT_SECRET", "dev-secret"),
		Port:            getenv("PORT", "8080"),
		CachingAllowed:  getenv("IS_CACHING_ALLOWED", "0") == "1",
		CacheTTLSeconds: getint("CACHE_TTL", 300),
		TreasuryRefresh: getint("TREASURY_REFRESH_INTERVAL", 900),
		ChainIdleSecs:   getint("CHAIN_IDLE_TIMEOUT", 60),
		PriceFeedURL:    getenv("PRICE_FEED_URL", "https://api.coingecko.com/api/v3"),
	}
}

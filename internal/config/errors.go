package config

import "errors"

var (
	ErrPortMissing          = errors.New("PORT is required")
	ErrRedisAddrMissing     = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB       = errors.New("REDIS_DB must not be negative")
	ErrPostgresDSNMissing   = errors.New("POSTGRES_DSN is required")
	ErrInvalidMaxConns      = errors.New("POSTGRES_MAX_CONNS must be positive")
	ErrUnknownLedgerBackend = errors.New("LEDGER_BACKEND must be one of redis, postgres, memory")
	ErrPushGatewayMissing   = errors.New("PUSH_GATEWAY_URL is required")
)

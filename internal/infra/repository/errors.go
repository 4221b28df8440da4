package repository

import "errors"

var (
	ErrRedisConnection    = errors.New("redis connection error")
	ErrInvalidLedgerEntry = errors.New("invalid ledger entry")
)

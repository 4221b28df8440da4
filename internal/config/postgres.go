package config

type PostgresConfig struct {
	DSN      string `envconfig:"POSTGRES_DSN"`
	MaxConns int32  `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
	// Migrate applies the embedded migrations at startup.
	Migrate bool `envconfig:"POSTGRES_MIGRATE" default:"true"`
}

func (c *PostgresConfig) Validate() error {
	if c.DSN == "" {
		return ErrPostgresDSNMissing
	}
	if c.MaxConns <= 0 {
		return ErrInvalidMaxConns
	}
	return nil
}

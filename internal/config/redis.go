package config

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	TLS      bool   `envconfig:"REDIS_TLS" default:"false"`
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return ErrRedisAddrMissing
	}
	if c.DB < 0 {
		return ErrInvalidRedisDB
	}
	return nil
}

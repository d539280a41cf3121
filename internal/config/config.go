package config

import "time"

// Config - вся конфигурация приложения.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Auth    AuthConfig    `mapstructure:"auth" validate:"required"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// StorageConfig выбирает реализацию хранилища.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
}

// LogConfig задаёт уровень логирования.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// AuthConfig задаёт стоимость bcrypt.
type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

// CacheConfig включает кэш ленты, если задан RedisURL.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

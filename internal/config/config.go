// Package config предоставялет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	CacheTTL                time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"10m"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	PiAPI                   `yaml:"pi_api"`
	RabbitMQ                `yaml:"rabbitmq"`
	Payments                `yaml:"payments"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP        string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP        time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// PiAPI структура для настройки клиента платформы Pi
type PiAPI struct {
	BaseURL      string        `yaml:"base_url" env:"PI_API_BASE" env-default:"https://api.minepi.com/v2"`
	ServerAPIKey string        `yaml:"server_api_key" env:"PI_SERVER_API_KEY"`
	TimeoutPi    time.Duration `yaml:"timeout" env:"PI_API_TIMEOUT"`
}

// RabbitMQ структура для настройки публикации событий. Пустой URL отключает события.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// Payments структура для настройки обработки платежей
type Payments struct {
	Deduplicate bool `yaml:"deduplicate" env:"PAYMENTS_DEDUPLICATE"`
	// CacheReinvalidateDelay пауза перед повторным сбросом кэша после зачисления, 0 отключает.
	CacheReinvalidateDelay time.Duration `yaml:"cache_reinvalidate_delay" env:"PAYMENTS_CACHE_REINVALIDATE_DELAY" env-default:"1s"`
}

// Load читает .env (если есть), затем YAML-файл по пути CONFIG_PATH.
// Переменные окружения имеют приоритет над значениями из файла.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file: %s - does not exist", op, configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"CacheTTL: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"PiAPI:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"Payments:\n"+
			"  Deduplicate: %t\n"+
			"  CacheReinvalidateDelay: %s\n",
		c.Env,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.CacheTTL,
		c.AddressRedis,
		c.User,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.BaseURL,
		c.TimeoutPi,
		c.RabbitMQURL != "",
		c.Deduplicate,
		c.CacheReinvalidateDelay,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

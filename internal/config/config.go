package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Telegram  TelegramConfig
	Inference InferenceConfig
	Poll      PollConfig
	Redis     RedisConfig
	Log       LogConfig
}

type ServerConfig struct {
	Address string
}

type TelegramConfig struct {
	Token   string
	BaseURL string
}

type InferenceConfig struct {
	Token   string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type PollConfig struct {
	Interval time.Duration
	Backoff  time.Duration
	Timeout  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type LogConfig struct {
	Level string
}

func LoadAll() (*Config, error) {
	var errs []error

	collect := func(key string) string {
		v, err := requireEnv(key)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	collectInt := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Telegram: TelegramConfig{
			Token:   collect("TELEGRAM_TOKEN"),
			BaseURL: getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},
		Inference: InferenceConfig{
			Token:   collect("HF_TOKEN"),
			Model:   getEnv("HF_MODEL", "stabilityai/stable-diffusion-xl-base-1.0"),
			BaseURL: getEnv("HF_BASE_URL", "https://api-inference.huggingface.co"),
			Timeout: time.Duration(collectInt("GENERATE_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Poll: PollConfig{
			Interval: time.Duration(collectInt("POLL_INTERVAL_SECONDS", 1)) * time.Second,
			Backoff:  time.Duration(collectInt("POLL_BACKOFF_SECONDS", 5)) * time.Second,
			Timeout:  time.Duration(collectInt("POLL_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	redisCfg, redisErrs := loadRedisConfig()
	cfg.Redis = redisCfg
	errs = append(errs, redisErrs...)

	errs = append(errs, validate(cfg)...)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, []error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	var errs []error
	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err)
	}
	ttl, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		errs = append(errs, err)
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, errs
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.Poll.Interval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Poll.Backoff <= 0 {
		errs = append(errs, errors.New("POLL_BACKOFF_SECONDS must be > 0"))
	}
	if cfg.Poll.Timeout <= 0 {
		errs = append(errs, errors.New("POLL_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.Inference.Timeout <= 0 {
		errs = append(errs, errors.New("GENERATE_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.Inference.Model == "" {
		errs = append(errs, errors.New("HF_MODEL must not be empty"))
	}
	return errs
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config 服務啟動所需的全部設定，來源為環境變數（可由 .env 補上）
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	WorkerCount     int
	HTTPAddr        string
	LogLevel        string
	LogPretty       bool
	MediaRoot       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// loadDotEnv 載入 .env 檔，測試可覆寫
var loadDotEnv = func(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("worker_count", 1)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("media_root", "media")
	v.SetDefault("access_token_ttl", "24h")
	v.SetDefault("refresh_token_ttl", "720h")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load 讀取 ENV_FILE（預設 .env）後解析環境變數
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}
	return parse(newViper())
}

func parse(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:   v.GetString("database_url"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		JWTSecret:     v.GetString("jwt_secret"),
		HTTPAddr:      v.GetString("http_addr"),
		LogLevel:      strings.ToLower(v.GetString("log_level")),
		MediaRoot:     v.GetString("media_root"),
	}

	var errs []error
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_ADDR":   cfg.RedisAddr,
		"JWT_SECRET":   cfg.JWTSecret,
	}
	for _, key := range []string{"DATABASE_URL", "REDIS_ADDR", "JWT_SECRET"} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("環境變數 %s 未設定", key))
		}
	}

	var err error
	if cfg.RedisDB, err = cast.ToIntE(v.Get("redis_db")); err != nil || cfg.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("無效的 REDIS_DB: %v", v.Get("redis_db")))
	}
	if cfg.WorkerCount, err = cast.ToIntE(v.Get("worker_count")); err != nil || cfg.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("無效的 WORKER_COUNT: %v", v.Get("worker_count")))
	}
	if cfg.LogPretty, err = cast.ToBoolE(v.Get("log_pretty")); err != nil {
		errs = append(errs, fmt.Errorf("無效的 LOG_PRETTY: %v", v.Get("log_pretty")))
	}
	if cfg.AccessTokenTTL, err = cast.ToDurationE(v.Get("access_token_ttl")); err != nil || cfg.AccessTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("無效的 ACCESS_TOKEN_TTL: %v", v.Get("access_token_ttl")))
	}
	if cfg.RefreshTokenTTL, err = cast.ToDurationE(v.Get("refresh_token_ttl")); err != nil || cfg.RefreshTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("無效的 REFRESH_TOKEN_TTL: %v", v.Get("refresh_token_ttl")))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

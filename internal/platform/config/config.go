package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/spf13/viper"
)

type ExchangeConfig struct {
	ApiKey     string
	ApiSecret  string
	Passphrase string
	MakerFee   float64
	TakerFee   float64
}

type Config struct {
	Arbitrage struct {
		Budget            float64
		ProfitThreshold   float64 // percentage
		ReferenceFallback bool
	}

	Exchange map[domain.ExchangeEnum]ExchangeConfig

	Discord struct {
		WebhookUrl string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	DataDir    string
	SqlitePath string
	HttpAddr   string
	Timezone   string
}

// Load reads the configuration from the environment. Values loaded from a
// .env file by godotenv are visible here as plain environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("arbitrage.budget", 10000)
	v.SetDefault("arbitrage.profit_threshold", 0)
	v.SetDefault("arbitrage.reference_fallback", false)

	for _, name := range []string{"binance", "okx"} {
		v.SetDefault(name+".api_key", "")
		v.SetDefault(name+".api_secret", "")
		v.SetDefault(name+".maker_fee", 0.001)
		v.SetDefault(name+".taker_fee", 0.001)
	}
	v.SetDefault("okx.passphrase", "")

	v.SetDefault("discord.webhook_url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("data_dir", "data")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("timezone", "Europe/London")

	cfg := &Config{}

	var err error
	if cfg.Arbitrage.Budget, err = getFloat(v, "arbitrage.budget"); err != nil {
		return nil, err
	}
	if cfg.Arbitrage.ProfitThreshold, err = getFloat(v, "arbitrage.profit_threshold"); err != nil {
		return nil, err
	}
	cfg.Arbitrage.ReferenceFallback = v.GetBool("arbitrage.reference_fallback")

	cfg.Exchange = make(map[domain.ExchangeEnum]ExchangeConfig)
	for ex, name := range map[domain.ExchangeEnum]string{domain.Binance: "binance", domain.OKX: "okx"} {
		exCfg := ExchangeConfig{
			ApiKey:     v.GetString(name + ".api_key"),
			ApiSecret:  v.GetString(name + ".api_secret"),
			Passphrase: v.GetString(name + ".passphrase"),
		}
		if exCfg.MakerFee, err = getFloat(v, name+".maker_fee"); err != nil {
			return nil, err
		}
		if exCfg.TakerFee, err = getFloat(v, name+".taker_fee"); err != nil {
			return nil, err
		}
		cfg.Exchange[ex] = exCfg
	}

	cfg.Discord.WebhookUrl = v.GetString("discord.webhook_url")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.DataDir = v.GetString("data_dir")
	cfg.SqlitePath = v.GetString("sqlite_path")
	cfg.HttpAddr = v.GetString("http_addr")
	cfg.Timezone = v.GetString("timezone")

	return cfg, nil
}

// getFloat rejects values that viper would otherwise silently turn into zero.
func getFloat(v *viper.Viper, key string) (float64, error) {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &f); err != nil {
			return 0, fmt.Errorf("invalid value %q for %s: %w", s, envName(key), err)
		}
		return f, nil
	}
	return v.GetFloat64(key), nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate reports configuration that must be present before any task starts.
func (c *Config) Validate() error {
	var errs []error
	binance := c.Exchange[domain.Binance]
	if binance.ApiKey == "" || binance.ApiSecret == "" {
		errs = append(errs, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET are required"))
	}
	okx := c.Exchange[domain.OKX]
	if okx.ApiKey == "" || okx.ApiSecret == "" || okx.Passphrase == "" {
		errs = append(errs, errors.New("OKX_API_KEY, OKX_API_SECRET and OKX_PASSPHRASE are required"))
	}
	if c.Arbitrage.Budget <= 0 {
		errs = append(errs, fmt.Errorf("ARBITRAGE_BUDGET must be positive, got %v", c.Arbitrage.Budget))
	}
	return errors.Join(errs...)
}

var once sync.Once
var config *Config
var configErr error

// GetConfig loads the configuration once per process.
func GetConfig() (*Config, error) {
	once.Do(func() {
		config, configErr = Load()
	})
	return config, configErr
}

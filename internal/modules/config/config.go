package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"failover_trader/internal/models"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	redisAddrENV      = "REDIS_ADDR"
	vaultAddrENV      = "VAULT_ADDR"
	vaultTokenENV     = "VAULT_TOKEN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		AdminPort  int    `yaml:"admin_port"`
	} `yaml:"service"`
	LogLevel string `yaml:"log_level"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	Vault struct {
		Addr  string `yaml:"addr"`
		Token string `yaml:"token"`
		Mount string `yaml:"mount"`
	} `yaml:"vault"`

	Feed struct {
		URL            string        `yaml:"url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"feed"`

	// CSV с историей для прогрева сессий до старта фида
	WarmupFile string `yaml:"warmup_file"`

	// Пресет рынка: stocks | crypto
	Market      string   `yaml:"market"`
	Instruments []string `yaml:"instruments"`
	Capital     float64  `yaml:"capital"`

	Strategy models.StrategyParams `yaml:"strategy"`

	Brokers []models.BrokerConfig `yaml:"brokers"`
	// Брокеры из таблицы broker_configs вместо списка выше
	BrokersFromDB  bool          `yaml:"brokers_from_db"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	EventBuffer int `yaml:"event_buffer"`
	InboxSize   int `yaml:"inbox_size"`
}

func defaults() Config {
	c := Config{
		LogLevel:       "info",
		Capital:        200000,
		Strategy:       models.DefaultStrategyParams(),
		RequestTimeout: 30 * time.Second,
		EventBuffer:    256,
		InboxSize:      1024,
	}
	c.Service.Host = "0.0.0.0"
	c.Service.PublicPort = 8080
	c.Redis.Channel = "trade_events"
	c.Vault.Mount = "secret"
	c.Feed.ReconnectDelay = 5 * time.Second
	return c
}

func NewConfig() (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")
	dir := getenvDefault(configDirENV, "configs")

	cfg, err := Load(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// Load дефолты -> пресет рынка -> файл -> env.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var head struct {
		Market string `yaml:"market"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	market := getenvDefault("MARKET", head.Market)

	config := defaults()
	if market != "" && !models.ApplyPreset(market, &config.Strategy) {
		return nil, fmt.Errorf("unknown market preset %q", market)
	}

	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	config.Market = market

	config.applyEnv()
	return &config, nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	c.Telegram.ChatID = int64(intFromEnv(chatTelegramENV, int(c.Telegram.ChatID)))

	if dsn := os.Getenv(databaseDSN); dsn != "" {
		c.DB = dsn
	}
	c.Redis.Addr = getenvDefault(redisAddrENV, c.Redis.Addr)
	c.Vault.Addr = getenvDefault(vaultAddrENV, c.Vault.Addr)
	c.Vault.Token = getenvDefault(vaultTokenENV, c.Vault.Token)
	c.Feed.URL = getenvDefault("FEED_URL", c.Feed.URL)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)

	c.Capital = floatFromEnv("CAPITAL", c.Capital)
	c.Strategy.Leverage = floatFromEnv("LEVERAGE", c.Strategy.Leverage)
	c.Strategy.MaxRetries = intFromEnv("MAX_RETRIES", c.Strategy.MaxRetries)
	c.RequestTimeout = durationFromEnv("REQUEST_TIMEOUT", c.RequestTimeout.String())
	c.BrokersFromDB = boolFromEnv("BROKERS_FROM_DB", c.BrokersFromDB)

	if v := os.Getenv("INSTRUMENTS"); v != "" {
		c.Instruments = splitList(v)
	}
}

// Validate: ровно один primary, не больше одного backup, известные типы.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return errors.Wrap(err, "strategy")
	}
	if c.Capital <= 0 {
		return errors.New("capital must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	// без chat_id бот принял бы команды из любого чата
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when telegram.token is set")
	}
	if c.BrokersFromDB {
		return nil
	}
	return ValidateBrokers(c.Brokers)
}

func ValidateBrokers(brokers []models.BrokerConfig) error {
	var primary, backup int
	seen := make(map[string]bool, len(brokers))
	for _, b := range brokers {
		if b.Name == "" {
			return errors.New("broker without name")
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate broker %q", b.Name)
		}
		seen[b.Name] = true

		switch b.Kind {
		case models.BrokerSimulated, models.BrokerPaper, models.BrokerOpenAlgo, models.BrokerOKX:
		default:
			return fmt.Errorf("broker %q: unknown kind %q", b.Name, b.Kind)
		}

		switch b.Role {
		case models.RolePrimary:
			primary++
		case models.RoleBackup:
			backup++
		default:
			return fmt.Errorf("broker %q: unknown role %q", b.Name, b.Role)
		}
	}
	if primary != 1 {
		return fmt.Errorf("expected exactly one primary broker, got %d", primary)
	}
	if backup > 1 {
		return fmt.Errorf("expected at most one backup broker, got %d", backup)
	}
	return nil
}

// BrokerByRole первый брокер с ролью, ok=false если такого нет.
func BrokerByRole(brokers []models.BrokerConfig, role models.BrokerRole) (models.BrokerConfig, bool) {
	for _, b := range brokers {
		if b.Role == role {
			return b, true
		}
	}
	return models.BrokerConfig{}, false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}

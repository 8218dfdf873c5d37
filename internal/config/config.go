package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	StaticPath  string        `mapstructure:"static_path"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	PongWait    time.Duration `mapstructure:"pong_wait"`
	WriteWait   time.Duration `mapstructure:"write_wait"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	FrontendURL string        `mapstructure:"frontend_url"`

	Log       LogConfig       `mapstructure:"log"`
	History   HistoryConfig   `mapstructure:"history"`
	Translate TranslateConfig `mapstructure:"translate"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Policy    PolicyConfig    `mapstructure:"policy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type HistoryConfig struct {
	Capacity      int `mapstructure:"capacity"`
	CatchUp       int `mapstructure:"catchup"`
	APILimit      int `mapstructure:"api_limit"`
	SummaryWindow int `mapstructure:"summary_window"`
}

type TranslateConfig struct {
	Provider  string        `mapstructure:"provider"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Workers   int           `mapstructure:"workers"`
	CacheSize int64         `mapstructure:"cache_size"`
}

type SummaryConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

type PolicyConfig struct {
	Backpressure string `mapstructure:"backpressure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3001)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("frontend_url", "http://localhost:3000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("history.capacity", 1000)
	v.SetDefault("history.catchup", 50)
	v.SetDefault("history.api_limit", 100)
	v.SetDefault("history.summary_window", 10)

	v.SetDefault("translate.provider", "offline")
	v.SetDefault("translate.base_url", "")
	v.SetDefault("translate.api_key", "")
	v.SetDefault("translate.timeout", "3s")
	v.SetDefault("translate.workers", 4)
	v.SetDefault("translate.cache_size", 10000)

	v.SetDefault("summary.provider", "local")
	v.SetDefault("summary.model", "gpt-4o-mini")
	v.SetDefault("summary.api_key", "")
	v.SetDefault("summary.base_url", "")
	v.SetDefault("summary.timeout", "10s")

	v.SetDefault("ratelimit.messages", 20)
	v.SetDefault("ratelimit.interval", "10s")

	v.SetDefault("policy.backpressure", "kick")
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then environment
// overrides such as TRANSLATE_PROVIDER or HISTORY_CAPACITY.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load without .env handling; a missing file means defaults.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("translate", cfg.Translate.Provider).
		Str("summary", cfg.Summary.Provider).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.SendBuffer < 1:
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	case c.History.Capacity < 1:
		return fmt.Errorf("history.capacity must be positive, got %d", c.History.Capacity)
	case c.PingPeriod >= c.PongWait:
		return fmt.Errorf("ping_period (%s) must be shorter than pong_wait (%s)", c.PingPeriod, c.PongWait)
	}
	return nil
}

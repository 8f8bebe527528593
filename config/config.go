package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger         `mapstructure:"logger"`
	Store        Store          `mapstructure:"store"`
	API          API            `mapstructure:"api"`
	Orchestrator Orchestrator   `mapstructure:"orchestrator"`
	Monitor      Monitor        `mapstructure:"monitor"`
	MarketData   MarketData     `mapstructure:"market_data"`
	Calendar     Calendar       `mapstructure:"calendar"`
	Cache        Cache          `mapstructure:"cache"`
	Trailing     Trailing       `mapstructure:"trailing"`
	GTD          GTD            `mapstructure:"gtd"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Store configures the play record store root. Lifecycle folders are
// created underneath it on startup.
type Store struct {
	BaseDir string `mapstructure:"base_dir" validate:"required"`
}

type API struct {
	Port int `mapstructure:"port" validate:"gt=0"`
}

type Orchestrator struct {
	// SweepInterval is the pause between full sweeps over active plays.
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	SweepTimeout  time.Duration `mapstructure:"sweep_timeout"`
}

type Monitor struct {
	CheckInterval  time.Duration `mapstructure:"check_interval" validate:"gt=0"`
	MaxMemoryMB    int           `mapstructure:"max_memory_mb"`
	MaxGoroutines  int           `mapstructure:"max_goroutines"`
	Recoveryscript string        `mapstructure:"recovery_script"`
}

type MarketData struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIToken         string        `mapstructure:"api_token"`
	BaseTimeout      time.Duration `mapstructure:"base_timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
}

type Calendar struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	BaseTimeout time.Duration `mapstructure:"base_timeout"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// Trailing is the global gate for the trailing ratchet. Disabled here means
// per-play trailing configuration is ignored entirely.
type Trailing struct {
	Enabled bool `mapstructure:"enabled"`
}

// GTD holds global dynamic good-til-date settings. Per-policy parameters
// live on each play; these are process-wide toggles.
type GTD struct {
	Enabled bool `mapstructure:"enabled"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

func Load() (*Config, error) {
	godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("store.base_dir", "plays")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("orchestrator.sweep_interval", 30*time.Second)
	viper.SetDefault("orchestrator.sweep_timeout", 5*time.Minute)
	viper.SetDefault("monitor.check_interval", 60*time.Second)
	viper.SetDefault("monitor.max_memory_mb", 512)
	viper.SetDefault("monitor.max_goroutines", 500)
	viper.SetDefault("market_data.base_timeout", 10*time.Second)
	viper.SetDefault("market_data.max_request_per_min", 60)
	viper.SetDefault("calendar.base_timeout", 10*time.Second)
	viper.SetDefault("cache.default_expiration", time.Minute)
	viper.SetDefault("cache.cleanup_interval", 5*time.Minute)
	viper.SetDefault("trailing.enabled", false)
	viper.SetDefault("gtd.enabled", true)
}

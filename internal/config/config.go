package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=10s"`
	RabbitMQ         RabbitMQConfig          `env:",prefix=RABBITMQ_"`
	Supervisor       SupervisorConfig        `env:",prefix=SUPERVISOR_"`
	BitSkins         BitSkinsConfig          `env:",prefix=BITSKINS_"`
	DashSkins        DashSkinsConfig         `env:",prefix=DASHSKINS_"`
	Steam            SteamConfig             `env:",prefix=STEAM_"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=info"`
}

type ObservabilityHTTPConfig struct {
	Enabled      bool          `env:"ENABLED,default=true"`
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type RabbitMQConfig struct {
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=5672"`
	User           string        `env:"USER,default=guest"`
	Password       string        `env:"PASSWORD,default=guest"`
	VHost          string        `env:"VHOST,default=/"`
	Exchange       string        `env:"EXCHANGE,default=skin.market.data"`
	RoutingPrefix  string        `env:"ROUTING_PREFIX,default=skin.market"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT,default=10s"`
	Heartbeat      time.Duration `env:"HEARTBEAT,default=10s"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT,default=5s"`
}

// RoutingKey returns the routing key for a source, e.g. skin.market.bitskins.
func (c RabbitMQConfig) RoutingKey(source string) string {
	return c.RoutingPrefix + "." + source
}

type SupervisorConfig struct {
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL,default=60s"`
	PollInterval        time.Duration `env:"POLL_INTERVAL,default=5s"`
	StartStagger        time.Duration `env:"START_STAGGER,default=1s"`
	MaxRestarts         int           `env:"MAX_RESTARTS,default=10"`
	RestartDelay        time.Duration `env:"RESTART_DELAY,default=5s"`
	ReturnDelay         time.Duration `env:"RETURN_DELAY,default=5s"`
	HealthyWindow       time.Duration `env:"HEALTHY_WINDOW,default=300s"`
}

type BitSkinsConfig struct {
	Enabled       bool          `env:"ENABLED,default=true"`
	MinDiscount   float64       `env:"MIN_DISCOUNT,default=55"`
	CheckInterval time.Duration `env:"CHECK_INTERVAL,default=60s"`
	SearchKnives  bool          `env:"SEARCH_KNIVES,default=true"`
	SearchWeapons bool          `env:"SEARCH_WEAPONS,default=true"`
	PriceFrom     int64         `env:"PRICE_FROM,default=10000"`
	PriceTo       int64         `env:"PRICE_TO,default=25000000"`
	PageLimit     int           `env:"PAGE_LIMIT,default=30"`
	BaseURL       string        `env:"BASE_URL,default=https://api.bitskins.com/market/search/730"`
	Timeout       time.Duration `env:"TIMEOUT,default=10s"`
	Enrich        bool          `env:"ENRICH,default=true"`
}

type DashSkinsConfig struct {
	Enabled       bool          `env:"ENABLED,default=true"`
	MinDiscount   float64       `env:"MIN_DISCOUNT,default=30"`
	CheckInterval time.Duration `env:"CHECK_INTERVAL,default=60s"`
	SearchKnives  bool          `env:"SEARCH_KNIVES,default=true"`
	SearchRifles  bool          `env:"SEARCH_RIFLES,default=true"`
	PageLimit     int           `env:"PAGE_LIMIT,default=36"`
	BaseURL       string        `env:"BASE_URL,default=https://dashskins.com.br/api/listing"`
	Timeout       time.Duration `env:"TIMEOUT,default=10s"`
}

type SteamConfig struct {
	BaseURL     string        `env:"BASE_URL,default=https://steamcommunity.com/market/priceoverview/"`
	Timeout     time.Duration `env:"TIMEOUT,default=10s"`
	LookupDelay time.Duration `env:"LOOKUP_DELAY,default=500ms"`
	AppID       int           `env:"APP_ID,default=730"`
	Currency    int           `env:"CURRENCY,default=1"`
}

// SQLiteConfig configures the dropped-item journal. An empty Path disables
// it.
type SQLiteConfig struct {
	Path         string        `env:"PATH"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS,default=4"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS,default=2"`
	MaxLifetime  time.Duration `env:"MAX_LIFETIME,default=5m"`
}

type TelegramConfig struct {
	BotToken string  `env:"BOT_TOKEN"`
	AdminIDs []int64 `env:"ADMIN_IDS"`
	Lang     string  `env:"LANG,default=en"`
}

// Load reads the configuration from l and validates it.
func Load(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return cfg, fmt.Errorf("env processing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

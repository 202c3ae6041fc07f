package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RabbitMQ.Exchange != "skin.market.data" || cfg.RabbitMQ.RoutingKey("bitskins") != "skin.market.bitskins" {
		t.Errorf("rabbitmq = %+v", cfg.RabbitMQ)
	}
	if cfg.Supervisor.MaxRestarts != 10 || cfg.Supervisor.HealthyWindow != 300*time.Second || cfg.Supervisor.StartStagger != time.Second {
		t.Errorf("supervisor = %+v", cfg.Supervisor)
	}
	if cfg.BitSkins.MinDiscount != 55 || cfg.BitSkins.PriceTo != 25000000 || cfg.BitSkins.PageLimit != 30 {
		t.Errorf("bitskins = %+v", cfg.BitSkins)
	}
	if cfg.DashSkins.MinDiscount != 30 || cfg.DashSkins.PageLimit != 36 {
		t.Errorf("dashskins = %+v", cfg.DashSkins)
	}
	if cfg.Steam.LookupDelay != 500*time.Millisecond || cfg.ShutdownDuration != 10*time.Second {
		t.Errorf("steam delay = %s shutdown = %s", cfg.Steam.LookupDelay, cfg.ShutdownDuration)
	}
	if cfg.DB.Path != "" {
		t.Errorf("journal should be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"BITSKINS_ENABLED":       "false",
		"DASHSKINS_MIN_DISCOUNT": "42.5",
		"TELEGRAM_BOT_TOKEN":     "token",
		"TELEGRAM_ADMIN_IDS":     "1,2",
		"RABBITMQ_HOST":          "mq",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BitSkins.Enabled || cfg.DashSkins.MinDiscount != 42.5 || cfg.RabbitMQ.Host != "mq" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Telegram.AdminIDs) != 2 || cfg.Telegram.AdminIDs[1] != 2 {
		t.Errorf("admin ids = %v", cfg.Telegram.AdminIDs)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "negative interval",
			mutate: func(c *Config) { c.BitSkins.CheckInterval = -time.Second },
			want:   []string{"BITSKINS_CHECK_INTERVAL"},
		},
		{
			name:   "discount out of range",
			mutate: func(c *Config) { c.DashSkins.MinDiscount = 120 },
			want:   []string{"DASHSKINS_MIN_DISCOUNT"},
		},
		{
			name:   "inverted price bounds",
			mutate: func(c *Config) { c.BitSkins.PriceFrom, c.BitSkins.PriceTo = 500, 100 },
			want:   []string{"price bounds"},
		},
		{
			name: "no source",
			mutate: func(c *Config) {
				c.BitSkins.Enabled = false
				c.DashSkins.Enabled = false
			},
			want: []string{"no source enabled"},
		},
		{
			name: "no categories and bad port",
			mutate: func(c *Config) {
				c.DashSkins.SearchKnives, c.DashSkins.SearchRifles = false, false
				c.RabbitMQ.Port = 0
			},
			want: []string{"DASHSKINS has no category", "RABBITMQ_PORT"},
		},
		{
			name:   "non-usd steam currency with enrichment",
			mutate: func(c *Config) { c.Steam.Currency = 7 },
			want:   []string{"STEAM_CURRENCY"},
		},
		{
			name:   "steam currency ignored without enrichment",
			mutate: func(c *Config) { c.BitSkins.Enrich, c.Steam.Currency = false, 7 },
		},
		{
			name:   "telegram without admins",
			mutate: func(c *Config) { c.Telegram.BotToken = "t" },
			want:   []string{"TELEGRAM_ADMIN_IDS"},
		},
		{
			name:   "disabled source is not validated",
			mutate: func(c *Config) { c.DashSkins.Enabled, c.DashSkins.CheckInterval = false, 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()

			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate = %v, want ErrInvalid", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

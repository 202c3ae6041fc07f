package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid configuration")

// SteamCurrencyUSD is the Steam market currency code for US dollars.
const SteamCurrencyUSD = 1

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			add("%s must be positive, got %s", name, d)
		}
	}
	discount := func(name string, v float64) {
		if v < 0 || v > 100 {
			add("%s must be within 0..100, got %v", name, v)
		}
	}

	positive("SHUTDOWN_DURATION", c.ShutdownDuration)

	if c.RabbitMQ.Host == "" {
		add("RABBITMQ_HOST is empty")
	}
	if c.RabbitMQ.Port < 1 || c.RabbitMQ.Port > 65535 {
		add("RABBITMQ_PORT must be within 1..65535, got %d", c.RabbitMQ.Port)
	}
	if c.RabbitMQ.Exchange == "" {
		add("RABBITMQ_EXCHANGE is empty")
	}
	if c.RabbitMQ.RoutingPrefix == "" {
		add("RABBITMQ_ROUTING_PREFIX is empty")
	}
	positive("RABBITMQ_DIAL_TIMEOUT", c.RabbitMQ.DialTimeout)
	positive("RABBITMQ_PUBLISH_TIMEOUT", c.RabbitMQ.PublishTimeout)

	s := c.Supervisor
	positive("SUPERVISOR_HEALTH_CHECK_INTERVAL", s.HealthCheckInterval)
	positive("SUPERVISOR_POLL_INTERVAL", s.PollInterval)
	positive("SUPERVISOR_HEALTHY_WINDOW", s.HealthyWindow)
	if s.StartStagger < 0 || s.RestartDelay < 0 || s.ReturnDelay < 0 {
		add("SUPERVISOR_START_STAGGER, RESTART_DELAY and RETURN_DELAY must not be negative")
	}
	if s.MaxRestarts < 0 {
		add("SUPERVISOR_MAX_RESTARTS must not be negative, got %d", s.MaxRestarts)
	}

	if !c.BitSkins.Enabled && !c.DashSkins.Enabled {
		add("no source enabled: set BITSKINS_ENABLED or DASHSKINS_ENABLED")
	}

	if b := c.BitSkins; b.Enabled {
		discount("BITSKINS_MIN_DISCOUNT", b.MinDiscount)
		positive("BITSKINS_CHECK_INTERVAL", b.CheckInterval)
		positive("BITSKINS_TIMEOUT", b.Timeout)
		if !b.SearchKnives && !b.SearchWeapons {
			add("BITSKINS has no category enabled")
		}
		if b.PriceFrom < 0 || b.PriceTo < b.PriceFrom {
			add("BITSKINS price bounds are invalid: %d..%d", b.PriceFrom, b.PriceTo)
		}
		if b.PageLimit <= 0 {
			add("BITSKINS_PAGE_LIMIT must be positive, got %d", b.PageLimit)
		}
		if b.Enrich {
			positive("STEAM_TIMEOUT", c.Steam.Timeout)
			if c.Steam.LookupDelay < 0 {
				add("STEAM_LOOKUP_DELAY must not be negative")
			}
			// BitSkins prices are USD and reference prices share the item's currency.
			if c.Steam.Currency != SteamCurrencyUSD {
				add("STEAM_CURRENCY must be %d (USD) while BITSKINS_ENRICH is set, got %d", SteamCurrencyUSD, c.Steam.Currency)
			}
		}
	}

	if d := c.DashSkins; d.Enabled {
		discount("DASHSKINS_MIN_DISCOUNT", d.MinDiscount)
		positive("DASHSKINS_CHECK_INTERVAL", d.CheckInterval)
		positive("DASHSKINS_TIMEOUT", d.Timeout)
		if !d.SearchKnives && !d.SearchRifles {
			add("DASHSKINS has no category enabled")
		}
		if d.PageLimit <= 0 {
			add("DASHSKINS_PAGE_LIMIT must be positive, got %d", d.PageLimit)
		}
	}

	if c.Telegram.BotToken != "" && len(c.Telegram.AdminIDs) == 0 {
		add("TELEGRAM_ADMIN_IDS is empty while TELEGRAM_BOT_TOKEN is set")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

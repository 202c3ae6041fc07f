package environment

import (
	"context"
	"log/slog"

	"skin-monitor/internal/config"
	"skin-monitor/internal/infra/rabbitmq"
	"skin-monitor/internal/infra/sqlite3"
	"skin-monitor/internal/infra/steam"
	"skin-monitor/internal/infra/telegram"
	"skin-monitor/internal/metrics"
	"skin-monitor/internal/storage"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Clients struct {
	// SQLiteDB is nil when the journal is disabled.
	SQLiteDB *sqlite3.DB
	// TelegramBot is nil when no token is configured.
	TelegramBot *telegram.Client
	Publisher   *rabbitmq.Publisher
	Steam       *steam.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Clients{
		Registry: registry,
		Metrics:  metrics.New(registry),
		Steam: steam.NewClient(steam.Config{
			BaseURL:  cfg.Steam.BaseURL,
			Timeout:  cfg.Steam.Timeout,
			AppID:    cfg.Steam.AppID,
			Currency: cfg.Steam.Currency,
		}, logger),
	}

	sqliteDB, err := provideSQLiteDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.SQLiteDB = sqliteDB

	telegramBot, err := provideTelegramBot(cfg, logger)
	if err != nil {
		c.closeAll(logger)
		return nil, err
	}
	c.TelegramBot = telegramBot

	publisher, err := providePublisher(cfg, logger)
	if err != nil {
		c.closeAll(logger)
		return nil, err
	}
	c.Publisher = publisher

	return c, nil
}

// OpenJournal opens the dropped-item journal on its own, without the broker.
func OpenJournal(ctx context.Context, cfg config.Config) (Journal, func() error, error) {
	logger, err := initLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := provideSQLiteDB(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, errors.New("journal is disabled: DB_PATH is empty")
	}
	return storage.New(db.DB), db.Close, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlite3.DB, error) {
	if cfg.DB.Path == "" {
		logger.Info("Dropped-item journal disabled")
		return nil, nil
	}

	db, err := sqlite3.New(ctx,
		sqlite3.WithPath(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(cfg.DB.MaxLifetime),
	)
	if err != nil {
		return nil, errors.Wrap(err, "open journal database")
	}
	if err := db.Migrate(ctx, storage.Schema...); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrate journal database")
	}

	logger.Info("Dropped-item journal enabled", "path", db.Path())
	return db, nil
}

func provideTelegramBot(cfg config.Config, logger *slog.Logger) (*telegram.Client, error) {
	if cfg.Telegram.BotToken == "" {
		logger.Info("Telegram alerts disabled")
		return nil, nil
	}

	// Alerts are optional; an unreachable Telegram API disables them.
	client, err := telegram.NewClient(cfg.Telegram.BotToken, logger)
	if err != nil {
		logger.Warn("Telegram unavailable, alerts disabled", "error", err)
		return nil, nil
	}
	return client, nil
}

func providePublisher(cfg config.Config, logger *slog.Logger) (*rabbitmq.Publisher, error) {
	publisher, err := rabbitmq.NewPublisher(rabbitmq.Config{
		Host:           cfg.RabbitMQ.Host,
		Port:           cfg.RabbitMQ.Port,
		User:           cfg.RabbitMQ.User,
		Password:       cfg.RabbitMQ.Password,
		VHost:          cfg.RabbitMQ.VHost,
		Exchange:       cfg.RabbitMQ.Exchange,
		DialTimeout:    cfg.RabbitMQ.DialTimeout,
		Heartbeat:      cfg.RabbitMQ.Heartbeat,
		PublishTimeout: cfg.RabbitMQ.PublishTimeout,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create rabbitmq publisher")
	}
	return publisher, nil
}

func (c *Clients) closers(logger *slog.Logger) []closer {
	var out []closer
	if c.SQLiteDB != nil {
		db := c.SQLiteDB
		out = append(out, func() { logClose(logger, "sqlite", db.Close()) })
	}
	if c.TelegramBot != nil {
		bot := c.TelegramBot
		out = append(out, func() { logClose(logger, "telegram", bot.Close()) })
	}
	if c.Publisher != nil {
		pub := c.Publisher
		out = append(out, func() { logClose(logger, "rabbitmq", pub.Close()) })
	}
	return out
}

func (c *Clients) closeAll(logger *slog.Logger) {
	for _, fn := range c.closers(logger) {
		fn()
	}
}

func logClose(logger *slog.Logger, name string, err error) {
	if err != nil {
		logger.Error("Failed to close client", "client", name, "error", err)
	}
}

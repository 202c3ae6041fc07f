package environment

import (
	"context"
	"log/slog"
	"time"

	"skin-monitor/internal/alerts"
	"skin-monitor/internal/config"
	"skin-monitor/internal/sources/bitskins"
	"skin-monitor/internal/sources/dashskins"
	"skin-monitor/internal/sources/webapi"
	"skin-monitor/internal/storage"
	"skin-monitor/internal/stories/pipeline"
	"skin-monitor/internal/stories/pricing"
	"skin-monitor/internal/workers"
	"skin-monitor/internal/workers/healthcheck"

	"github.com/pkg/errors"
)

// Task is one marketplace pipeline, runnable in a loop or as a single pass.
type Task interface {
	workers.Pipeline
	Name() string
	CheckInterval() time.Duration
	RunPass(ctx context.Context) (pipeline.PassStats, error)
}

type Journal interface {
	pipeline.Journal
	ListDropped(ctx context.Context, criteria storage.ListDroppedCriteria) ([]pipeline.DroppedItem, error)
	CountDropped(ctx context.Context) (int, error)
}

type Services struct {
	Tasks      []Task
	Journal    Journal
	Monitor    *healthcheck.Monitor
	Supervisor *workers.Supervisor
}

func newServices(_ context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	taskOpts := []pipeline.Option{pipeline.WithMetrics(clients.Metrics)}
	if clients.SQLiteDB != nil {
		journal := storage.New(clients.SQLiteDB.DB)
		s.Journal = journal
		taskOpts = append(taskOpts, pipeline.WithJournal(journal))
	}

	if cfg.BitSkins.Enabled {
		var enricher bitskins.Enricher
		if cfg.BitSkins.Enrich {
			enricher = pricing.NewService(
				bitskins.Name,
				clients.Steam,
				pricing.NewCache(),
				cfg.Steam.LookupDelay,
				clients.Metrics,
				logger.With("component", "pricing"),
			)
		}

		source := bitskins.New(bitskins.Config{
			BaseURL:       cfg.BitSkins.BaseURL,
			MinDiscount:   cfg.BitSkins.MinDiscount,
			SearchKnives:  cfg.BitSkins.SearchKnives,
			SearchWeapons: cfg.BitSkins.SearchWeapons,
			PriceFrom:     cfg.BitSkins.PriceFrom,
			PriceTo:       cfg.BitSkins.PriceTo,
			PageLimit:     cfg.BitSkins.PageLimit,
		}, webapi.New(cfg.BitSkins.Timeout), enricher, logger)

		s.Tasks = append(s.Tasks, pipeline.NewTask[bitskins.Record](source, clients.Publisher, pipeline.Config{
			RoutingKey:    cfg.RabbitMQ.RoutingKey(bitskins.Name),
			MinDiscount:   cfg.BitSkins.MinDiscount,
			CheckInterval: cfg.BitSkins.CheckInterval,
		}, logger, taskOpts...))
	}

	if cfg.DashSkins.Enabled {
		client := webapi.New(cfg.DashSkins.Timeout,
			webapi.WithHeader("User-Agent", dashskins.DefaultUserAgent),
			webapi.WithHeader("Accept", "application/json"),
		)
		source := dashskins.New(dashskins.Config{
			BaseURL:      cfg.DashSkins.BaseURL,
			MinDiscount:  cfg.DashSkins.MinDiscount,
			SearchKnives: cfg.DashSkins.SearchKnives,
			SearchRifles: cfg.DashSkins.SearchRifles,
			PageLimit:    cfg.DashSkins.PageLimit,
		}, client, logger)

		s.Tasks = append(s.Tasks, pipeline.NewTask[dashskins.Record](source, clients.Publisher, pipeline.Config{
			RoutingKey:    cfg.RabbitMQ.RoutingKey(dashskins.Name),
			MinDiscount:   cfg.DashSkins.MinDiscount,
			CheckInterval: cfg.DashSkins.CheckInterval,
		}, logger, taskOpts...))
	}

	templates, err := alerts.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "load alert templates")
	}
	lang := cfg.Telegram.Lang
	if !templates.Supports(lang) {
		logger.Warn("Unsupported alert language, using default", "lang", lang, "default", alerts.DefaultLang)
		lang = alerts.DefaultLang
	}

	var notifier healthcheck.TelegramNotifier
	if clients.TelegramBot != nil {
		notifier = clients.TelegramBot
	}
	s.Monitor = healthcheck.NewMonitor(
		notifier,
		templates,
		clients.Metrics,
		cfg.Telegram.AdminIDs,
		lang,
		logger.With("component", "healthcheck"),
	)

	s.Supervisor = workers.NewSupervisor(workers.SupervisorConfig{
		HealthCheckInterval: cfg.Supervisor.HealthCheckInterval,
		PollInterval:        cfg.Supervisor.PollInterval,
		StartStagger:        cfg.Supervisor.StartStagger,
	}, logger.With("component", "supervisor"), workers.WithReporter(s.Monitor))

	for _, task := range s.Tasks {
		runner := workers.NewRunner(workers.RunnerConfig{
			Name:          task.Name(),
			CheckInterval: task.CheckInterval(),
			MaxRestarts:   cfg.Supervisor.MaxRestarts,
			RestartDelay:  cfg.Supervisor.RestartDelay,
			ReturnDelay:   cfg.Supervisor.ReturnDelay,
			HealthyWindow: cfg.Supervisor.HealthyWindow,
		}, task, logger, workers.WithRunnerMetrics(clients.Metrics))

		if err := s.Supervisor.Register(runner); err != nil {
			return nil, errors.Wrap(err, "register worker")
		}
	}

	return &s, nil
}

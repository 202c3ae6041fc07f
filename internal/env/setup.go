package environment

import (
	"context"
	"fmt"
	"log/slog"

	"skin-monitor/internal/config"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type closer func()

type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Servers  *Servers
	Clients  *Clients
	Services *Services

	Closers []closer
}

// LoadConfig reads an optional .env file and the process environment.
func LoadConfig(ctx context.Context) (config.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	return config.Load(ctx, envconfig.OsLookuper())
}

func Setup(ctx context.Context, cfg config.Config) (*Env, error) {
	var e Env

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	clients, err := newClients(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("newClients: %w", err)
	}
	e.Closers = clients.closers(logger)

	services, err := newServices(ctx, clients, &cfg, logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("newServices: %w", err)
	}

	e.Servers = newServers(ctx, cfg, logger, clients, services)
	e.Config = &cfg
	e.Logger = logger
	e.Clients = clients
	e.Services = services

	return &e, nil
}

// Close runs the closers in reverse order.
func (e *Env) Close() {
	for i := len(e.Closers) - 1; i >= 0; i-- {
		e.Closers[i]()
	}
}

package wire

import (
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/agent"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/db"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/storage"
)

// provideSession selects the agent backend from the configuration.
func provideSession(cfg *config.Config, log *slog.Logger) (agent.Session, error) {
	switch cfg.Agent.Backend {
	case "claude-cli":
		return agent.NewCLISession(cfg.Agent.Command, log), nil
	case "api":
		return agent.NewAPISession(cfg.Agent.APIKey, log), nil
	default:
		return nil, fmt.Errorf("unsupported agent backend: %q", cfg.Agent.Backend)
	}
}

// provideStore opens the audit database when one is configured. A nil store
// disables audit logging without touching the review pipeline.
func provideStore(cfg *config.Config, log *slog.Logger) (storage.Store, func(), error) {
	if !cfg.HasDatabase() {
		log.Info("no audit database configured, review records will not be persisted")
		return nil, func() {}, nil
	}

	dbConn, cleanup, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return storage.NewStore(dbConn.DB), cleanup, nil
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logger
}

func provideSlogLogger(loggerConfig logger.Config) *slog.Logger {
	return logger.New(loggerConfig, nil)
}

func provideMaxWorkers(cfg *config.Config) int {
	return cfg.Server.MaxWorkers
}

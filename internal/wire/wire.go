//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/jobs"
	"github.com/sevigo/pr-warden/internal/prompt"
	"github.com/sevigo/pr-warden/internal/server"
)

func InitializeApp() (*app.App, func(), error) {
	wire.Build(
		app.NewApp,
		server.NewServer,
		config.Load,
		jobs.NewDispatcher,
		jobs.NewReviewJob,
		prompt.NewManager,
		provideSession,
		provideStore,
		provideLoggerConfig,
		provideSlogLogger,
		provideMaxWorkers,
	)
	return &app.App{}, nil, nil
}

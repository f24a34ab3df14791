// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"fmt"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/jobs"
	"github.com/sevigo/pr-warden/internal/prompt"
	"github.com/sevigo/pr-warden/internal/server"
)

// InitializeApp creates and wires all webhook-mode dependencies.
func InitializeApp() (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateWebhook(); err != nil {
		return nil, nil, err
	}

	loggerConfig := provideLoggerConfig(cfg)
	slogLogger := provideSlogLogger(loggerConfig)

	session, err := provideSession(cfg, slogLogger)
	if err != nil {
		return nil, nil, err
	}

	store, storeCleanup, err := provideStore(cfg, slogLogger)
	if err != nil {
		return nil, nil, err
	}

	prompts, err := prompt.NewManager()
	if err != nil {
		storeCleanup()
		return nil, nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	reviewJob := jobs.NewReviewJob(cfg, session, prompts, store, slogLogger)
	dispatcher := jobs.NewDispatcher(reviewJob, provideMaxWorkers(cfg), slogLogger)
	srv := server.NewServer(cfg, dispatcher, slogLogger)
	application := app.NewApp(cfg, srv, dispatcher, slogLogger)

	cleanup := func() {
		storeCleanup()
	}
	return application, cleanup, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api"
	"github.com/maheshrc27/postpilot/internal/quality"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

type dependencies struct {
	db       *sqlx.DB
	services api.Services
}

func wire(ctx context.Context, cfg config.Config) (*dependencies, error) {
	db, err := sqlx.Connect("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	tm := repository.NewTransactionManager(db)
	brandRepo := repository.NewBrandRepository(db)
	bucketRepo := repository.NewBucketRepository(db)
	promptRepo := repository.NewPromptTemplateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	stateRepo := repository.NewOAuthStateRepository(db)
	runRepo := repository.NewPipelineRunRepository(db)

	storage, err := service.NewR2Service(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure storage: %w", err)
	}

	completionService := service.NewCompletionService(cfg, httpClient)
	gate := quality.NewGate(completionService)
	instagramService := service.NewInstagramService(cfg, httpClient)
	captionService := service.NewCaptionService(brandRepo, bucketRepo, promptRepo, completionService, gate)
	imageService := service.NewImageService(storage)
	publishService := service.NewPublishService(cfg, postRepo, socialAccountRepo, brandRepo, instagramService)
	oauthService := service.NewOAuthService(cfg, tm, stateRepo, socialAccountRepo, brandRepo, instagramService, httpClient)
	pipelineService := service.NewPipelineService(settingsRepo, bucketRepo, socialAccountRepo, postRepo, runRepo,
		captionService, gate, imageService, publishService)

	return &dependencies{
		db: db,
		services: api.Services{
			Captions: captionService,
			Images:   imageService,
			Gate:     gate,
			Publish:  publishService,
			OAuth:    oauthService,
			Pipeline: pipelineService,
		},
	}, nil
}

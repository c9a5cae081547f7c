package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dhruvc/stylefeed/internal/cache"
	"github.com/dhruvc/stylefeed/internal/config"
	"github.com/dhruvc/stylefeed/internal/database"
	"github.com/dhruvc/stylefeed/internal/handler"
	"github.com/dhruvc/stylefeed/internal/provider"
	"github.com/dhruvc/stylefeed/internal/queue"
	"github.com/dhruvc/stylefeed/internal/repository"
	"github.com/dhruvc/stylefeed/internal/router"
	"github.com/dhruvc/stylefeed/internal/scheduler"
	"github.com/dhruvc/stylefeed/internal/service"
	"github.com/dhruvc/stylefeed/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the blacklist, limiter and response
	// cache all degrade to no-ops.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	media := repository.NewMediaRepo(db)
	posts := repository.NewPostRepo(db)
	stories := repository.NewStoryRepo(db)
	contests := repository.NewContestRepo(db)

	blacklist := cache.NewBlacklist(rdb)
	authSvc := service.NewAuthService(users, tokens, blacklist,
		cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, cfg.BcryptCost)
	contestSvc := service.NewContestService(contests, queue.NewPublisher())

	// Object storage is optional in development; the media endpoints
	// answer 503 until it is configured.
	var store *storage.Store
	if cfg.S3Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = storage.New(ctx, &cfg)
		cancel()
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
	} else {
		log.Println("object storage not configured; media endpoints disabled")
	}

	providers := provider.NewRegistry(cfg)

	sched := scheduler.New(contestSvc, tokens, stories, contests)
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := queue.StartContestConsumer(); err != nil {
			log.Printf("contest consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, authSvc, providers),
		Profile: handler.NewProfileHandler(cfg, users),
		Post:    handler.NewPostHandler(cfg, posts),
		Story:   handler.NewStoryHandler(cfg, stories),
		Media:   handler.NewMediaHandler(cfg, store, media, cache.NewSignedURLs(rdb)),
		Contest: handler.NewContestHandler(cfg, contestSvc),
	}, authSvc, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-space-reservation/internal/config"
	"github.com/iliyamo/campus-space-reservation/internal/database"
	"github.com/iliyamo/campus-space-reservation/internal/handler"
	"github.com/iliyamo/campus-space-reservation/internal/middleware"
	"github.com/iliyamo/campus-space-reservation/internal/queue"
	"github.com/iliyamo/campus-space-reservation/internal/repository"
	"github.com/iliyamo/campus-space-reservation/internal/router"
	"github.com/iliyamo/campus-space-reservation/internal/service"
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

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	spaces := repository.NewSpaceRepo(db)
	reservations := repository.NewReservationRepo(db)

	svc := service.NewReservationService(spaces, reservations, service.Options{
		EnforceSchedule: cfg.ScheduleEnforcement,
		Location:        cfg.Location(),
		StoreTimeout:    cfg.StoreTimeout,
		Publish: func(ctx context.Context, ev queue.ReservationEvent) {
			if err := queue.PublishReservationEvent(ctx, ev); err != nil {
				log.Printf("queue: publish %s for reservation %d failed: %v", ev.Event, ev.ReservationID, err)
			}
		},
	})

	// The consumer drains reservation events into the audit log and
	// reconnects on broker failure.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("queue: consumer stopped: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.AutoCompleteEnabled {
		sweeper := service.NewCompletionSweeper(reservations, cfg.AutoCompleteInterval)
		go sweeper.Run(ctx)
	}

	e := echo.New()

	// Redis is optional: without it the limiter and cache middlewares
	// turn into no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	authH := handler.NewAuthHandler(cfg, users, tokens)
	spaceH := handler.NewSpaceHandler(spaces)
	resH := handler.NewReservationHandler(svc, reservations)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, spaceH, resH, cacheMW)
	router.RegisterReservations(e, resH, cfg.JWTSecret)
	router.RegisterAdmin(e, spaceH, resH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

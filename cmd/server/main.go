package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earnkart/backend/internal/config"
	"github.com/earnkart/backend/internal/database"
	"github.com/earnkart/backend/internal/handlers"
	"github.com/earnkart/backend/internal/jobs"
	"github.com/earnkart/backend/internal/middleware"
	"github.com/earnkart/backend/internal/queue"
	"github.com/earnkart/backend/internal/routes"
	"github.com/earnkart/backend/internal/services/commission"
	"github.com/earnkart/backend/internal/services/credits"
	"github.com/earnkart/backend/internal/services/payment"
	"github.com/earnkart/backend/internal/services/payout"
	"github.com/earnkart/backend/internal/services/wallet"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	cfg := config.LoadConfig()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := database.SeedPackages(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed package catalog")
	}

	// An incomplete commission table must never serve traffic.
	matrix, err := commission.DefaultMatrix()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid commission matrix")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	redisQueue := queue.NewRedisQueue(redisClient, db)
	if err := redisQueue.Recover(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to recover pending jobs")
	}

	// Services
	walletService := wallet.NewWalletService(db)
	creditService := credits.NewCreditService(db)
	engine := commission.NewEngine(db, matrix)
	payoutService := payout.NewPayoutService(db, walletService, cfg.Referral)
	commissionJob := jobs.RegisterCommissionJobHandlers(redisQueue, engine)
	paymentService := payment.NewPaymentService(db, walletService, creditService, engine, commissionJob, cfg.Referral)

	// Background workers
	jobProcessor := queue.NewJobProcessor(redisQueue, 10)
	jobProcessor.Start()

	scheduler := gocron.NewScheduler(time.UTC)
	if err := jobs.SchedulePayoutBatchJob(scheduler, payoutService); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule payout batch job")
	}
	scheduler.StartAsync()

	// HTTP
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewRateLimiter(10, 20)

	routes.SetupRoutes(router, routes.Handlers{
		Auth:        handlers.NewAuthHandler(db, walletService, cfg),
		Wallet:      handlers.NewWalletHandler(walletService),
		Credit:      handlers.NewCreditHandler(creditService),
		Referral:    handlers.NewReferralHandler(payoutService),
		Payout:      handlers.NewPayoutHandler(payoutService),
		Purchase:    handlers.NewPurchaseHandler(db, paymentService),
		AdminPayout: handlers.NewAdminPayoutHandler(payoutService),
		AdminWallet: handlers.NewAdminWalletHandler(walletService),
	}, rateLimiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	scheduler.Stop()
	jobProcessor.Stop()
	rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

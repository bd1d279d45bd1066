package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agriconnect/auth"
	"agriconnect/config"
	"agriconnect/dashboard"
	"agriconnect/db"
	"agriconnect/middleware"
	"agriconnect/mq"
	"agriconnect/notify"
	"agriconnect/orders"
	"agriconnect/products"
	"agriconnect/profile"
	"agriconnect/ratelim"
	"agriconnect/rdx"
	"agriconnect/reviews"
	"agriconnect/routes"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatal().Err(err).Msg("mongo unavailable")
	}
	if err := db.CreateIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	redisClient, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}

	sessions := middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL, rdx.NewTokenRevoker(redisClient))

	accountStore := auth.NewMongoStore(db.AccountsCollection)
	authSvc := auth.NewService(accountStore)

	productSvc := products.NewService(products.NewMongoStore(
		db.ProductsCollection, db.ReviewsCollection, db.OrdersCollection, db.AccountsCollection))

	profileSvc := profile.NewService(accountStore, authSvc, productSvc.CountInStock).
		WithCache(rdx.NewCache(redisClient, 5*time.Minute))

	orderSvc := orders.NewService(
		orders.NewMongoStore(db.Client, db.OrdersCollection, db.ProductsCollection, db.AccountsCollection),
		mq.NewRedisEmitter(redisClient),
		cfg.DeliveryFee,
	)

	reviewSvc := reviews.NewService(reviews.NewMongoStore(
		db.ReviewsCollection, db.OrdersCollection, db.AccountsCollection))

	dashboardSvc := dashboard.NewService(dashboard.NewMongoStore(
		db.OrdersCollection, db.ProductsCollection, db.AccountsCollection))

	hub := notify.NewHub()
	go hub.Run()
	go mq.StartOrderWorker(ctx, redisClient, hub.Publish)

	limiter := ratelim.NewRateLimiter(20, 5)
	limiter.StartCleanup(time.Minute, ctx.Done())

	router := routes.New(routes.Handlers{
		Sessions:  sessions,
		Limiter:   limiter,
		Auth:      auth.NewHandler(authSvc, sessions, cfg.Production()),
		Profile:   profile.NewHandler(profileSvc),
		Products:  products.NewHandler(productSvc),
		Orders:    orders.NewHandler(orderSvc),
		Reviews:   reviews.NewHandler(reviewSvc),
		Dashboard: dashboard.NewHandler(dashboardSvc),
		Hub:       hub,
		Upgrader:  notify.NewUpgrader(cfg.AllowedOrigins),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.Recover(middleware.RequestID(middleware.Logging(middleware.SecurityHeaders(corsHandler))))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info().Msg("stopping order feed hub")
		hub.Stop()
	})

	go func() {
		log.Info().Str("addr", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	db.Disconnect(shutdownCtx)
	rdx.Close()

	log.Info().Msg("server stopped cleanly")
}

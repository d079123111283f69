package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mzhuravlev/fittrack/internal/config"
	"github.com/mzhuravlev/fittrack/internal/es"
	"github.com/mzhuravlev/fittrack/internal/handlers"
	"github.com/mzhuravlev/fittrack/internal/logging"
	"github.com/mzhuravlev/fittrack/internal/middleware/csrf"
	loggingmw "github.com/mzhuravlev/fittrack/internal/middleware/logging"
	"github.com/mzhuravlev/fittrack/internal/mykafka"
	"github.com/mzhuravlev/fittrack/internal/token"
	httpserver "github.com/mzhuravlev/fittrack/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	var prod *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events disabled")
	}

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init failed: %v", err)
		}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	tokens := &token.Service{
		DB: db,
		Cfg: token.Config{
			Secret:     []byte(cfg.JWT_SECRET),
			Issuer:     cfg.JWT_ISSUER,
			Audience:   cfg.JWT_AUDIENCE,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:        true,
		ProtectPaths:  []string{"/api/v1/refresh"},
		SessionCookie: "refreshToken",
	}))

	deps := httpserver.Deps{
		Tokens:          tokens,
		AuthHandler:     &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		PlanHandler:     &handlers.PlanHandler{DB: db, Producer: prod, ES: esClient, ESIndex: cfg.ES_INDEX},
		WorkoutHandler:  &handlers.WorkoutHandler{DB: db, Producer: prod},
		ExerciseHandler: &handlers.ExerciseHandler{DB: db},
		CommentHandler:  &handlers.CommentHandler{DB: db, Producer: prod},
		RatingHandler:   &handlers.RatingHandler{DB: db},
		SearchHandler:   handlers.NewSearchHandler(esClient, cfg.ES_INDEX),
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}

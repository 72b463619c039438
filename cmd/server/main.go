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

	"github.com/rdotsilva/fitnessblog/internal/config"
	"github.com/rdotsilva/fitnessblog/internal/es"
	"github.com/rdotsilva/fitnessblog/internal/handlers"
	"github.com/rdotsilva/fitnessblog/internal/logging"
	"github.com/rdotsilva/fitnessblog/internal/mail"
	authmw "github.com/rdotsilva/fitnessblog/internal/middleware/auth"
	"github.com/rdotsilva/fitnessblog/internal/mykafka"
	"github.com/rdotsilva/fitnessblog/internal/service/token"
	httpserver "github.com/rdotsilva/fitnessblog/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer, err = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	}

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg.ES_URL, cfg.ES_USER, cfg.ES_PASSWORD)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	var mailer mail.Sender
	if cfg.SMTP_HOST != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP_HOST, cfg.SMTP_PORT, cfg.SMTP_USER, cfg.SMTP_PASSWORD, cfg.MAIL_FROM)
	}

	tokens := &token.Service{
		SessionSecret: []byte(cfg.JWT_SECRET),
		ResetSecret:   []byte(cfg.RESET_SECRET),
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		Auth:           &authmw.Middleware{Tokens: tokens},
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		AccountHandler: &handlers.AccountHandler{DB: db, PicturesDir: cfg.PICTURES_DIR},
		PostHandler:    &handlers.PostHandler{DB: db, Producer: producer, ES: esClient},
		ResetHandler:   &handlers.ResetHandler{DB: db, Tokens: tokens, Mailer: mailer, Producer: producer, BaseURL: cfg.APP_BASE_URL},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: es.PostIndex},
		PicturesDir:    cfg.PICTURES_DIR,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("starting server", "port", cfg.PORT)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}

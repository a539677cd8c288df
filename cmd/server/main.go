package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/elitestore/backend/internal/config"
	"github.com/elitestore/backend/internal/db"
	"github.com/elitestore/backend/internal/es"
	"github.com/elitestore/backend/internal/httpserver"
	"github.com/elitestore/backend/internal/logging"
	authmw "github.com/elitestore/backend/internal/middleware/auth"
	"github.com/elitestore/backend/internal/middleware/loggingmw"
	"github.com/elitestore/backend/internal/mykafka"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/service"
)

const productIndex = "products"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL).With("service", "elitestore")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(ctx, cfg.DSN())
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer, err = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, event publishing disabled")
	}

	var search *httpserver.SearchHTTP
	catalogSvc := &service.CatalogService{ESIndex: productIndex}
	if cfg.ES_URL != "" {
		client, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		catalogSvc.ES = client
		search = &httpserver.SearchHTTP{ES: client, Index: productIndex}
	} else {
		logger.Warn("ES_URL not set, search disabled")
		search = &httpserver.SearchHTTP{Index: productIndex}
	}

	store := repo.New(gormDB)

	catalogSvc.Repo = store
	catalogSvc.Producer = producer

	orderSvc := &service.OrderService{Repo: store, Producer: producer}
	authSvc := &service.AuthService{Repo: store, JWTSecret: []byte(cfg.JWT_SECRET), Producer: producer}
	userSvc := &service.UserService{Repo: store}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Auth:    &authmw.Middleware{DB: gormDB, JWTSecret: []byte(cfg.JWT_SECRET)},
		Orders:  &httpserver.OrderHTTP{Svc: orderSvc},
		Catalog: &httpserver.CatalogHTTP{Svc: catalogSvc},
		Users:   &httpserver.UserHTTP{Svc: userSvc},
		Account: &httpserver.AuthHTTP{Svc: authSvc},
		Search:  search,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.PORT,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		_ = producer.Close()
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/stocklive/stocklive/internal/adapter/handler"
	"github.com/stocklive/stocklive/internal/adapter/notifier"
	"github.com/stocklive/stocklive/internal/adapter/storage"
	"github.com/stocklive/stocklive/internal/config"
	"github.com/stocklive/stocklive/internal/core/service"
	"github.com/stocklive/stocklive/internal/hub"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to ping mysql")
	}
	log.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	log.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	emailNotifier := notifier.NewEmailNotifier(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
		cfg.SMTPFrom, cfg.AlertRecipient, log,
	)

	// Initialize core services
	replenish := service.NewReplenishmentService(mysqlAdapter, mysqlAdapter, mysqlAdapter, log)
	scheduler := service.NewScheduler(replenish, cfg.AutomationInterval, log)
	scheduler.Start(ctx)

	broadcastHub := hub.New(mysqlAdapter, redisAdapter, cfg.DebounceWindow, log)

	httpHandler := handler.NewHTTPHandler(
		mysqlAdapter, mysqlAdapter, mysqlAdapter,
		redisAdapter, emailNotifier, replenish, broadcastHub, log,
	)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(),
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	scheduler.Stop()

	// Terminate subscriber connections before the transport goes away.
	broadcastHub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}

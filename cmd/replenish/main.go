package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/stocklive/stocklive/internal/adapter/storage"
	"github.com/stocklive/stocklive/internal/config"
	"github.com/stocklive/stocklive/internal/core/service"
)

// One-shot automation run for operators: scans for understocked items and
// creates the resulting purchase orders, then exits.
func main() {
	cfg := config.Load()
	log := config.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect mysql")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to ping mysql")
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	replenish := service.NewReplenishmentService(mysqlAdapter, mysqlAdapter, mysqlAdapter, log)

	if err := replenish.RunAutomationCheck(ctx); err != nil {
		log.WithError(err).Fatal("automation run failed")
	}
	log.Info("automation run finished")
}

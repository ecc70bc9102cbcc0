package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/config"
	"github.com/chu-atlantique/bloc-planner/backend/internal/repository"
	"github.com/chu-atlantique/bloc-planner/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("impossible de charger la configuration", "error", err)
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("impossible de créer le pool de connexions", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("impossible de joindre la base de données", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	if err := seed.Run(context.Background(), repo); err != nil {
		logger.Error("échec du seed", "error", err)
		os.Exit(1)
	}

	logger.Info("seed terminé", "site", seed.SiteID)
}

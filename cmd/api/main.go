package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chu-atlantique/bloc-planner/backend/internal/config"
	"github.com/chu-atlantique/bloc-planner/backend/internal/generator"
	"github.com/chu-atlantique/bloc-planner/backend/internal/handler"
	"github.com/chu-atlantique/bloc-planner/backend/internal/leave"
	"github.com/chu-atlantique/bloc-planner/backend/internal/repository"
	"github.com/chu-atlantique/bloc-planner/backend/internal/trame"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * Logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * Configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("impossible de charger la configuration", "error", err)
		return
	}

	/**********************************************
	 * Base de données
	 **********************************************/
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

	// sql.Open ne se connecte pas tout de suite, d'où le ping explicite.
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("impossible de joindre la base de données", "error", err)
		return
	}

	/**********************************************
	 * Repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * Redis (cache des congés)
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	roster := leave.NewCache(cfg, repo, rdb)

	/**********************************************
	 * Générateur de gardes
	 **********************************************/
	var engine generator.Engine
	switch cfg.Generator.Mode {
	case "remote":
		engine = generator.NewRemote(cfg.Generator.RemoteURL, time.Duration(cfg.Generator.RemoteTimeout)*time.Second)
	default:
		engine = generator.NewGenetic(generator.Parameters{
			PopulationSize: cfg.Generator.PopulationSize,
			MaxGenerations: cfg.Generator.MaxGenerations,
			CrossoverRate:  cfg.Generator.CrossoverRate,
			MutationRate:   cfg.Generator.MutationRate,
			EliteCount:     cfg.Generator.EliteCount,
		})
	}

	integration := trame.NewIntegrationService(repo, repo, roster, engine, nil)

	/**********************************************
	 * Handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, integration)
	if err != nil {
		logger.Error("impossible de créer le handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * Serveur HTTP
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("démarrage du serveur...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("impossible de démarrer le serveur", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("arrêt du serveur...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("échec de l'arrêt du serveur", slog.String("error", err.Error()))
	}
	logger.Info("serveur arrêté")
}

// Le worker applique périodiquement les trames actives sur un horizon
// glissant, pour que les plannings des prochaines semaines existent avant que
// quiconque les consulte.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chu-atlantique/bloc-planner/backend/internal/config"
	"github.com/chu-atlantique/bloc-planner/backend/internal/repository"
	"github.com/chu-atlantique/bloc-planner/backend/internal/trame"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("impossible de charger la configuration", "error", err)
		return
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
	applier := trame.NewApplicationService(repo, repo)

	loc, err := time.LoadLocation(cfg.Worker.Timezone)
	if err != nil {
		logger.Error("fuseau horaire invalide", "timezone", cfg.Worker.Timezone, "error", err)
		return
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Worker.ApplySpec, func() {
		applyHorizon(context.Background(), cfg, repo, applier)
	})
	if err != nil {
		logger.Error("expression cron invalide", "spec", cfg.Worker.ApplySpec, "error", err)
		return
	}

	logger.Info("démarrage du worker", "spec", cfg.Worker.ApplySpec, "horizon_weeks", cfg.Worker.HorizonWeeks)
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("arrêt du worker...")
	<-c.Stop().Done()
	logger.Info("worker arrêté")
}

// applyHorizon applies every active template of every site over
// [aujourd'hui, aujourd'hui + horizon]. Existing slots are kept: the job only
// fills in what the last run did not cover yet.
func applyHorizon(ctx context.Context, cfg *config.Config, repo *repository.Repository, applier *trame.ApplicationService) {
	start := trame.DateOnly(time.Now().UTC())
	end := start.AddDate(0, 0, cfg.Worker.HorizonWeeks*7)

	sites, err := repo.ActiveTemplateSites(ctx)
	if err != nil {
		slog.Error("récupération des sites impossible", "error", err)
		return
	}

	for _, siteID := range sites {
		templates, err := repo.ActiveTemplatesForSite(ctx, siteID, start, end, nil)
		if err != nil {
			slog.Error("récupération des trames impossible", "site", siteID, "error", err)
			continue
		}

		for _, tmpl := range templates {
			result := applier.ApplyTemplateToRange(ctx, tmpl.ID, start, end, siteID, trame.ApplyOptions{SkipExisting: true})
			if !result.Success {
				slog.Error("application de la trame échouée", "site", siteID, "template", tmpl.Name, "errors", result.Errors)
				continue
			}
			if result.PlanningsCreated > 0 || result.AssignmentsCreated > 0 {
				slog.Info("trame appliquée",
					"site", siteID,
					"template", tmpl.Name,
					"plannings", result.PlanningsCreated,
					"assignments", result.AssignmentsCreated,
				)
			}
		}
	}
}

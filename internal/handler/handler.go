package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"github.com/chu-atlantique/bloc-planner/backend/internal/config"
	"github.com/chu-atlantique/bloc-planner/backend/internal/repository"
	"github.com/chu-atlantique/bloc-planner/backend/internal/trame"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	integration *trame.IntegrationService
	translator  ut.Translator

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, integration *trame.IntegrationService) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	frLocale := fr.New()
	uni := ut.New(frLocale, frLocale)
	trans, _ := uni.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		integration: integration,
		translator:  trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/sites/{siteID}", func(r chi.Router) {
		r.Get("/templates", h.GetActiveTemplates)
		r.Post("/templates/{templateID}/apply", h.ApplyTemplate)
		r.Post("/plan/generate", h.GeneratePlan)
		r.Route("/day-plans", func(r chi.Router) {
			r.Get("/", h.GetDayPlans)
			r.Get("/export", h.ExportDayPlans)
		})
	})

	h.Mux.Get("/templates/{templateID}", h.GetTemplate)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/settlementdash/backend/src/utils"
)

// RouterConfig carries the HTTP-level settings the router needs.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig, users *UserHandler, reports *ReportHandler, uploads *UploadHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", users.LoginUserHandler)

		r.Group(func(r chi.Router) {
			r.Use(users.AuthMiddleware)
			if cfg.RequestTimeout > 0 {
				r.Use(middleware.Timeout(cfg.RequestTimeout))
			}

			r.Post("/auth/logout", users.LogoutUserHandler)
			r.Get("/auth/me", users.MeHandler)

			r.Get("/report", reports.HandleGetReport)
			r.Get("/options", reports.HandleGetOptions)
			r.Get("/clients/{client}/transactions", reports.HandleGetClientTransactions)
			r.Get("/clients/{client}/transactions.xlsx", reports.HandleExportClientTransactions)
			r.Post("/dataset/refresh", reports.HandleRefresh)
			r.Post("/transactions/import", uploads.HandleImport)
		})
	})

	return r
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	mw "tradejournal/internal/middleware"
	"tradejournal/internal/services"
)

// Deps is everything the router needs. AuthLimiter may be nil to disable rate limiting.
type Deps struct {
	Auth        *services.AuthService
	Users       *services.UserService
	Journals    *services.JournalService
	Trades      *services.TradeService
	Playbooks   *services.PlaybookService
	Analytics   *services.AnalyticsService
	Imports     *services.ImportService
	Cookie      CookieConfig
	CORSOrigins []string
	AuthLimiter *limiter.Limiter
	Logger      *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(mw.Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := NewAuthHandler(d.Auth, d.Cookie, logger)
	userHandler := NewUserHandler(d.Users, logger)
	adminHandler := NewAdminHandler(d.Users, logger)
	journalHandler := NewJournalHandler(d.Journals, logger)
	tradeHandler := NewTradeHandler(d.Trades, logger)
	playbookHandler := NewPlaybookHandler(d.Playbooks, logger)
	dashboardHandler := NewDashboardHandler(d.Analytics, logger)
	migrateHandler := NewMigrateHandler(d.Imports, logger)
	authMW := mw.NewAuthMiddleware(d.Auth, d.Cookie.Name, logger)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			if d.AuthLimiter != nil {
				ar.Use(mw.RateLimit(d.AuthLimiter, logger))
			}
			ar.Post("/signup", authHandler.Signup)
			ar.Post("/login", authHandler.Login)
			ar.Post("/logout", authHandler.Logout)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/user", userHandler.Me)
			pr.Patch("/user", userHandler.UpdateMe)

			pr.Route("/journals", func(jr chi.Router) {
				jr.Get("/", journalHandler.List)
				jr.Post("/", journalHandler.Create)
				jr.Get("/{id}", journalHandler.Get)
				jr.Patch("/{id}", journalHandler.Update)
				jr.Delete("/{id}", journalHandler.Delete)
			})

			pr.Route("/trades", func(tr chi.Router) {
				tr.Get("/", tradeHandler.List)
				tr.Post("/", tradeHandler.Create)
				tr.Get("/export", tradeHandler.Export)
				tr.Get("/{id}", tradeHandler.Get)
				tr.Patch("/{id}", tradeHandler.Update)
				tr.Delete("/{id}", tradeHandler.Delete)
			})

			pr.Route("/playbooks", func(pbr chi.Router) {
				pbr.Get("/", playbookHandler.List)
				pbr.Post("/", playbookHandler.Create)
				pbr.Get("/stats", playbookHandler.Stats)
				pbr.Get("/{id}", playbookHandler.Get)
				pbr.Patch("/{id}", playbookHandler.Update)
				pbr.Delete("/{id}", playbookHandler.Delete)
				pbr.Get("/{id}/stats", playbookHandler.StatsFor)
			})

			pr.Get("/dashboard", dashboardHandler.Get)
			pr.Get("/dashboard/calendar", dashboardHandler.Calendar)

			pr.Post("/migrate", migrateHandler.MigrateData)

			pr.Route("/admin", func(adm chi.Router) {
				adm.Use(authMW.RequireAdmin)
				adm.Get("/overview", adminHandler.Overview)
				adm.Get("/users", adminHandler.ListUsers)
				adm.Post("/users/{id}/approve", adminHandler.Approve)
				adm.Post("/users/{id}/admin", adminHandler.SetAdmin)
				adm.Delete("/users/{id}", adminHandler.DeleteUser)
			})
		})
	})

	return r
}

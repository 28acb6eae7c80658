// Package web serves the dashboard state over a local HTTP facade: JSON
// endpoints backed by the screen controllers, a relay of the live attack
// stream, and Prometheus metrics.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"minishield-dashboard/internal/app"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
)

// Server is the local web facade.
type Server struct {
	app     *app.App
	log     *logger.Logger
	toasts  *notify.Buffer
	metrics *metrics
	router  chi.Router
}

// NewServer builds the facade. toasts should be the buffer registered as
// the app's notifier so transient messages reach the browser.
func NewServer(a *app.App, toasts *notify.Buffer, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New("web")
	}
	s := &Server{
		app:     a,
		log:     log,
		toasts:  toasts,
		metrics: newMetrics(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, "ok", http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.getSession)
		r.Post("/session/login", s.login)
		r.Post("/session/logout", s.logout)
		r.Post("/session/register", s.register)

		r.Get("/config", s.getConfig)
		r.Put("/config", s.setConfig)

		r.Get("/status", s.getStatus)

		r.Get("/domains", s.listDomains)
		r.Post("/domains", s.addDomain)
		r.Post("/domains/{domainID}/verify", s.verifyDomain)
		r.Get("/domains/{domainID}/records", s.listRecords)
		r.Post("/domains/{domainID}/records", s.addRecord)
		r.Delete("/domains/{domainID}/records/{recordID}", s.deleteRecord)

		r.Get("/rules", s.listRules)
		r.Post("/rules", s.addRule)
		r.Delete("/rules/{ruleID}", s.deleteRule)
		r.Post("/rules/toggle", s.toggleRule)

		r.Get("/logs", s.getLogs)
		r.Get("/logs/stream", s.streamLogs)

		r.Get("/notifications", s.getNotifications)
	})

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the facade on the configured address.
func (s *Server) ListenAndServe() error {
	addr := s.app.Config.Serve.Addr()
	s.log.Infof("dashboard facade listening on %s", addr)
	return http.ListenAndServe(addr, s)
}

package server

import (
	"net/http"
	"time"

	"github.com/jarne/linkleopard/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(httprate.Limit(500, time.Minute))
	r.Use(middleware.Heartbeat("/health"))
	r.Use(s.cacheControl)

	r.Mount("/static", http.FileServer(s.assets))
	if s.uploadDir != "" {
		r.Mount("/uploads", http.StripPrefix("/uploads", http.FileServer(http.Dir(s.uploadDir))))
	}

	r.Handle("/robots.txt", s.serveFile("static/robots.txt"))

	r.Get("/", s.HandleIndex)
	r.Get("/auth/login", s.HandleLoginPage)
	r.Post("/auth/login", s.HandleLogin)
	r.Post("/auth/logout", s.HandleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.RequireAuth)
		r.Get("/", s.HandleAdmin)
		r.Post("/profile", s.HandleUpdateProfile)

		r.Route("/api", func(r chi.Router) {
			r.Get("/links", s.HandleListLinks)
			r.Post("/links", s.HandleCreateLink)
			r.Put("/links/order", s.HandleReorderLinks)
			r.Patch("/links/{id}", s.HandleUpdateLink)
			r.Delete("/links/{id}", s.HandleDeleteLink)

			r.Get("/profile", s.HandleGetProfile)
			r.Put("/profile", s.HandleUpdateProfileAPI)

			r.Post("/scrape", s.HandleScrape)
			r.Post("/upload", s.HandleUpload)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
	})

	return r
}

package server

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jarne/linkleopard/internal/imaging"
	"github.com/jarne/linkleopard/internal/markdown"
	"github.com/jarne/linkleopard/internal/models"

	"github.com/rs/zerolog/hlog"
)

// maxUploadSize caps multipart bodies for image uploads.
const maxUploadSize = 10 << 20

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmplFunc(w, "error.html", map[string]int{"Status": status}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to render error template")
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmplFunc(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}

// loadProfile falls back to the defaults until a profile has been saved.
func (s *Server) loadProfile(r *http.Request) (models.Profile, bool, error) {
	p, err := s.db.GetProfile(r.Context())
	if err != nil {
		return models.Profile{}, false, err
	}
	if p == nil {
		return models.DefaultProfile(), false, nil
	}
	return *p, true, nil
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	profile, _, err := s.loadProfile(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load profile")
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}

	links, err := s.db.GetLinks(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load links")
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}

	body, footer := models.SplitLinks(links)
	data := models.IndexPageData{
		Profile:     profile,
		Bio:         markdown.Render(profile.Bio),
		Analytics:   template.HTML(profile.AnalyticsCode),
		Links:       body,
		FooterLinks: footer,
	}

	s.render(w, r, "index.html", data)
}

func (s *Server) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Load(r).Authenticated {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", nil)
}

// HandleLogin re-renders the plain form on a wrong password. The response
// carries no hint about why the attempt failed.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !CheckPassword(s.password, r.FormValue("password")) {
		hlog.FromRequest(r).Warn().Msg("Failed login attempt")
		s.render(w, r, "login.html", nil)
		return
	}

	if err := s.sessions.Save(w, SessionData{Authenticated: true}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to encode session")
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (s *Server) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	profile, saved, err := s.loadProfile(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load profile")
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}
	links, err := s.db.GetLinks(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load links")
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}

	data := models.AdminPageData{
		Profile:    profile,
		HasProfile: saved,
		Links:      links,
		Message:    r.URL.Query().Get("message"),
		Error:      r.URL.Query().Get("error"),
	}

	s.render(w, r, "admin.html", data)
}

type profileForm struct {
	Name           string `validate:"required"`
	Bio            string `validate:"required"`
	ProfilePicture string
	AnalyticsCode  string
}

// HandleUpdateProfile saves the profile form. A file in the "picture" field
// replaces the stored profile picture.
func (s *Server) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			redirectAdmin(w, r, "error", "Upload is too large")
			return
		}
	}

	form := profileForm{
		Name:           strings.TrimSpace(r.FormValue("name")),
		Bio:            strings.TrimSpace(r.FormValue("bio")),
		ProfilePicture: r.FormValue("profile_picture"),
		AnalyticsCode:  r.FormValue("analytics_code"),
	}
	if err := s.validate.Struct(form); err != nil {
		redirectAdmin(w, r, "error", "Name and bio are required")
		return
	}

	if file, _, err := r.FormFile("picture"); err == nil {
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err == nil {
			var ref string
			ref, err = s.images.Save(r.Context(), data, imaging.Options{Size: imaging.ProfileSize, Prefix: imaging.PrefixProfile})
			form.ProfilePicture = ref
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to process profile picture")
			redirectAdmin(w, r, "error", "Failed to process image")
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		log.Error().Err(err).Msg("Failed to read profile picture")
		redirectAdmin(w, r, "error", "Failed to process image")
		return
	}

	if form.ProfilePicture == "" {
		form.ProfilePicture = models.DefaultProfilePicture
	}

	_, err := s.db.UpdateProfile(r.Context(), models.Profile{
		Name:           form.Name,
		Bio:            form.Bio,
		ProfilePicture: form.ProfilePicture,
		AnalyticsCode:  form.AnalyticsCode,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update profile")
		redirectAdmin(w, r, "error", "Failed to save")
		return
	}

	redirectAdmin(w, r, "message", "Profile updated")
}

func redirectAdmin(w http.ResponseWriter, r *http.Request, key, text string) {
	http.Redirect(w, r, "/admin?"+url.Values{key: {text}}.Encode(), http.StatusSeeOther)
}

func (s *Server) serveFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := s.assets.Open(path)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer func() { _ = file.Close() }()
		_, _ = io.Copy(w, file)
	}
}

func (s *Server) cacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/uploads/"):
			// Upload names are unique, so the files never change.
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case strings.HasPrefix(r.URL.Path, "/static/"):
			w.Header().Set("Cache-Control", "public, max-age=86400")
		default:
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		next.ServeHTTP(w, r)
	})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jarne/linkleopard/internal/imaging"
	"github.com/jarne/linkleopard/internal/models"
	"github.com/jarne/linkleopard/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func linkID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.db.GetLinks(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to load links")
		writeError(w, http.StatusInternalServerError, "Failed to load links")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

type createLinkRequest struct {
	Name   string `json:"name" validate:"required"`
	URL    string `json:"url" validate:"required"`
	Icon   string `json:"icon"`
	Footer bool   `json:"footer"`
}

func (s *Server) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.URL = strings.TrimSpace(req.URL)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Name and URL are required")
		return
	}

	link, err := s.db.CreateLink(r.Context(), models.Link{
		Name:   req.Name,
		URL:    req.URL,
		Icon:   req.Icon,
		Footer: req.Footer,
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to create link")
		writeError(w, http.StatusInternalServerError, "Failed to save")
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

type updateLinkRequest struct {
	Name   *string `json:"name" validate:"omitnil,min=1"`
	URL    *string `json:"url" validate:"omitnil,min=1"`
	Icon   *string `json:"icon"`
	Footer *bool   `json:"footer"`
}

func (s *Server) HandleUpdateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := linkID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}

	var req updateLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Name and URL cannot be empty")
		return
	}

	link, err := s.db.UpdateLink(r.Context(), id, models.LinkPatch{
		Name:   req.Name,
		URL:    req.URL,
		Icon:   req.Icon,
		Footer: req.Footer,
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Int64("id", id).Msg("Failed to update link")
		writeError(w, http.StatusInternalServerError, "Failed to save")
		return
	}
	if link == nil {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := linkID(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}

	deleted, err := s.db.DeleteLink(r.Context(), id)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Int64("id", id).Msg("Failed to delete link")
		writeError(w, http.StatusInternalServerError, "Failed to delete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

type reorderRequest struct {
	IDs []int64 `json:"ids" validate:"required,dive,gt=0"`
}

func (s *Server) HandleReorderLinks(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "ids must be a list of link ids")
		return
	}

	if err := s.db.ReorderLinks(r.Context(), req.IDs); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to reorder links")
		writeError(w, http.StatusInternalServerError, "Failed to save order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleGetProfile answers null until a profile has been saved.
func (s *Server) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.db.GetProfile(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to load profile")
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	Name           string `json:"name" validate:"required"`
	Bio            string `json:"bio" validate:"required"`
	ProfilePicture string `json:"profilePicture"`
	AnalyticsCode  string `json:"analyticsCode"`
}

func (s *Server) HandleUpdateProfileAPI(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Bio = strings.TrimSpace(req.Bio)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Name and bio are required")
		return
	}
	if req.ProfilePicture == "" {
		req.ProfilePicture = models.DefaultProfilePicture
	}

	p, err := s.db.UpdateProfile(r.Context(), models.Profile{
		Name:           req.Name,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		AnalyticsCode:  req.AnalyticsCode,
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to update profile")
		writeError(w, http.StatusInternalServerError, "Failed to save")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type scrapeRequest struct {
	URL string `json:"url" validate:"required"`
}

// Favicon is the storage reference to save on the link. FaviconURL is where
// the browser can load it.
type scrapeResponse struct {
	Title      *string `json:"title"`
	Favicon    *string `json:"favicon"`
	FaviconURL *string `json:"faviconUrl"`
}

// HandleScrape looks up a title and favicon for a URL. Lookup failures are
// not errors: the missing fields are returned as null.
func (s *Server) HandleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	md := s.scraper.Resolve(r.Context(), req.URL, func(ctx context.Context, data []byte) (string, error) {
		return s.images.Save(ctx, data, imaging.Options{Size: imaging.DefaultSize, Prefix: imaging.PrefixFavicon})
	})

	resp := scrapeResponse{
		Title:   nonEmpty(md.Title),
		Favicon: nonEmpty(md.Icon),
	}
	if md.Icon != "" {
		resp.FaviconURL = nonEmpty(storage.PublicURL(s.images.Store(), md.Icon))
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type uploadResponse struct {
	FileKey string `json:"fileKey"`
	URL     string `json:"url"`
}

// HandleUpload stores an image from the multipart "file" field, cropped to a
// square of the requested size.
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	opts := imaging.Options{Size: imaging.DefaultSize, Prefix: r.FormValue("prefix")}
	if raw := r.FormValue("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 || size > imaging.MaxSize {
			writeError(w, http.StatusBadRequest, "Invalid size")
			return
		}
		opts.Size = size
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read upload")
		writeError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	ref, err := s.images.Save(r.Context(), data, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to process upload")
		writeError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		FileKey: ref,
		URL:     storage.PublicURL(s.images.Store(), ref),
	})
}

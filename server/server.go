package server

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"runtime"

	"github.com/jarne/linkleopard/internal/database"
	"github.com/jarne/linkleopard/internal/imaging"
	"github.com/jarne/linkleopard/internal/scraper"
	"github.com/jarne/linkleopard/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ExecuteTemplateFunc func(wr io.Writer, name string, data any) error

// Deps are the collaborators the handlers call into.
type Deps struct {
	DB            database.Database
	Sessions      *SessionManager
	LoginPassword string
	Images        *imaging.Ingester
	Scraper       *scraper.Scraper
	// UploadDir is served under /uploads when images are stored locally.
	UploadDir string
	Log       zerolog.Logger
}

type Server struct {
	version   string
	port      string
	server    *http.Server
	assets    http.FileSystem
	tmplFunc  ExecuteTemplateFunc
	db        database.Database
	sessions  *SessionManager
	password  string
	images    *imaging.Ingester
	scraper   *scraper.Scraper
	uploadDir string
	validate  *validator.Validate
	log       zerolog.Logger
}

func NewServer(version string, port string, assets http.FileSystem, tmplFunc ExecuteTemplateFunc, deps Deps) *Server {

	s := &Server{
		version:   version,
		port:      port,
		assets:    assets,
		tmplFunc:  tmplFunc,
		db:        deps.DB,
		sessions:  deps.Sessions,
		password:  deps.LoginPassword,
		images:    deps.Images,
		scraper:   deps.Scraper,
		uploadDir: deps.UploadDir,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       deps.Log,
	}

	s.server = &http.Server{
		Addr:    ":" + port,
		Handler: s.Routes(),
	}

	return s
}

func (s *Server) Start() {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func (s *Server) Close() {
	if err := s.server.Close(); err != nil {
		panic(err)
	}
}

// TemplateFuncs must be registered before the templates are parsed.
func TemplateFuncs(store storage.Store) template.FuncMap {
	return template.FuncMap{
		"asset": func(ref string) string {
			return storage.PublicURL(store, ref)
		},
	}
}

func FormatBuildVersion(version string) string {
	return fmt.Sprintf("Go Version: %s\nVersion: %s\nOS/Arch: %s/%s", runtime.Version(), version, runtime.GOOS, runtime.GOARCH)
}

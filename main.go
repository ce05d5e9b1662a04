package main

import (
	"context"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jarne/linkleopard/internal/config"
	"github.com/jarne/linkleopard/internal/database"
	"github.com/jarne/linkleopard/internal/imaging"
	"github.com/jarne/linkleopard/internal/logging"
	"github.com/jarne/linkleopard/internal/scraper"
	"github.com/jarne/linkleopard/internal/storage"
	"github.com/jarne/linkleopard/server"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	version = "dev"
)

//go:embed templates/*.html
var templatesFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

func main() {
	root := &cobra.Command{
		Use:          "linkleopard",
		Short:        "A self-hosted link-in-bio page",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the web server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
		&cobra.Command{
			Use:   "hash-password <password>",
			Short: "Print a bcrypt hash usable as APP_LOGIN_PASSWORD",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(hash))
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), server.FormatBuildVersion(version))
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, log, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (database.Database, error) {
	db, err := database.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func migrate() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	db.Close()

	log.Info().Msg("Database schema is up to date")
	return nil
}

// newStore returns the image store and, for local storage, the directory the
// server should expose under /uploads.
func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, string, error) {
	if cfg.Storage.Backend == config.StorageS3 {
		s3, err := storage.NewS3(ctx, cfg.Storage, log)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("Failed to prepare bucket, uploads may not be publicly readable")
		}
		return s3, "", nil
	}

	local, err := storage.NewLocal(cfg.Storage.UploadDir, "/uploads")
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}

func sessionSecret(cfg *config.Config, log zerolog.Logger) string {
	if cfg.Session.Password != "" {
		return cfg.Session.Password
	}
	log.Warn().Msg("SESSION_PASSWORD is not set, sessions will not survive a restart")
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}

func serve() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	store, uploadDir, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	tmpl, err := template.New("").Funcs(server.TemplateFuncs(store)).ParseFS(templatesFiles, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	port := strconv.Itoa(cfg.Port)
	srv := server.NewServer(version, port, http.FS(staticFiles), tmpl.ExecuteTemplate, server.Deps{
		DB:            database.NewCached(db, cfg.CacheTTL),
		Sessions:      server.NewSessionManager(sessionSecret(cfg, log), cfg.Session.CookieName, cfg.Session.TTL, !cfg.IsDevelopment()),
		LoginPassword: cfg.LoginPassword,
		Images:        imaging.NewIngester(store),
		Scraper:       scraper.New(nil, log),
		UploadDir:     uploadDir,
		Log:           log,
	})

	go srv.Start()
	defer srv.Close()

	log.Info().
		Str("listen_addr", ":"+port).
		Str("version", version).
		Str("storage", cfg.Storage.Backend).
		Msg("Started server")

	si := make(chan os.Signal, 1)
	signal.Notify(si, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-si
	log.Info().Msg("Shutting down server")
	return nil
}

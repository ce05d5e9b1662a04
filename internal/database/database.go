package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jarne/linkleopard/internal/models"

	"github.com/rs/zerolog"
)

// Database is the persistence layer for links and the singleton profile.
// Lookups by an unknown id return nil or false, never an error.
type Database interface {
	Close()
	Migrate(ctx context.Context) error

	GetLinks(ctx context.Context) ([]models.Link, error)
	GetLink(ctx context.Context, id int64) (*models.Link, error)
	CreateLink(ctx context.Context, l models.Link) (models.Link, error)
	UpdateLink(ctx context.Context, id int64, patch models.LinkPatch) (*models.Link, error)
	DeleteLink(ctx context.Context, id int64) (bool, error)
	ReorderLinks(ctx context.Context, ids []int64) error

	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
}

// Open picks a backend from the URL scheme: postgres:// and postgresql://
// use pgx, sqlite:// uses a local SQLite file.
func Open(ctx context.Context, dbURL string, log zerolog.Logger) (Database, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return NewPostgres(ctx, dbURL, log)
	case strings.HasPrefix(dbURL, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(dbURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database URL %q", dbURL)
	}
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jarne/linkleopard/internal/models"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		url TEXT NOT NULL,
		name TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		footer BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_position ON links(position, id)`,
	`CREATE TABLE IF NOT EXISTS profile (
		id SMALLINT PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL,
		bio TEXT NOT NULL,
		profile_picture TEXT NOT NULL DEFAULT '',
		analytics_code TEXT NOT NULL DEFAULT ''
	)`,
}

type postgresDatabase struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dbURL string, log zerolog.Logger) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.ConnectTimeout = 10 * time.Second
	config.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(log.With().Str("component", "postgres").Logger()),
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &postgresDatabase{db: pool}, nil
}

func (d *postgresDatabase) Close() {
	d.db.Close()
}

func (d *postgresDatabase) Migrate(ctx context.Context) error {
	for _, migration := range postgresMigrations {
		if _, err := d.db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

func (d *postgresDatabase) GetLinks(ctx context.Context) ([]models.Link, error) {
	rows, err := d.db.Query(ctx, `SELECT `+linkColumns+` FROM links ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (d *postgresDatabase) GetLink(ctx context.Context, id int64) (*models.Link, error) {
	l, err := scanLink(d.db.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *postgresDatabase) CreateLink(ctx context.Context, l models.Link) (models.Link, error) {
	return scanLink(d.db.QueryRow(ctx,
		`INSERT INTO links (url, name, icon, footer, position)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position), 0) + 1 FROM links))
		RETURNING `+linkColumns,
		l.URL, l.Name, l.Icon, l.Footer))
}

func (d *postgresDatabase) UpdateLink(ctx context.Context, id int64, patch models.LinkPatch) (*models.Link, error) {
	if patch.Empty() {
		return d.GetLink(ctx, id)
	}

	l, err := scanLink(d.db.QueryRow(ctx,
		`UPDATE links SET
			url = COALESCE($1, url),
			name = COALESCE($2, name),
			icon = COALESCE($3, icon),
			footer = COALESCE($4, footer)
		WHERE id = $5
		RETURNING `+linkColumns,
		patch.URL, patch.Name, patch.Icon, patch.Footer, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *postgresDatabase) DeleteLink(ctx context.Context, id int64) (bool, error) {
	tag, err := d.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (d *postgresDatabase) ReorderLinks(ctx context.Context, ids []int64) error {
	return pgx.BeginFunc(ctx, d.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, id := range ids {
			batch.Queue(`UPDATE links SET position = $1 WHERE id = $2`, i+1, id)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to reorder links: %w", err)
		}
		return nil
	})
}

func (d *postgresDatabase) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	err := d.db.QueryRow(ctx, `SELECT name, bio, profile_picture, analytics_code FROM profile WHERE id = 1`).
		Scan(&p.Name, &p.Bio, &p.ProfilePicture, &p.AnalyticsCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *postgresDatabase) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	_, err := d.db.Exec(ctx,
		`INSERT INTO profile (id, name, bio, profile_picture, analytics_code) VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			profile_picture = EXCLUDED.profile_picture,
			analytics_code = EXCLUDED.analytics_code`,
		p.Name, p.Bio, p.ProfilePicture, p.AnalyticsCode)
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

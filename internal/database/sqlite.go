package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jarne/linkleopard/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		name TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		footer BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_position ON links(position, id)`,
	`CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL,
		bio TEXT NOT NULL,
		profile_picture TEXT NOT NULL DEFAULT '',
		analytics_code TEXT NOT NULL DEFAULT ''
	)`,
}

type sqliteDatabase struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the SQLite database at path.
// ":memory:" gives a private in-memory database.
func NewSQLite(path string) (Database, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serialises writers anyway, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &sqliteDatabase{db: db}, nil
}

func (d *sqliteDatabase) Close() {
	_ = d.db.Close()
}

func (d *sqliteDatabase) Migrate(ctx context.Context) error {
	for _, migration := range sqliteMigrations {
		if _, err := d.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

const linkColumns = `id, url, name, icon, position, footer`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (models.Link, error) {
	var l models.Link
	err := row.Scan(&l.ID, &l.URL, &l.Name, &l.Icon, &l.Position, &l.Footer)
	return l, err
}

func (d *sqliteDatabase) GetLinks(ctx context.Context) ([]models.Link, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY position ASC, id ASC`)
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

func (d *sqliteDatabase) GetLink(ctx context.Context, id int64) (*models.Link, error) {
	l, err := scanLink(d.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *sqliteDatabase) CreateLink(ctx context.Context, l models.Link) (models.Link, error) {
	return scanLink(d.db.QueryRowContext(ctx,
		`INSERT INTO links (url, name, icon, footer, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM links))
		RETURNING `+linkColumns,
		l.URL, l.Name, l.Icon, l.Footer))
}

func (d *sqliteDatabase) UpdateLink(ctx context.Context, id int64, patch models.LinkPatch) (*models.Link, error) {
	if patch.Empty() {
		return d.GetLink(ctx, id)
	}

	l, err := scanLink(d.db.QueryRowContext(ctx,
		`UPDATE links SET
			url = COALESCE(?, url),
			name = COALESCE(?, name),
			icon = COALESCE(?, icon),
			footer = COALESCE(?, footer)
		WHERE id = ?
		RETURNING `+linkColumns,
		patch.URL, patch.Name, patch.Icon, patch.Footer, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *sqliteDatabase) DeleteLink(ctx context.Context, id int64) (bool, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *sqliteDatabase) ReorderLinks(ctx context.Context, ids []int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `UPDATE links SET position = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i+1, id); err != nil {
			return fmt.Errorf("failed to set position of link %d: %w", id, err)
		}
	}

	return tx.Commit()
}

func (d *sqliteDatabase) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	err := d.db.QueryRowContext(ctx, `SELECT name, bio, profile_picture, analytics_code FROM profile WHERE id = 1`).
		Scan(&p.Name, &p.Bio, &p.ProfilePicture, &p.AnalyticsCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *sqliteDatabase) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO profile (id, name, bio, profile_picture, analytics_code) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			bio = excluded.bio,
			profile_picture = excluded.profile_picture,
			analytics_code = excluded.analytics_code`,
		p.Name, p.Bio, p.ProfilePicture, p.AnalyticsCode)
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Local writes objects into a directory that the HTTP server exposes
// under urlPrefix.
type Local struct {
	dir       string
	urlPrefix string
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{dir: dir, urlPrefix: urlPrefix}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path.Join(l.urlPrefix, name), nil
}

// URL maps a bare object name to its path under the upload prefix. Put
// already hands out root-relative paths, which pass through unchanged.
func (l *Local) URL(ref string) string {
	if path.IsAbs(ref) {
		return ref
	}
	return path.Join(l.urlPrefix, ref)
}

// Package storage keeps uploaded images on local disk or in an
// S3-compatible bucket behind one interface.
package storage

import (
	"context"
	"errors"
	"strings"
)

// Store saves an object under name and returns a reference that URL can
// turn into a public address.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	URL(ref string) string
}

var ErrInvalidName = errors.New("invalid object name")

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// PublicURL resolves a stored reference for rendering. Absolute URLs and
// root-relative paths are returned unchanged so that icons saved by hand or
// by an earlier backend keep working.
func PublicURL(s Store, ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "/"),
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "data:"):
		return ref
	case s == nil:
		return ref
	default:
		return s.URL(ref)
	}
}

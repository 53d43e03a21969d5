// Package storage keeps customer uploads on local disk or in a GCS bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
)

var ErrNotFound = errors.New("upload_not_found")

// Store is the upload backend. Paths returned by Save are what Open and
// Remove accept.
type Store interface {
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

var allowedExts = map[string]struct{}{
	".pdf": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {},
	".ai": {}, ".eps": {}, ".psd": {}, ".tif": {}, ".tiff": {}, ".svg": {},
	".zip": {}, ".rar": {}, ".txt": {},
}

// Allowed reports whether the extension of filename is accepted.
func Allowed(filename string) bool {
	_, ok := allowedExts[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SafeName slugs the base name and keeps the lowercased extension.
func SafeName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		return ""
	}
	return stem + ext
}

// StoredName is "YYYYMMDD_<10 hex>_<safe name>", unique per upload.
func StoredName(now time.Time, filename string) (string, error) {
	name := SafeName(filename)
	if name == "" || !Allowed(name) {
		return "", intakedomain.ErrFileNotAllowed
	}
	uid := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s_%s_%s", now.UTC().Format("20060102"), uid, name), nil
}

// ContentType guesses a download content type from the extension.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".zip":
		return "application/zip"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("stored file not found")
	ErrInvalidPath = errors.New("path does not belong to this storage")
)

// Object describes a stored file. Path is what gets persisted and handed
// back to clients.
type Object struct {
	Name        string
	Path        string
	ContentType string
	Size        int64
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart wraps a multipart file header.
func FromMultipart(h *multipart.FileHeader) Upload {
	return Upload{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Open: func() (io.ReadCloser, error) {
			return h.Open()
		},
	}
}

// Storage persists uploaded files under a scope such as "tasks".
type Storage interface {
	Save(ctx context.Context, scope string, upload Upload) (*Object, error)
	Delete(ctx context.Context, path string) error
}

// SaveAll stores every upload. If one fails, the files already stored are
// removed before the error is returned.
func SaveAll(ctx context.Context, st Storage, scope string, uploads []Upload) ([]Object, error) {
	saved := make([]Object, 0, len(uploads))
	for _, u := range uploads {
		obj, err := st.Save(ctx, scope, u)
		if err != nil {
			RemoveAll(ctx, st, saved)
			return nil, fmt.Errorf("failed to store %s: %w", u.Name, err)
		}
		saved = append(saved, *obj)
	}
	return saved, nil
}

// RemoveAll deletes the given objects, ignoring individual failures.
func RemoveAll(ctx context.Context, st Storage, objects []Object) {
	for _, obj := range objects {
		_ = st.Delete(ctx, obj.Path)
	}
}

// objectName keeps the client's base name for readability and appends a
// random suffix so names never collide.
func objectName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = sanitize(base)
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

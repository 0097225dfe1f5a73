package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStorage writes files below a base directory of an afero filesystem
// and exposes them under a public URL prefix.
type LocalStorage struct {
	fs        afero.Fs
	baseDir   string
	publicURL string
}

// NewLocalStorage creates the base directory and the given scope
// directories if they are missing.
func NewLocalStorage(fs afero.Fs, baseDir, publicURL string, scopes ...string) (*LocalStorage, error) {
	for _, scope := range scopes {
		if err := fs.MkdirAll(path.Join(baseDir, scope), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", scope, err)
		}
	}
	return &LocalStorage{
		fs:        fs,
		baseDir:   baseDir,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *LocalStorage) Save(_ context.Context, scope string, upload Upload) (*Object, error) {
	src, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := s.fs.MkdirAll(path.Join(s.baseDir, scope), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	key := path.Join(scope, objectName(upload.Name))
	dst, err := s.fs.OpenFile(path.Join(s.baseDir, key), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(path.Join(s.baseDir, key))
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &Object{
		Name:        upload.Name,
		Path:        s.publicURL + "/" + key,
		ContentType: upload.ContentType,
		Size:        written,
	}, nil
}

func (s *LocalStorage) Delete(_ context.Context, publicPath string) error {
	key, ok := strings.CutPrefix(publicPath, s.publicURL+"/")
	if !ok || strings.Contains(key, "..") {
		return ErrInvalidPath
	}

	if err := s.fs.Remove(path.Join(s.baseDir, key)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// FileSystem serves the stored files over HTTP.
func (s *LocalStorage) FileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(s.baseDir)
}

// PublicURL is the prefix stored paths start with.
func (s *LocalStorage) PublicURL() string {
	return s.publicURL
}

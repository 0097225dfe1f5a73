package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yukikurage/team-task-api/internal/constants"
)

var (
	ErrTooManyFiles       = fmt.Errorf("too many files: at most %d per upload", constants.MaxUploadFiles)
	ErrFileTooLarge       = fmt.Errorf("file too large: at most %d MB per file", constants.MaxUploadFileSize>>20)
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
)

// allowedTypes lists every accepted MIME type.
var allowedTypes = map[string]struct{}{
	// documents
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.ms-excel":                                                  {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.ms-powerpoint":                                             {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"text/plain":                              {},
	"text/csv":                                {},
	"application/rtf":                         {},
	"application/vnd.oasis.opendocument.text": {},

	// images
	"image/jpeg":    {},
	"image/jpg":     {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},

	// archives
	"application/zip":              {},
	"application/x-rar-compressed": {},
	"application/x-7z-compressed":  {},

	// code
	"text/javascript":  {},
	"text/html":        {},
	"text/css":         {},
	"application/json": {},
	"text/xml":         {},
}

// IsAllowedType reports whether contentType is on the allow-list. Parameters
// such as charset are ignored.
func IsAllowedType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	_, ok := allowedTypes[strings.ToLower(strings.TrimSpace(mediaType))]
	return ok
}

// Validate checks the upload count, each file size and each file type.
// Uploads without a usable declared type are sniffed from their content.
func Validate(uploads []Upload) error {
	if len(uploads) > constants.MaxUploadFiles {
		return ErrTooManyFiles
	}

	for i := range uploads {
		u := &uploads[i]
		if u.Size > constants.MaxUploadFileSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, u.Name)
		}

		if u.ContentType == "" || u.ContentType == "application/octet-stream" {
			detected, err := detect(*u)
			if err != nil {
				return err
			}
			u.ContentType = detected
		}

		if !IsAllowedType(u.ContentType) {
			return fmt.Errorf("%w: %s (%s)", ErrFileTypeNotAllowed, u.Name, u.ContentType)
		}
	}
	return nil
}

func detect(u Upload) (string, error) {
	r, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer r.Close()

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	return mt.String(), nil
}

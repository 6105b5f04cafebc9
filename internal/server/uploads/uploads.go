// Package uploads validates user attachments and hands them to a storage
// backend: the local filesystem (served back by the HTTP server) or an
// S3-compatible bucket.
package uploads

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/logging"
)

const DefaultMaxBytes int64 = 10 << 20

// Validation messages returned to the client.
const (
	MsgNoFile      = "No file uploaded"
	MsgTooLarge    = "File too large (max 10MB)"
	MsgTypeDenied  = "File type not allowed"
	MsgUploadError = "Upload failed"
)

// allowedTypes maps every accepted media type to the extension its stored
// files get. The client's own extension is never trusted.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"text/plain":      ".txt",
	"application/pdf": ".pdf",
}

func mediaType(contentType string) string {
	mt := contentType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// Allowed reports whether contentType (parameters ignored) may be uploaded.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[mediaType(contentType)]
	return ok
}

// StoredName replaces the extension of name with the one registered for
// contentType.
func StoredName(name, contentType string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		stem = "file"
	}
	return stem + allowedTypes[mediaType(contentType)]
}

// ServedType is the Content-Type a stored upload is served with, derived
// from the extension StoredName gave it. Unknown extensions are served as
// opaque bytes.
func ServedType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for mt, e := range allowedTypes {
		if e == ext {
			if mt == "text/plain" {
				return "text/plain; charset=utf-8"
			}
			return mt
		}
	}
	return "application/octet-stream"
}

// File is an incoming attachment.
type File struct {
	Name string
	Type string
	Size int64
	Body io.Reader
}

// Result is what the client gets back.
type Result struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// Store persists an object and returns the URL it can be fetched from.
type Store interface {
	Save(ctx context.Context, name, contentType string, size int64, body io.Reader) (string, error)
}

type Service struct {
	store    Store
	maxBytes int64
	logger   logging.Logger
}

func NewService(store Store, maxBytes int64, logger logging.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Service{store: store, maxBytes: maxBytes, logger: logger}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

func (s *Service) validate(f *File) error {
	if f == nil || f.Body == nil {
		return common.NewValidationError(MsgNoFile)
	}
	if f.Size > s.maxBytes {
		return common.NewValidationError(MsgTooLarge)
	}
	if !Allowed(f.Type) {
		return common.NewValidationError(MsgTypeDenied)
	}
	return nil
}

// Upload validates f and stores it. Storage failures come back wrapping
// common.ErrorInternal.
func (s *Service) Upload(ctx context.Context, f *File) (*Result, error) {
	if err := s.validate(f); err != nil {
		return nil, err
	}

	name := safeName(f.Name)
	url, err := s.store.Save(ctx, name, f.Type, f.Size, f.Body)
	if err != nil {
		s.logger.Error(ctx, "upload failed", "name", name, "error", err.Error())
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "file uploaded", "name", name, "size", f.Size)
	return &Result{FileURL: url, FileName: f.Name, FileType: f.Type, FileSize: f.Size}, nil
}

// safeName strips directories and characters that do not belong in a
// file name or object key.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':', r == '?', r == '#', r == '%':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		return "file"
	}
	return name
}

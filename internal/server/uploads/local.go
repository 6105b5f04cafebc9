package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/filex"
)

// LocalStore writes files as <unix millis>-<name> into dir and returns
// <urlPrefix><file>. The extension of name is replaced by the one matching
// the validated content type, so the file is never served as anything else.
type LocalStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{dir: abs, urlPrefix: urlPrefix, now: time.Now}, nil
}

func (s *LocalStore) Dir() string       { return s.dir }
func (s *LocalStore) URLPrefix() string { return s.urlPrefix }

func (s *LocalStore) Save(ctx context.Context, name, contentType string, _ int64, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%d-%s", s.now().UnixMilli(), StoredName(name, contentType))
	path := filepath.Join(s.dir, fileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", fileName, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", fileName, err)
	}

	return s.urlPrefix + fileName, nil
}

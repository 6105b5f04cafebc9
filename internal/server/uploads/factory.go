package uploads

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chatassist/internal/server/config"
)

// NewStore builds the storage backend named by cfg.UploadBackend.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.UploadBackend {
	case config.BackendLocal, "":
		s, err := NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendS3:
		s, err := NewS3Store(ctx, S3Config{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
			PublicURL:    cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}

package storage

import (
	"context"

	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/cloo-solutions/chapterkit/internal/jobs"
	"github.com/rotisserie/eris"
)

// Open returns the corpus store selected by cfg.CorpusBackend.
func Open(ctx context.Context, cfg *config.Config) (jobs.CorpusStore, error) {
	switch cfg.CorpusBackend {
	case config.BackendDir, "":
		return NewDirStore(cfg.CorpusDir), nil
	case config.BackendS3:
		if !cfg.HasS3() {
			return nil, eris.New("storage: s3 backend requires bucket and credentials")
		}
		client, err := NewS3Client(ctx, S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.CorpusPrefix), nil
	default:
		return nil, eris.Errorf("storage: unknown corpus backend %q", cfg.CorpusBackend)
	}
}

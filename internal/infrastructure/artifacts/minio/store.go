// Package minio stores model artifacts in object storage so a model trained
// on one host can be scored on another.  Artifacts are immutable: each run
// writes a new object named by run id, and "latest" is a small pointer
// object rewritten after every successful training run.
package minio

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/internal/pipeline"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

const (
	artifactContentType = "application/json"
	latestPointer       = "models/latest"
)

// ArtifactStore persists pipeline artifacts to one bucket.
type ArtifactStore struct {
	client *miniogo.Client
	bucket string
	log    logging.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewArtifactStore connects to the object store.  The bucket is created
// lazily on first write.
func NewArtifactStore(cfg config.MinIOConfig, log logging.Logger) (*ArtifactStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.NewConfigurationError("minio", "endpoint and bucket are required")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "create object storage client")
	}
	return &ArtifactStore{client: client, bucket: cfg.Bucket, log: log.Named("artifacts")}, nil
}

func (s *ArtifactStore) ensureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = errors.Wrap(err, errors.ErrCodeStorage, "check artifact bucket")
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
			s.ensureErr = errors.Wrap(err, errors.ErrCodeStorage, "create artifact bucket")
		}
	})
	return s.ensureErr
}

func objectName(runID string) string { return "models/" + runID + ".json" }

// Put uploads the artifact under the run id and repoints "latest" at it.
func (s *ArtifactStore) Put(ctx context.Context, runID string, art *pipeline.Artifact) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	data, err := art.Marshal()
	if err != nil {
		return err
	}

	name := objectName(runID)
	opts := miniogo.PutObjectOptions{ContentType: artifactContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, name,
		bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "upload artifact")
	}
	if _, err := s.client.PutObject(ctx, s.bucket, latestPointer,
		bytes.NewReader([]byte(name)), int64(len(name)),
		miniogo.PutObjectOptions{ContentType: "text/plain"}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "update latest pointer")
	}

	s.log.Info("artifact uploaded",
		logging.String("run_id", runID),
		logging.String("object", name),
		logging.Int("bytes", len(data)),
		logging.Duration("trained_ago", time.Since(art.CreatedAt)))
	return nil
}

// Get downloads and validates the artifact for a run id.
func (s *ArtifactStore) Get(ctx context.Context, runID string) (*pipeline.Artifact, error) {
	return s.fetch(ctx, objectName(runID))
}

// Latest downloads the artifact "latest" points at.
func (s *ArtifactStore) Latest(ctx context.Context) (*pipeline.Artifact, error) {
	name, err := s.read(ctx, latestPointer)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "resolve latest artifact")
	}
	return s.fetch(ctx, string(name))
}

func (s *ArtifactStore) fetch(ctx context.Context, name string) (*pipeline.Artifact, error) {
	data, err := s.read(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "download artifact")
	}
	return pipeline.LoadArtifact(data)
}

func (s *ArtifactStore) read(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"

	"github.com/amishk599/jobfeed/internal/model"
)

// GCSStore keeps the whole snapshot in a single Cloud Storage object, so a
// save is one atomic object replacement.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
	logger *slog.Logger
}

var _ model.StateStore = (*GCSStore)(nil)

// NewGCSStore creates a client using application default credentials.
func NewGCSStore(ctx context.Context, bucket, object string, logger *slog.Logger) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs store: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	if object == "" {
		object = "jobfeed/state.json"
	}
	return &GCSStore{client: client, bucket: bucket, object: object, logger: logger}, nil
}

func (s *GCSStore) retryOpts(ctx context.Context, op string) []retry.Option {
	return []retry.Option{
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2 * time.Minute),
		retry.MaxJitter(10 * time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("retrying state "+op+" after error", "attempt", n, "object", s.object, "error", err)
		}),
	}
}

// Load reads the snapshot object. A missing object yields an empty snapshot.
func (s *GCSStore) Load(ctx context.Context) (*model.Snapshot, error) {
	var data []byte
	notFound := false
	err := retry.Do(
		func() error {
			r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
			if err != nil {
				if errors.Is(err, storage.ErrObjectNotExist) {
					notFound = true
					return retry.Unrecoverable(err)
				}
				return fmt.Errorf("open storage reader: %w", err)
			}
			defer r.Close()

			data, err = io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read from storage: %w", err)
			}
			return nil
		},
		s.retryOpts(ctx, "load")...,
	)
	if notFound {
		s.logger.Info("no state object yet, starting empty", "bucket", s.bucket, "object", s.object)
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load after retries: %w", err)
	}

	snap := model.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decoding state object: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

func (s *GCSStore) Save(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding state object: %w", err)
	}

	err = retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
			w.ContentType = "application/json"
			if _, err := w.Write(data); err != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", err)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("close storage writer: %w", err)
			}
			return nil
		},
		s.retryOpts(ctx, "save")...,
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

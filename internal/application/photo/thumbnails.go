// Package photo renders the thumbnail variants of uploaded profile photos.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/storage"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// JobKindThumbnails is the job kind of thumbnail generation
const JobKindThumbnails scheduler.JobKind = "photo.thumbnails"

const (
	jpegQuality    = 85
	thumbnailTries = 2
	thumbnailRetry = 30 * time.Second
)

// Payload names the original photo to render
type Payload struct {
	Key string
}

// NewThumbnailJob creates a thumbnail job for the photo stored under key
func NewThumbnailJob(key string) *scheduler.Job {
	return scheduler.NewJob(JobKindThumbnails, Payload{Key: key}).WithRetry(thumbnailTries, thumbnailRetry)
}

// Thumbnailer crops originals to the configured square sizes
type Thumbnailer struct {
	store  storage.ObjectStore
	sizes  []storage.ThumbnailSize
	logger *zap.Logger
}

// NewThumbnailer creates a Thumbnailer producing storage.ThumbnailSizes
func NewThumbnailer(store storage.ObjectStore, logger *zap.Logger) *Thumbnailer {
	return &Thumbnailer{store: store, sizes: storage.ThumbnailSizes, logger: logger}
}

// Generate writes every variant of the photo stored under key.
// Missing or undecodable originals fail permanently.
func (t *Thumbnailer) Generate(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "photo", "generate_thumbnails")
	defer span.End()

	data, err := t.store.Download(ctx, key)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return scheduler.Permanent(fmt.Errorf("photo %s: %w", key, err))
		}
		return fmt.Errorf("failed to download photo %s: %w", key, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		telemetry.RecordError(span, err)
		return scheduler.Permanent(fmt.Errorf("failed to decode photo %s: %w", key, err))
	}

	for _, size := range t.sizes {
		thumb := imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return fmt.Errorf("failed to encode %s thumbnail of %s: %w", size, key, err)
		}
		if err := t.store.Upload(ctx, storage.ThumbnailKey(key, size), buf.Bytes(), "image/jpeg"); err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("failed to upload %s thumbnail of %s: %w", size, key, err)
		}
	}

	t.logger.Debug("Thumbnails generated",
		zap.String("key", key),
		zap.Int("variants", len(t.sizes)),
	)
	return nil
}

// Executor returns the executor of thumbnail jobs
func (t *Thumbnailer) Executor() scheduler.Executor {
	return scheduler.ExecutorFunc(func(ctx context.Context, job *scheduler.Job) error {
		p, ok := job.Payload.(Payload)
		if !ok {
			return scheduler.Permanent(fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Kind))
		}
		return t.Generate(ctx, p.Key)
	})
}

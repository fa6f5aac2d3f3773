// Package janitor sweeps the object store for uploads that lost their owner:
// images whose scan was abandoned mid-pipeline and export artifacts past
// their retention.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/furniscan/furniscan-backend/internal/storage"
)

const (
	// imageGrace keeps fresh uploads safe while their scan is still moving
	// through the pipeline or sitting in a live draft.
	imageGrace = 24 * time.Hour
	// defaultExportRetention outlives the 24h download links by a margin.
	defaultExportRetention = 7 * 24 * time.Hour
)

// ObjectStore is the storage surface the sweep uses; *storage.Client
// satisfies it.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, path string) error
	PathFromURL(url string) (string, bool)
}

// ReferenceSource lists the image URLs that are still reachable from saved
// projects.
type ReferenceSource interface {
	ListImageURLs(ctx context.Context) ([]string, error)
}

// DraftSource lists the image URLs referenced by drafts awaiting review.
type DraftSource interface {
	LiveImageURLs(ctx context.Context) ([]string, error)
}

// Janitor removes unreferenced objects on a schedule.
type Janitor struct {
	store           ObjectStore
	projects        ReferenceSource
	drafts          DraftSource
	exportRetention time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// New builds a janitor. A non-positive retention falls back to the default
// export retention window.
func New(store ObjectStore, projects ReferenceSource, drafts DraftSource, retention time.Duration, logger *slog.Logger) *Janitor {
	if retention <= 0 {
		retention = defaultExportRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{store: store, projects: projects, drafts: drafts, exportRetention: retention, logger: logger, now: time.Now}
}

// Start schedules the nightly sweep. The returned cron is already running;
// stop it on shutdown.
func (j *Janitor) Start() *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("30 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		if err := j.Sweep(ctx); err != nil {
			j.logger.Error("sweep failed", "error", err)
		}
	})
	if err != nil {
		j.logger.Error("failed to schedule sweep", "error", err)
		return c
	}
	c.Start()
	j.logger.Info("janitor scheduled", "schedule", "30 3 * * *")
	return c
}

// Sweep runs both passes once.
func (j *Janitor) Sweep(ctx context.Context) error {
	if err := j.sweepImages(ctx); err != nil {
		return err
	}
	return j.sweepExports(ctx)
}

// sweepImages deletes stored images that no saved project and no live draft
// points at, once they are old enough to be abandoned rather than in flight.
func (j *Janitor) sweepImages(ctx context.Context) error {
	referenced := map[string]bool{}
	projectURLs, err := j.projects.ListImageURLs(ctx)
	if err != nil {
		return err
	}
	draftURLs, err := j.drafts.LiveImageURLs(ctx)
	if err != nil {
		return err
	}
	for _, url := range append(projectURLs, draftURLs...) {
		if path, ok := j.store.PathFromURL(url); ok {
			referenced[path] = true
		}
	}

	objects, err := j.store.List(ctx, storage.ImagePrefix)
	if err != nil {
		return err
	}

	cutoff := j.now().Add(-imageGrace)
	removed := 0
	for _, obj := range objects {
		if referenced[obj.Path] || obj.Created.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, obj.Path); err != nil {
			j.logger.Warn("failed to delete orphaned image", "path", obj.Path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.logger.Info("swept orphaned images", "removed", removed, "scanned", len(objects))
	}
	return nil
}

// sweepExports prunes export artifacts past retention. Their signed links
// expired long before.
func (j *Janitor) sweepExports(ctx context.Context) error {
	objects, err := j.store.List(ctx, storage.ExportPrefix)
	if err != nil {
		return err
	}

	cutoff := j.now().Add(-j.exportRetention)
	removed := 0
	for _, obj := range objects {
		if obj.Created.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, obj.Path); err != nil {
			j.logger.Warn("failed to delete expired export", "path", obj.Path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.logger.Info("swept expired exports", "removed", removed, "scanned", len(objects))
	}
	return nil
}

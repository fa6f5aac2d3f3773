package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/furniscan/furniscan-backend/internal/projects"
	"github.com/furniscan/furniscan-backend/internal/storage"
)

// defaultDownloadTTL is how long a generated download link stays valid when
// not configured.
const defaultDownloadTTL = 24 * time.Hour

// ObjectStore is the storage surface exports need; *storage.Client satisfies
// it.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	SignedURL(ctx context.Context, path string, ttl time.Duration, filename string) (string, error)
}

// Recorder persists export audit rows; *LogRepository satisfies it.
type Recorder interface {
	Record(ctx context.Context, log *Log) error
}

// Download is the result of a generated export.
type Download struct {
	URL      string `json:"download_url"`
	Filename string `json:"filename"`
}

// Service renders projects into export files and stores them for download.
type Service struct {
	store    ObjectStore
	recorder Recorder
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds an export service. A non-positive ttl falls back to the
// default download link lifetime.
func NewService(store ObjectStore, recorder Recorder, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultDownloadTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, recorder: recorder, ttl: ttl, logger: logger, now: time.Now}
}

// Export renders the project in the requested format, uploads the artifact
// and returns a signed download link. Each call produces a fresh artifact
// under its own path, so repeated exports never clobber each other.
func (s *Service) Export(ctx context.Context, userID string, p *projects.Project, format Format) (*Download, error) {
	start := s.now()

	var data []byte
	var err error
	switch format {
	case FormatPDF:
		data, err = RenderPDF(p)
	case FormatXLSX:
		data, err = RenderXLSX(p)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	filename := Filename(p.Title, format)
	path := storage.ExportPath(p.ID, start, filename)
	if _, err := s.store.Put(ctx, path, data, format.ContentType()); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.store.SignedURL(ctx, path, s.ttl, filename)
	if err != nil {
		return nil, fmt.Errorf("sign download url: %w", err)
	}

	// Audit failure does not void the export the user already has a link to.
	if err := s.recorder.Record(ctx, &Log{
		UserID:      userID,
		ProjectID:   p.ID,
		Format:      format,
		StoragePath: path,
		Filename:    filename,
	}); err != nil {
		s.logger.Warn("failed to record export", "project_id", p.ID, "format", format, "error", err)
	}

	s.logger.Info("export.ok",
		"project_id", p.ID,
		"format", format,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Download{URL: url, Filename: filename}, nil
}

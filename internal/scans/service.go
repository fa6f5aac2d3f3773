package scans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/furniscan/furniscan-backend/internal/capture"
	"github.com/furniscan/furniscan-backend/internal/extract"
	"github.com/furniscan/furniscan-backend/internal/projects"
	"github.com/furniscan/furniscan-backend/internal/storage"
	"github.com/furniscan/furniscan-backend/internal/ws"
)

const maxImageSize = 10 * 1024 * 1024 // 10 MB

var ErrUnsupportedImage = errors.New("unsupported image format")

// allowedImageTypes is the set of MIME types accepted for uploaded pages.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the stdlib sniffer has no
// WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// ObjectStore is the storage surface the pipeline uses; *storage.Client
// satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	DeleteByURL(ctx context.Context, url string) error
}

// Drafts is the draft repository surface; *DraftRepository satisfies it.
type Drafts interface {
	Create(ctx context.Context, draft *Draft) error
	Get(ctx context.Context, scanID string) (*Draft, error)
	Update(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, scanID string) error
}

// Publisher pushes scan progress events; *ws.Hub satisfies it.
type Publisher interface {
	Publish(eventType, scanID, phase string)
	PublishError(scanID string, err error)
}

// Service runs the scan pipeline and owns draft review.
type Service struct {
	store     ObjectStore
	drafts    Drafts
	extractor extract.Extractor
	events    Publisher
	sessions  *capture.Registry
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store ObjectStore, drafts Drafts, extractor extract.Extractor, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		drafts:    drafts,
		extractor: extractor,
		events:    events,
		sessions:  capture.NewRegistry(),
		logger:    logger,
		now:       time.Now,
	}
}

// readFrame drains the upload stream, treating it as the session's camera
// feed. The extra byte past maxImageSize lets the size check fire.
func readFrame(stream io.Closer) ([]byte, error) {
	r, ok := stream.(io.Reader)
	if !ok {
		return nil, fmt.Errorf("upload stream is not readable")
	}
	return io.ReadAll(io.LimitReader(r, maxImageSize+1))
}

// Ingest runs one captured page through the pipeline: validate, store,
// extract, draft. The upload stream stands in for the camera feed of a
// capture session, which the registry exposes for the lifetime of the
// request so a concurrent discard sees the scan as busy. A failure at any
// stage aborts the whole scan with nothing drafted; an upload stranded by a
// later failure is left for the sweep.
func (s *Service) Ingest(ctx context.Context, userID, firebaseUID, filename string, upload io.ReadCloser) (*Draft, error) {
	scanID := newScanID()
	sess := capture.NewSession()
	s.sessions.Add(scanID, sess)
	defer func() {
		s.sessions.Remove(scanID)
		// The request is over either way; settle the session and release
		// the upload stream.
		sess.EndPhase()
		if err := sess.Close(); err != nil {
			s.logger.Warn("failed to close capture session", "scan_id", scanID, "error", err)
		}
	}()

	s.events.Publish(ws.EventPhaseStarted, scanID, capture.PhaseScanning)
	if err := sess.RequestPermission(func() (io.Closer, error) { return upload, nil }); err != nil {
		return nil, s.fail(scanID, err)
	}
	data, err := sess.Capture(readFrame)
	if err != nil {
		return nil, s.fail(scanID, fmt.Errorf("read image: %w", err))
	}

	if len(data) == 0 {
		return nil, s.fail(scanID, fmt.Errorf("empty image"))
	}
	if len(data) > maxImageSize {
		return nil, s.fail(scanID, fmt.Errorf("image exceeds %d bytes", maxImageSize))
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, s.fail(scanID, ErrUnsupportedImage)
	}
	s.events.Publish(ws.EventPhaseFinished, scanID, capture.PhaseScanning)

	if err := sess.BeginPhase(capture.PhaseUploading); err != nil {
		return nil, s.fail(scanID, err)
	}
	s.events.Publish(ws.EventPhaseStarted, scanID, capture.PhaseUploading)
	now := s.now()
	imagePath := storage.ImagePath(firebaseUID, now, filename)
	imageURL, err := s.store.Put(ctx, imagePath, data, mimeType)
	if err != nil {
		return nil, s.fail(scanID, fmt.Errorf("upload image: %w", err))
	}

	// Thumbnail failure is not fatal; the full image still renders.
	var thumbnailURL string
	if thumb, err := storage.MakeThumbnail(data); err != nil {
		s.logger.Warn("thumbnail generation failed", "scan_id", scanID, "error", err)
	} else if url, err := s.store.Put(ctx, storage.ThumbnailPath(imagePath), thumb, "image/jpeg"); err != nil {
		s.logger.Warn("thumbnail upload failed", "scan_id", scanID, "error", err)
	} else {
		thumbnailURL = url
	}
	sess.EndPhase()
	s.events.Publish(ws.EventPhaseFinished, scanID, capture.PhaseUploading)

	if err := sess.BeginPhase(capture.PhaseProcessing); err != nil {
		return nil, s.fail(scanID, err)
	}
	s.events.Publish(ws.EventPhaseStarted, scanID, capture.PhaseProcessing)
	result, err := s.extractor.Extract(ctx, imageURL)
	if err != nil {
		return nil, s.fail(scanID, fmt.Errorf("extract document: %w", err))
	}
	result.Normalize()

	draft := &Draft{
		ID:           scanID,
		UserID:       userID,
		ImageURL:     imageURL,
		ThumbnailURL: thumbnailURL,
		Title:        defaultTitle(now),
		FullText:     result.FullText,
		Materials:    result.Materials,
		Measurements: result.Measurements,
		Instructions: result.Instructions,
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, s.fail(scanID, fmt.Errorf("store draft: %w", err))
	}
	sess.EndPhase()
	s.events.Publish(ws.EventPhaseFinished, scanID, capture.PhaseProcessing)
	s.events.Publish(ws.EventCompleted, scanID, "")

	return draft, nil
}

// GetDraft returns a draft owned by the user.
func (s *Service) GetDraft(ctx context.Context, userID, scanID string) (*Draft, error) {
	draft, err := s.drafts.Get(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

// EditDraft applies review edits and refreshes the draft's TTL.
func (s *Service) EditDraft(ctx context.Context, userID, scanID string, edit DraftEdit) (*Draft, error) {
	draft, err := s.GetDraft(ctx, userID, scanID)
	if err != nil {
		return nil, err
	}
	edit.Apply(draft)
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Save persists a draft as a project and drops the draft. The draft delete
// is best-effort; a leftover draft simply expires.
func (s *Service) Save(ctx context.Context, userID, scanID string, store projects.Store) (*projects.Project, error) {
	draft, err := s.GetDraft(ctx, userID, scanID)
	if err != nil {
		return nil, err
	}

	title := draft.Title
	if title == "" {
		title = defaultTitle(s.now())
	}
	project, err := store.Create(ctx, userID, projects.CreateProject{
		Title:        title,
		ImageURL:     draft.ImageURL,
		ThumbnailURL: draft.ThumbnailURL,
		FullText:     draft.FullText,
		Materials:    draft.Materials,
		Measurements: draft.Measurements,
		Instructions: draft.Instructions,
	})
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, scanID); err != nil {
		s.logger.Warn("failed to drop saved draft", "scan_id", scanID, "error", err)
	}
	s.events.Publish(ws.EventSaved, scanID, "")
	return project, nil
}

// Discard drops a draft and its uploaded image. A scan still moving through
// the pipeline refuses to be discarded; the caller retries once it settles.
func (s *Service) Discard(ctx context.Context, userID, scanID string) error {
	if s.sessions.Busy(scanID) {
		return capture.ErrBusy
	}
	draft, err := s.GetDraft(ctx, userID, scanID)
	if err != nil {
		return err
	}

	if err := s.drafts.Delete(ctx, scanID); err != nil {
		return err
	}
	for _, url := range []string{draft.ImageURL, draft.ThumbnailURL} {
		if url == "" {
			continue
		}
		if err := s.store.DeleteByURL(ctx, url); err != nil {
			s.logger.Warn("failed to remove discarded upload", "scan_id", scanID, "url", url, "error", err)
		}
	}
	s.events.Publish(ws.EventDiscarded, scanID, "")
	return nil
}

func (s *Service) fail(scanID string, err error) error {
	s.events.PublishError(scanID, err)
	return err
}

func newScanID() string {
	return uuid.New().String()
}

// defaultTitle names an untitled scan after its capture date.
func defaultTitle(at time.Time) string {
	return "Project " + at.Format("1/2/2006")
}

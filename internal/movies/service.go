package movies

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"thirdcoast.systems/duckflix/internal/metrics"
)

const defaultNotificationLimit = 50

// Service is the entry point used by the HTTP layer. Detached work runs
// under the context passed to NewService and is tracked until Wait.
type Service struct {
	repo     Repository
	proc     *Processor
	notifier *Notifier

	ctx context.Context
	wg  sync.WaitGroup
}

func NewService(ctx context.Context, repo Repository, proc *Processor, notifier *Notifier) *Service {
	return &Service{
		repo:     repo,
		proc:     proc,
		notifier: notifier,
		ctx:      ctx,
	}
}

// CreateMovie validates meta and inserts a movie in processing state.
func (s *Service) CreateMovie(ctx context.Context, meta Metadata) (*Movie, error) {
	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	if meta.UserID != nil {
		ok, err := s.repo.UserExists(ctx, *meta.UserID)
		if err != nil {
			return nil, fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return nil, &AppError{Message: "Unknown user", StatusCode: http.StatusBadRequest}
		}
	}

	m := meta.newMovie()
	if err := s.repo.CreateMovie(ctx, m); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	slog.Info("movie created", "movie_id", m.ID, "title", m.Title)
	return m, nil
}

// InitiateIngestion creates a movie for an uploaded file and ingests it
// synchronously. On failure the movie is left in error and the owner is
// notified.
func (s *Service) InitiateIngestion(ctx context.Context, req UploadRequest) (*Movie, error) {
	m, err := s.CreateMovie(ctx, req.Metadata)
	if err != nil {
		s.proc.discard(req.TempPath)
		metrics.RecordIngestion(string(SourceUpload), err)
		return nil, err
	}

	original, err := s.proc.ProcessMovie(ctx, IngestRequest{
		MovieID:      m.ID,
		TempPath:     req.TempPath,
		OriginalName: req.OriginalName,
		FileSize:     req.FileSize,
	})
	metrics.RecordIngestion(string(SourceUpload), err)
	if err != nil {
		s.notifier.MovieFailed(ctx, m.ID, err, SourceUpload)
		return nil, err
	}

	// The upload succeeded; a failed or abandoned read must not report otherwise.
	full, err := s.GetMovie(context.WithoutCancel(ctx), m.ID)
	if err != nil {
		slog.Warn("failed to reload ingested movie", "movie_id", m.ID, "error", err)
		m.Status = MovieReady
		m.Versions = []*Version{original}
		return m, nil
	}
	return full, nil
}

// InitiateTorrentIngestion acquires and ingests the descriptor's content for
// an existing movie in the background.
func (s *Service) InitiateTorrentIngestion(movieID uuid.UUID, descriptorPath string) {
	s.detach(movieID, SourceTorrent, func(ctx context.Context) error {
		_, err := s.proc.ProcessTorrent(ctx, TorrentRequest{
			MovieID:        movieID,
			DescriptorPath: descriptorPath,
		})
		metrics.RecordIngestion(string(SourceTorrent), err)
		return err
	})
}

// detach runs fn on its own goroutine. Errors and panics end up in
// MovieFailed.
func (s *Service) detach(movieID uuid.UUID, source Source, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("detached work panicked", "movie_id", movieID, "panic", r, "stack", string(debug.Stack()))
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return fn(s.ctx)
		}()

		if err != nil {
			s.notifier.MovieFailed(s.ctx, movieID, err, source)
		}
	}()
}

// GetMovie returns the movie with all of its versions.
func (s *Service) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	m, err := s.repo.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Versions, err = s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return m, nil
}

// Notifications returns the user's most recent notifications, newest first.
func (s *Service) Notifications(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	return s.repo.ListNotifications(ctx, userID, limit)
}

// MarkNotificationRead flags one of the user's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkNotificationRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return &AppError{Message: "Notification not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

// RecoverStuck fails work a previous process left unfinished. Movies are only
// touched when older than grace.
func (s *Service) RecoverStuck(ctx context.Context, grace time.Duration) error {
	versions, movies, err := s.repo.RecoverStuck(ctx, time.Now().Add(-grace))
	if err != nil {
		return fmt.Errorf("recover stuck work: %w", err)
	}
	if versions > 0 || movies > 0 {
		slog.Warn("recovered stuck work", "versions", versions, "movies", movies)
	}
	return nil
}

// Wait blocks until all detached work has returned or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

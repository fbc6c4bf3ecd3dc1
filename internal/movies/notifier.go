package movies

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"thirdcoast.systems/duckflix/internal/db"
	"thirdcoast.systems/duckflix/internal/metrics"
)

const bookkeepingTimeout = 10 * time.Second

// Notifier moves failed records to their error state and records
// notifications for their owners. It never returns errors: every write is
// isolated, logged and dropped on failure.
type Notifier struct {
	repo Repository
}

func NewNotifier(repo Repository) *Notifier {
	return &Notifier{repo: repo}
}

// MovieFailed marks the movie as errored and notifies its owner.
func (n *Notifier) MovieFailed(ctx context.Context, movieID uuid.UUID, cause error, source Source) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	slog.Error("movie ingestion failed", "movie_id", movieID, "source", source, "error", cause)

	n.isolate("set movie status", movieID, func() error {
		return n.repo.SetMovieStatus(ctx, movieID, MovieError)
	})

	n.isolate("notify movie failure", movieID, func() error {
		owner, err := n.repo.MovieOwner(ctx, movieID)
		if err != nil {
			return err
		}
		if owner == nil {
			return nil
		}
		return n.repo.CreateNotification(ctx, &Notification{
			ID:      uuid.New(),
			UserID:  owner,
			MovieID: &movieID,
			Type:    NotificationError,
			Title:   "Upload failed",
			Message: UserMessage(cause),
		})
	})
}

// VersionFailed marks the version as errored and notifies the movie's owner.
func (n *Notifier) VersionFailed(ctx context.Context, versionID uuid.UUID, cause error) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	slog.Error("movie version failed", "version_id", versionID, "error", cause)

	n.isolate("set version status", versionID, func() error {
		return n.repo.SetVersionStatus(ctx, versionID, VersionError)
	})

	n.isolate("notify version failure", versionID, func() error {
		v, err := n.repo.GetVersion(ctx, versionID)
		if err != nil {
			return err
		}
		return n.notifyOwner(ctx, v, NotificationError,
			fmt.Sprintf("%dp version failed", v.Height), UserMessage(cause))
	})
}

// VersionSkipped records that a derived version could not be scheduled. The
// movie stays playable from its original.
func (n *Notifier) VersionSkipped(ctx context.Context, v *Version, cause error) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	slog.Error("failed to create version", "movie_id", v.MovieID, "height", v.Height, "error", cause)

	n.isolate("notify version skipped", v.MovieID, func() error {
		owner, err := n.repo.MovieOwner(ctx, v.MovieID)
		if err != nil {
			return err
		}
		if owner == nil {
			return nil
		}
		movieID := v.MovieID
		return n.repo.CreateNotification(ctx, &Notification{
			ID:      uuid.New(),
			UserID:  owner,
			MovieID: &movieID,
			Type:    NotificationWarning,
			Title:   fmt.Sprintf("%dp version unavailable", v.Height),
			Message: fmt.Sprintf("The %dp version could not be scheduled. The original upload is still playable.", v.Height),
		})
	})
}

// TaskStarted records that a version began transcoding.
func (n *Notifier) TaskStarted(ctx context.Context, v *Version) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	n.isolate("notify task started", v.ID, func() error {
		return n.notifyOwner(ctx, v, NotificationInfo,
			fmt.Sprintf("Processing %dp", v.Height),
			fmt.Sprintf("The %dp version is being created.", v.Height))
	})
}

// TaskCompleted records that a version is ready to play.
func (n *Notifier) TaskCompleted(ctx context.Context, v *Version) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	n.isolate("notify task completed", v.ID, func() error {
		return n.notifyOwner(ctx, v, NotificationSuccess,
			fmt.Sprintf("%dp ready", v.Height),
			fmt.Sprintf("The %dp version is ready to watch.", v.Height))
	})
}

func (n *Notifier) notifyOwner(ctx context.Context, v *Version, typ NotificationType, title, message string) error {
	owner, err := n.repo.MovieOwner(ctx, v.MovieID)
	if err != nil {
		return err
	}
	if owner == nil {
		return nil
	}
	movieID, versionID := v.MovieID, v.ID
	return n.repo.CreateNotification(ctx, &Notification{
		ID:             uuid.New(),
		UserID:         owner,
		MovieID:        &movieID,
		MovieVersionID: &versionID,
		Type:           typ,
		Title:          title,
		Message:        message,
	})
}

// isolate runs fn and logs whatever goes wrong, including panics.
func (n *Notifier) isolate(op string, id uuid.UUID, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationFailuresTotal.Inc()
			slog.Error("notifier panicked", "op", op, "id", id, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := fn(); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		attrs := []any{"op", op, "id", id, "error", err}
		if code := db.PgErrorCode(err); code != "" {
			attrs = append(attrs, "code", code)
		}
		slog.Warn("notifier write failed", attrs...)
	}
}

// bookkeepingContext detaches ctx's cancellation and bounds the writes with a
// timeout instead.
func bookkeepingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

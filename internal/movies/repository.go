package movies

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists movies, their versions and notifications. Lookups of
// unknown movies return *MovieNotFoundError.
type Repository interface {
	CreateMovie(ctx context.Context, m *Movie) error
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	MovieOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	SetMovieStatus(ctx context.Context, id uuid.UUID, status MovieStatus) error

	// CommitOriginal inserts the original version and marks its movie ready
	// with the given duration in a single transaction.
	CommitOriginal(ctx context.Context, v *Version, durationSeconds int) error
	CreateVersion(ctx context.Context, v *Version) error
	GetVersion(ctx context.Context, id uuid.UUID) (*Version, error)
	ListVersions(ctx context.Context, movieID uuid.UUID) ([]*Version, error)
	SetVersionStatus(ctx context.Context, id uuid.UUID, status VersionStatus) error
	MarkVersionReady(ctx context.Context, id uuid.UUID, width *int, height int, fileSize int64) error

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (bool, error)

	UserExists(ctx context.Context, id uuid.UUID) (bool, error)

	// RecoverStuck fails versions left waiting or processing by a previous
	// process and movies still processing without an original that were
	// created before olderThan.
	RecoverStuck(ctx context.Context, olderThan time.Time) (versions, movies int64, err error)
}

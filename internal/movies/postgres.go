package movies

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/duckflix/internal/db"
)

// PostgresRepository is the Repository backed by the sqlc queries.
type PostgresRepository struct {
	dbc *db.DatabaseConnection
}

func NewPostgresRepository(dbc *db.DatabaseConnection) *PostgresRepository {
	return &PostgresRepository{dbc: dbc}
}

var _ Repository = (*PostgresRepository)(nil)

// writeError turns constraint violations into AppErrors. missing is shown
// when a referenced row is gone.
func writeError(op string, err error, missing string) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return &AppError{Message: missing, StatusCode: http.StatusBadRequest, Err: fmt.Errorf("%s: %w", op, err)}
	case db.IsUniqueViolation(err):
		return &AppError{Message: "This version already exists.", StatusCode: http.StatusConflict, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *PostgresRepository) CreateMovie(ctx context.Context, m *Movie) error {
	row, err := r.dbc.Queries(ctx).InsertMovie(ctx, &db.InsertMovieParams{
		ID:          db.UUID(m.ID),
		Title:       m.Title,
		Description: m.Description,
		ReleaseYear: int32Ptr(m.ReleaseYear),
		PosterUrl:   m.PosterURL,
		BannerUrl:   m.BannerURL,
		UserID:      db.NullUUID(m.UserID),
	})
	if err != nil {
		return writeError("insert movie", err, "The uploading user no longer exists.")
	}
	*m = *movieFromRow(row)
	return nil
}

func (r *PostgresRepository) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	row, err := r.dbc.Queries(ctx).GetMovieByID(ctx, db.UUID(id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, &MovieNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movieFromRow(row), nil
}

func (r *PostgresRepository) MovieOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	owner, err := r.dbc.Queries(ctx).GetMovieOwner(ctx, db.UUID(id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, &MovieNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("get movie owner: %w", err)
	}
	return db.UUIDPtr(owner), nil
}

func (r *PostgresRepository) SetMovieStatus(ctx context.Context, id uuid.UUID, status MovieStatus) error {
	return r.dbc.Queries(ctx).UpdateMovieStatus(ctx, &db.UpdateMovieStatusParams{
		ID:     db.UUID(id),
		Status: db.MovieStatus(status),
	})
}

func (r *PostgresRepository) CommitOriginal(ctx context.Context, v *Version, durationSeconds int) error {
	duration := int32(durationSeconds)
	return r.dbc.InTx(ctx, func(q *db.Queries) error {
		row, err := q.InsertMovieVersion(ctx, versionParams(v))
		if err != nil {
			return writeError("insert original version", err, "The movie no longer exists.")
		}
		if err := q.MarkMovieReady(ctx, &db.MarkMovieReadyParams{
			ID:              db.UUID(v.MovieID),
			DurationSeconds: &duration,
		}); err != nil {
			return fmt.Errorf("mark movie ready: %w", err)
		}
		v.CreatedAt = row.CreatedAt.Time
		return nil
	})
}

func (r *PostgresRepository) CreateVersion(ctx context.Context, v *Version) error {
	row, err := r.dbc.Queries(ctx).InsertMovieVersion(ctx, versionParams(v))
	if err != nil {
		return writeError("insert version", err, "The movie no longer exists.")
	}
	v.CreatedAt = row.CreatedAt.Time
	return nil
}

func (r *PostgresRepository) GetVersion(ctx context.Context, id uuid.UUID) (*Version, error) {
	row, err := r.dbc.Queries(ctx).GetMovieVersionByID(ctx, db.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", id, err)
	}
	return versionFromRow(row), nil
}

func (r *PostgresRepository) ListVersions(ctx context.Context, movieID uuid.UUID) ([]*Version, error) {
	rows, err := r.dbc.Queries(ctx).ListMovieVersions(ctx, db.UUID(movieID))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	versions := make([]*Version, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, versionFromRow(row))
	}
	return versions, nil
}

func (r *PostgresRepository) SetVersionStatus(ctx context.Context, id uuid.UUID, status VersionStatus) error {
	return r.dbc.Queries(ctx).UpdateMovieVersionStatus(ctx, &db.UpdateMovieVersionStatusParams{
		ID:     db.UUID(id),
		Status: db.MovieVersionStatus(status),
	})
}

func (r *PostgresRepository) MarkVersionReady(ctx context.Context, id uuid.UUID, width *int, height int, fileSize int64) error {
	return r.dbc.Queries(ctx).MarkMovieVersionReady(ctx, &db.MarkMovieVersionReadyParams{
		ID:       db.UUID(id),
		Width:    int32Ptr(width),
		Height:   int32(height),
		FileSize: fileSize,
	})
}

func (r *PostgresRepository) CreateNotification(ctx context.Context, n *Notification) error {
	row, err := r.dbc.Queries(ctx).InsertNotification(ctx, &db.InsertNotificationParams{
		ID:             db.UUID(n.ID),
		UserID:         db.NullUUID(n.UserID),
		MovieID:        db.NullUUID(n.MovieID),
		MovieVersionID: db.NullUUID(n.MovieVersionID),
		Type:           db.NotificationType(n.Type),
		Title:          n.Title,
		Message:        n.Message,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.CreatedAt = row.CreatedAt.Time
	return nil
}

func (r *PostgresRepository) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	rows, err := r.dbc.Queries(ctx).ListNotificationsForUser(ctx, &db.ListNotificationsForUserParams{
		UserID: db.UUID(userID),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Notification{
			ID:             uuid.UUID(row.ID.Bytes),
			UserID:         db.UUIDPtr(row.UserID),
			MovieID:        db.UUIDPtr(row.MovieID),
			MovieVersionID: db.UUIDPtr(row.MovieVersionID),
			Type:           NotificationType(row.Type),
			Title:          row.Title,
			Message:        row.Message,
			IsRead:         row.IsRead,
			CreatedAt:      row.CreatedAt.Time,
		})
	}
	return out, nil
}

func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	n, err := r.dbc.Queries(ctx).MarkNotificationRead(ctx, &db.MarkNotificationReadParams{
		ID:     db.UUID(id),
		UserID: db.UUID(userID),
	})
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := r.dbc.Queries(ctx).GetUserByID(ctx, db.UUID(id))
	if err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("get user: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) RecoverStuck(ctx context.Context, olderThan time.Time) (int64, int64, error) {
	q := r.dbc.Queries(ctx)
	versions, err := q.RecoverStuckMovieVersions(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("recover versions: %w", err)
	}
	movies, err := q.RecoverStuckMovies(ctx, db.Timestamptz(olderThan))
	if err != nil {
		return versions, 0, fmt.Errorf("recover movies: %w", err)
	}
	return versions, movies, nil
}

func versionParams(v *Version) *db.InsertMovieVersionParams {
	return &db.InsertMovieVersionParams{
		ID:         db.UUID(v.ID),
		MovieID:    db.UUID(v.MovieID),
		Width:      int32Ptr(v.Width),
		Height:     int32(v.Height),
		IsOriginal: v.IsOriginal,
		Status:     db.MovieVersionStatus(v.Status),
		StorageKey: v.StorageKey,
		FileSize:   v.FileSize,
		MimeType:   v.MimeType,
	}
}

func movieFromRow(row *db.Movie) *Movie {
	return &Movie{
		ID:              uuid.UUID(row.ID.Bytes),
		Title:           row.Title,
		Description:     row.Description,
		ReleaseYear:     intPtr(row.ReleaseYear),
		PosterURL:       row.PosterUrl,
		BannerURL:       row.BannerUrl,
		Status:          MovieStatus(row.Status),
		UserID:          db.UUIDPtr(row.UserID),
		DurationSeconds: intPtr(row.DurationSeconds),
		CreatedAt:       timeOf(row.CreatedAt),
	}
}

func versionFromRow(row *db.MovieVersion) *Version {
	return &Version{
		ID:         uuid.UUID(row.ID.Bytes),
		MovieID:    uuid.UUID(row.MovieID.Bytes),
		Width:      intPtr(row.Width),
		Height:     int(row.Height),
		IsOriginal: row.IsOriginal,
		Status:     VersionStatus(row.Status),
		StorageKey: row.StorageKey,
		FileSize:   row.FileSize,
		MimeType:   row.MimeType,
		CreatedAt:  timeOf(row.CreatedAt),
	}
}

func timeOf(t pgtype.Timestamptz) time.Time {
	if p := db.NilTimePtr(t); p != nil {
		return *p
	}
	return time.Time{}
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

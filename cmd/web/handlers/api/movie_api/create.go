// Package movie_api provides movie upload and lookup handlers.
package movie_api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"thirdcoast.systems/duckflix/cmd/web/handlers/common"
	"thirdcoast.systems/duckflix/internal/movies"
)

// Service is the part of movies.Service the handlers use.
type Service interface {
	CreateMovie(ctx context.Context, meta movies.Metadata) (*movies.Movie, error)
	InitiateIngestion(ctx context.Context, req movies.UploadRequest) (*movies.Movie, error)
	InitiateTorrentIngestion(movieID uuid.UUID, descriptorPath string)
	GetMovie(ctx context.Context, id uuid.UUID) (*movies.Movie, error)
}

var allowedVideoTypes = map[string]struct{}{
	"video/mp4":        {},
	"video/x-matroska": {},
	"video/quicktime":  {},
	"video/x-msvideo":  {},
}

// HandleCreate accepts a multipart form with movie metadata and exactly one
// of a "video" or a "torrent" file. Videos are ingested before responding;
// torrents are acquired in the background.
func HandleCreate(svc Service, uploadDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := common.RequireUser(c)
		if err != nil {
			return err
		}

		form, err := c.MultipartForm()
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
				return he
			}
			return common.ErrBadRequest("expected a multipart form")
		}

		meta, err := parseMetadata(c, userID)
		if err != nil {
			return err
		}

		video := common.FormFile(form, "video")
		descriptor := common.FormFile(form, "torrent")
		if (video == nil) == (descriptor == nil) {
			return common.ErrBadRequest("Please provide either a video file or a torrent file")
		}

		ctx := c.Request().Context()

		if video != nil {
			if _, ok := allowedVideoTypes[common.MediaType(video)]; !ok {
				return common.ErrBadRequest("Only video files (mp4, mkv, avi, mov) are allowed")
			}
			path, size, err := common.SaveUpload(video, uploadDir)
			if err != nil {
				slog.Error("failed to store upload", "error", err)
				return common.ErrInternal("failed to store upload")
			}

			movie, err := svc.InitiateIngestion(ctx, movies.UploadRequest{
				Metadata:     meta,
				TempPath:     path,
				OriginalName: video.Filename,
				FileSize:     size,
			})
			if err != nil {
				return common.FromError(err)
			}
			return common.Respond(c, http.StatusCreated, "Video processing started.", map[string]any{"movie": movie})
		}

		path, _, err := common.SaveUpload(descriptor, uploadDir)
		if err != nil {
			slog.Error("failed to store torrent descriptor", "error", err)
			return common.ErrInternal("failed to store upload")
		}

		movie, err := svc.CreateMovie(ctx, meta)
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil {
				slog.Warn("failed to remove torrent descriptor", "path", path, "error", rmErr)
			}
			return common.FromError(err)
		}
		svc.InitiateTorrentIngestion(movie.ID, path)

		return common.Respond(c, http.StatusAccepted, "Torrent download initiated.", map[string]any{"movie": movie})
	}
}

func parseMetadata(c echo.Context, userID uuid.UUID) (movies.Metadata, error) {
	meta := movies.Metadata{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		PosterURL:   c.FormValue("poster_url"),
		BannerURL:   c.FormValue("banner_url"),
		UserID:      &userID,
	}
	if raw := c.FormValue("release_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return meta, common.ErrBadRequest("invalid release_year")
		}
		meta.ReleaseYear = year
	}
	return meta, nil
}

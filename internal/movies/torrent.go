package movies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"thirdcoast.systems/duckflix/internal/metrics"
	"thirdcoast.systems/duckflix/pkg/torrent"
)

// ProcessTorrent downloads the content of the descriptor at
// req.DescriptorPath, picks its largest file and ingests it like an upload.
// The descriptor is always deleted, and so is the download session
// directory.
func (p *Processor) ProcessTorrent(ctx context.Context, req TorrentRequest) (*Version, error) {
	defer p.discard(req.DescriptorPath)

	if err := torrent.ValidateSize(req.DescriptorPath, p.torrentMaxBytes); err != nil {
		var tooLarge *torrent.TooLargeError
		if errors.As(err, &tooLarge) {
			return nil, &AppError{
				Message:    fmt.Sprintf("Torrent file is too large (max %s)", humanize.IBytes(uint64(tooLarge.Max))),
				StatusCode: http.StatusBadRequest,
				Err:        err,
			}
		}
		return nil, &AppError{Message: "Torrent file could not be read", StatusCode: http.StatusBadRequest, Err: err}
	}

	session := filepath.Join(p.paths.Downloads, req.MovieID.String())
	slog.Info("torrent download starting", "movie_id", req.MovieID, "dir", session)

	dl, err := p.swarm.Download(ctx, req.DescriptorPath, session, progressLogger(req.MovieID))
	if err != nil {
		p.removeSession(session)
		return nil, newTorrentDownloadError(err)
	}

	picked, err := p.extractMainFile(req.MovieID, dl.Files())

	if cerr := dl.Close(); cerr != nil {
		slog.Warn("failed to close torrent", "movie_id", req.MovieID, "error", cerr)
	}
	p.removeSession(session)

	if err != nil {
		return nil, err
	}

	metrics.TorrentBytesTotal.Add(float64(picked.Size))
	slog.Info("torrent download complete",
		"movie_id", req.MovieID,
		"file", filepath.Base(picked.Path),
		"size", humanize.Bytes(uint64(picked.Size)),
	)

	return p.ProcessMovie(ctx, IngestRequest{
		MovieID:      req.MovieID,
		TempPath:     picked.Path,
		OriginalName: filepath.Base(picked.Name),
		FileSize:     picked.Size,
	})
}

type mainFile struct {
	Path string // relocated path
	Name string // name inside the torrent
	Size int64
}

// extractMainFile moves the largest downloaded file out of the session
// directory to a path named after the movie.
func (p *Processor) extractMainFile(movieID uuid.UUID, files []torrent.File) (mainFile, error) {
	largest, ok := torrent.LargestFile(files)
	if !ok {
		return mainFile{}, &AppError{Message: "Torrent contains no files", StatusCode: http.StatusBadRequest}
	}

	ext := strings.ToLower(filepath.Ext(largest.Path))
	dest := filepath.Join(p.paths.Downloads, movieID.String()+"-torrent"+ext)
	if err := moveFile(largest.Path, dest); err != nil {
		return mainFile{}, &AppError{
			Message:    "Failed to move downloaded file",
			StatusCode: http.StatusInternalServerError,
			Err:        err,
		}
	}
	return mainFile{Path: dest, Name: largest.Path, Size: largest.Size}, nil
}

func (p *Processor) removeSession(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("failed to remove torrent session", "dir", dir, "error", err)
	}
}

// progressLogger logs download progress at info level once per 10% and at
// debug level otherwise.
func progressLogger(movieID uuid.UUID) torrent.Progress {
	lastStep := -1
	return func(percent float64, bytesPerSecond int64) {
		level := slog.LevelDebug
		if step := int(percent) / 10; step != lastStep {
			lastStep = step
			level = slog.LevelInfo
		}
		slog.Log(context.Background(), level, "torrent download progress",
			"movie_id", movieID,
			"percent", fmt.Sprintf("%.1f", percent),
			"speed", formatSpeed(bytesPerSecond),
		)
	}
}

func formatSpeed(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return "0 B/s"
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

package movies

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"thirdcoast.systems/duckflix/pkg/ffmpeg"
)

// minDurationSeconds is the shortest source accepted.
const minDurationSeconds = 2

func validateSource(pr *ffmpeg.ProbeResult) error {
	switch {
	case !pr.HasVideo():
		return &InvalidSourceError{Reason: "no video stream found"}
	case isImageFormat(pr.Format.FormatName):
		return &InvalidSourceError{Reason: "images are not supported"}
	case pr.Format.Duration < minDurationSeconds:
		return &InvalidSourceError{Reason: fmt.Sprintf("video is too short (%.1fs)", pr.Format.Duration)}
	}
	return nil
}

// ProcessMovie validates the file at req.TempPath, moves it into permanent
// storage as the movie's original version, marks the movie ready and
// schedules transcodes of the derived resolutions. It returns once the
// original is committed; transcodes run on the scheduler.
//
// The temp file never outlives a failed call.
func (p *Processor) ProcessMovie(ctx context.Context, req IngestRequest) (*Version, error) {
	probe, err := p.media.Probe(ctx, req.TempPath)
	if err != nil {
		err = &InvalidSourceError{Reason: "the file could not be read", Err: err}
	} else {
		err = validateSource(probe)
	}
	if err != nil {
		p.discard(req.TempPath)
		return nil, err
	}

	mime := MimeTypeFromFormat(probe.Format.FormatName)
	class := ClassifyMime(mime)

	original := &Version{
		ID:         uuid.New(),
		MovieID:    req.MovieID,
		Height:     probe.Height,
		IsOriginal: true,
		Status:     VersionReady,
		FileSize:   req.FileSize,
		MimeType:   mime,
	}
	if probe.Width > 0 {
		w := probe.Width
		original.Width = &w
	}
	original.StorageKey = StorageKey(req.MovieID, original.ID, sourceExtension(req.OriginalName, mime))

	dest, err := p.paths.Resolve(original.StorageKey)
	if err != nil {
		p.discard(req.TempPath)
		return nil, &SaveError{Err: err}
	}
	if err := moveFile(req.TempPath, dest); err != nil {
		p.discard(req.TempPath)
		return nil, &SaveError{Err: err}
	}

	if original.FileSize <= 0 {
		if info, err := os.Stat(dest); err == nil {
			original.FileSize = info.Size()
		}
	}

	duration := int(math.Round(probe.Format.Duration))
	if err := p.repo.CommitOriginal(ctx, original, duration); err != nil {
		p.discard(dest)
		return nil, &SaveError{Err: err}
	}

	// The original is committed; what follows must not die with the caller.
	ctx = context.WithoutCancel(ctx)

	slog.Info("original version stored",
		"movie_id", req.MovieID,
		"version_id", original.ID,
		"mime_type", mime,
		"mime_class", class,
		"height", original.Height,
		"duration_seconds", duration,
		"size", humanize.Bytes(uint64(original.FileSize)),
	)

	p.scheduleVariants(ctx, original, class)
	return original, nil
}

// scheduleVariants creates a waiting version per derived height and submits
// its transcode. It does not wait for any of them.
func (p *Processor) scheduleVariants(ctx context.Context, original *Version, class MimeClass) []*Version {
	var scheduled []*Version
	for _, h := range TargetHeights(original.Height, class) {
		v := &Version{
			ID:       uuid.New(),
			MovieID:  original.MovieID,
			Height:   h,
			Status:   VersionWaiting,
			MimeType: MimeMP4,
		}
		v.StorageKey = StorageKey(v.MovieID, v.ID, ".mp4")

		if err := p.repo.CreateVersion(ctx, v); err != nil {
			p.notifier.VersionSkipped(ctx, v, err)
			continue
		}

		taskID := p.sched.HandleWithID(v.ID.String(), p.transcodeTask(original, v))
		slog.Info("transcode scheduled",
			"movie_id", v.MovieID,
			"version_id", v.ID,
			"height", h,
			"position", p.sched.Position(taskID),
		)
		scheduled = append(scheduled, v)
	}
	return scheduled
}

// discard removes a file the workflow no longer owns.
func (p *Processor) discard(path string) {
	if err := removeQuietly(path); err != nil {
		slog.Warn("failed to remove file", "path", path, "error", err)
	}
}

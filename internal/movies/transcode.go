package movies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/duckflix/internal/metrics"
	"thirdcoast.systems/duckflix/pkg/ffmpeg"
	"thirdcoast.systems/duckflix/pkg/tasks"
)

// transcodeTask produces version v from original. Failures leave v in error
// with a notification for the owner, and are returned so the scheduler
// reports them. There is no retry.
func (p *Processor) transcodeTask(original, v *Version) tasks.Runnable {
	return func(ctx context.Context) error {
		if err := p.transcode(ctx, original, v); err != nil {
			kind := string(ffmpeg.FailureGeneric)
			var te *ffmpeg.TranscodeError
			if errors.As(err, &te) {
				kind = string(te.Kind)
			}
			var fe *ffmpeg.Error
			if errors.As(err, &fe) {
				slog.Warn("ffmpeg exited with an error",
					"version_id", v.ID,
					"exit_code", fe.ExitCode(),
					"command", fe.Command(),
				)
			}
			metrics.RecordTranscodeFailure(kind)
			p.notifier.VersionFailed(ctx, v.ID, err)
			return err
		}
		p.notifier.TaskCompleted(ctx, v)
		return nil
	}
}

func (p *Processor) transcode(ctx context.Context, original, v *Version) error {
	if err := p.repo.SetVersionStatus(ctx, v.ID, VersionProcessing); err != nil {
		return fmt.Errorf("set version processing: %w", err)
	}
	p.notifier.TaskStarted(ctx, v)

	input, err := p.paths.Resolve(original.StorageKey)
	if err != nil {
		return err
	}
	output, err := p.paths.Resolve(v.StorageKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create version directory: %w", err)
	}

	if err := p.produce(ctx, input, output, v); err != nil {
		p.discard(output)
		return err
	}
	return nil
}

func (p *Processor) produce(ctx context.Context, input, output string, v *Version) error {
	start := time.Now()
	if _, err := p.media.Transcode(ctx, input, output, v.Height); err != nil {
		return err
	}

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("stat transcoded file: %w", err)
	}

	var width *int
	height := v.Height
	if pr, err := p.media.Probe(ctx, output); err != nil || pr.Height <= 0 {
		slog.Warn("could not measure transcoded file, keeping target height",
			"version_id", v.ID, "height", v.Height, "error", err)
	} else {
		w := pr.Width
		width, height = &w, pr.Height
	}

	if err := p.repo.MarkVersionReady(ctx, v.ID, width, height, info.Size()); err != nil {
		return fmt.Errorf("mark version ready: %w", err)
	}

	slog.Info("version ready",
		"movie_id", v.MovieID,
		"version_id", v.ID,
		"height", height,
		"size", humanize.Bytes(uint64(info.Size())),
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

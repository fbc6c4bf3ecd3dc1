package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// FailureKind classifies why a transcode failed.
type FailureKind string

const (
	FailureDiskFull      FailureKind = "disk_full"
	FailureInvalidParams FailureKind = "invalid_params"
	FailureOutOfMemory   FailureKind = "out_of_memory"
	FailureGeneric       FailureKind = "generic"
)

// TranscodeError is returned by Transcode when ffmpeg fails.
type TranscodeError struct {
	Kind   FailureKind
	Height int
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode to %dp failed (%s): %v", e.Height, e.Kind, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// UserMessage returns a message suitable for showing to the uploader.
func (e *TranscodeError) UserMessage() string {
	switch e.Kind {
	case FailureDiskFull:
		return fmt.Sprintf("Not enough disk space to create the %dp version.", e.Height)
	case FailureInvalidParams:
		return fmt.Sprintf("The video could not be encoded at %dp with the current settings.", e.Height)
	case FailureOutOfMemory:
		return fmt.Sprintf("The server ran out of memory while creating the %dp version.", e.Height)
	default:
		return fmt.Sprintf("Creating the %dp version failed.", e.Height)
	}
}

// ClassifyFailure inspects ffmpeg diagnostics for a known failure cause.
func ClassifyFailure(stderr string) FailureKind {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "no space left on device"):
		return FailureDiskFull
	case strings.Contains(s, "cannot allocate memory"),
		strings.Contains(s, "out of memory"):
		return FailureOutOfMemory
	case strings.Contains(s, "invalid argument"),
		strings.Contains(s, "error while opening encoder"),
		strings.Contains(s, "error initializing output stream"):
		return FailureInvalidParams
	default:
		return FailureGeneric
	}
}

// TranscodeCommand builds the file-to-file transcode of input to
// approximately height lines.
func TranscodeCommand(input, output string, height int) *Command {
	opts := Flatten(
		[]Option{LogLevel("error")},
		PresetStreamingH264(height),
		PresetStreamingAAC(),
		[]Option{ScaleHeight(height, "lanczos")},
	)
	return NewCommand(input, output, opts...)
}

// Transcode re-encodes input to output at height and returns output.
func (t Toolkit) Transcode(ctx context.Context, input, output string, height int) (string, error) {
	res := TranscodeCommand(input, output, height).Run(ctx, t)
	if res.Err != nil {
		return "", &TranscodeError{
			Kind:   ClassifyFailure(res.Logs),
			Height: height,
			Stderr: res.Logs,
			Err:    res.Err,
		}
	}
	return output, nil
}

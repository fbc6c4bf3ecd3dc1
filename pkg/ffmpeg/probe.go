package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Stream is one stream of a probed file.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format is the container of a probed file.
type Format struct {
	FormatName string  // comma separated demuxer names, e.g. "matroska,webm"
	Duration   float64 // seconds
	Size       int64
}

// ProbeResult is what ffprobe reports about a file. Width, Height and
// VideoCodec come from the first video stream, AudioCodec from the first
// audio stream.
type ProbeResult struct {
	Streams []Stream
	Format  Format

	Width      int
	Height     int
	VideoCodec string
	AudioCodec string

	VideoStreams int
	AudioStreams int
}

// HasVideo reports whether at least one video stream was found.
func (r *ProbeResult) HasVideo() bool {
	return r.VideoStreams > 0
}

// ProbeError is returned when ffprobe fails or prints something unreadable.
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return fmt.Sprintf("ffprobe %s: %v: %s", e.Path, e.Err, s)
	}
	return fmt.Sprintf("ffprobe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Probe inspects path with ffprobe without modifying it.
func (t Toolkit) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, t.ffprobeBin(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ProbeError{Path: path, Stderr: stderr.String(), Err: err}
	}
	res, err := ParseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	return res, nil
}

// ParseProbeOutput decodes ffprobe's JSON output. Numeric format fields that
// ffprobe omits or prints as N/A are left at zero.
func ParseProbeOutput(raw []byte) (*ProbeResult, error) {
	var out struct {
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
			Size       string `json:"size"`
		} `json:"format"`
		Streams []Stream `json:"streams"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	res := &ProbeResult{Streams: out.Streams}
	res.Format.FormatName = out.Format.FormatName
	res.Format.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	res.Format.Size, _ = strconv.ParseInt(out.Format.Size, 10, 64)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			res.VideoStreams++
			if res.VideoStreams == 1 {
				res.Width, res.Height, res.VideoCodec = s.Width, s.Height, s.CodecName
			}
		case "audio":
			res.AudioStreams++
			if res.AudioStreams == 1 {
				res.AudioCodec = s.CodecName
			}
		}
	}
	return res, nil
}

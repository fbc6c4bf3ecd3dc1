// Package ffmpeg builds and runs ffmpeg/ffprobe commands for media inspection
// and file-to-file transcoding.
package ffmpeg

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
)

// Toolkit locates the ffmpeg and ffprobe binaries. Empty paths resolve from PATH.
type Toolkit struct {
	FFmpegPath  string
	FFprobePath string
}

// DefaultToolkit resolves both binaries from PATH.
var DefaultToolkit = Toolkit{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}

func (t Toolkit) ffmpegBin() string {
	return orDefault(t.FFmpegPath, "ffmpeg")
}

func (t Toolkit) ffprobeBin() string {
	return orDefault(t.FFprobePath, "ffprobe")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Command is a single-input, single-output ffmpeg invocation.
type Command struct {
	input   string
	output  string
	global  []string
	codec   []string
	filters []string
}

// Option modifies a Command. The argument order ffmpeg receives does not
// depend on the order options are applied in.
type Option func(cmd *Command)

// NewCommand creates a command reading input and writing output.
func NewCommand(input, output string, opts ...Option) *Command {
	cmd := &Command{input: input, output: output}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

// Build returns the ffmpeg argument list.
func (c *Command) Build() []string {
	args := append([]string{"-hide_banner", "-y"}, c.global...)
	args = append(args, "-i", c.input)
	args = append(args, c.codec...)
	if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}
	if isProgressive(c.output) {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, c.output)
}

// isProgressive reports whether the output container wants its index up
// front for playback during download.
func isProgressive(output string) bool {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

// Run executes the command with tk's ffmpeg.
func (c *Command) Run(ctx context.Context, tk Toolkit) RunResult {
	return run(ctx, tk.ffmpegBin(), c.Build())
}

func codecArgs(args ...string) Option {
	return func(cmd *Command) { cmd.codec = append(cmd.codec, args...) }
}

// VideoCodec sets -c:v.
func VideoCodec(codec string) Option { return codecArgs("-c:v", codec) }

// CRF sets the constant rate factor.
func CRF(value int) Option { return codecArgs("-crf", strconv.Itoa(value)) }

// Preset sets the x264 preset.
func Preset(name string) Option { return codecArgs("-preset", name) }

// PixelFormat sets -pix_fmt.
func PixelFormat(pf string) Option { return codecArgs("-pix_fmt", pf) }

// MaxRate caps the video bitrate with the given VBV buffer.
func MaxRate(rate, bufsize string) Option {
	return codecArgs("-maxrate", rate, "-bufsize", bufsize)
}

// AudioCodec sets -c:a.
func AudioCodec(codec string) Option { return codecArgs("-c:a", codec) }

// AudioBitrate sets -b:a.
func AudioBitrate(bitrate string) Option { return codecArgs("-b:a", bitrate) }

// Filter appends a video filter to the -vf chain.
func Filter(f string) Option {
	return func(cmd *Command) { cmd.filters = append(cmd.filters, f) }
}

// LogLevel sets -loglevel.
func LogLevel(level string) Option {
	return func(cmd *Command) { cmd.global = append(cmd.global, "-loglevel", level) }
}

// Flatten merges option groups in order.
func Flatten(groups ...[]Option) []Option {
	var all []Option
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

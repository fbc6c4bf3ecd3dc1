package ffmpeg

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keepFiles = flag.Bool("keep", false, "keep generated test files for inspection")

const sampleProbeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio", "codec_name": "aac"},
    {"index": 2, "codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 240}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.480000", "size": "1048576"}
}`

// fakeBinary writes an executable shell script standing in for ffmpeg/ffprobe.
func fakeBinary(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		output   string
		opts     []Option
		wantArgs []string
	}{
		{
			name:   "simple copy",
			input:  "input.mkv",
			output: "output.mp4",
			opts:   []Option{VideoCodec("copy")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "input.mkv",
				"-c:v", "copy",
				"-movflags", "+faststart",
				"output.mp4",
			},
		},
		{
			name:   "no faststart for mkv",
			input:  "input.mp4",
			output: "output.mkv",
			opts:   []Option{VideoCodec("copy"), LogLevel("error")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-loglevel", "error",
				"-i", "input.mp4",
				"-c:v", "copy",
				"output.mkv",
			},
		},
		{
			name:   "filters are joined",
			input:  "in.mp4",
			output: "out.mp4",
			opts:   []Option{ScaleHeight(720, ""), Filter("fps=30")},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-vf", "scale=-2:720,fps=30",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCommand(tt.input, tt.output, tt.opts...).Build()
			assert.Equal(t, tt.wantArgs, got)
		})
	}
}

func TestTranscodeCommand(t *testing.T) {
	got := TranscodeCommand("source.mkv", "variant.mp4", 1080).Build()
	want := []string{
		"-hide_banner", "-y",
		"-loglevel", "error",
		"-i", "source.mkv",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-maxrate", "4M", "-bufsize", "8M",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-vf", "scale=-2:1080:flags=lanczos",
		"-movflags", "+faststart",
		"variant.mp4",
	}
	assert.Equal(t, want, got)
}

func TestBitrateFor(t *testing.T) {
	tests := []struct {
		height int
		want   Bitrate
	}{
		{2160, Bitrate{"12M", "24M"}},
		{1440, Bitrate{"8M", "16M"}},
		{1080, Bitrate{"4M", "8M"}},
		{720, Bitrate{"2M", "4M"}},
		{480, Bitrate{"1M", "2M"}},
		{360, Bitrate{"2M", "4M"}},
		{1000, Bitrate{"2M", "4M"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BitrateFor(tt.height), "height %d", tt.height)
	}
}

func TestScaleFilter(t *testing.T) {
	assert.Equal(t, "scale=-2:720", ScaleFilter{Width: -2, Height: 720}.String())
	assert.Equal(t, "scale=-2:480:flags=lanczos", ScaleFilter{Width: -2, Height: 480, Flags: "lanczos"}.String())
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		stderr string
		want   FailureKind
	}{
		{"av_interleaved_write_frame(): No space left on device", FailureDiskFull},
		{"[libx264 @ 0x1] malloc failed: Cannot allocate memory", FailureOutOfMemory},
		{"x264 [error]: out of memory", FailureOutOfMemory},
		{"Error while opening encoder for output stream #0:0", FailureInvalidParams},
		{"[out] Invalid argument", FailureInvalidParams},
		{"Conversion failed!", FailureGeneric},
		{"", FailureGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyFailure(tt.stderr), tt.stderr)
	}
}

func TestTranscodeErrorUserMessage(t *testing.T) {
	err := &TranscodeError{Kind: FailureDiskFull, Height: 720}
	assert.Contains(t, err.UserMessage(), "disk space")
	assert.Contains(t, err.UserMessage(), "720p")

	generic := &TranscodeError{Kind: FailureGeneric, Height: 1080}
	assert.Equal(t, "Creating the 1080p version failed.", generic.UserMessage())
}

func TestParseProbeOutput(t *testing.T) {
	res, err := ParseProbeOutput([]byte(sampleProbeJSON))
	require.NoError(t, err)

	assert.Len(t, res.Streams, 3)
	assert.True(t, res.HasVideo())
	assert.Equal(t, 2, res.VideoStreams)
	assert.Equal(t, 1, res.AudioStreams)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1080, res.Height)
	assert.Equal(t, "h264", res.VideoCodec)
	assert.Equal(t, "aac", res.AudioCodec)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", res.Format.FormatName)
	assert.InDelta(t, 12.48, res.Format.Duration, 0.001)
	assert.Equal(t, int64(1048576), res.Format.Size)
}

func TestParseProbeOutputRejectsGarbage(t *testing.T) {
	_, err := ParseProbeOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestToolkitProbe(t *testing.T) {
	bin := fakeBinary(t, "ffprobe", "cat <<'EOF'\n"+sampleProbeJSON+"\nEOF")
	tk := Toolkit{FFprobePath: bin}

	res, err := tk.Probe(context.Background(), "whatever.mp4")
	require.NoError(t, err)
	assert.Equal(t, 1080, res.Height)
}

func TestToolkitProbeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non-zero exit", "echo 'moov atom not found' >&2; exit 1"},
		{"unparseable output", "echo 'garbage'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := Toolkit{FFprobePath: fakeBinary(t, "ffprobe", tt.body)}
			_, err := tk.Probe(context.Background(), "broken.mp4")
			var pe *ProbeError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "broken.mp4", pe.Path)
		})
	}
}

func TestToolkitTranscodeClassifiesFailure(t *testing.T) {
	bin := fakeBinary(t, "ffmpeg", "echo 'frame=  10 fps=0.0'>&2; echo 'av_interleaved_write_frame(): No space left on device' >&2; exit 1")
	tk := Toolkit{FFmpegPath: bin}

	out, err := tk.Transcode(context.Background(), "in.mp4", "out.mp4", 720)
	assert.Empty(t, out)

	var te *TranscodeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, FailureDiskFull, te.Kind)
	assert.Equal(t, 720, te.Height)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.ExitCode())
	assert.Contains(t, fe.Error(), "No space left on device")
	assert.Equal(t, "ffmpeg "+strings.Join(TranscodeCommand("in.mp4", "out.mp4", 720).Build(), " "), fe.Command())
}

func TestToolkitTranscodeSuccess(t *testing.T) {
	bin := fakeBinary(t, "ffmpeg", "exit 0")
	tk := Toolkit{FFmpegPath: bin}

	out, err := tk.Transcode(context.Background(), "in.mp4", "out.mp4", 480)
	require.NoError(t, err)
	assert.Equal(t, "out.mp4", out)
}

func TestToolkitMissingBinary(t *testing.T) {
	tk := Toolkit{FFmpegPath: filepath.Join(t.TempDir(), "nope")}
	_, err := tk.Transcode(context.Background(), "in.mp4", "out.mp4", 480)

	var te *TranscodeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, FailureGeneric, te.Kind)
}

// =============================================================================
// Integration tests - require ffmpeg to be installed
// =============================================================================

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}

func artifactDir(t *testing.T) string {
	t.Helper()
	if !*keepFiles {
		return t.TempDir()
	}
	dir := filepath.Join(".", "testdata", "artifacts", t.Name())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	t.Logf("Keeping test files in: %s", dir)
	return dir
}

// generateTestVideo creates a 320x240 test pattern with a sine tone.
func generateTestVideo(t *testing.T, dir string, seconds int) string {
	t.Helper()

	output := filepath.Join(dir, "test_input.mkv")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dur := time.Duration(seconds) * time.Second
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "testsrc2=duration=" + dur.String() + ":size=320x240:rate=30",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=" + dur.String(),
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "28",
		"-c:a", "aac", "-b:a", "64k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		output,
	}

	proc, err := Start(ctx, "ffmpeg", args)
	require.NoError(t, err, "failed to generate test video")
	require.NoError(t, proc.Wait(), "failed to generate test video, stderr: %s", proc.Stderr())
	return output
}

func TestIntegration_ProbeAndTranscode(t *testing.T) {
	requireFFmpeg(t)

	dir := artifactDir(t)
	input := generateTestVideo(t, dir, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	src, err := DefaultToolkit.Probe(ctx, input)
	require.NoError(t, err)
	assert.True(t, src.HasVideo())
	assert.Equal(t, 240, src.Height)
	assert.Contains(t, src.Format.FormatName, "matroska")
	assert.InDelta(t, 3.0, src.Format.Duration, 0.5)

	out := filepath.Join(dir, "variant.mp4")
	got, err := DefaultToolkit.Transcode(ctx, input, out, 120)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	variant, err := DefaultToolkit.Probe(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 120, variant.Height)
	assert.Equal(t, 160, variant.Width)
	assert.Equal(t, "h264", variant.VideoCodec)
	assert.Equal(t, "aac", variant.AudioCodec)
}

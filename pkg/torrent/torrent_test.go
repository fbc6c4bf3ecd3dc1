package torrent

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestValidateSize(t *testing.T) {
	dir := t.TempDir()
	const limit = 2 << 20

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"small", 4096, false},
		{"just under", limit - 1, false},
		{"at limit", limit, true},
		{"three megabytes", 3 << 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".torrent")
			writeFile(t, path, tt.size)

			err := ValidateSize(path, limit)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var tl *TooLargeError
			require.ErrorAs(t, err, &tl)
			assert.Equal(t, int64(tt.size), tl.Size)
			assert.Equal(t, int64(limit), tl.Max)
		})
	}
}

func TestValidateSizeMissingFile(t *testing.T) {
	err := ValidateSize(filepath.Join(t.TempDir(), "missing.torrent"), 1024)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLargestFile(t *testing.T) {
	tests := []struct {
		name   string
		files  []File
		want   string
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"single", []File{{"a.mkv", 10}}, "a.mkv", true},
		{"largest in middle", []File{{"a.nfo", 1}, {"b.mkv", 900}, {"c.srt", 40}}, "b.mkv", true},
		{"tie keeps first", []File{{"a.mp4", 500}, {"b.mp4", 500}, {"c.txt", 3}}, "a.mp4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LargestFile(tt.files)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Path)
		})
	}
}

// makeDescriptor writes a .torrent describing a single file and returns its
// path. The described file sits next to it, so downloading into
// filepath.Dir(descriptor) completes without peers.
func makeDescriptor(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte("duckflix"), 8*1024), 0o644))

	info := metainfo.Info{PieceLength: 16 * 1024}
	require.NoError(t, info.BuildFromFilePath(src))

	var mi metainfo.MetaInfo
	var err error
	mi.InfoBytes, err = bencode.Marshal(info)
	require.NoError(t, err)

	descriptor := filepath.Join(dir, "movie.torrent")
	f, err := os.Create(descriptor)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, mi.Write(f))
	return descriptor
}

func TestDownloadWithoutPeers(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a swarm client")
	}

	cl, err := NewClient(Config{
		DataDir:      t.TempDir(),
		ListenPort:   0,
		StallTimeout: 300 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		Offline:      true,
	})
	require.NoError(t, err)
	defer cl.Close()

	var calls int
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d, err := cl.Download(ctx, makeDescriptor(t), filepath.Join(t.TempDir(), "session"), func(percent float64, _ int64) {
		calls++
		assert.Less(t, percent, 100.0)
	})
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrNoPeers)
	assert.Positive(t, calls)
}

func TestDownloadRejectsInvalidDescriptor(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a swarm client")
	}

	cl, err := NewClient(Config{DataDir: t.TempDir(), Offline: true})
	require.NoError(t, err)
	defer cl.Close()

	bad := filepath.Join(t.TempDir(), "bad.torrent")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not bencode"), 0o644))

	_, err = cl.Download(context.Background(), bad, t.TempDir(), nil)
	assert.ErrorContains(t, err, "load torrent descriptor")
}

func TestDownloadRefusesSecondSessionForSameTorrent(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a swarm client")
	}

	cl, err := NewClient(Config{
		DataDir:      t.TempDir(),
		StallTimeout: 5 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Offline:      true,
	})
	require.NoError(t, err)
	defer cl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	descriptor := makeDescriptor(t)
	first, err := cl.Download(ctx, descriptor, filepath.Dir(descriptor), nil)
	require.NoError(t, err)
	defer first.Close()
	require.Len(t, first.Files, 1)

	second := filepath.Join(t.TempDir(), "session")
	d, err := cl.Download(ctx, descriptor, second, nil)
	assert.Nil(t, d)
	require.ErrorIs(t, err, ErrAlreadyDownloading)

	// The first session is untouched.
	_, err = os.Stat(first.Files[0].Path)
	assert.NoError(t, err)
}

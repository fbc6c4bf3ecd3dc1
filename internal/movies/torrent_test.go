package movies

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/duckflix/pkg/torrent"
)

func writeDescriptor(t *testing.T, e *testEnv, size int) string {
	t.Helper()
	path := filepath.Join(e.paths.Uploads, "movie.torrent")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestProcessTorrentRejectsOversizeDescriptor(t *testing.T) {
	e := newTestEnv(t, newFakeMedia(1280, 720, "mov,mp4,m4a,3gp,3g2,mj2"))
	m := e.newMovie(t)
	descriptor := writeDescriptor(t, e, 3<<20)

	_, err := e.proc.ProcessTorrent(context.Background(), TorrentRequest{MovieID: m.ID, DescriptorPath: descriptor})

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	var tooLarge *torrent.TooLargeError
	assert.ErrorAs(t, err, &tooLarge)
	assert.Zero(t, e.swarm.callCount())
	assert.NoFileExists(t, descriptor)
}

func TestProcessTorrentIngestsLargestFile(t *testing.T) {
	e := newTestEnv(t, newFakeMedia(1920, 1080, "matroska,webm"))
	e.swarm.files = map[string]int{
		"Duck Soup (1933)/Duck.Soup.1933.mkv": 8192,
		"Duck Soup (1933)/sample.mkv":         1024,
		"Duck Soup (1933)/info.nfo":           12,
	}
	m := e.newMovie(t)
	descriptor := writeDescriptor(t, e, 2048)

	orig, err := e.proc.ProcessTorrent(context.Background(), TorrentRequest{MovieID: m.ID, DescriptorPath: descriptor})
	require.NoError(t, err)
	e.settle(t)

	assert.Equal(t, 1, e.swarm.callCount())
	assert.NoFileExists(t, descriptor)
	assert.NoDirExists(t, filepath.Join(e.paths.Downloads, m.ID.String()))
	assert.NoFileExists(t, filepath.Join(e.paths.Downloads, m.ID.String()+"-torrent.mkv"))

	assert.True(t, orig.IsOriginal)
	assert.EqualValues(t, 8192, orig.FileSize)
	assert.Equal(t, ".mkv", filepath.Ext(orig.StorageKey))
	assert.Equal(t, MovieReady, e.repo.movie(t, m.ID).Status)
	assert.Len(t, e.repo.versionsOf(m.ID), 3)
}

func TestProcessTorrentDownloadFailure(t *testing.T) {
	e := newTestEnv(t, newFakeMedia(1280, 720, "mov,mp4,m4a,3gp,3g2,mj2"))
	e.swarm.err = torrent.ErrNoPeers
	m := e.newMovie(t)
	descriptor := writeDescriptor(t, e, 2048)

	_, err := e.proc.ProcessTorrent(context.Background(), TorrentRequest{MovieID: m.ID, DescriptorPath: descriptor})

	var dlErr *TorrentDownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, TorrentNoSeeders, dlErr.Kind)
	assert.NoFileExists(t, descriptor)
	assert.NoDirExists(t, filepath.Join(e.paths.Downloads, m.ID.String()))
}

func TestProcessTorrentWithoutFiles(t *testing.T) {
	e := newTestEnv(t, newFakeMedia(1280, 720, "mov,mp4,m4a,3gp,3g2,mj2"))
	m := e.newMovie(t)

	_, err := e.proc.ProcessTorrent(context.Background(), TorrentRequest{
		MovieID:        m.ID,
		DescriptorPath: writeDescriptor(t, e, 100),
	})
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.NoDirExists(t, filepath.Join(e.paths.Downloads, m.ID.String()))
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "0 B/s", formatSpeed(0))
	assert.Equal(t, "1.5 MB/s", formatSpeed(1_500_000))
}

// Package torrent wraps an anacrolix/torrent client for one-shot downloads of
// a descriptor's content into a caller-owned directory.
package torrent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/anacrolix/torrent/storage"
)

var (
	// ErrNoPeers is returned when a download makes no progress within the
	// stall timeout and no peer is connected.
	ErrNoPeers = errors.New("torrent: no peers available")
	// ErrStalled is returned when peers are connected but nothing arrives
	// within the stall timeout.
	ErrStalled = errors.New("torrent: download stalled")
	// ErrAlreadyDownloading is returned when the client already holds a
	// torrent with the same infohash. Each download owns its directory, so
	// the second request is refused instead of sharing the first one's.
	ErrAlreadyDownloading = errors.New("torrent: already downloading")
)

// Progress is called periodically with the completed percentage (0-100) and
// the current download speed.
type Progress func(percent float64, bytesPerSecond int64)

// Config configures a Client.
type Config struct {
	// DataDir holds the client's default storage. Downloads go to the
	// directory passed to Download instead.
	DataDir      string
	ListenPort   int
	StallTimeout time.Duration
	PollInterval time.Duration
	// Offline disables DHT, trackers and PEX. Only useful in tests.
	Offline bool
}

// Client is a swarm client. It must be closed when no longer needed.
type Client struct {
	cl           *torrent.Client
	stallTimeout time.Duration
	pollInterval time.Duration
}

// NewClient starts a swarm client listening on cfg.ListenPort.
func NewClient(cfg Config) (*Client, error) {
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = 10 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create torrent data dir: %w", err)
	}

	tc := torrent.NewDefaultClientConfig()
	tc.DataDir = cfg.DataDir
	tc.DefaultStorage = fileStorage(cfg.DataDir)
	tc.ListenPort = cfg.ListenPort
	tc.Seed = false
	if cfg.Offline {
		tc.NoDHT = true
		tc.DisableTrackers = true
		tc.DisablePEX = true
	}

	cl, err := torrent.NewClient(tc)
	if err != nil {
		return nil, fmt.Errorf("start torrent client: %w", err)
	}
	return &Client{
		cl:           cl,
		stallTimeout: cfg.StallTimeout,
		pollInterval: cfg.PollInterval,
	}, nil
}

// Close stops the client and all active torrents.
func (c *Client) Close() error {
	return errors.Join(c.cl.Close()...)
}

// File is one file of a completed download. Path is absolute.
type File struct {
	Path string
	Size int64
}

// Download is a completed download. Close releases the swarm handle; it does
// not remove any files.
type Download struct {
	Dir   string
	Files []File

	t     *torrent.Torrent
	store storage.ClientImplCloser
}

// Close drops the torrent from the client and closes its storage.
func (d *Download) Close() error {
	d.t.Drop()
	return d.store.Close()
}

func fileStorage(dir string) storage.ClientImplCloser {
	return storage.NewFileOpts(storage.NewFileClientOpts{
		ClientBaseDir:   dir,
		PieceCompletion: storage.NewMapPieceCompletion(),
	})
}

// Download fetches the content described by the descriptor at
// descriptorPath into dir and blocks until it is complete, ctx is done or
// the download stalls.
func (c *Client) Download(ctx context.Context, descriptorPath, dir string, onProgress Progress) (*Download, error) {
	mi, err := metainfo.LoadFromFile(descriptorPath)
	if err != nil {
		return nil, fmt.Errorf("load torrent descriptor: %w", err)
	}
	spec, err := torrent.TorrentSpecFromMetaInfoErr(mi)
	if err != nil {
		return nil, fmt.Errorf("parse torrent descriptor: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	store := fileStorage(dir)
	spec.Storage = store

	t, isNew, err := c.cl.AddTorrentSpec(spec)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("add torrent: %w", err)
	}
	if !isNew {
		store.Close()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyDownloading, spec.InfoHash.HexString())
	}

	d := &Download{Dir: dir, t: t, store: store}
	if err := c.await(ctx, t, onProgress); err != nil {
		d.Close()
		return nil, err
	}

	for _, f := range t.Files() {
		d.Files = append(d.Files, File{
			Path: filepath.Join(dir, filepath.FromSlash(f.Path())),
			Size: f.Length(),
		})
	}
	return d, nil
}

func (c *Client) await(ctx context.Context, t *torrent.Torrent, onProgress Progress) error {
	select {
	case <-t.GotInfo():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.stallTimeout):
		return ErrNoPeers
	}

	t.DownloadAll()
	total := t.Length()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	last := t.BytesCompleted()
	lastTick := time.Now()
	lastProgress := lastTick

	for {
		if last >= total {
			if onProgress != nil {
				onProgress(100, 0)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			done := t.BytesCompleted()
			elapsed := now.Sub(lastTick).Seconds()

			var speed int64
			if elapsed > 0 {
				speed = int64(float64(done-last) / elapsed)
			}
			if onProgress != nil && total > 0 {
				onProgress(float64(done)*100/float64(total), speed)
			}

			if done > last {
				lastProgress = now
			} else if now.Sub(lastProgress) >= c.stallTimeout {
				if t.Stats().ActivePeers == 0 {
					return ErrNoPeers
				}
				slog.Warn("torrent download stalled", "name", t.Name(), "bytes_completed", done)
				return ErrStalled
			}

			last = done
			lastTick = now
		}
	}
}

// TooLargeError is returned by ValidateSize.
type TooLargeError struct {
	Size int64
	Max  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("torrent descriptor is %d bytes, limit is %d", e.Size, e.Max)
}

// ValidateSize checks that the file at path is strictly smaller than limit bytes.
func ValidateSize(path string, limit int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat torrent descriptor: %w", err)
	}
	if info.Size() >= limit {
		return &TooLargeError{Size: info.Size(), Max: limit}
	}
	return nil
}

// LargestFile returns the largest file. Among files of equal size the first
// wins. ok is false when files is empty.
func LargestFile(files []File) (largest File, ok bool) {
	for i, f := range files {
		if i == 0 || f.Size > largest.Size {
			largest = f
		}
	}
	return largest, len(files) > 0
}

package movies

import (
	"context"

	"thirdcoast.systems/duckflix/internal/config"
	"thirdcoast.systems/duckflix/pkg/ffmpeg"
	"thirdcoast.systems/duckflix/pkg/tasks"
	"thirdcoast.systems/duckflix/pkg/torrent"
)

// MediaToolkit inspects and transcodes media files. ffmpeg.Toolkit
// satisfies it.
type MediaToolkit interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	Transcode(ctx context.Context, input, output string, height int) (string, error)
}

// Swarm downloads a torrent's content into dir.
type Swarm interface {
	Download(ctx context.Context, descriptorPath, dir string, onProgress torrent.Progress) (Transfer, error)
}

// Transfer is a completed swarm download.
type Transfer interface {
	Files() []torrent.File
	Close() error
}

type swarmClient struct {
	cl *torrent.Client
}

// NewSwarm adapts a torrent client to Swarm.
func NewSwarm(cl *torrent.Client) Swarm {
	return swarmClient{cl: cl}
}

func (s swarmClient) Download(ctx context.Context, descriptorPath, dir string, onProgress torrent.Progress) (Transfer, error) {
	d, err := s.cl.Download(ctx, descriptorPath, dir, onProgress)
	if err != nil {
		return nil, err
	}
	return transfer{d: d}, nil
}

type transfer struct {
	d *torrent.Download
}

func (t transfer) Files() []torrent.File { return t.d.Files }
func (t transfer) Close() error          { return t.d.Close() }

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	Paths           config.Paths
	TorrentMaxBytes int64
}

// Processor runs the ingestion, transcode and torrent workflows.
type Processor struct {
	repo     Repository
	media    MediaToolkit
	swarm    Swarm
	sched    *tasks.Handler
	notifier *Notifier

	paths           config.Paths
	torrentMaxBytes int64
}

func NewProcessor(repo Repository, media MediaToolkit, swarm Swarm, sched *tasks.Handler, notifier *Notifier, cfg ProcessorConfig) *Processor {
	if cfg.TorrentMaxBytes <= 0 {
		cfg.TorrentMaxBytes = 2 << 20
	}
	return &Processor{
		repo:            repo,
		media:           media,
		swarm:           swarm,
		sched:           sched,
		notifier:        notifier,
		paths:           cfg.Paths,
		torrentMaxBytes: cfg.TorrentMaxBytes,
	}
}

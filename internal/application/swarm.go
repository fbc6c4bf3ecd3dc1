package application

import (
	"log/slog"

	"thirdcoast.systems/duckflix/internal/config"
	"thirdcoast.systems/duckflix/pkg/torrent"
)

// InitSwarmClient starts the process-wide torrent client. The caller owns it
// and must Close it at shutdown.
func InitSwarmClient(conf config.Config) (*torrent.Client, error) {
	paths := conf.Paths()
	cl, err := torrent.NewClient(torrent.Config{
		DataDir:      paths.Downloads,
		ListenPort:   conf.TorrentListenPort,
		StallTimeout: conf.TorrentStallTimeout,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Torrent client started", "listen_port", conf.TorrentListenPort, "data_dir", paths.Downloads)
	return cl, nil
}

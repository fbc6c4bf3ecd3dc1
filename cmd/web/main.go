package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"thirdcoast.systems/duckflix/cmd/web/internal/web"
	"thirdcoast.systems/duckflix/internal/application"
	"thirdcoast.systems/duckflix/internal/config"
	"thirdcoast.systems/duckflix/internal/db"
	"thirdcoast.systems/duckflix/internal/metrics"
	"thirdcoast.systems/duckflix/internal/movies"
	"thirdcoast.systems/duckflix/pkg/ffmpeg"
	"thirdcoast.systems/duckflix/pkg/tasks"
)

const (
	// stuckMovieGrace is how old a processing movie without an original must
	// be before startup recovery fails it.
	stuckMovieGrace = time.Hour
	drainTimeout    = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("web service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.Info("Starting web service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	application.InitLogger(os.Stdout, conf.LogLevel)

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		return fmt.Errorf("create database connection: %w", err)
	}
	defer dbc.Close()

	if err := dbc.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	paths := conf.Paths()
	for _, dir := range []string{paths.Storage, paths.Uploads, paths.Downloads} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	swarmClient, err := application.InitSwarmClient(*conf)
	if err != nil {
		return fmt.Errorf("start torrent client: %w", err)
	}
	defer func() {
		if err := swarmClient.Close(); err != nil {
			slog.Warn("failed to close torrent client", "error", err)
		}
	}()

	// Background work outlives the signal context so shutdown can drain it.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	sched := tasks.New(workCtx, tasks.Config{MaxConcurrent: conf.ProcessingConcurrency})
	if err := metrics.RegisterScheduler(prometheus.DefaultRegisterer, sched); err != nil {
		return fmt.Errorf("register scheduler metrics: %w", err)
	}

	repo := movies.NewPostgresRepository(dbc)
	notifier := movies.NewNotifier(repo)
	toolkit := ffmpeg.Toolkit{FFmpegPath: conf.FFmpegPath, FFprobePath: conf.FFprobePath}
	proc := movies.NewProcessor(repo, toolkit, movies.NewSwarm(swarmClient), sched, notifier, movies.ProcessorConfig{
		Paths:           paths,
		TorrentMaxBytes: conf.TorrentMaxBytes,
	})
	svc := movies.NewService(workCtx, repo, proc, notifier)

	if err := svc.RecoverStuck(ctx, stuckMovieGrace); err != nil {
		return err
	}

	e, err := web.NewWebserver(web.Options{
		Service:   svc,
		Scheduler: sched,
		UploadDir: paths.Uploads,
		BodyLimit: conf.UploadLimitBytes(),
	})
	if err != nil {
		return fmt.Errorf("create webserver: %w", err)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metrics.ObserveTasks(gctx, sched.Subscribe())
	})
	g.Go(func() error {
		slog.Info("Listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	serveErr := g.Wait()

	slog.Info("Draining background work", "timeout", drainTimeout)
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := svc.Wait(drainCtx); err != nil {
		slog.Warn("detached work still running at shutdown", "error", err)
	}
	if err := sched.Wait(drainCtx); err != nil {
		stats := sched.Stats()
		slog.Warn("transcodes still running at shutdown", "running", stats.Running, "pending", stats.Pending)
	}
	cancelWork()

	return serveErr
}

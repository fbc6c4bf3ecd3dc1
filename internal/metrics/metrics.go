// Package metrics exposes Prometheus instruments for the ingestion pipeline.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"thirdcoast.systems/duckflix/pkg/tasks"
)

var (
	TaskEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duckflix_task_events_total",
		Help: "Scheduler lifecycle events by type",
	}, []string{"event"})

	IngestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duckflix_ingestions_total",
		Help: "Finished ingestion workflows by source and result",
	}, []string{"source", "result"})

	TranscodeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duckflix_transcode_failures_total",
		Help: "Failed variant transcodes by classified cause",
	}, []string{"kind"})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duckflix_notification_failures_total",
		Help: "Bookkeeping writes swallowed by the notifier",
	})

	TorrentBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duckflix_torrent_downloaded_bytes_total",
		Help: "Bytes of main files acquired from torrent downloads",
	})
)

// RecordIngestion counts a finished ingestion workflow.
func RecordIngestion(source string, err error) {
	if source == "" {
		source = "unknown"
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	IngestionsTotal.WithLabelValues(source, result).Inc()
}

// RecordTranscodeFailure counts a failed variant by cause.
func RecordTranscodeFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	TranscodeFailuresTotal.WithLabelValues(kind).Inc()
}

// RegisterScheduler exposes the handler's running and pending counts as
// gauges on reg.
func RegisterScheduler(reg prometheus.Registerer, h *tasks.Handler) error {
	running := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "duckflix_tasks_running",
		Help: "Tasks occupying a worker slot",
	}, func() float64 { return float64(h.Stats().Running) })

	pending := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "duckflix_tasks_pending",
		Help: "Tasks waiting for a worker slot",
	}, func() float64 { return float64(h.Stats().Pending) })

	slots := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "duckflix_tasks_slots",
		Help: "Configured worker slots",
	}, func() float64 { return float64(h.MaxConcurrent()) })

	for _, c := range []prometheus.Collector{running, pending, slots} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveTasks counts scheduler events until ctx is done or the subscription
// is closed.
func ObserveTasks(ctx context.Context, sub *tasks.Subscription) error {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			TaskEventsTotal.WithLabelValues(ev.Type.String()).Inc()
		}
	}
}

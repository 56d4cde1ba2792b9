package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"imdiekejordan/auctionworker/internal/scraper"
	"imdiekejordan/auctionworker/logger"
	apperr "imdiekejordan/auctionworker/pkg/errors"
	"imdiekejordan/auctionworker/services/publisher"
	"imdiekejordan/auctionworker/services/store"
)

// BatchRunner is the piece of the scraping core the worker drives.
type BatchRunner interface {
	Run(ctx context.Context) scraper.Dataset
}

// Worker drives the batch runner on a schedule and hands the result to the
// persistence and publishing collaborators.
type Worker struct {
	runner   BatchRunner
	store    store.Store
	pub      publisher.Publisher
	interval time.Duration

	running atomic.Bool
	trigger chan struct{}
}

// NewWorker creates a new worker. pub may be nil to disable publishing.
func NewWorker(runner BatchRunner, st store.Store, pub publisher.Publisher, interval time.Duration) *Worker {
	return &Worker{
		runner:   runner,
		store:    st,
		pub:      pub,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs batches until the context is cancelled. Between scheduled runs
// it also reacts to TriggerRun signals.
func (w *Worker) Start(ctx context.Context) error {
	log := logger.ForWorker()
	for {
		start := time.Now()
		if err := w.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("run failed")
		}
		log.Info().Dur("elapsed", time.Since(start)).Msg("run finished")

		select {
		case <-ctx.Done():
			return nil
		case <-w.trigger:
		case <-time.After(w.interval):
		}
	}
}

// RunOnce executes a single batch: scrape, persist, publish. The batch
// itself cannot fail; only a persistence failure is returned. Publish
// failures are logged and do not fail the run.
func (w *Worker) RunOnce(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return apperr.NewDispatch("a run is already in progress", nil)
	}
	defer w.running.Store(false)

	log := logger.ForWorker()
	dataset := w.runner.Run(ctx)

	if err := w.store.Put(ctx, &dataset); err != nil {
		return err
	}

	if w.pub != nil {
		for i := range dataset.Items {
			data, err := json.Marshal(&dataset.Items[i])
			if err != nil {
				log.Error().Err(err).Str("url", dataset.Items[i].URL).Msg("encode item")
				continue
			}
			if err := w.pub.Publish(dataset.Items[i].URL, data); err != nil {
				log.Error().Err(err).Str("url", dataset.Items[i].URL).Msg("publish item")
			}
		}
		if err := w.pub.Trim(); err != nil {
			log.Error().Err(err).Msg("trim stream")
		}
	}

	return nil
}

// IsRunInProgress reports whether a batch is currently executing.
func (w *Worker) IsRunInProgress() bool {
	return w.running.Load()
}

// TriggerRun requests an immediate run. The signal coalesces: triggering
// while a trigger is already pending is a no-op.
func (w *Worker) TriggerRun() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

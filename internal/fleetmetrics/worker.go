package fleetmetrics

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/soildata/internal/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minInterval = 10 * time.Second

// Worker refreshes the fleet gauges and pushes them on a fixed interval.
// Failures are logged and retried on the next tick.
type Worker struct {
	db       *gorm.DB
	gauges   *Gauges
	pusher   Pusher
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewWorker(db *gorm.DB, gauges *Gauges, pusher Pusher, clk clock.Clock, interval time.Duration, log *zap.Logger) *Worker {
	if interval < minInterval {
		interval = minInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		db:       db,
		gauges:   gauges,
		pusher:   pusher,
		clock:    clk,
		interval: interval,
		log:      log.Named("fleetmetrics"),
	}
}

func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.Info("worker started", zap.Duration("interval", w.interval))
		w.Tick(ctx)
		for {
			select {
			case <-ticker.C:
				w.Tick(ctx)
			case <-ctx.Done():
				w.log.Info("worker stopped")
				return
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
	})
	if w.done == nil {
		return nil
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick runs one refresh and push. It reports whether the push succeeded.
func (w *Worker) Tick(ctx context.Context) bool {
	if err := w.gauges.Refresh(ctx, w.db, w.clock.Now()); err != nil {
		w.log.Warn("refresh failed", zap.Error(err))
		return false
	}

	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := w.pusher.Push(pushCtx, w.gauges.Registry()); err != nil {
		w.log.Warn("push failed", zap.Error(err))
		return false
	}
	return true
}

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/service"
)

// OverdueSweeper periodically forces overdue tickets into DELAYED through
// the lifecycle engine. It is the only source of that state.
type OverdueSweeper struct {
	engine  *service.LifecycleService
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     config.SweeperConfig
}

// NewOverdueSweeper builds the sweeper.
func NewOverdueSweeper(engine *service.LifecycleService, logger *zap.Logger, metrics *observability.Metrics, cfg config.SweeperConfig) *OverdueSweeper {
	return &OverdueSweeper{
		engine:  engine,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Run blocks until the context is cancelled, sweeping on the configured
// interval. One sweep runs immediately at startup.
func (w *OverdueSweeper) Run(ctx context.Context) {
	if !w.cfg.Enabled {
		w.logger.Info("overdue sweeper disabled")
		return
	}
	interval := w.cfg.Interval()
	w.logger.Info("overdue sweeper started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OverdueSweeper) sweep(ctx context.Context) {
	transitioned, err := w.engine.RunOverdueSweep(ctx, time.Now())
	if err != nil {
		w.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	w.metrics.RecordSweep(transitioned)
	if transitioned > 0 {
		w.logger.Info("overdue sweep complete", zap.Int("transitioned", transitioned))
	}
}

package scheduler

import (
	"context"
	"time"

	"carmarket_backend/platform/config"
	"carmarket_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const triggerCron = "cron"

// Periodic enqueues the Market Signal Detector on its cron schedule.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, signalCfg config.MarketSignalConfig, log *logger.Logger) (*Periodic, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
		EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
			log.Error("periodic enqueue failed", "task", task.Type(), "error", err)
		},
	})

	task, err := NewDetectMarketSignalsTask(DetectMarketSignalsPayload{Trigger: triggerCron})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(signalCfg.GetMarketSignalCron(), task,
		asynq.Queue(queue),
		asynq.MaxRetry(1),
	)
	if err != nil {
		return nil, err
	}
	log.Info("market signal detection scheduled", "cron", signalCfg.GetMarketSignalCron(), "entry_id", entryID)

	return &Periodic{scheduler: scheduler, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}

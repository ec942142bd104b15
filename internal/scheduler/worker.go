package scheduler

import (
	"context"
	"fmt"

	enqtransport "carmarket_backend/internal/enquiries/transport"
	mstransport "carmarket_backend/internal/marketsignals/transport"
	"carmarket_backend/platform/apperr"
	"carmarket_backend/platform/config"
	"carmarket_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadEnricher runs the Lead Scorer.
type LeadEnricher interface {
	Enrich(ctx context.Context, enquiryID uuid.UUID) (enqtransport.EnrichLeadResponse, error)
}

// SignalDetector runs the Market Signal Detector.
type SignalDetector interface {
	Detect(ctx context.Context) (mstransport.DetectResponse, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	enricher LeadEnricher
	detector SignalDetector
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, enricher LeadEnricher, detector SignalDetector, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("scheduler task failed", "task", task.Type(), "error", err)
		}),
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		enricher: enricher,
		detector: detector,
		log:      log,
	}
	w.routes()
	return w, nil
}

func (w *Worker) routes() {
	w.mux.HandleFunc(TaskEnrichLead, w.handleEnrichLead)
	w.mux.HandleFunc(TaskDetectMarketSignals, w.handleDetectMarketSignals)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleEnrichLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEnrichLeadPayload(task)
	if err != nil {
		return fmt.Errorf("parse enrich payload: %v: %w", err, asynq.SkipRetry)
	}

	enquiryID, err := uuid.Parse(payload.EnquiryID)
	if err != nil {
		return fmt.Errorf("invalid enquiry id %q: %w", payload.EnquiryID, asynq.SkipRetry)
	}

	if _, err := w.enricher.Enrich(ctx, enquiryID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

func (w *Worker) handleDetectMarketSignals(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDetectMarketSignalsPayload(task)
	if err != nil {
		return fmt.Errorf("parse detect payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := w.detector.Detect(ctx)
	if err != nil {
		return err
	}
	w.log.Info("scheduled market signal run finished", "trigger", payload.Trigger, "signals_detected", result.SignalsDetected)
	return nil
}

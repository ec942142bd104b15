package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"carmarket_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	enrichMaxRetry = 3
	enrichTimeout  = 30 * time.Second
)

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.inspector != nil {
		_ = c.inspector.Close()
	}
	return c.client.Close()
}

// EnqueueLeadEnrichment queues one Lead Scorer run. A run already waiting
// or in flight for the same enquiry absorbs the request; a finished or
// archived one is replaced.
func (c *Client) EnqueueLeadEnrichment(ctx context.Context, enquiryID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewEnrichLeadTask(EnrichLeadPayload{EnquiryID: enquiryID.String()})
	if err != nil {
		return err
	}

	taskID := enrichTaskID(enquiryID)
	err = c.enqueueEnrich(ctx, task, taskID)
	if !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}

	replaced, err := c.releaseFinished(taskID)
	if err != nil || !replaced {
		return err
	}
	err = c.enqueueEnrich(ctx, task, taskID)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Another request re-queued it first.
		return nil
	}
	return err
}

func (c *Client) enqueueEnrich(ctx context.Context, task *asynq.Task, taskID string) error {
	_, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(taskID),
		asynq.MaxRetry(enrichMaxRetry),
		asynq.Timeout(enrichTimeout),
	)
	return err
}

// releaseFinished deletes the task holding taskID when it can no longer run,
// reporting whether the id is free again.
func (c *Client) releaseFinished(taskID string) (bool, error) {
	if c.inspector == nil {
		return false, nil
	}

	info, err := c.inspector.GetTaskInfo(c.queue, taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect enrich task: %w", err)
	}

	switch info.State {
	case asynq.TaskStateArchived, asynq.TaskStateCompleted:
		if err := c.inspector.DeleteTask(c.queue, taskID); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
			return false, fmt.Errorf("delete finished enrich task: %w", err)
		}
		return true, nil
	default:
		return false, nil
	}
}

func enrichTaskID(enquiryID uuid.UUID) string {
	return TaskEnrichLead + ":" + enquiryID.String()
}

func connection(cfg config.SchedulerConfig) (asynq.RedisClientOpt, string, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return asynq.RedisClientOpt{}, "", fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, "", err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return opt, queue, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

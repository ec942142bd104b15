package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct{ redisURL string }

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "scoring" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func newTestClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()
	srv := miniredis.RunT(t)
	cfg := testSchedulerConfig{redisURL: "redis://" + srv.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })
	return client, inspector
}

func queueCounts(t *testing.T, inspector *asynq.Inspector) (pending, archived int) {
	t.Helper()
	info, err := inspector.GetQueueInfo("scoring")
	if err != nil {
		t.Fatalf("queue info: %v", err)
	}
	return info.Pending, info.Archived
}

func TestEnqueueLeadEnrichmentDeduplicatesPendingRuns(t *testing.T) {
	client, inspector := newTestClient(t)
	id := uuid.New()

	for i := 0; i < 3; i++ {
		if err := client.EnqueueLeadEnrichment(context.Background(), id); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	if pending, _ := queueCounts(t, inspector); pending != 1 {
		t.Fatalf("expected one pending task, got %d", pending)
	}
}

func TestEnqueueLeadEnrichmentRequeuesArchivedRun(t *testing.T) {
	client, inspector := newTestClient(t)
	id := uuid.New()
	ctx := context.Background()

	if err := client.EnqueueLeadEnrichment(ctx, id); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := inspector.ArchiveTask("scoring", enrichTaskID(id)); err != nil {
		t.Fatalf("archive: %v", err)
	}

	if err := client.EnqueueLeadEnrichment(ctx, id); err != nil {
		t.Fatalf("second enqueue: %v", err)
	}

	pending, archived := queueCounts(t, inspector)
	if pending != 1 || archived != 0 {
		t.Fatalf("expected the archived run to be replaced, got pending=%d archived=%d", pending, archived)
	}
}

func TestEnqueueLeadEnrichmentKeepsOtherEnquiriesSeparate(t *testing.T) {
	client, inspector := newTestClient(t)
	ctx := context.Background()

	if err := client.EnqueueLeadEnrichment(ctx, uuid.New()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := client.EnqueueLeadEnrichment(ctx, uuid.New()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if pending, _ := queueCounts(t, inspector); pending != 2 {
		t.Fatalf("expected two pending tasks, got %d", pending)
	}
}

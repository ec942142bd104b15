package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carmarket_backend/internal/events"
	"carmarket_backend/internal/marketsignals/repository"
	"carmarket_backend/internal/marketsignals/signals"
	"carmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu        sync.Mutex
	counts    map[string][]signals.RawCount
	unmet     []signals.RawCount
	insertErr error
	stored    []repository.StoredSignal
	windows   []repository.Window
	deleted   time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{counts: map[string][]signals.RawCount{}}
}

func (f *fakeRepo) CountInteractions(_ context.Context, key string, _ []string, w repository.Window) ([]signals.RawCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, w)
	return f.counts[key], nil
}

func (f *fakeRepo) CountUnmetByBrand(context.Context, repository.Window) ([]signals.RawCount, error) {
	return f.unmet, nil
}

func (f *fakeRepo) InsertRun(_ context.Context, runID uuid.UUID, detectedAt, expiresAt time.Time, sigs []signals.Signal) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, s := range sigs {
		f.stored = append(f.stored, repository.StoredSignal{ID: uuid.New(), RunID: runID, Signal: s, DetectedAt: detectedAt, ExpiresAt: expiresAt})
	}
	return nil
}

func (f *fakeRepo) ListActive(_ context.Context, now time.Time, flt repository.ListFilter) ([]repository.StoredSignal, error) {
	var out []repository.StoredSignal
	for _, s := range f.stored {
		if !s.ExpiresAt.After(now) {
			continue
		}
		if flt.Type != "" && s.Type != flt.Type {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.deleted = before
	return 2, nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(repo *fakeRepo, bus events.Bus) *Service {
	svc := New(repo, signals.DefaultRules(), 7*24*time.Hour, bus, logger.Discard(), nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestDetectWithNoQualifyingEventsWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	repo.counts[repository.KeyBrand] = []signals.RawCount{{Name: "Tata", Current: 4}}
	bus := &recordingBus{}

	resp, err := newService(repo, bus).Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !resp.Success || resp.SignalsDetected != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(repo.stored) != 0 {
		t.Fatalf("expected no rows, got %d", len(repo.stored))
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected run event even for empty runs, got %d", len(bus.published))
	}
}

func TestDetectPersistsAndSummarizes(t *testing.T) {
	repo := newFakeRepo()
	repo.counts[repository.KeyBrand] = []signals.RawCount{{Name: "Hyundai", Current: 20}, {Name: "Kia", Current: 12}}
	repo.counts[repository.KeyCity] = []signals.RawCount{{Name: "Delhi", Current: 16, Previous: 20}}
	repo.unmet = []signals.RawCount{{Name: "Jeep", Current: 3}}
	bus := &recordingBus{}

	resp, err := newService(repo, bus).Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if resp.SignalsDetected != 4 || resp.TrendingBrands != 2 || resp.HotLocations != 1 || resp.InventoryGaps != 1 {
		t.Fatalf("unexpected summary %+v", resp)
	}
	if len(repo.stored) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(repo.stored))
	}
	for _, s := range repo.stored {
		if s.RunID.String() != resp.RunID {
			t.Fatalf("row run id %s does not match %s", s.RunID, resp.RunID)
		}
		if !s.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
			t.Fatalf("unexpected expiry %s", s.ExpiresAt)
		}
	}

	for _, w := range repo.windows {
		if !w.Until.Equal(now) || !w.CurrentFrom.Equal(now.Add(-7*24*time.Hour)) || !w.PreviousFrom.Equal(now.Add(-14*24*time.Hour)) {
			t.Fatalf("unexpected window %+v", w)
		}
	}

	ev, ok := bus.published[0].(events.MarketSignalsDetected)
	if !ok || ev.Total() != 4 {
		t.Fatalf("unexpected event %+v", bus.published[0])
	}
}

func TestDetectInsertFailureReturnsError(t *testing.T) {
	repo := newFakeRepo()
	repo.counts[repository.KeyBrand] = []signals.RawCount{{Name: "Hyundai", Current: 20}}
	repo.insertErr = errors.New("copy failed")
	bus := &recordingBus{}

	if _, err := newService(repo, bus).Detect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(bus.published) != 0 {
		t.Fatal("failed run must not publish")
	}
}

func TestListActiveHidesExpiredSignals(t *testing.T) {
	repo := newFakeRepo()
	repo.stored = []repository.StoredSignal{
		{Signal: signals.Signal{Type: signals.TypeHotLocation}, ExpiresAt: now.Add(time.Hour)},
		{Signal: signals.Signal{Type: signals.TypeHotLocation}, ExpiresAt: now.Add(-time.Hour)},
		{Signal: signals.Signal{Type: signals.TypeTrendingBrand}, ExpiresAt: now.Add(time.Hour)},
	}

	got, err := newService(repo, nil).ListActive(context.Background(), signals.TypeHotLocation, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one active hot location, got %d", len(got))
	}
}

func TestPurgeExpiredKeepsGracePeriod(t *testing.T) {
	repo := newFakeRepo()
	n, err := newService(repo, nil).PurgeExpired(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("unexpected result %d, %v", n, err)
	}
	if !repo.deleted.Equal(now.Add(-RetentionGrace)) {
		t.Fatalf("unexpected cutoff %s", repo.deleted)
	}
}

package usecase

import (
	"context"
	"testing"
	"time"

	"MetricPulse/internal/domain/models"
)

type fakePublisher struct {
	published []*models.Observation
}

func (f *fakePublisher) Publish(ctx context.Context, o *models.Observation) error {
	f.published = append(f.published, o)
	return nil
}

func (f *fakePublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	f.published = append(f.published, obs...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeStorage struct {
	stored []*models.Observation
}

func (f *fakeStorage) Init(ctx context.Context) error { return nil }

func (f *fakeStorage) Store(ctx context.Context, o *models.Observation) error {
	f.stored = append(f.stored, o)
	return nil
}

func (f *fakeStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	f.stored = append(f.stored, obs...)
	return nil
}

func (f *fakeStorage) Query(ctx context.Context, metric string, from, to time.Time, limit int) ([]*models.Observation, error) {
	return nil, nil
}

func (f *fakeStorage) Health(ctx context.Context) error { return nil }
func (f *fakeStorage) Close() error                     { return nil }

type fakeMetrics struct {
	observations int
	errors       map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (f *fakeMetrics) RecordObservation(backend, metric string) { f.observations++ }
func (f *fakeMetrics) RecordError(kind string)                  { f.errors[kind]++ }
func (f *fakeMetrics) RecordLastValue(metric string, v float64) {}
func (f *fakeMetrics) RecordLatency(op string, seconds float64) {}

func testObservation() *models.Observation {
	return &models.Observation{Metric: "signups", Timestamp: 1735689600, Value: 42, Confidence: 1}
}

func TestProcessorRoutesToKafka(t *testing.T) {
	pub := &fakePublisher{}
	st := &fakeStorage{}
	p := NewObservationProcessor("kafka", pub, st, newFakeMetrics())
	if err := p.Process(context.Background(), testObservation()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published, got %d", len(pub.published))
	}
	if len(st.stored) != 0 {
		t.Fatalf("kafka backend must not hit storage")
	}
}

func TestProcessorRoutesToStorage(t *testing.T) {
	pub := &fakePublisher{}
	st := &fakeStorage{}
	p := NewObservationProcessor("clickhouse", pub, st, newFakeMetrics())
	if err := p.Process(context.Background(), testObservation()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(st.stored) != 1 {
		t.Fatalf("expected 1 stored, got %d", len(st.stored))
	}
	if len(pub.published) != 0 {
		t.Fatalf("storage backend must not publish")
	}
}

func TestProcessorBatch(t *testing.T) {
	st := &fakeStorage{}
	p := NewObservationProcessor("clickhouse", nil, st, newFakeMetrics())
	obs := []*models.Observation{testObservation(), testObservation()}
	if err := p.ProcessBatch(context.Background(), obs); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(st.stored) != 2 {
		t.Fatalf("expected 2 stored, got %d", len(st.stored))
	}
}

func TestProcessorNilObservation(t *testing.T) {
	p := NewObservationProcessor("clickhouse", nil, &fakeStorage{}, newFakeMetrics())
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil observation should error")
	}
}

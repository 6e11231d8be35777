package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"MetricPulse/internal/domain/models"
)

type fakeCatalog struct {
	upserts []models.MetricInfo
}

func (f *fakeCatalog) UpsertMetric(ctx context.Context, info models.MetricInfo) error {
	f.upserts = append(f.upserts, info)
	return nil
}

func (f *fakeCatalog) GetMetric(ctx context.Context, metric string) (models.MetricInfo, error) {
	return models.MetricInfo{}, nil
}

func TestHandlerStoresObservation(t *testing.T) {
	st := &fakeStorage{}
	h := NewKafkaObservationsHandler("observations", st, &fakeCatalog{}, newFakeMetrics(), nil)

	b, _ := json.Marshal(testObservation())
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(st.stored) != 1 {
		t.Fatalf("expected 1 stored, got %d", len(st.stored))
	}
}

func TestHandlerFoldsMillisecondTimestamps(t *testing.T) {
	st := &fakeStorage{}
	h := NewKafkaObservationsHandler("observations", st, &fakeCatalog{}, newFakeMetrics(), nil)

	o := testObservation()
	o.Timestamp = 1735689600000 // ms
	b, _ := json.Marshal(o)
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if st.stored[0].Timestamp != 1735689600 {
		t.Fatalf("timestamp = %d, want seconds", st.stored[0].Timestamp)
	}
}

func TestHandlerLegacyLabelUpdatesCatalog(t *testing.T) {
	st := &fakeStorage{}
	cat := &fakeCatalog{}
	h := NewKafkaObservationsHandler("observations", st, cat, newFakeMetrics(), nil)

	o := testObservation()
	o.Label = "Weekly Signups (Trend)"
	b, _ := json.Marshal(o)
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(cat.upserts) != 1 {
		t.Fatalf("expected 1 catalog upsert, got %d", len(cat.upserts))
	}
	up := cat.upserts[0]
	if up.DisplayName != "Weekly Signups" {
		t.Fatalf("display name = %q, want stripped suffix", up.DisplayName)
	}
	if up.PreferredAdjustment != string(models.AdjustTrended) {
		t.Fatalf("preferred adjustment = %q, want trend", up.PreferredAdjustment)
	}
}

func TestHandlerRejectsBadPayload(t *testing.T) {
	h := NewKafkaObservationsHandler("observations", &fakeStorage{}, &fakeCatalog{}, newFakeMetrics(), nil)
	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("malformed payload should error")
	}
	if err := h.Handle(context.Background(), []byte(`{"metric":"","t":1,"v":1}`)); err == nil {
		t.Fatalf("empty metric should error")
	}
}

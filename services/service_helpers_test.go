package services

import (
	"context"
	"sync"
	"testing"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/events"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"
)

type stubAuditor struct {
	outcome AuditOutcome
	calls   int
}

func (s *stubAuditor) Audit(ctx context.Context, req AuditRequest) AuditOutcome {
	s.calls++
	return s.outcome
}

type memPhotos struct {
	mu   sync.Mutex
	keys []string
}

func (m *memPhotos) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return "https://cdn.test/" + key, nil
}

func (m *memPhotos) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memPhotos) stored() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

type fixture struct {
	store     *store.MemoryStore
	events    *events.Recorder
	points    *PointsService
	donations *DonationService
	claims    *ClaimService
	auditor   *stubAuditor
	photos    *memPhotos
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	rec := &events.Recorder{}
	points := NewPointsService(st, rec)
	auditor := &stubAuditor{outcome: auditWithQuality(90)}
	photos := &memPhotos{}
	return &fixture{
		store:     st,
		events:    rec,
		points:    points,
		donations: NewDonationService(st, auditor, photos, rec, points),
		claims:    NewClaimService(st, rec, points),
		auditor:   auditor,
		photos:    photos,
	}
}

func (f *fixture) actor(t *testing.T, id string, role models.Role) {
	t.Helper()
	if _, err := f.points.EnsureActor(context.Background(), id, role, id); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) publish(t *testing.T, qty int, method models.DeliveryMethod) *models.DonationItem {
	t.Helper()
	sub := validSubmission()
	sub.Quantity = qty
	sub.DeliveryMethod = method
	item, err := f.donations.Submit(context.Background(), sub, []AuditImage{{MIMEType: "image/png", Data: []byte("png")}})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

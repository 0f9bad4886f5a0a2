package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

// MemoryStore keeps everything in maps. Each entity has its own mutex so that
// updates on different items proceed in parallel while updates on the same
// item are serialized.
type MemoryStore struct {
	mu        sync.RWMutex
	donations map[string]*models.DonationItem
	claims    map[string]*models.Claim
	actors    map[string]*models.Actor
	badges    map[string][]models.ActorBadge

	locks sync.Map // entity key -> *sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		donations: make(map[string]*models.DonationItem),
		claims:    make(map[string]*models.Claim),
		actors:    make(map[string]*models.Actor),
		badges:    make(map[string][]models.ActorBadge),
	}
}

func (s *MemoryStore) lock(key string) func() {
	m, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func cloneDonation(in *models.DonationItem) *models.DonationItem {
	out := *in
	if in.PhotoURLs != nil {
		out.PhotoURLs = append(out.PhotoURLs[:0:0], in.PhotoURLs...)
	}
	return &out
}

func cloneClaim(in *models.Claim) *models.Claim {
	out := *in
	if in.ReviewMedia != nil {
		out.ReviewMedia = append(out.ReviewMedia[:0:0], in.ReviewMedia...)
	}
	return &out
}

func (s *MemoryStore) CreateDonation(ctx context.Context, item *models.DonationItem) error {
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[item.ID] = cloneDonation(item)
	return nil
}

func (s *MemoryStore) GetDonation(ctx context.Context, id string) (*models.DonationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.donations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDonation(item), nil
}

func (s *MemoryStore) ListDonations(ctx context.Context, f models.DonationFilter) ([]models.DonationItem, error) {
	s.mu.RLock()
	var out []models.DonationItem
	for _, item := range s.donations {
		if f.ProviderID != "" && item.ProviderID != f.ProviderID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, item.Status) {
			continue
		}
		if f.InStockOnly && item.CurrentQuantity <= 0 {
			continue
		}
		if !f.VisibleAt.IsZero() && (endedBy(item.ExpiresAt, f.VisibleAt) || endedBy(item.DistributionEnd, f.VisibleAt)) {
			continue
		}
		out = append(out, *cloneDonation(item))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Offset, f.Limit), nil
}

func (s *MemoryStore) UpdateDonation(ctx context.Context, id string, fn func(*models.DonationItem) error) (*models.DonationItem, error) {
	unlock := s.lock("donation:" + id)
	defer unlock()

	current, err := s.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.UpdatedAt = time.Now()

	s.mu.Lock()
	s.donations[id] = cloneDonation(current)
	s.mu.Unlock()
	return current, nil
}

func (s *MemoryStore) CreateClaim(ctx context.Context, claim *models.Claim, reserve func(*models.DonationItem) error) (*models.DonationItem, error) {
	unlock := s.lock("donation:" + claim.DonationID)
	defer unlock()

	item, err := s.GetDonation(ctx, claim.DonationID)
	if err != nil {
		return nil, err
	}
	if err := reserve(item); err != nil {
		return nil, err
	}
	now := time.Now()
	item.UpdatedAt = now
	claim.CreatedAt, claim.UpdatedAt = now, now

	s.mu.Lock()
	s.donations[item.ID] = cloneDonation(item)
	s.claims[claim.ID] = cloneClaim(claim)
	s.mu.Unlock()
	return item, nil
}

func (s *MemoryStore) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneClaim(c), nil
}

func (s *MemoryStore) ListClaims(ctx context.Context, f models.ClaimFilter) ([]models.Claim, error) {
	s.mu.RLock()
	var out []models.Claim
	for _, c := range s.claims {
		if matchClaim(c, f) {
			out = append(out, *cloneClaim(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Offset, f.Limit), nil
}

func (s *MemoryStore) CountClaims(ctx context.Context, f models.ClaimFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.claims {
		if matchClaim(c, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpdateClaim(ctx context.Context, id string, fn func(*models.Claim) error) (*models.Claim, error) {
	unlock := s.lock("claim:" + id)
	defer unlock()

	current, err := s.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.UpdatedAt = time.Now()

	s.mu.Lock()
	s.claims[id] = cloneClaim(current)
	s.mu.Unlock()
	return current, nil
}

func (s *MemoryStore) GetActor(ctx context.Context, externalUserID string) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[externalUserID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *MemoryStore) ListActors(ctx context.Context) ([]models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalUserID < out[j].ExternalUserID })
	return out, nil
}

// UpsertActor refreshes profile fields and keeps the progression fields of an existing actor.
func (s *MemoryStore) UpsertActor(ctx context.Context, actor *models.Actor) error {
	unlock := s.lock("actor:" + actor.ExternalUserID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.actors[actor.ExternalUserID]; ok {
		existing.Name = actor.Name
		existing.Phone = actor.Phone
		existing.Role = actor.Role
		existing.UpdatedAt = now
		return nil
	}
	a := *actor
	a.CreatedAt, a.UpdatedAt = now, now
	s.actors[a.ExternalUserID] = &a
	return nil
}

func (s *MemoryStore) UpdateActor(ctx context.Context, externalUserID string, fn func(*models.Actor) error) (*models.Actor, error) {
	unlock := s.lock("actor:" + externalUserID)
	defer unlock()

	current, err := s.GetActor(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.UpdatedAt = time.Now()

	s.mu.Lock()
	stored := *current
	s.actors[externalUserID] = &stored
	s.mu.Unlock()
	return current, nil
}

func (s *MemoryStore) ListActorBadges(ctx context.Context, externalUserID string) ([]models.ActorBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ActorBadge(nil), s.badges[externalUserID]...), nil
}

func (s *MemoryStore) AwardBadge(ctx context.Context, badge *models.ActorBadge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, held := range s.badges[badge.ExternalUserID] {
		if held.BadgeCode == badge.BadgeCode {
			return false, nil
		}
	}
	if badge.AwardedAt.IsZero() {
		badge.AwardedAt = time.Now()
	}
	s.badges[badge.ExternalUserID] = append(s.badges[badge.ExternalUserID], *badge)
	return true, nil
}

func matchClaim(c *models.Claim, f models.ClaimFilter) bool {
	if f.DonationID != "" && c.DonationID != f.DonationID {
		return false
	}
	if f.ProviderID != "" && c.ProviderID != f.ProviderID {
		return false
	}
	if f.ReceiverID != "" && c.ReceiverID != f.ReceiverID {
		return false
	}
	if f.CourierID != "" && (c.CourierID == nil || *c.CourierID != f.CourierID) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if c.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CourierStatus != "" && (c.CourierStatus == nil || *c.CourierStatus != f.CourierStatus) {
		return false
	}
	if f.Method != "" && c.Method != f.Method {
		return false
	}
	return true
}

func endedBy(end *time.Time, at time.Time) bool {
	return end != nil && !at.Before(*end)
}

func containsStatus(list []models.DonationStatus, s models.DonationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func paginate[T any](in []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

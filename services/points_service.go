package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/events"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"

	"github.com/google/logger"
	"github.com/google/uuid"
)

// AwardedBadge is a catalog badge plus when the actor unlocked it.
type AwardedBadge struct {
	models.Badge
	AwardedAt time.Time `json:"awarded_at"`
}

// Standing is an actor's full progression view.
type Standing struct {
	Actor    *models.Actor   `json:"actor"`
	Tier     TierStanding    `json:"tier"`
	Badges   []AwardedBadge  `json:"badges"`
	Activity ActivitySummary `json:"activity"`
}

type PointsService struct {
	Store   store.Store
	Events  events.Publisher
	Tiers   []models.Tier
	Badges  []models.Badge
	Weights AccrualWeights
	Now     func() time.Time
}

func NewPointsService(st store.Store, pub events.Publisher) *PointsService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &PointsService{
		Store:   st,
		Events:  pub,
		Tiers:   models.DefaultTiers,
		Badges:  models.DefaultBadges,
		Weights: DefaultAccrualWeights,
		Now:     time.Now,
	}
}

// EnsureActor makes sure a progression record exists (idempotent).
func (s *PointsService) EnsureActor(ctx context.Context, externalUserID string, role models.Role, name string) (*models.Actor, error) {
	a, err := s.Store.GetActor(ctx, externalUserID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if !role.Valid() {
		return nil, invalidInput("role must be provider, volunteer or receiver")
	}
	a = &models.Actor{
		ExternalUserID: externalUserID,
		Name:           name,
		Role:           role,
		Tier:           ResolveTier(s.Tiers, 0).Current.Name,
	}
	if err := s.Store.UpsertActor(ctx, a); err != nil {
		return nil, err
	}
	return s.Store.GetActor(ctx, externalUserID)
}

// Activity counts what the actor's role earns points for.
func (s *PointsService) Activity(ctx context.Context, a *models.Actor) (ActivitySummary, error) {
	var sum ActivitySummary
	completed := []models.ClaimStatus{models.ClaimStatusCompleted}

	switch a.Role {
	case models.RoleProvider:
		n, err := s.Store.CountClaims(ctx, models.ClaimFilter{ProviderID: a.ExternalUserID, Statuses: completed})
		if err != nil {
			return sum, err
		}
		sum.CompletedClaims = n

		now := s.Now()
		items, err := s.Store.ListDonations(ctx, models.DonationFilter{
			ProviderID:  a.ExternalUserID,
			Statuses:    []models.DonationStatus{models.DonationStatusAvailable},
			InStockOnly: true,
			VisibleAt:   now,
		})
		if err != nil {
			return sum, err
		}
		for i := range items {
			if VisibleToReceivers(&items[i], now) {
				sum.ActiveItems++
			}
		}
	case models.RoleVolunteer:
		n, err := s.Store.CountClaims(ctx, models.ClaimFilter{
			CourierID:     a.ExternalUserID,
			Method:        models.FulfillDelivery,
			CourierStatus: models.CourierCompleted,
		})
		if err != nil {
			return sum, err
		}
		sum.CompletedMissions = n
	case models.RoleReceiver:
		n, err := s.Store.CountClaims(ctx, models.ClaimFilter{ReceiverID: a.ExternalUserID, Statuses: completed})
		if err != nil {
			return sum, err
		}
		sum.CompletedClaims = n
	}
	return sum, nil
}

// Refresh recomputes an actor's points, tier and badges. Persisted points
// never go down: a lower recomputation keeps the previous total.
func (s *PointsService) Refresh(ctx context.Context, externalUserID string) (*Standing, error) {
	a, err := s.Store.GetActor(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	activity, err := s.Activity(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("activity for %s: %w", externalUserID, err)
	}

	var prevTier string
	now := s.Now()
	updated, err := s.Store.UpdateActor(ctx, externalUserID, func(a *models.Actor) error {
		computed := ComputePoints(a.Role, a.BasePoints, activity, s.Weights)
		prevTier = a.Tier
		if computed > a.TotalPoints {
			a.TotalPoints = computed
			a.LastPointsAt = &now
		}
		tier := ResolveTier(s.Tiers, a.TotalPoints).Current.Name
		if tier != a.Tier {
			a.Tier = tier
			if prevTier != "" {
				a.LastTierUpAt = &now
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if prevTier != "" && updated.Tier != prevTier {
		logger.Infof("[POINTS] %s reached tier %s (%d pts)", externalUserID, updated.Tier, updated.TotalPoints)
		s.publish(ctx, events.New(events.ActorTierChanged, externalUserID, externalUserID, map[string]any{
			"from":   prevTier,
			"to":     updated.Tier,
			"points": updated.TotalPoints,
		}))
	}

	if err := s.awardBadges(ctx, updated); err != nil {
		return nil, err
	}
	return s.standing(ctx, updated, activity)
}

func (s *PointsService) awardBadges(ctx context.Context, a *models.Actor) error {
	for _, b := range EligibleBadges(s.Badges, a.Role, a.TotalPoints) {
		created, err := s.Store.AwardBadge(ctx, &models.ActorBadge{
			ID:             uuid.NewString(),
			ExternalUserID: a.ExternalUserID,
			BadgeCode:      b.Code,
			PointsAtAward:  a.TotalPoints,
		})
		if err != nil {
			return fmt.Errorf("award %s to %s: %w", b.Code, a.ExternalUserID, err)
		}
		if !created {
			continue
		}
		logger.Infof("[POINTS] 🎖️ badge %s → %s", b.Code, a.ExternalUserID)
		s.publish(ctx, events.New(events.ActorBadgeAwarded, a.ExternalUserID, a.ExternalUserID, map[string]any{
			"badge":  b.Code,
			"points": a.TotalPoints,
		}))
	}
	return nil
}

// Standing reads the actor's progression without recomputing it.
func (s *PointsService) Standing(ctx context.Context, externalUserID string) (*Standing, error) {
	a, err := s.Store.GetActor(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	activity, err := s.Activity(ctx, a)
	if err != nil {
		return nil, err
	}
	return s.standing(ctx, a, activity)
}

func (s *PointsService) standing(ctx context.Context, a *models.Actor, activity ActivitySummary) (*Standing, error) {
	held, err := s.Store.ListActorBadges(ctx, a.ExternalUserID)
	if err != nil {
		return nil, err
	}
	badges := make([]AwardedBadge, 0, len(held))
	for _, h := range held {
		b, ok := badgeByCode(s.Badges, h.BadgeCode)
		if !ok {
			b = models.Badge{Code: h.BadgeCode, Name: h.BadgeCode}
		}
		badges = append(badges, AwardedBadge{Badge: b, AwardedAt: h.AwardedAt})
	}
	return &Standing{
		Actor:    a,
		Tier:     ResolveTier(s.Tiers, a.TotalPoints),
		Badges:   badges,
		Activity: activity,
	}, nil
}

// RefreshAll refreshes every known actor and returns how many succeeded.
// One failing actor does not stop the run.
func (s *PointsService) RefreshAll(ctx context.Context) (int, error) {
	actors, err := s.Store.ListActors(ctx)
	if err != nil {
		return 0, err
	}
	ok := 0
	for _, a := range actors {
		if ctx.Err() != nil {
			return ok, ctx.Err()
		}
		if _, err := s.Refresh(ctx, a.ExternalUserID); err != nil {
			logger.Warningf("[POINTS] refresh %s failed: %v", a.ExternalUserID, err)
			continue
		}
		ok++
	}
	return ok, nil
}

func (s *PointsService) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		logger.Warningf("[EVENT] publish %s for %s failed: %v", e.Type, e.Key, err)
	}
}

// RefreshQuietly refreshes the given actors and only logs failures. Actors
// without a progression record are skipped. Safe on a nil receiver.
func (s *PointsService) RefreshQuietly(ctx context.Context, externalUserIDs ...string) {
	if s == nil {
		return
	}
	for _, id := range externalUserIDs {
		if id == "" {
			continue
		}
		if _, err := s.Refresh(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			logger.Warningf("[POINTS] refresh %s failed: %v", id, err)
		}
	}
}

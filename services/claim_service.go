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
)

var errUnchanged = errors.New("unchanged")

type ClaimService struct {
	Store  store.Store
	Events events.Publisher
	Points *PointsService // optional
	Now    func() time.Time
}

func NewClaimService(st store.Store, pub events.Publisher, points *PointsService) *ClaimService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &ClaimService{Store: st, Events: pub, Points: points, Now: time.Now}
}

// Create reserves stock and stores the claim atomically. Concurrent claims on
// the same item are serialized by the store, so stock is never oversold.
func (s *ClaimService) Create(ctx context.Context, donationID, receiverID string, quantity int, method models.FulfillmentMethod) (*models.Claim, *models.DonationItem, error) {
	item, err := s.Store.GetDonation(ctx, donationID)
	if err != nil {
		return nil, nil, err
	}
	claim, err := NewClaim(item, receiverID, quantity, method)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	updated, err := s.Store.CreateClaim(ctx, claim, func(it *models.DonationItem) error {
		return ReserveStock(it, quantity, now)
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("[CLAIM] %s claimed %d of %s (%s), %d left", receiverID, quantity, donationID, claim.Method, updated.CurrentQuantity)

	s.publish(ctx, events.New(events.ClaimCreated, claim.ID, receiverID, map[string]any{
		"donation_id": donationID,
		"quantity":    quantity,
		"method":      string(claim.Method),
	}))
	if updated.Status == models.DonationStatusClaimed {
		s.publish(ctx, events.New(events.DonationStatusChanged, donationID, receiverID, map[string]any{
			"from": string(models.DonationStatusAvailable),
			"to":   string(models.DonationStatusClaimed),
		}))
	}
	s.Points.RefreshQuietly(ctx, updated.ProviderID)
	return claim, updated, nil
}

func (s *ClaimService) Get(ctx context.Context, id string) (*models.Claim, error) {
	return s.Store.GetClaim(ctx, id)
}

func (s *ClaimService) List(ctx context.Context, f models.ClaimFilter) ([]models.Claim, error) {
	return s.Store.ListClaims(ctx, f)
}

// OpenMissions lists delivery claims still waiting for a courier.
func (s *ClaimService) OpenMissions(ctx context.Context, limit, offset int) ([]models.Claim, error) {
	return s.Store.ListClaims(ctx, models.ClaimFilter{
		Statuses:      []models.ClaimStatus{models.ClaimStatusActive},
		Method:        models.FulfillDelivery,
		CourierStatus: models.CourierAssigning,
		Limit:         limit,
		Offset:        offset,
	})
}

// AssignCourier is idempotent for the same courier.
func (s *ClaimService) AssignCourier(ctx context.Context, claimID, courierID string) (*models.Claim, error) {
	var name string
	if a, err := s.Store.GetActor(ctx, courierID); err == nil {
		if a.Role != models.RoleVolunteer {
			return nil, fmt.Errorf("%w: only volunteers can take delivery missions", ErrForbidden)
		}
		name = a.Name
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	changed := false
	now := s.Now()
	claim, err := s.Store.UpdateClaim(ctx, claimID, func(c *models.Claim) error {
		var err error
		if changed, err = AssignCourier(c, courierID, name, now); err != nil {
			return err
		}
		if !changed {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return s.Store.GetClaim(ctx, claimID)
	}
	if err != nil {
		return nil, err
	}

	logger.Infof("[CLAIM] 🛵 courier %s took claim %s", courierID, claimID)
	s.publish(ctx, events.New(events.ClaimCourierAssigned, claimID, courierID, map[string]any{
		"receiver_id": claim.ReceiverID,
	}))
	return claim, nil
}

func (s *ClaimService) AdvanceCourier(ctx context.Context, claimID, courierID string) (*models.Claim, error) {
	var next models.CourierStatus
	now := s.Now()
	claim, err := s.Store.UpdateClaim(ctx, claimID, func(c *models.Claim) error {
		var err error
		next, err = AdvanceCourier(c, courierID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.ClaimCourierAdvanced, claimID, courierID, map[string]any{
		"courier_status": string(next),
	}))
	if next == models.CourierCompleted {
		logger.Infof("[CLAIM] courier %s delivered claim %s", courierID, claimID)
		s.Points.RefreshQuietly(ctx, courierID)
	}
	return claim, nil
}

// Complete closes the claim and marks the donation delivered once its stock
// is exhausted. Receiver or provider may complete.
func (s *ClaimService) Complete(ctx context.Context, claimID, actorID string) (*models.Claim, error) {
	now := s.Now()
	claim, err := s.Store.UpdateClaim(ctx, claimID, func(c *models.Claim) error {
		if actorID != c.ReceiverID && actorID != c.ProviderID {
			return fmt.Errorf("%w: only the receiver or provider can complete claim %s", ErrForbidden, c.ID)
		}
		return CompleteClaim(c, now)
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("[CLAIM] ✅ claim %s completed by %s", claimID, actorID)
	s.publish(ctx, events.New(events.ClaimCompleted, claimID, actorID, map[string]any{
		"donation_id": claim.DonationID,
		"quantity":    claim.Quantity,
	}))

	_, err = s.Store.UpdateDonation(ctx, claim.DonationID, func(item *models.DonationItem) error {
		if !MarkDeliveredIfExhausted(item) {
			return errUnchanged
		}
		return nil
	})
	switch {
	case err == nil:
		s.publish(ctx, events.New(events.DonationStatusChanged, claim.DonationID, actorID, map[string]any{
			"to": string(models.DonationStatusDelivered),
		}))
	case errors.Is(err, errUnchanged):
	default:
		logger.Errorf("[CLAIM] donation %s not updated after completing %s: %v", claim.DonationID, claimID, err)
	}

	s.Points.RefreshQuietly(ctx, claim.ProviderID, claim.ReceiverID)
	return claim, nil
}

// Cancel ends an active claim. The reserved stock stays consumed.
func (s *ClaimService) Cancel(ctx context.Context, claimID, actorID string) (*models.Claim, error) {
	now := s.Now()
	claim, err := s.Store.UpdateClaim(ctx, claimID, func(c *models.Claim) error {
		if actorID != c.ReceiverID && actorID != c.ProviderID {
			return fmt.Errorf("%w: only the receiver or provider can cancel claim %s", ErrForbidden, c.ID)
		}
		return CancelClaim(c, now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.ClaimCancelled, claimID, actorID, map[string]any{
		"donation_id": claim.DonationID,
	}))
	return claim, nil
}

func (s *ClaimService) Review(ctx context.Context, claimID, receiverID string, rating int, text string, media []string) (*models.Claim, error) {
	now := s.Now()
	claim, err := s.Store.UpdateClaim(ctx, claimID, func(c *models.Claim) error {
		if receiverID != c.ReceiverID {
			return fmt.Errorf("%w: only the receiver can review claim %s", ErrForbidden, c.ID)
		}
		return ReviewClaim(c, rating, text, media, now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.ClaimReviewed, claimID, receiverID, map[string]any{
		"provider_id": claim.ProviderID,
		"rating":      rating,
	}))
	return claim, nil
}

func (s *ClaimService) Report(ctx context.Context, claimID, actorID, reason, description, evidenceURL string) (*models.Claim, error) {
	now := s.Now()
	claim, err := s.Store.UpdateClaim(ctx, claimID, func(c *models.Claim) error {
		if !participant(c, actorID) {
			return fmt.Errorf("%w: %s is not part of claim %s", ErrForbidden, actorID, c.ID)
		}
		return ReportClaim(c, reason, description, evidenceURL, now)
	})
	if err != nil {
		return nil, err
	}
	logger.Warningf("[CLAIM] ⚠️ claim %s reported by %s: %s", claimID, actorID, claim.ReportReason)
	s.publish(ctx, events.New(events.ClaimReported, claimID, actorID, map[string]any{
		"reason": claim.ReportReason,
	}))
	return claim, nil
}

func participant(c *models.Claim, actorID string) bool {
	if actorID == "" {
		return false
	}
	if actorID == c.ReceiverID || actorID == c.ProviderID {
		return true
	}
	return c.HasCourier() && *c.CourierID == actorID
}

// ClaimContact is another participant of a claim the caller can message.
type ClaimContact struct {
	Role        models.Role `json:"role"`
	Name        string      `json:"name"`
	Link        ContactLink `json:"link"`
	WhatsAppURL string      `json:"whatsapp_url,omitempty"`
}

// Contacts returns the other participants of a claim with hand-off links and
// a map link to the donation. With from set the link is driving directions.
func (s *ClaimService) Contacts(ctx context.Context, claimID, actorID string, from *Coordinates) ([]ClaimContact, string, error) {
	c, err := s.Store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, "", err
	}
	if !participant(c, actorID) {
		return nil, "", fmt.Errorf("%w: %s is not part of claim %s", ErrForbidden, actorID, c.ID)
	}

	type party struct {
		id   string
		role models.Role
	}
	parties := []party{{c.ProviderID, models.RoleProvider}, {c.ReceiverID, models.RoleReceiver}}
	if c.HasCourier() {
		parties = append(parties, party{*c.CourierID, models.RoleVolunteer})
	}

	var out []ClaimContact
	for _, p := range parties {
		if p.id == actorID {
			continue
		}
		a, err := s.Store.GetActor(ctx, p.id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		link := ContactLink{Phone: a.Phone, Message: fmt.Sprintf("Halo %s, terkait klaim %s (kode %s).", a.Name, c.ID, c.RedemptionCode)}
		out = append(out, ClaimContact{Role: p.role, Name: a.Name, Link: link, WhatsAppURL: link.URL()})
	}

	mapURL := ""
	if item, err := s.Store.GetDonation(ctx, c.DonationID); err == nil {
		at := Coordinates{Lat: item.Latitude, Lng: item.Longitude}
		if from != nil {
			mapURL = DirectionsURL(*from, at)
		} else {
			mapURL = MapSearchURL(at)
		}
	}
	return out, mapURL, nil
}

func (s *ClaimService) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		logger.Warningf("[EVENT] publish %s for %s failed: %v", e.Type, e.Key, err)
	}
}

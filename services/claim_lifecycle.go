package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"github.com/google/uuid"
)

// NewClaim builds an active claim against item. Stock is not touched here;
// ReserveStock runs under the item's lock when the claim is stored.
func NewClaim(item *models.DonationItem, receiverID string, quantity int, method models.FulfillmentMethod) (*models.Claim, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, invalidInput("receiver is required")
	}
	if receiverID == item.ProviderID {
		return nil, fmt.Errorf("%w: providers cannot claim their own donation", ErrForbidden)
	}
	if quantity < 1 {
		return nil, invalidInput("quantity must be at least 1")
	}
	if method == "" {
		method = models.FulfillPickup
		if item.DeliveryMethod == models.DeliveryCourier {
			method = models.FulfillDelivery
		}
	}
	if !method.Valid() {
		return nil, invalidInput("method must be pickup or delivery")
	}
	if !methodOffered(item.DeliveryMethod, method) {
		return nil, invalidInput("donation %s does not offer %s", item.ID, method)
	}

	c := &models.Claim{
		ID:             uuid.NewString(),
		DonationID:     item.ID,
		ProviderID:     item.ProviderID,
		ReceiverID:     receiverID,
		Quantity:       quantity,
		Method:         method,
		Status:         models.ClaimStatusActive,
		RedemptionCode: NewRedemptionCode(),
	}
	if method == models.FulfillDelivery {
		assigning := models.CourierAssigning
		c.CourierStatus = &assigning
	}
	return c, nil
}

func methodOffered(offered models.DeliveryMethod, method models.FulfillmentMethod) bool {
	switch offered {
	case models.DeliveryBoth:
		return true
	case models.DeliveryPickup:
		return method == models.FulfillPickup
	case models.DeliveryCourier:
		return method == models.FulfillDelivery
	}
	return false
}

func claimTransitionError(c *models.Claim, event, reason string) error {
	from := string(c.Status)
	if cs, ok := c.Courier(); ok && c.Status == models.ClaimStatusActive {
		from += "/" + string(cs)
	}
	return &TransitionError{Entity: "claim", From: from, Event: event, Reason: reason}
}

// AssignCourier attaches a volunteer to a delivery claim. Assigning the same
// courier again is a no-op (changed is false); a different courier is rejected.
func AssignCourier(c *models.Claim, courierID, courierName string, now time.Time) (changed bool, err error) {
	courierID = strings.TrimSpace(courierID)
	if courierID == "" {
		return false, invalidInput("courier is required")
	}
	if !c.IsDelivery() {
		return false, claimTransitionError(c, "assign courier", "pickup claims have no courier")
	}
	if c.Status != models.ClaimStatusActive {
		return false, claimTransitionError(c, "assign courier", "")
	}
	if c.HasCourier() {
		if *c.CourierID == courierID {
			return false, nil
		}
		return false, claimTransitionError(c, "assign courier", "another courier is already assigned")
	}
	if cs, _ := c.Courier(); cs != models.CourierAssigning {
		return false, claimTransitionError(c, "assign courier", "")
	}
	if courierID == c.ReceiverID || courierID == c.ProviderID {
		return false, fmt.Errorf("%w: claim participants cannot courier their own claim", ErrForbidden)
	}

	next := models.CourierPickingUp
	c.CourierID = &courierID
	if courierName != "" {
		c.CourierName = &courierName
	}
	c.CourierStatus = &next
	c.CourierAssignedAt = &now
	return true, nil
}

var courierNext = map[models.CourierStatus]models.CourierStatus{
	models.CourierPickingUp:  models.CourierDelivering,
	models.CourierDelivering: models.CourierCompleted,
}

// AdvanceCourier moves the courier sub-state one step. Only the assigned
// courier may advance it.
func AdvanceCourier(c *models.Claim, courierID string, now time.Time) (models.CourierStatus, error) {
	if !c.IsDelivery() {
		return "", claimTransitionError(c, "advance courier", "pickup claims have no courier")
	}
	if c.Status != models.ClaimStatusActive {
		return "", claimTransitionError(c, "advance courier", "")
	}
	if !c.HasCourier() {
		return "", claimTransitionError(c, "advance courier", "no courier assigned")
	}
	if *c.CourierID != courierID {
		return "", fmt.Errorf("%w: claim %s is assigned to another courier", ErrForbidden, c.ID)
	}

	cur, _ := c.Courier()
	next, ok := courierNext[cur]
	if !ok {
		return "", claimTransitionError(c, "advance courier", "")
	}
	switch next {
	case models.CourierDelivering:
		c.CourierPickedUpAt = &now
	case models.CourierCompleted:
		c.CourierDeliveredAt = &now
	}
	c.CourierStatus = &next
	return next, nil
}

// CompleteClaim closes an active claim. Delivery claims need a finished courier run.
func CompleteClaim(c *models.Claim, now time.Time) error {
	if c.Status != models.ClaimStatusActive {
		return claimTransitionError(c, "complete", "")
	}
	if c.IsDelivery() {
		if cs, _ := c.Courier(); cs != models.CourierCompleted {
			return claimTransitionError(c, "complete", "courier has not delivered yet")
		}
	}
	c.Status = models.ClaimStatusCompleted
	c.CompletedAt = &now
	return nil
}

// CancelClaim cancels an active claim. Reserved stock is not returned.
func CancelClaim(c *models.Claim, now time.Time) error {
	if c.Status != models.ClaimStatusActive {
		return claimTransitionError(c, "cancel", "")
	}
	c.Status = models.ClaimStatusCancelled
	c.CancelledAt = &now
	return nil
}

func ReviewClaim(c *models.Claim, rating int, text string, media []string, now time.Time) error {
	if c.Status != models.ClaimStatusCompleted {
		return claimTransitionError(c, "review", "only completed claims can be reviewed")
	}
	if c.Reviewed() {
		return claimTransitionError(c, "review", "already reviewed")
	}
	if rating < 1 || rating > 5 {
		return invalidInput("rating must be between 1 and 5")
	}
	c.Rating = &rating
	c.ReviewText = strings.TrimSpace(text)
	c.ReviewMedia = cleanList(media)
	c.ReviewedAt = &now
	return nil
}

// ReportClaim flags a claim for moderation. The claim status is unchanged.
func ReportClaim(c *models.Claim, reason, description, evidenceURL string, now time.Time) error {
	if c.Reported {
		return claimTransitionError(c, "report", "already reported")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return invalidInput("report reason is required")
	}
	c.Reported = true
	c.ReportReason = reason
	c.ReportDescription = strings.TrimSpace(description)
	c.ReportEvidenceURL = strings.TrimSpace(evidenceURL)
	c.ReportedAt = &now
	return nil
}

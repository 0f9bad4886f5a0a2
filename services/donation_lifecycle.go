package services

import (
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

// donationTransitions lists the legal status changes. Blocking and review are
// administrative and allowed from every state.
var donationTransitions = map[models.DonationStatus][]models.DonationStatus{
	models.DonationStatusAvailable: {
		models.DonationStatusClaimed, models.DonationStatusDelivered,
		models.DonationStatusBlocked, models.DonationStatusUnderReview,
	},
	models.DonationStatusClaimed: {
		models.DonationStatusDelivered,
		models.DonationStatusBlocked, models.DonationStatusUnderReview,
	},
	models.DonationStatusDelivered: {
		models.DonationStatusBlocked, models.DonationStatusUnderReview,
	},
	models.DonationStatusUnderReview: {models.DonationStatusBlocked},
	models.DonationStatusBlocked:     {models.DonationStatusUnderReview},
}

func CanTransitionDonation(from, to models.DonationStatus) bool {
	for _, next := range donationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionDonation(item *models.DonationItem, to models.DonationStatus, event string) error {
	if !CanTransitionDonation(item.Status, to) {
		return &TransitionError{Entity: "donation", From: string(item.Status), Event: event}
	}
	item.Status = to
	return nil
}

// ModerateDonation applies an administrative block or review hold.
func ModerateDonation(item *models.DonationItem, to models.DonationStatus) error {
	if to != models.DonationStatusBlocked && to != models.DonationStatusUnderReview {
		return invalidInput("moderation status must be blocked or under_review")
	}
	return transitionDonation(item, to, "moderate")
}

func expired(item *models.DonationItem, now time.Time) bool {
	if item.ExpiresAt != nil && !now.Before(*item.ExpiresAt) {
		return true
	}
	if item.DistributionEnd != nil && !now.Before(*item.DistributionEnd) {
		return true
	}
	return false
}

// VisibleToReceivers checks status and stock independently.
func VisibleToReceivers(item *models.DonationItem, now time.Time) bool {
	switch item.Status {
	case models.DonationStatusBlocked, models.DonationStatusUnderReview, models.DonationStatusDelivered:
		return false
	}
	if item.CurrentQuantity <= 0 {
		return false
	}
	return !expired(item, now)
}

// ReserveStock decrements stock for a new claim. A request larger than the
// remaining stock is rejected without touching the item.
func ReserveStock(item *models.DonationItem, quantity int, now time.Time) error {
	if quantity < 1 {
		return invalidInput("quantity must be at least 1")
	}
	if item.Status != models.DonationStatusAvailable {
		if item.Status == models.DonationStatusClaimed {
			return &StockError{DonationID: item.ID, Requested: quantity, Available: item.CurrentQuantity}
		}
		return &TransitionError{Entity: "donation", From: string(item.Status), Event: "claim"}
	}
	if expired(item, now) {
		return &TransitionError{Entity: "donation", From: string(item.Status), Event: "claim", Reason: "distribution window closed"}
	}
	if quantity > item.CurrentQuantity {
		return &StockError{DonationID: item.ID, Requested: quantity, Available: item.CurrentQuantity}
	}

	item.CurrentQuantity -= quantity
	if item.CurrentQuantity < 0 {
		item.CurrentQuantity = 0
	}
	if item.CurrentQuantity == 0 {
		return transitionDonation(item, models.DonationStatusClaimed, "claim")
	}
	return nil
}

// MarkDeliveredIfExhausted moves an item to delivered once a claim completes
// and no stock is left. Items with remaining stock stay listed.
func MarkDeliveredIfExhausted(item *models.DonationItem) bool {
	if item.CurrentQuantity > 0 {
		return false
	}
	if item.Status != models.DonationStatusAvailable && item.Status != models.DonationStatusClaimed {
		return false
	}
	item.Status = models.DonationStatusDelivered
	return true
}

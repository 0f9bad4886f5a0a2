package models

import (
	"time"

	"gorm.io/datatypes"
)

type ClaimStatus string

const (
	ClaimStatusActive    ClaimStatus = "active"
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// CourierStatus is the delivery sub-state of a courier-fulfilled claim.
type CourierStatus string

const (
	CourierAssigning  CourierStatus = "assigning"
	CourierPickingUp  CourierStatus = "picking_up"
	CourierDelivering CourierStatus = "delivering"
	CourierCompleted  CourierStatus = "completed"
)

// FulfillmentMethod tags the claim variant: pickup claims never carry courier state.
type FulfillmentMethod string

const (
	FulfillPickup   FulfillmentMethod = "pickup"
	FulfillDelivery FulfillmentMethod = "delivery"
)

func (m FulfillmentMethod) Valid() bool {
	return m == FulfillPickup || m == FulfillDelivery
}

// Claim is a receiver's request against a donation item's stock.
type Claim struct {
	ID             string            `json:"id" gorm:"primaryKey"`
	DonationID     string            `json:"donation_id" gorm:"index;not null"`
	ProviderID     string            `json:"provider_id" gorm:"index;not null"`
	ReceiverID     string            `json:"receiver_id" gorm:"index;not null"`
	Quantity       int               `json:"quantity" gorm:"not null"`
	Method         FulfillmentMethod `json:"method" gorm:"type:varchar(16);not null"`
	Status         ClaimStatus       `json:"status" gorm:"type:varchar(16);index;default:'active'"`
	RedemptionCode string            `json:"redemption_code"`

	// Courier sub-state, only for delivery claims.
	CourierID          *string        `json:"courier_id,omitempty" gorm:"index"`
	CourierName        *string        `json:"courier_name,omitempty"`
	CourierStatus      *CourierStatus `json:"courier_status,omitempty" gorm:"type:varchar(16);index"`
	CourierAssignedAt  *time.Time     `json:"courier_assigned_at,omitempty"`
	CourierPickedUpAt  *time.Time     `json:"courier_picked_up_at,omitempty"`
	CourierDeliveredAt *time.Time     `json:"courier_delivered_at,omitempty"`

	Rating      *int                        `json:"rating,omitempty"`
	ReviewText  string                      `json:"review_text,omitempty"`
	ReviewMedia datatypes.JSONSlice[string] `json:"review_media,omitempty"`
	ReviewedAt  *time.Time                  `json:"reviewed_at,omitempty"`

	Reported          bool       `json:"reported" gorm:"default:false"`
	ReportReason      string     `json:"report_reason,omitempty"`
	ReportDescription string     `json:"report_description,omitempty"`
	ReportEvidenceURL string     `json:"report_evidence_url,omitempty"`
	ReportedAt        *time.Time `json:"reported_at,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Timestamps
}

// IsDelivery reports whether the claim carries a courier sub-state.
func (c *Claim) IsDelivery() bool {
	return c.Method == FulfillDelivery
}

// Courier returns the courier sub-state; ok is false for pickup claims.
func (c *Claim) Courier() (status CourierStatus, ok bool) {
	if !c.IsDelivery() || c.CourierStatus == nil {
		return "", false
	}
	return *c.CourierStatus, true
}

// HasCourier reports whether a courier has been assigned.
func (c *Claim) HasCourier() bool {
	return c.CourierID != nil && *c.CourierID != ""
}

// Reviewed reports whether the claim reached its reviewed sub-state.
func (c *Claim) Reviewed() bool {
	return c.Rating != nil
}

type ClaimFilter struct {
	DonationID    string
	ProviderID    string
	ReceiverID    string
	CourierID     string
	Statuses      []ClaimStatus
	CourierStatus CourierStatus
	Method        FulfillmentMethod
	Limit         int
	Offset        int
}

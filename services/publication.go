package services

import (
	"strings"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
)

// QualityThreshold is the minimum qualityPercentage (inclusive) for publication.
const QualityThreshold = 70.01

// Submission is what a provider declares when donating.
type Submission struct {
	ProviderID        string
	Name              string
	Description       string
	Ingredients       string
	Quantity          int
	Unit              string
	WeightGram        float64
	PackagingType     string
	PreparedAt        *time.Time
	ExpiresAt         *time.Time
	DistributionStart *time.Time
	DistributionEnd   *time.Time
	StorageLocation   string
	DeliveryMethod    models.DeliveryMethod
	Latitude          float64
	Longitude         float64
	Address           string
}

func (s Submission) Validate() error {
	if strings.TrimSpace(s.ProviderID) == "" {
		return invalidInput("provider is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return invalidInput("name is required")
	}
	if s.Quantity < 1 {
		return invalidInput("quantity must be at least 1")
	}
	if s.WeightGram < 0 {
		return invalidInput("weight cannot be negative")
	}
	if !s.DeliveryMethod.Valid() {
		return invalidInput("delivery method must be pickup, delivery or both")
	}
	if s.DistributionStart != nil && s.DistributionEnd != nil && s.DistributionEnd.Before(*s.DistributionStart) {
		return invalidInput("distribution window ends before it starts")
	}
	if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
		return invalidInput("coordinates out of range")
	}
	return nil
}

// Publishable applies the quality gate.
func Publishable(audit models.AuditResult) bool {
	return audit.QualityPercentage >= QualityThreshold
}

// EvaluatePublication decides publish vs. reject. On acceptance it returns a
// new available DonationItem with the audit and impact attached; nothing is
// persisted here. A fallback audit is always rejected.
func EvaluatePublication(outcome AuditOutcome, sub Submission) (*models.DonationItem, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if !outcome.OK() || !Publishable(outcome.Result) {
		return nil, &QualityRejectedError{
			Audit:            outcome.Result,
			Threshold:        QualityThreshold,
			AuditUnavailable: !outcome.OK(),
		}
	}

	impact := CalculateImpact(outcome.Result.DetectedCategory, sub.WeightGram, sub.PackagingType)

	weight := sub.WeightGram
	if weight <= 0 {
		weight = DefaultWeightGram
	}
	packaging := sub.PackagingType
	if packaging == "" {
		packaging = models.PackagingPlastic
	}
	unit := sub.Unit
	if unit == "" {
		unit = "porsi"
	}

	id := uuid.NewString()
	return &models.DonationItem{
		ID:                id,
		Slug:              slug.Make(sub.Name) + "-" + id[:8],
		Name:              strings.TrimSpace(sub.Name),
		Description:       sub.Description,
		Ingredients:       sub.Ingredients,
		InitialQuantity:   sub.Quantity,
		CurrentQuantity:   sub.Quantity,
		Unit:              unit,
		WeightGram:        weight,
		PackagingType:     packaging,
		PreparedAt:        sub.PreparedAt,
		ExpiresAt:         sub.ExpiresAt,
		DistributionStart: sub.DistributionStart,
		DistributionEnd:   sub.DistributionEnd,
		StorageLocation:   sub.StorageLocation,
		DeliveryMethod:    sub.DeliveryMethod,
		ProviderID:        sub.ProviderID,
		Latitude:          sub.Latitude,
		Longitude:         sub.Longitude,
		Address:           sub.Address,
		Status:            models.DonationStatusAvailable,
		Audit:             datatypes.NewJSONType(outcome.Result),
		Impact:            datatypes.NewJSONType(impact),
	}, nil
}

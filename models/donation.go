package models

import (
	"time"

	"gorm.io/datatypes"
)

// DonationStatus is the lifecycle state of a published donation item.
type DonationStatus string

const (
	DonationStatusAvailable   DonationStatus = "available"
	DonationStatusClaimed     DonationStatus = "claimed"
	DonationStatusDelivered   DonationStatus = "delivered"
	DonationStatusBlocked     DonationStatus = "blocked"
	DonationStatusUnderReview DonationStatus = "under_review"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusAvailable, DonationStatusClaimed, DonationStatusDelivered,
		DonationStatusBlocked, DonationStatusUnderReview:
		return true
	}
	return false
}

// DeliveryMethod is what the provider offers for handing the food over.
type DeliveryMethod string

const (
	DeliveryPickup  DeliveryMethod = "pickup"
	DeliveryCourier DeliveryMethod = "delivery"
	DeliveryBoth    DeliveryMethod = "both"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryPickup || m == DeliveryCourier || m == DeliveryBoth
}

// FoodCategory is the fixed category enum shared by the audit and the impact table.
type FoodCategory string

const (
	CategoryBeef       FoodCategory = "Daging Sapi"
	CategoryRice       FoodCategory = "Nasi"
	CategoryVegetables FoodCategory = "Sayuran"
	CategoryFruit      FoodCategory = "Buah"
	CategoryMixed      FoodCategory = "Campuran"
	CategoryOther      FoodCategory = "Lainnya"
)

var FoodCategories = []FoodCategory{
	CategoryBeef, CategoryRice, CategoryVegetables, CategoryFruit, CategoryMixed, CategoryOther,
}

func (c FoodCategory) Valid() bool {
	for _, known := range FoodCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Packaging types understood by the impact formula. Anything else scores neutral.
const (
	PackagingNoPlastic = "no-plastic"
	PackagingRecycled  = "recycled"
	PackagingPlastic   = "plastic"
)

// DetectedItem is a single food the audit recognised in the photos.
type DetectedItem struct {
	Name     string       `json:"name"`
	Category FoodCategory `json:"category"`
}

// AuditResult is the normalized output of the quality audit. Immutable once attached.
type AuditResult struct {
	IsSafe              bool           `json:"isSafe"`
	IsHalal             bool           `json:"isHalal"`
	HalalScore          float64        `json:"halalScore"`
	HalalReasoning      string         `json:"halalReasoning"`
	Reasoning           string         `json:"reasoning"`
	Allergens           []string       `json:"allergens"`
	ShelfLifePrediction string         `json:"shelfLifePrediction"`
	HygieneScore        float64        `json:"hygieneScore"`
	QualityPercentage   float64        `json:"qualityPercentage"`
	DetectedItems       []DetectedItem `json:"detectedItems"`
	DetectedCategory    FoodCategory   `json:"detectedCategory"`
	StorageTips         []string       `json:"storageTips"`
}

// ImpactMetrics are the environmental/point values derived at publish time.
type ImpactMetrics struct {
	TotalPoints    int64   `json:"total_points"`
	CO2Saved       float64 `json:"co2_saved"`       // kg
	WaterSaved     int64   `json:"water_saved"`     // liters
	LandSaved      float64 `json:"land_saved"`      // m²
	WasteReduction float64 `json:"waste_reduction"` // kg
	Level          string  `json:"level"`
}

// DonationItem is a published unit of surplus food.
type DonationItem struct {
	ID              string  `json:"id" gorm:"primaryKey"`
	Slug            string  `json:"slug" gorm:"uniqueIndex"`
	Name            string  `json:"name" gorm:"not null"`
	Description     string  `json:"description"`
	Ingredients     string  `json:"ingredients"`
	InitialQuantity int     `json:"initial_quantity" gorm:"not null"`
	CurrentQuantity int     `json:"current_quantity" gorm:"not null;check:current_quantity >= 0"`
	Unit            string  `json:"unit" gorm:"default:'porsi'"`
	WeightGram      float64 `json:"weight_gram"`
	PackagingType   string  `json:"packaging_type"`

	PreparedAt        *time.Time `json:"prepared_at,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	DistributionStart *time.Time `json:"distribution_start,omitempty"`
	DistributionEnd   *time.Time `json:"distribution_end,omitempty"`
	StorageLocation   string     `json:"storage_location"`

	DeliveryMethod DeliveryMethod              `json:"delivery_method" gorm:"type:varchar(16);not null"`
	ProviderID     string                      `json:"provider_id" gorm:"index;not null"`
	Latitude       float64                     `json:"latitude"`
	Longitude      float64                     `json:"longitude"`
	Address        string                      `json:"address"`
	PhotoURLs      datatypes.JSONSlice[string] `json:"photo_urls"`

	Status DonationStatus                    `json:"status" gorm:"type:varchar(16);index;default:'available'"`
	Audit  datatypes.JSONType[AuditResult]   `json:"audit"`
	Impact datatypes.JSONType[ImpactMetrics] `json:"impact"`

	Timestamps
}

// DonationFilter narrows store listings.
type DonationFilter struct {
	ProviderID  string
	Statuses    []DonationStatus
	InStockOnly bool
	// VisibleAt, when set, drops items whose expiry or distribution end is not after it.
	VisibleAt   time.Time
	Limit       int
	Offset      int
}

package services

import (
	"math"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

// impactFactors are per 500 g of food.
type impactFactors struct {
	EIS   float64 // environmental impact score, base points
	CO2   float64 // kg
	Water float64 // liters
	Land  float64 // m²
}

var impactTable = map[models.FoodCategory]impactFactors{
	models.CategoryBeef:       {EIS: 100, CO2: 20.0, Water: 7700, Land: 16.0},
	models.CategoryRice:       {EIS: 60, CO2: 2.5, Water: 1250, Land: 1.0},
	models.CategoryVegetables: {EIS: 50, CO2: 1.5, Water: 500, Land: 1.0},
	models.CategoryFruit:      {EIS: 55, CO2: 1.1, Water: 480, Land: 0.8},
}

var defaultImpactFactors = impactFactors{EIS: 65, CO2: 3.0, Water: 650, Land: 1.3}

const (
	DefaultWeightGram = 500.0
	ExpertLevelPoints = 500
	impactLevelExpert = "Expert"
	impactLevelActive = "Aktif"
)

func packagingFactor(packaging string) float64 {
	switch packaging {
	case models.PackagingNoPlastic:
		return 1.2
	case models.PackagingRecycled:
		return 1.1
	case models.PackagingPlastic:
		return 0.9
	default:
		return 1.0
	}
}

// CalculateImpact maps a detected category, declared weight and packaging to
// impact metrics. It is a pure function.
func CalculateImpact(category models.FoodCategory, weightGram float64, packaging string) models.ImpactMetrics {
	factors, ok := impactTable[category]
	if !ok {
		factors = defaultImpactFactors
	}
	if weightGram <= 0 || math.IsNaN(weightGram) || math.IsInf(weightGram, 0) {
		weightGram = DefaultWeightGram
	}
	if packaging == "" {
		packaging = models.PackagingPlastic
	}

	quantityRatio := weightGram / DefaultWeightGram
	weightedQuantity := quantityRatio * packagingFactor(packaging)

	totalPoints := int64(math.Round(factors.EIS * weightedQuantity))
	level := impactLevelActive
	if totalPoints > ExpertLevelPoints {
		level = impactLevelExpert
	}

	return models.ImpactMetrics{
		TotalPoints:    totalPoints,
		CO2Saved:       roundTo(factors.CO2*quantityRatio, 1),
		WaterSaved:     int64(math.Round(factors.Water * quantityRatio)),
		LandSaved:      roundTo(factors.Land*quantityRatio, 2),
		WasteReduction: weightGram / 1000,
		Level:          level,
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

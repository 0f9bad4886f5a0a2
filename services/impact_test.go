package services

import (
	"testing"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

func TestCalculateImpact(t *testing.T) {
	cases := []struct {
		name      string
		category  models.FoodCategory
		weight    float64
		packaging string
		want      models.ImpactMetrics
	}{
		{
			name:      "beef 1kg no plastic",
			category:  models.CategoryBeef,
			weight:    1000,
			packaging: models.PackagingNoPlastic,
			want:      models.ImpactMetrics{TotalPoints: 240, CO2Saved: 40, WaterSaved: 15400, LandSaved: 32, WasteReduction: 1, Level: "Aktif"},
		},
		{
			name:      "beef 3kg no plastic is expert",
			category:  models.CategoryBeef,
			weight:    3000,
			packaging: models.PackagingNoPlastic,
			want:      models.ImpactMetrics{TotalPoints: 720, CO2Saved: 120, WaterSaved: 46200, LandSaved: 96, WasteReduction: 3, Level: "Expert"},
		},
		{
			name:      "vegetables recycled",
			category:  models.CategoryVegetables,
			weight:    1500,
			packaging: models.PackagingRecycled,
			want:      models.ImpactMetrics{TotalPoints: 165, CO2Saved: 4.5, WaterSaved: 1500, LandSaved: 3, WasteReduction: 1.5, Level: "Aktif"},
		},
		{
			name:      "unknown category, missing weight and packaging",
			category:  models.CategoryMixed,
			weight:    0,
			packaging: "",
			want:      models.ImpactMetrics{TotalPoints: 59, CO2Saved: 3, WaterSaved: 650, LandSaved: 1.3, WasteReduction: 0.5, Level: "Aktif"},
		},
		{
			name:      "negative weight falls back to 500g",
			category:  models.CategoryRice,
			weight:    -20,
			packaging: "cardboard",
			want:      models.ImpactMetrics{TotalPoints: 60, CO2Saved: 2.5, WaterSaved: 1250, LandSaved: 1, WasteReduction: 0.5, Level: "Aktif"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CalculateImpact(c.category, c.weight, c.packaging)
			if got != c.want {
				t.Fatalf("CalculateImpact(%q, %v, %q) = %+v, want %+v", c.category, c.weight, c.packaging, got, c.want)
			}
		})
	}
}

func TestCalculateImpactDeterministic(t *testing.T) {
	first := CalculateImpact(models.CategoryFruit, 730, models.PackagingPlastic)
	for i := 0; i < 50; i++ {
		if got := CalculateImpact(models.CategoryFruit, 730, models.PackagingPlastic); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestExpertLevelIsStrictlyAbove500(t *testing.T) {
	// beef at 2500g, neutral packaging: exactly 500 points
	got := CalculateImpact(models.CategoryBeef, 2500, "cardboard")
	if got.TotalPoints != 500 || got.Level != "Aktif" {
		t.Fatalf("got %d/%s, want 500/Aktif", got.TotalPoints, got.Level)
	}
}

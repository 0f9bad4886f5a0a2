package services

import (
	"errors"
	"testing"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

func validSubmission() Submission {
	return Submission{
		ProviderID:     "prov-1",
		Name:           "Nasi Kotak Syukuran",
		Quantity:       10,
		WeightGram:     1000,
		PackagingType:  models.PackagingRecycled,
		DeliveryMethod: models.DeliveryBoth,
	}
}

func auditWithQuality(q float64) AuditOutcome {
	return AuditOutcome{Result: models.AuditResult{
		IsSafe:            true,
		Reasoning:         "ok",
		QualityPercentage: q,
		DetectedCategory:  models.CategoryRice,
	}}
}

func TestEvaluatePublication_Threshold(t *testing.T) {
	cases := []struct {
		quality float64
		publish bool
	}{
		{0, false},
		{70.0, false},
		{70.009, false},
		{70.01, true},
		{70.02, true},
		{100, true},
	}
	for _, c := range cases {
		item, err := EvaluatePublication(auditWithQuality(c.quality), validSubmission())
		if c.publish {
			if err != nil {
				t.Fatalf("quality %v: unexpected error %v", c.quality, err)
			}
			if item.Status != models.DonationStatusAvailable {
				t.Errorf("quality %v: status %s", c.quality, item.Status)
			}
			continue
		}
		if !errors.Is(err, ErrQualityRejected) {
			t.Fatalf("quality %v: err = %v, want ErrQualityRejected", c.quality, err)
		}
		var rejected *QualityRejectedError
		if !errors.As(err, &rejected) || rejected.Audit.QualityPercentage != c.quality {
			t.Errorf("quality %v: rejection does not carry the audit", c.quality)
		}
	}
}

func TestEvaluatePublication_BuildsItem(t *testing.T) {
	item, err := EvaluatePublication(auditWithQuality(90), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if item.InitialQuantity != 10 || item.CurrentQuantity != 10 {
		t.Errorf("quantities %d/%d", item.InitialQuantity, item.CurrentQuantity)
	}
	if item.ID == "" || item.Slug == "" {
		t.Error("id and slug must be set")
	}
	want := CalculateImpact(models.CategoryRice, 1000, models.PackagingRecycled)
	if got := item.Impact.Data(); got != want {
		t.Errorf("impact = %+v, want %+v", got, want)
	}
	if item.Audit.Data().QualityPercentage != 90 {
		t.Error("audit not attached")
	}
}

func TestEvaluatePublication_FallbackAlwaysRejected(t *testing.T) {
	out := unavailable(errors.New("timeout"))
	out.Result.QualityPercentage = 99
	_, err := EvaluatePublication(out, validSubmission())
	var rejected *QualityRejectedError
	if !errors.As(err, &rejected) || !rejected.AuditUnavailable {
		t.Fatalf("err = %v, want unavailable rejection", err)
	}
}

func TestSubmissionValidate(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	cases := map[string]func(*Submission){
		"no name":         func(s *Submission) { s.Name = " " },
		"zero quantity":   func(s *Submission) { s.Quantity = 0 },
		"bad method":      func(s *Submission) { s.DeliveryMethod = "drone" },
		"no provider":     func(s *Submission) { s.ProviderID = "" },
		"window reversed": func(s *Submission) { s.DistributionStart, s.DistributionEnd = &start, &end },
		"bad latitude":    func(s *Submission) { s.Latitude = 91 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := validSubmission()
			mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

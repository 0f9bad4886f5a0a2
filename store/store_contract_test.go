package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errOutOfStock = errors.New("out of stock")

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	s := NewGormStore(db)
	if err := s.AutoMigrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

func newMemory(t *testing.T) Store { return NewMemoryStore() }

func donation(id string, qty int) *models.DonationItem {
	return &models.DonationItem{
		ID:              id,
		Slug:            "item-" + id,
		Name:            "Nasi Bungkus",
		InitialQuantity: qty,
		CurrentQuantity: qty,
		DeliveryMethod:  models.DeliveryBoth,
		ProviderID:      "prov-1",
		Status:          models.DonationStatusAvailable,
		PhotoURLs:       datatypes.JSONSlice[string]{"https://cdn.test/1.jpg"},
		Audit:           datatypes.NewJSONType(models.AuditResult{QualityPercentage: 88, DetectedCategory: models.CategoryRice}),
		Impact:          datatypes.NewJSONType(models.ImpactMetrics{TotalPoints: 60, Level: "Aktif"}),
	}
}

func reserve(q int) func(*models.DonationItem) error {
	return func(it *models.DonationItem) error {
		if q > it.CurrentQuantity {
			return errOutOfStock
		}
		it.CurrentQuantity -= q
		if it.CurrentQuantity == 0 {
			it.Status = models.DonationStatusClaimed
		}
		return nil
	}
}

func TestStores(t *testing.T) {
	impls := map[string]func(*testing.T) Store{
		"memory": newMemory,
		"sqlite": newSQLiteStore,
	}
	for name, newStore := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("donations", func(t *testing.T) { testDonations(t, newStore(t)) })
			t.Run("claims", func(t *testing.T) { testClaims(t, newStore(t)) })
			t.Run("actors", func(t *testing.T) { testActors(t, newStore(t)) })
		})
	}
}

func testDonations(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.CreateDonation(ctx, donation("d1", 3)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDonation(ctx, donation("d2", 0)); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDonation(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Audit.Data().QualityPercentage != 88 || len(got.PhotoURLs) != 1 {
		t.Fatalf("json columns not round-tripped: %+v", got)
	}
	if _, err := s.GetDonation(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}

	inStock, _ := s.ListDonations(ctx, models.DonationFilter{InStockOnly: true})
	if len(inStock) != 1 || inStock[0].ID != "d1" {
		t.Fatalf("in stock = %v", inStock)
	}

	past := time.Now().Add(-time.Minute)
	stale := donation("d3", 4)
	stale.DistributionEnd = &past
	if err := s.CreateDonation(ctx, stale); err != nil {
		t.Fatal(err)
	}
	visible, _ := s.ListDonations(ctx, models.DonationFilter{InStockOnly: true, VisibleAt: time.Now(), Limit: 1})
	if len(visible) != 1 || visible[0].ID != "d1" {
		t.Fatalf("visible page = %v", visible)
	}
	all, _ := s.ListDonations(ctx, models.DonationFilter{InStockOnly: true})
	if len(all) != 2 {
		t.Fatalf("without VisibleAt = %d items", len(all))
	}

	boom := errors.New("boom")
	if _, err := s.UpdateDonation(ctx, "d1", func(it *models.DonationItem) error {
		it.Status = models.DonationStatusBlocked
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	got, _ = s.GetDonation(ctx, "d1")
	if got.Status != models.DonationStatusAvailable {
		t.Fatal("failed update was persisted")
	}

	updated, err := s.UpdateDonation(ctx, "d1", func(it *models.DonationItem) error {
		it.Status = models.DonationStatusUnderReview
		return nil
	})
	if err != nil || updated.Status != models.DonationStatusUnderReview {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.UpdateDonation(ctx, "nope", func(*models.DonationItem) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}

func testClaims(t *testing.T, s Store) {
	ctx := context.Background()
	_ = s.CreateDonation(ctx, donation("d1", 2))

	courier := models.CourierAssigning
	c1 := &models.Claim{ID: "c1", DonationID: "d1", ProviderID: "prov-1", ReceiverID: "r1", Quantity: 2,
		Method: models.FulfillDelivery, Status: models.ClaimStatusActive, CourierStatus: &courier}
	item, err := s.CreateClaim(ctx, c1, reserve(2))
	if err != nil {
		t.Fatal(err)
	}
	if item.CurrentQuantity != 0 || item.Status != models.DonationStatusClaimed {
		t.Fatalf("item = %d %s", item.CurrentQuantity, item.Status)
	}

	c2 := &models.Claim{ID: "c2", DonationID: "d1", ProviderID: "prov-1", ReceiverID: "r2", Quantity: 1,
		Method: models.FulfillPickup, Status: models.ClaimStatusActive}
	if _, err := s.CreateClaim(ctx, c2, reserve(1)); !errors.Is(err, errOutOfStock) {
		t.Fatalf("over-claim: %v", err)
	}
	if _, err := s.GetClaim(ctx, "c2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected claim stored: %v", err)
	}

	open, _ := s.ListClaims(ctx, models.ClaimFilter{Method: models.FulfillDelivery, CourierStatus: models.CourierAssigning})
	if len(open) != 1 {
		t.Fatalf("open missions = %d", len(open))
	}

	_, err = s.UpdateClaim(ctx, "c1", func(c *models.Claim) error {
		id := "v1"
		done := models.CourierCompleted
		c.CourierID = &id
		c.CourierStatus = &done
		c.Status = models.ClaimStatusCompleted
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.CountClaims(ctx, models.ClaimFilter{CourierID: "v1", CourierStatus: models.CourierCompleted})
	if err != nil || n != 1 {
		t.Fatalf("courier missions = %d %v", n, err)
	}
	n, _ = s.CountClaims(ctx, models.ClaimFilter{ReceiverID: "r1", Statuses: []models.ClaimStatus{models.ClaimStatusCompleted}})
	if n != 1 {
		t.Fatalf("receiver completed = %d", n)
	}
}

func testActors(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.UpsertActor(ctx, &models.Actor{ExternalUserID: "a1", Name: "Ani", Role: models.RoleReceiver, Tier: "Pemula"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateActor(ctx, "a1", func(a *models.Actor) error {
		a.TotalPoints = 120
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// a profile sync must not reset progression
	if err := s.UpsertActor(ctx, &models.Actor{ExternalUserID: "a1", Name: "Ani S.", Phone: "0811", Role: models.RoleReceiver}); err != nil {
		t.Fatal(err)
	}
	a, err := s.GetActor(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "Ani S." || a.Phone != "0811" || a.TotalPoints != 120 || a.Tier != "Pemula" {
		t.Fatalf("actor = %+v", a)
	}

	created, err := s.AwardBadge(ctx, &models.ActorBadge{ID: "b1", ExternalUserID: "a1", BadgeCode: "FIRST_STEP", PointsAtAward: 120})
	if err != nil || !created {
		t.Fatalf("first award: %t %v", created, err)
	}
	created, err = s.AwardBadge(ctx, &models.ActorBadge{ID: "b2", ExternalUserID: "a1", BadgeCode: "FIRST_STEP", PointsAtAward: 130})
	if err != nil || created {
		t.Fatalf("second award: %t %v", created, err)
	}
	badges, _ := s.ListActorBadges(ctx, "a1")
	if len(badges) != 1 {
		t.Fatalf("badges = %d", len(badges))
	}

	actors, _ := s.ListActors(ctx)
	if len(actors) != 1 {
		t.Fatalf("actors = %d", len(actors))
	}
}

func TestMemoryStore_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.CreateDonation(ctx, donation("d1", 25))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &models.Claim{ID: fmt.Sprintf("c%d", i), DonationID: "d1", Quantity: 1, Status: models.ClaimStatusActive}
			if _, err := s.CreateClaim(ctx, c, reserve(1)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	item, _ := s.GetDonation(ctx, "d1")
	if ok != 25 || item.CurrentQuantity != 0 {
		t.Fatalf("ok=%d remaining=%d", ok, item.CurrentQuantity)
	}
	n, _ := s.CountClaims(ctx, models.ClaimFilter{DonationID: "d1"})
	if n != 25 {
		t.Fatalf("claims stored = %d", n)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.CreateDonation(ctx, donation("d1", 3))

	got, _ := s.GetDonation(ctx, "d1")
	got.CurrentQuantity = 99
	got.PhotoURLs[0] = "mutated"

	again, _ := s.GetDonation(ctx, "d1")
	if again.CurrentQuantity != 3 || again.PhotoURLs[0] != "https://cdn.test/1.jpg" {
		t.Fatalf("store shares memory with callers: %+v", again)
	}
}

func TestGormStore_StockConflict(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	_ = s.CreateDonation(ctx, donation("d1", 5))

	// The compare-and-swap targets the item as reserve left it; a row that no
	// longer matches is reported as a conflict.
	c := &models.Claim{ID: "c1", DonationID: "d1", Quantity: 1, Status: models.ClaimStatusActive}
	_, err := s.CreateClaim(ctx, c, func(it *models.DonationItem) error {
		it.ID = "d1-moved"
		it.CurrentQuantity--
		return nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := s.GetClaim(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("claim stored after conflict: %v", err)
	}
	item, _ := s.GetDonation(ctx, "d1")
	if item.CurrentQuantity != 5 {
		t.Fatalf("stock = %d", item.CurrentQuantity)
	}
}

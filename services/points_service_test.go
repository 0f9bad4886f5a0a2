package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/events"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"
)

func TestPointsService_RefreshIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.actor(t, "prov-1", models.RoleProvider)
	item := f.publish(t, 1, models.DeliveryPickup)

	a, _ := f.store.GetActor(ctx, "prov-1")
	if a.TotalPoints != DefaultAccrualWeights.ProviderActiveItem {
		t.Fatalf("points with one active item = %d", a.TotalPoints)
	}

	// the only item gets fully claimed, so the active item no longer counts
	if _, _, err := f.claims.Create(ctx, item.ID, "recv-1", 1, models.FulfillPickup); err != nil {
		t.Fatal(err)
	}
	st, err := f.points.Refresh(ctx, "prov-1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Activity.ActiveItems != 0 {
		t.Fatalf("active items = %d", st.Activity.ActiveItems)
	}
	if st.Actor.TotalPoints != DefaultAccrualWeights.ProviderActiveItem {
		t.Fatalf("points dropped to %d", st.Actor.TotalPoints)
	}
}

func TestPointsService_TierAndBadges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.actor(t, "vol-1", models.RoleVolunteer)
	_, _ = f.store.UpdateActor(ctx, "vol-1", func(a *models.Actor) error {
		a.BasePoints = 1000
		return nil
	})

	st, err := f.points.Refresh(ctx, "vol-1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Tier.Current.Name != "Penggerak" {
		t.Fatalf("tier = %s", st.Tier.Current.Name)
	}
	if st.Actor.LastTierUpAt == nil {
		t.Error("tier-up time not recorded")
	}

	held := map[string]bool{}
	for _, b := range st.Badges {
		held[b.Code] = true
	}
	if !held["FIRST_STEP"] || !held["ROAD_HERO"] || held["GENEROUS_KITCHEN"] {
		t.Fatalf("badges = %v", held)
	}

	// a second refresh awards nothing new
	before := len(f.events.Events())
	if _, err := f.points.Refresh(ctx, "vol-1"); err != nil {
		t.Fatal(err)
	}
	if after := len(f.events.Events()); after != before {
		t.Fatalf("second refresh published %d events", after-before)
	}

	tierEvents := 0
	for _, typ := range f.events.Types() {
		if typ == events.ActorTierChanged {
			tierEvents++
		}
	}
	if tierEvents != 1 {
		t.Fatalf("tier events = %d", tierEvents)
	}
}

func TestPointsService_EnsureActor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.points.EnsureActor(ctx, "x", models.RoleAdmin, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("admin role: %v", err)
	}
	a, err := f.points.EnsureActor(ctx, "recv-9", models.RoleReceiver, "Panti")
	if err != nil {
		t.Fatal(err)
	}
	if a.Tier != "Pemula" || a.TotalPoints != 0 {
		t.Fatalf("new actor = %+v", a)
	}
	// existing actors keep their role
	a, err = f.points.EnsureActor(ctx, "recv-9", models.RoleProvider, "Other")
	if err != nil || a.Role != models.RoleReceiver {
		t.Fatalf("existing actor = %+v, %v", a, err)
	}
	if _, err := f.points.Refresh(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown actor: %v", err)
	}
}

func TestPointsService_RefreshAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.actor(t, "a", models.RoleReceiver)
	f.actor(t, "b", models.RoleVolunteer)

	n, err := f.points.RefreshAll(ctx)
	if err != nil || n != 2 {
		t.Fatalf("RefreshAll = %d, %v", n, err)
	}
}

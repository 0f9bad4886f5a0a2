// Package store is the persistence boundary of the service. Every mutation of a
// donation item, claim or actor goes through an update callback that runs while
// the store holds that entity exclusively, so stock decrements and courier
// assignments never interleave for the same entity.
package store

import (
	"context"
	"errors"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict: the row changed between the read and the write.
	ErrConflict = errors.New("concurrent update")
)

// Store is implemented by GormStore (postgres) and MemoryStore.
type Store interface {
	CreateDonation(ctx context.Context, item *models.DonationItem) error
	GetDonation(ctx context.Context, id string) (*models.DonationItem, error)
	ListDonations(ctx context.Context, f models.DonationFilter) ([]models.DonationItem, error)
	// UpdateDonation loads the item, applies fn under the item's lock and
	// persists the result. If fn returns an error nothing is written.
	UpdateDonation(ctx context.Context, id string, fn func(*models.DonationItem) error) (*models.DonationItem, error)

	// CreateClaim locks the claimed item, lets reserve mutate it and inserts
	// the claim in the same critical section.
	CreateClaim(ctx context.Context, claim *models.Claim, reserve func(*models.DonationItem) error) (*models.DonationItem, error)
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	ListClaims(ctx context.Context, f models.ClaimFilter) ([]models.Claim, error)
	UpdateClaim(ctx context.Context, id string, fn func(*models.Claim) error) (*models.Claim, error)
	CountClaims(ctx context.Context, f models.ClaimFilter) (int64, error)

	GetActor(ctx context.Context, externalUserID string) (*models.Actor, error)
	ListActors(ctx context.Context) ([]models.Actor, error)
	UpsertActor(ctx context.Context, actor *models.Actor) error
	UpdateActor(ctx context.Context, externalUserID string, fn func(*models.Actor) error) (*models.Actor, error)

	ListActorBadges(ctx context.Context, externalUserID string) ([]models.ActorBadge, error)
	// AwardBadge is idempotent; created is false when the badge was already held.
	AwardBadge(ctx context.Context, badge *models.ActorBadge) (created bool, err error)
}

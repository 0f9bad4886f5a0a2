package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists through GORM. Updates run inside a transaction that
// selects the row FOR UPDATE, which is the per-entity lock on postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// AutoMigrate creates or updates the tables owned by this service.
func (s *GormStore) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.DonationItem{},
		&models.Claim{},
		&models.Actor{},
		&models.ActorBadge{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateDonation(ctx context.Context, item *models.DonationItem) error {
	return s.DB.WithContext(ctx).Create(item).Error
}

func (s *GormStore) GetDonation(ctx context.Context, id string) (*models.DonationItem, error) {
	var item models.DonationItem
	if err := s.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *GormStore) ListDonations(ctx context.Context, f models.DonationFilter) ([]models.DonationItem, error) {
	q := s.DB.WithContext(ctx).Model(&models.DonationItem{})
	if f.ProviderID != "" {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.InStockOnly {
		q = q.Where("current_quantity > 0")
	}
	if !f.VisibleAt.IsZero() {
		q = q.Where("(expires_at IS NULL OR expires_at > ?) AND (distribution_end IS NULL OR distribution_end > ?)", f.VisibleAt, f.VisibleAt)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var items []models.DonationItem
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s *GormStore) UpdateDonation(ctx context.Context, id string, fn func(*models.DonationItem) error) (*models.DonationItem, error) {
	var updated models.DonationItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&updated, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := fn(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormStore) CreateClaim(ctx context.Context, claim *models.Claim, reserve func(*models.DonationItem) error) (*models.DonationItem, error) {
	var item models.DonationItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", claim.DonationID).Error; err != nil {
			return notFound(err)
		}
		before := item.CurrentQuantity
		if err := reserve(&item); err != nil {
			return err
		}

		// Compare-and-swap on the stock column in addition to the row lock.
		res := tx.Model(&models.DonationItem{}).
			Where("id = ? AND current_quantity = ?", item.ID, before).
			Updates(map[string]interface{}{
				"current_quantity": item.CurrentQuantity,
				"status":           item.Status,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("%w: stock of donation %s changed", ErrConflict, item.ID)
		}
		return tx.Create(claim).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	var c models.Claim
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *GormStore) claimQuery(ctx context.Context, f models.ClaimFilter) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&models.Claim{})
	if f.DonationID != "" {
		q = q.Where("donation_id = ?", f.DonationID)
	}
	if f.ProviderID != "" {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if f.ReceiverID != "" {
		q = q.Where("receiver_id = ?", f.ReceiverID)
	}
	if f.CourierID != "" {
		q = q.Where("courier_id = ?", f.CourierID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.CourierStatus != "" {
		q = q.Where("courier_status = ?", f.CourierStatus)
	}
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	return q
}

func (s *GormStore) ListClaims(ctx context.Context, f models.ClaimFilter) ([]models.Claim, error) {
	q := s.claimQuery(ctx, f)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var claims []models.Claim
	err := q.Order("created_at DESC").Find(&claims).Error
	return claims, err
}

func (s *GormStore) CountClaims(ctx context.Context, f models.ClaimFilter) (int64, error) {
	var n int64
	err := s.claimQuery(ctx, f).Count(&n).Error
	return n, err
}

func (s *GormStore) UpdateClaim(ctx context.Context, id string, fn func(*models.Claim) error) (*models.Claim, error) {
	var updated models.Claim
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&updated, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := fn(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormStore) GetActor(ctx context.Context, externalUserID string) (*models.Actor, error) {
	var a models.Actor
	if err := s.DB.WithContext(ctx).First(&a, "external_user_id = ?", externalUserID).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *GormStore) ListActors(ctx context.Context) ([]models.Actor, error) {
	var actors []models.Actor
	err := s.DB.WithContext(ctx).Order("external_user_id ASC").Find(&actors).Error
	return actors, err
}

// UpsertActor refreshes profile fields; progression columns are never overwritten here.
func (s *GormStore) UpsertActor(ctx context.Context, actor *models.Actor) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "role", "updated_at"}),
	}).Create(actor).Error
}

func (s *GormStore) UpdateActor(ctx context.Context, externalUserID string, fn func(*models.Actor) error) (*models.Actor, error) {
	var updated models.Actor
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&updated, "external_user_id = ?", externalUserID).Error; err != nil {
			return notFound(err)
		}
		if err := fn(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormStore) ListActorBadges(ctx context.Context, externalUserID string) ([]models.ActorBadge, error) {
	var badges []models.ActorBadge
	err := s.DB.WithContext(ctx).
		Where("external_user_id = ?", externalUserID).
		Order("awarded_at ASC").
		Find(&badges).Error
	return badges, err
}

func (s *GormStore) AwardBadge(ctx context.Context, badge *models.ActorBadge) (bool, error) {
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "badge_code"}},
		DoNothing: true,
	}).Create(badge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

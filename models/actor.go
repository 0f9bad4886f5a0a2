package models

import (
	"time"

	"gorm.io/gorm"
)

// Role scopes accrual rules and badges.
type Role string

const (
	RoleProvider  Role = "provider"
	RoleVolunteer Role = "volunteer"
	RoleReceiver  Role = "receiver"
	RoleAll       Role = "all"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleProvider || r == RoleVolunteer || r == RoleReceiver
}

// Actor is a local snapshot of a participant plus their denormalized point progression.
type Actor struct {
	ExternalUserID string `gorm:"primaryKey" json:"external_user_id"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	Role           Role   `gorm:"type:varchar(16);index;not null" json:"role"`

	// Core progression
	BasePoints   int64      `json:"base_points" gorm:"default:0"`
	TotalPoints  int64      `json:"total_points" gorm:"default:0"`
	Tier         string     `json:"tier"`
	LastTierUpAt *time.Time `json:"last_tier_up_at,omitempty"`
	LastPointsAt *time.Time `json:"last_points_at,omitempty"`

	Timestamps
}

// ActorBadge is an awarded badge. Badges are additive and never revoked.
type ActorBadge struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_actor_badge;not null" json:"external_user_id"`
	BadgeCode      string    `gorm:"uniqueIndex:idx_actor_badge;not null" json:"badge_code"`
	PointsAtAward  int64     `json:"points_at_award"`
	AwardedAt      time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

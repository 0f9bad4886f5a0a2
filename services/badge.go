package services

import "github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

// EligibleBadges returns the badges unlocked at points for role, in catalog order.
func EligibleBadges(badges []models.Badge, role models.Role, points int64) []models.Badge {
	var out []models.Badge
	for _, b := range badges {
		if meetsThreshold(b, role, points) {
			out = append(out, b)
		}
	}
	return out
}

func meetsThreshold(b models.Badge, role models.Role, points int64) bool {
	if points < b.MinPoints {
		return false
	}
	return b.Role == models.RoleAll || b.Role == role
}

func badgeByCode(badges []models.Badge, code string) (models.Badge, bool) {
	for _, b := range badges {
		if b.Code == code {
			return b, true
		}
	}
	return models.Badge{}, false
}

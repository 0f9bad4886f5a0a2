package services

import (
	"math"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
)

// AccrualWeights are the points each completed activity is worth.
type AccrualWeights struct {
	ProviderCompletedClaim int64
	ProviderActiveItem     int64
	VolunteerMission       int64
	ReceiverCompletedClaim int64
}

var DefaultAccrualWeights = AccrualWeights{
	ProviderCompletedClaim: 50,
	ProviderActiveItem:     10,
	VolunteerMission:       150,
	ReceiverCompletedClaim: 10,
}

// ActivitySummary is the raw activity a role's points are computed from.
// Only the counters relevant to the actor's role are read.
type ActivitySummary struct {
	CompletedClaims   int64 // provider: against own donations; receiver: own claims
	ActiveItems       int64 // provider only
	CompletedMissions int64 // volunteer only
}

// ComputePoints derives total points from the base points and activity.
func ComputePoints(role models.Role, base int64, a ActivitySummary, w AccrualWeights) int64 {
	total := base
	switch role {
	case models.RoleProvider:
		total += w.ProviderCompletedClaim*a.CompletedClaims + w.ProviderActiveItem*a.ActiveItems
	case models.RoleVolunteer:
		total += w.VolunteerMission * a.CompletedMissions
	case models.RoleReceiver:
		total += w.ReceiverCompletedClaim * a.CompletedClaims
	}
	if total < 0 {
		return 0
	}
	return total
}

// TierStanding is where an actor sits on the tier ladder. Current is the zero
// Tier while the actor is below the first rung.
type TierStanding struct {
	Current  models.Tier  `json:"current"`
	Next     *models.Tier `json:"next,omitempty"`
	Progress float64      `json:"progress"` // 0..100 towards Next
	Points   int64        `json:"points"`
}

func determineTier(tiers []models.Tier, points int64) int {
	for i := len(tiers) - 1; i >= 0; i-- {
		if points >= tiers[i].MinPoints {
			return i
		}
	}
	return -1
}

// ResolveTier picks the highest tier whose MinPoints is reached. tiers must be
// sorted ascending by MinPoints. Below the first tier there is no current tier
// and progress counts towards the first one.
func ResolveTier(tiers []models.Tier, points int64) TierStanding {
	if len(tiers) == 0 {
		return TierStanding{Progress: 100, Points: points}
	}
	idx := determineTier(tiers, points)
	if idx < 0 {
		first := tiers[0]
		st := TierStanding{Next: &first, Points: points}
		if first.MinPoints > 0 && points > 0 {
			st.Progress = math.Min(100, float64(points)/float64(first.MinPoints)*100)
		}
		return st
	}
	st := TierStanding{Current: tiers[idx], Points: points, Progress: 100}
	if idx+1 >= len(tiers) {
		return st
	}

	next := tiers[idx+1]
	st.Next = &next
	span := next.MinPoints - st.Current.MinPoints
	if span <= 0 {
		return st
	}
	p := float64(points-st.Current.MinPoints) / float64(span) * 100
	st.Progress = math.Max(0, math.Min(100, p))
	return st
}

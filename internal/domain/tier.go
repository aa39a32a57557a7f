package domain

import "fmt"

// Unlimited is the sentinel limit value meaning "no cap" for a quota dimension.
const Unlimited int64 = -1

// Tier is a subscription level. Tiers are totally ordered:
// Free < Premium < Enterprise.
type Tier string

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

var tierRank = map[Tier]int{
	TierFree:       0,
	TierPremium:    1,
	TierEnterprise: 2,
}

// ParseTier converts a stored tier string into a Tier. The empty string maps
// to TierFree, matching how legacy accounts were persisted.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return TierFree, nil
	}
	t := Tier(s)
	if _, ok := tierRank[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Compare returns -1, 0 or 1 as t orders below, equal to, or above other.
func (t Tier) Compare(other Tier) int {
	switch {
	case tierRank[t] < tierRank[other]:
		return -1
	case tierRank[t] > tierRank[other]:
		return 1
	default:
		return 0
	}
}

// Next returns the tier directly above t. ok is false when t is already the
// top tier.
func (t Tier) Next() (next Tier, ok bool) {
	switch t {
	case TierFree:
		return TierPremium, true
	case TierPremium:
		return TierEnterprise, true
	default:
		return "", false
	}
}

// AllTiers lists the tiers in ascending order.
func AllTiers() []Tier {
	return []Tier{TierFree, TierPremium, TierEnterprise}
}

// TierLimits holds the quota limits and feature flags for one tier.
// A numeric value of Unlimited (-1) means the dimension is uncapped.
type TierLimits struct {
	Interns               int64 `json:"interns"`
	Cases                 int64 `json:"cases"`
	Resources             int64 `json:"resources"`
	SessionsPerMonth      int64 `json:"sessions"`
	StorageBytes          int64 `json:"storage_bytes"`
	AIRequestsPerMonth    int64 `json:"ai_requests_per_month"`
	VideoSessionsPerMonth int64 `json:"video_sessions_per_month"`
	CustomCompetencies    int64 `json:"custom_competencies"`

	ExportReports     bool `json:"export_reports"`
	PrioritySupport   bool `json:"priority_support"`
	AdvancedAnalytics bool `json:"advanced_analytics"`
	WhiteLabel        bool `json:"white_label"`
}

// TierPricing is the published price of a tier, for upgrade recommendations.
type TierPricing struct {
	MonthlyPrice float64 `json:"monthly_price"`
	YearlyPrice  float64 `json:"yearly_price"`
	Currency     string  `json:"currency"`
}

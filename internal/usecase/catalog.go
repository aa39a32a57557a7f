package usecase

import (
	"fmt"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// Catalog is the immutable tier catalog: quota limits and pricing per tier.
// It is built once at startup from configuration and injected; nothing
// mutates it afterwards.
type Catalog struct {
	limits  map[domain.Tier]domain.TierLimits
	pricing map[domain.Tier]domain.TierPricing
}

// NewCatalog builds a Catalog and verifies the limit ordering invariant:
// every numeric dimension and feature flag must be non-decreasing from Free
// to Enterprise, with unlimited counting as the top of the order.
func NewCatalog(limits map[domain.Tier]domain.TierLimits, pricing map[domain.Tier]domain.TierPricing) (*Catalog, error) {
	for _, t := range domain.AllTiers() {
		if _, ok := limits[t]; !ok {
			return nil, fmt.Errorf("%w: missing limits for %s", domain.ErrInvalidTier, t)
		}
	}

	tiers := domain.AllTiers()
	for i := 1; i < len(tiers); i++ {
		lower, upper := limits[tiers[i-1]], limits[tiers[i]]
		if err := checkOrdering(tiers[i-1], tiers[i], lower, upper); err != nil {
			return nil, err
		}
	}

	return &Catalog{limits: limits, pricing: pricing}, nil
}

func checkOrdering(lowerTier, upperTier domain.Tier, lower, upper domain.TierLimits) error {
	numeric := []struct {
		name string
		lo   int64
		hi   int64
	}{
		{domain.DimensionInterns, lower.Interns, upper.Interns},
		{domain.DimensionCases, lower.Cases, upper.Cases},
		{domain.DimensionResources, lower.Resources, upper.Resources},
		{domain.DimensionSessions, lower.SessionsPerMonth, upper.SessionsPerMonth},
		{domain.DimensionStorageBytes, lower.StorageBytes, upper.StorageBytes},
		{"ai_requests", lower.AIRequestsPerMonth, upper.AIRequestsPerMonth},
		{"video_sessions", lower.VideoSessionsPerMonth, upper.VideoSessionsPerMonth},
		{domain.DimensionCustomCompetencies, lower.CustomCompetencies, upper.CustomCompetencies},
	}
	for _, d := range numeric {
		// Unlimited is maximal, so an unlimited upper bound always satisfies
		// the ordering and an unlimited lower bound requires the same above.
		if d.hi == domain.Unlimited {
			continue
		}
		if d.lo == domain.Unlimited || d.lo > d.hi {
			return fmt.Errorf("tier catalog: %s limit decreases from %s to %s", d.name, lowerTier, upperTier)
		}
	}

	flags := []struct {
		name string
		lo   bool
		hi   bool
	}{
		{"export_reports", lower.ExportReports, upper.ExportReports},
		{"priority_support", lower.PrioritySupport, upper.PrioritySupport},
		{"advanced_analytics", lower.AdvancedAnalytics, upper.AdvancedAnalytics},
		{"white_label", lower.WhiteLabel, upper.WhiteLabel},
	}
	for _, f := range flags {
		if f.lo && !f.hi {
			return fmt.Errorf("tier catalog: %s flag revoked from %s to %s", f.name, lowerTier, upperTier)
		}
	}

	return nil
}

// LimitsFor returns the limits of a tier. It is total over valid tiers.
func (c *Catalog) LimitsFor(tier domain.Tier) domain.TierLimits {
	return c.limits[tier]
}

// PricingFor returns the published price of a tier.
func (c *Catalog) PricingFor(tier domain.Tier) domain.TierPricing {
	return c.pricing[tier]
}

// TierComparisonEntry is one tier's row in the public comparison table, with
// limits humanized for display.
type TierComparisonEntry struct {
	Name    string             `json:"name"`
	Pricing domain.TierPricing `json:"pricing"`
	Limits  map[string]string  `json:"limits"`
}

// Comparison renders the full tier comparison shown on the public pricing
// page.
func (c *Catalog) Comparison() map[string]TierComparisonEntry {
	out := make(map[string]TierComparisonEntry, len(c.limits))
	for _, tier := range domain.AllTiers() {
		l := c.limits[tier]
		out[string(tier)] = TierComparisonEntry{
			Name:    titleCase(string(tier)),
			Pricing: c.pricing[tier],
			Limits: map[string]string{
				"interns":             humanCount(l.Interns),
				"cases":               humanCount(l.Cases),
				"resources":           humanCount(l.Resources),
				"sessions":            humanCount(l.SessionsPerMonth),
				"storage_gb":          humanStorage(l.StorageBytes),
				"ai_requests":         humanCount(l.AIRequestsPerMonth),
				"video_sessions":      humanCount(l.VideoSessionsPerMonth),
				"custom_competencies": humanCount(l.CustomCompetencies),
				"export_reports":      humanFlag(l.ExportReports),
				"priority_support":    humanFlag(l.PrioritySupport),
				"advanced_analytics":  humanFlag(l.AdvancedAnalytics),
				"white_label":         humanFlag(l.WhiteLabel),
			},
		}
	}
	return out
}

// FeatureAvailability returns the boolean feature map of a tier, keyed by
// feature name, for the feature-gating middleware.
func (c *Catalog) FeatureAvailability(tier domain.Tier) map[string]bool {
	l := c.limits[tier]
	return map[string]bool{
		"export_reports":      l.ExportReports,
		"priority_support":    l.PrioritySupport,
		"advanced_analytics":  l.AdvancedAnalytics,
		"white_label":         l.WhiteLabel,
		"custom_competencies": l.CustomCompetencies != 0,
		"video_sessions":      l.VideoSessionsPerMonth != 0,
		"ai_assistance":       l.AIRequestsPerMonth != 0,
	}
}

func humanCount(v int64) string {
	if v == domain.Unlimited {
		return "Ilimitado"
	}
	return fmt.Sprintf("%d", v)
}

func humanStorage(v int64) string {
	if v == domain.Unlimited {
		return "Ilimitado"
	}
	return fmt.Sprintf("%.0fGB", float64(v)/(1<<30))
}

func humanFlag(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// nearingLimitRatio is the usage fraction at which advisory "nearing limit"
// recommendations start.
const nearingLimitRatio = 0.8

// quotaDimensions fixes the evaluation and reporting order of the quota
// dimensions so validation results are deterministic.
var quotaDimensions = []string{
	domain.DimensionInterns,
	domain.DimensionCases,
	domain.DimensionResources,
	domain.DimensionSessions,
	domain.DimensionStorageBytes,
	domain.DimensionCustomCompetencies,
}

// dimensionLabels maps dimension names to the labels used in user-facing
// messages.
var dimensionLabels = map[string]string{
	domain.DimensionInterns:            "estagiários",
	domain.DimensionCases:              "casos clínicos",
	domain.DimensionResources:          "recursos",
	domain.DimensionSessions:           "sessões",
	domain.DimensionStorageBytes:       "armazenamento",
	domain.DimensionCustomCompetencies: "competências customizadas",
}

// Entitlements decides whether an account may perform gated actions and
// produces limit-validation and upgrade-recommendation reports.
type Entitlements struct {
	catalog  *Catalog
	accounts domain.AccountRepository
	usage    domain.UsageRepository
	meter    *UsageMeter
	logger   *slog.Logger
	now      func() time.Time
}

// NewEntitlements creates the entitlement engine.
func NewEntitlements(catalog *Catalog, accounts domain.AccountRepository, usage domain.UsageRepository, meter *UsageMeter, logger *slog.Logger) *Entitlements {
	return &Entitlements{
		catalog:  catalog,
		accounts: accounts,
		usage:    usage,
		meter:    meter,
		logger:   logger,
		now:      time.Now,
	}
}

// Validate checks the account's windowed usage against its tier limits,
// dimension by dimension. Exceeded dimensions set UpgradeRequired; dimensions
// at or above 80% of a finite limit get an advisory recommendation without
// affecting validity.
func (e *Entitlements) Validate(ctx context.Context, accountID uuid.UUID) (domain.TierValidationResult, error) {
	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.TierValidationResult{}, err
	}

	limits := e.catalog.LimitsFor(account.Tier)
	metrics, err := e.meter.Measure(ctx, accountID, DefaultMeteringPeriodDays)
	if err != nil {
		return domain.TierValidationResult{}, err
	}

	currentUsage := map[string]int64{
		domain.DimensionInterns:            metrics.InternsCount,
		domain.DimensionCases:              metrics.CasesCount,
		domain.DimensionResources:          metrics.ResourcesCount,
		domain.DimensionSessions:           metrics.SessionsCount,
		domain.DimensionStorageBytes:       metrics.StorageUsedBytes,
		domain.DimensionCustomCompetencies: metrics.CustomCompetencies,
	}
	tierLimits := map[string]int64{
		domain.DimensionInterns:            limits.Interns,
		domain.DimensionCases:              limits.Cases,
		domain.DimensionResources:          limits.Resources,
		domain.DimensionSessions:           limits.SessionsPerMonth,
		domain.DimensionStorageBytes:       limits.StorageBytes,
		domain.DimensionCustomCompetencies: limits.CustomCompetencies,
	}

	var exceeded []string
	var recommendations []string

	for _, dim := range quotaDimensions {
		current, limit := currentUsage[dim], tierLimits[dim]
		if limit == domain.Unlimited || current < limit {
			continue
		}
		// A zero allowance with zero usage is inside the limit.
		if current == 0 {
			continue
		}
		exceeded = append(exceeded, dim)

		if dim == domain.DimensionStorageBytes {
			recommendations = append(recommendations, fmt.Sprintf(
				"Armazenamento excedido (%.1fMB / %.1fMB). Considere remover recursos antigos ou fazer upgrade.",
				float64(current)/(1<<20), float64(limit)/(1<<20)))
		} else {
			recommendations = append(recommendations, fmt.Sprintf(
				"Limite de %s atingido (%d/%d). Faça upgrade para continuar adicionando.",
				dimensionLabels[dim], current, limit))
		}
	}

	for _, dim := range quotaDimensions {
		current, limit := currentUsage[dim], tierLimits[dim]
		if limit == domain.Unlimited || limit == 0 || contains(exceeded, dim) {
			continue
		}
		if float64(current) >= float64(limit)*nearingLimitRatio {
			recommendations = append(recommendations, fmt.Sprintf(
				"Você está próximo do limite de %s (%d/%d). Considere fazer upgrade em breve.",
				dimensionLabels[dim], current, limit))
		}
	}

	return domain.TierValidationResult{
		IsValid:         len(exceeded) == 0,
		CurrentUsage:    currentUsage,
		Limits:          tierLimits,
		ExceededLimits:  exceeded,
		Recommendations: recommendations,
		UpgradeRequired: len(exceeded) > 0,
	}, nil
}

// CanPerform decides whether the account may perform action right now.
// Creation actions compare lifetime totals against the tier limit; session
// scheduling is scoped to the current calendar month. The returned reason is
// user-facing.
func (e *Entitlements) CanPerform(ctx context.Context, accountID uuid.UUID, action domain.Action, actx domain.ActionContext) (bool, string, error) {
	if !action.Valid() {
		return false, "", fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return false, "", err
	}
	limits := e.catalog.LimitsFor(account.Tier)

	switch action {
	case domain.ActionCreateIntern:
		count, err := e.usage.CountInterns(ctx, accountID, time.Time{})
		if err != nil {
			return false, "", err
		}
		if limits.Interns != domain.Unlimited && count >= limits.Interns {
			return false, fmt.Sprintf("Limite de estagiários atingido (%d/%d). Faça upgrade para adicionar mais.", count, limits.Interns), nil
		}

	case domain.ActionCreateCase:
		count, err := e.usage.CountCases(ctx, accountID, time.Time{})
		if err != nil {
			return false, "", err
		}
		if limits.Cases != domain.Unlimited && count >= limits.Cases {
			return false, fmt.Sprintf("Limite de casos clínicos atingido (%d/%d). Faça upgrade para adicionar mais.", count, limits.Cases), nil
		}

	case domain.ActionUploadResource:
		count, err := e.usage.CountResources(ctx, accountID, time.Time{})
		if err != nil {
			return false, "", err
		}
		if limits.Resources != domain.Unlimited && count >= limits.Resources {
			return false, fmt.Sprintf("Limite de recursos atingido (%d/%d). Faça upgrade para adicionar mais.", count, limits.Resources), nil
		}
		storage, err := e.usage.StorageUsedBytes(ctx, accountID)
		if err != nil {
			return false, "", err
		}
		if limits.StorageBytes != domain.Unlimited && storage+actx.FileSize > limits.StorageBytes {
			return false, "Limite de armazenamento excedido. Faça upgrade ou remova recursos antigos.", nil
		}

	case domain.ActionScheduleSession:
		monthStart := startOfMonth(e.now())
		count, err := e.usage.CountSessions(ctx, accountID, monthStart)
		if err != nil {
			return false, "", err
		}
		if limits.SessionsPerMonth != domain.Unlimited && count >= limits.SessionsPerMonth {
			return false, fmt.Sprintf("Limite de sessões mensais atingido (%d/%d). Faça upgrade para agendar mais.", count, limits.SessionsPerMonth), nil
		}

	case domain.ActionCreateCustomCompetency:
		count, err := e.usage.CountCustomCompetencies(ctx, accountID)
		if err != nil {
			return false, "", err
		}
		if limits.CustomCompetencies != domain.Unlimited && count >= limits.CustomCompetencies {
			return false, fmt.Sprintf("Limite de competências customizadas atingido (%d/%d). Faça upgrade para criar mais.", count, limits.CustomCompetencies), nil
		}

	case domain.ActionExportReport:
		if !limits.ExportReports {
			return false, "Exportação de relatórios não disponível no seu plano. Faça upgrade para acessar esta funcionalidade.", nil
		}

	case domain.ActionUseAI:
		// Only the zero allowance is denied; positive allowances pass, since
		// AI consumption is not yet counted anywhere.
		if limits.AIRequestsPerMonth == 0 {
			return false, "Assistência de IA não disponível no seu plano. Faça upgrade para acessar esta funcionalidade.", nil
		}
	}

	return true, "Ação permitida", nil
}

// RecommendUpgrade computes per-dimension usage percentages and suggests the
// next tier above the current one when any limit is exceeded or usage passes
// 80% of a finite limit. The top tier never gets a suggestion.
func (e *Entitlements) RecommendUpgrade(ctx context.Context, accountID uuid.UUID) (domain.UpgradeRecommendation, error) {
	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.UpgradeRecommendation{}, err
	}

	validation, err := e.Validate(ctx, accountID)
	if err != nil {
		return domain.UpgradeRecommendation{}, err
	}

	rec := domain.UpgradeRecommendation{
		CurrentTier:     account.Tier,
		NeedsUpgrade:    validation.UpgradeRequired,
		ExceededLimits:  validation.ExceededLimits,
		UsagePercentage: make(map[string]float64, len(quotaDimensions)),
	}

	overEighty := false
	for _, dim := range quotaDimensions {
		limit := validation.Limits[dim]
		if limit == domain.Unlimited {
			rec.UsagePercentage[dim] = 0
			continue
		}
		pct := float64(0)
		if limit > 0 {
			pct = float64(validation.CurrentUsage[dim]) / float64(limit) * 100
		} else if validation.CurrentUsage[dim] > 0 {
			pct = 100
		}
		if pct > 100 {
			pct = 100
		}
		rec.UsagePercentage[dim] = pct
		if pct > 80 {
			overEighty = true
		}
	}

	next, ok := account.Tier.Next()
	if !ok || (!validation.UpgradeRequired && !overEighty) {
		return rec, nil
	}

	rec.SuggestedTier = &next
	rec.Benefits = e.benefitsDiff(account.Tier, next)
	pricing := e.catalog.PricingFor(next)
	rec.Pricing = &pricing

	return rec, nil
}

// benefitsDiff lists what the target tier adds over the current one.
func (e *Entitlements) benefitsDiff(current, target domain.Tier) []string {
	cur, tgt := e.catalog.LimitsFor(current), e.catalog.LimitsFor(target)

	var benefits []string
	addCount := func(label string, curV, tgtV int64) {
		if tgtV == domain.Unlimited {
			if curV != domain.Unlimited {
				benefits = append(benefits, fmt.Sprintf("%s: Ilimitados", label))
			}
			return
		}
		if tgtV > curV {
			benefits = append(benefits, fmt.Sprintf("%s: %d (vs %d atual)", label, tgtV, curV))
		}
	}

	addCount("Estagiários", cur.Interns, tgt.Interns)
	addCount("Casos clínicos", cur.Cases, tgt.Cases)
	addCount("Recursos", cur.Resources, tgt.Resources)
	addCount("Sessões mensais", cur.SessionsPerMonth, tgt.SessionsPerMonth)
	addCount("Competências customizadas", cur.CustomCompetencies, tgt.CustomCompetencies)

	switch {
	case tgt.StorageBytes == domain.Unlimited && cur.StorageBytes != domain.Unlimited:
		benefits = append(benefits, "Armazenamento: Ilimitado")
	case tgt.StorageBytes != domain.Unlimited && tgt.StorageBytes > cur.StorageBytes:
		benefits = append(benefits, fmt.Sprintf("Armazenamento: %.0fGB (vs %.0fGB atual)",
			float64(tgt.StorageBytes)/(1<<30), float64(cur.StorageBytes)/(1<<30)))
	}

	if tgt.ExportReports && !cur.ExportReports {
		benefits = append(benefits, "Exportação de relatórios")
	}
	if tgt.PrioritySupport && !cur.PrioritySupport {
		benefits = append(benefits, "Suporte prioritário")
	}
	if tgt.AdvancedAnalytics && !cur.AdvancedAnalytics {
		benefits = append(benefits, "Analytics avançados")
	}
	if tgt.WhiteLabel && !cur.WhiteLabel {
		benefits = append(benefits, "White label")
	}

	return benefits
}

// UpgradeSimulation is the result of a dry-run tier upgrade.
type UpgradeSimulation struct {
	CurrentTier  domain.Tier         `json:"current_tier"`
	TargetTier   domain.Tier         `json:"target_tier"`
	Benefits     []string            `json:"benefits"`
	Pricing      domain.TierPricing  `json:"pricing"`
	CurrentUsage domain.UsageMetrics `json:"current_usage"`
	NewLimits    domain.TierLimits   `json:"new_limits"`
}

// SimulateUpgrade reports what an upgrade to target would change, without
// writing anything.
func (e *Entitlements) SimulateUpgrade(ctx context.Context, accountID uuid.UUID, target domain.Tier) (UpgradeSimulation, error) {
	if !target.Valid() {
		return UpgradeSimulation{}, fmt.Errorf("%w: %q", domain.ErrInvalidTier, target)
	}

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return UpgradeSimulation{}, err
	}

	metrics, err := e.meter.Measure(ctx, accountID, DefaultMeteringPeriodDays)
	if err != nil {
		return UpgradeSimulation{}, err
	}

	return UpgradeSimulation{
		CurrentTier:  account.Tier,
		TargetTier:   target,
		Benefits:     e.benefitsDiff(account.Tier, target),
		Pricing:      e.catalog.PricingFor(target),
		CurrentUsage: metrics,
		NewLimits:    e.catalog.LimitsFor(target),
	}, nil
}

// ProcessUpgrade applies a tier change to the account. Payment handling lives
// with the billing collaborator; by the time this runs the charge has
// settled.
func (e *Entitlements) ProcessUpgrade(ctx context.Context, accountID uuid.UUID, target domain.Tier) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTier, target)
	}

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	upgradedAt := e.now()
	if err := e.accounts.UpdateTier(ctx, accountID, target, upgradedAt); err != nil {
		return err
	}

	e.logger.Info("tier upgrade processed",
		"account_id", accountID,
		"from_tier", account.Tier,
		"to_tier", target,
	)
	return nil
}

// UsageReport is the detailed per-account usage rollup.
type UsageReport struct {
	AccountID      uuid.UUID                    `json:"account_id"`
	PeriodStart    time.Time                    `json:"period_start"`
	PeriodEnd      time.Time                    `json:"period_end"`
	PeriodDays     int                          `json:"period_days"`
	CurrentTier    domain.Tier                  `json:"current_tier"`
	UsageMetrics   domain.UsageMetrics          `json:"usage_metrics"`
	TierValidation domain.TierValidationResult  `json:"tier_validation"`
	Upgrade        domain.UpgradeRecommendation `json:"upgrade_recommendations"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}

// Report assembles metrics, validation and upgrade recommendation into one
// payload.
func (e *Entitlements) Report(ctx context.Context, accountID uuid.UUID, periodDays int) (UsageReport, error) {
	if periodDays <= 0 {
		periodDays = DefaultMeteringPeriodDays
	}

	metrics, err := e.meter.Measure(ctx, accountID, periodDays)
	if err != nil {
		return UsageReport{}, err
	}
	validation, err := e.Validate(ctx, accountID)
	if err != nil {
		return UsageReport{}, err
	}
	recommendation, err := e.RecommendUpgrade(ctx, accountID)
	if err != nil {
		return UsageReport{}, err
	}

	return UsageReport{
		AccountID:      accountID,
		PeriodStart:    metrics.PeriodStart,
		PeriodEnd:      metrics.PeriodEnd,
		PeriodDays:     periodDays,
		CurrentTier:    metrics.Tier,
		UsageMetrics:   metrics,
		TierValidation: validation,
		Upgrade:        recommendation,
		GeneratedAt:    e.now(),
	}, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

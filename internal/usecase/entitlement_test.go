package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/domain/mocks"
)

func newTestEntitlements(t *testing.T, accounts *mocks.MockAccountRepository, usage *mocks.MockUsageRepository) *Entitlements {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := newTestCatalog(t)
	meter := NewUsageMeter(accounts, usage)
	return NewEntitlements(catalog, accounts, usage, meter, logger)
}

func singleAccount(id uuid.UUID, tier domain.Tier) *mocks.MockAccountRepository {
	return &mocks.MockAccountRepository{
		Accounts: map[uuid.UUID]*domain.Account{
			id: {ID: id, Name: "Dra. Silva", Email: "silva@fisioflow.com.br", Tier: tier},
		},
	}
}

func TestEntitlements_Validate(t *testing.T) {
	accountID := uuid.New()

	t.Run("Within Limits", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 2, Cases: 3}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		result, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Error("expected result to be valid")
		}
		if result.UpgradeRequired {
			t.Error("expected no upgrade requirement")
		}
		if len(result.ExceededLimits) != 0 {
			t.Errorf("expected no exceeded limits, got %v", result.ExceededLimits)
		}
		if len(result.Recommendations) != 0 {
			t.Errorf("expected no recommendations, got %v", result.Recommendations)
		}
	})

	t.Run("Intern Limit Reached", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 5}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		result, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.IsValid {
			t.Error("expected result to be invalid")
		}
		if !result.UpgradeRequired {
			t.Error("expected upgrade to be required")
		}
		if len(result.ExceededLimits) != 1 || result.ExceededLimits[0] != domain.DimensionInterns {
			t.Errorf("expected interns to be exceeded, got %v", result.ExceededLimits)
		}
		want := "Limite de estagiários atingido (5/5). Faça upgrade para continuar adicionando."
		if len(result.Recommendations) != 1 || result.Recommendations[0] != want {
			t.Errorf("expected recommendation %q, got %v", want, result.Recommendations)
		}
	})

	t.Run("Storage Exceeded Message", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{StorageBytes: (1 << 30) + (100 << 20)}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		result, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.IsValid {
			t.Error("expected result to be invalid")
		}
		if len(result.Recommendations) != 1 {
			t.Fatalf("expected 1 recommendation, got %v", result.Recommendations)
		}
		if !strings.HasPrefix(result.Recommendations[0], "Armazenamento excedido (1124.0MB / 1024.0MB)") {
			t.Errorf("unexpected storage message: %q", result.Recommendations[0])
		}
	})

	t.Run("Nearing Limit Advisory", func(t *testing.T) {
		// 4/5 interns is 80%, advisory territory but still valid.
		usage := &mocks.MockUsageRepository{Interns: 4}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		result, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Error("expected result to stay valid")
		}
		if result.UpgradeRequired {
			t.Error("expected no upgrade requirement")
		}
		want := "Você está próximo do limite de estagiários (4/5). Considere fazer upgrade em breve."
		if len(result.Recommendations) != 1 || result.Recommendations[0] != want {
			t.Errorf("expected advisory %q, got %v", want, result.Recommendations)
		}
	})

	t.Run("Enterprise Never Exceeds", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{
			Interns:      10000,
			Cases:        10000,
			Resources:    10000,
			Sessions:     10000,
			StorageBytes: 500 << 30,
		}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierEnterprise), usage)

		result, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.IsValid {
			t.Error("expected enterprise usage to always be valid")
		}
		if len(result.Recommendations) != 0 {
			t.Errorf("expected no recommendations, got %v", result.Recommendations)
		}
	})

	t.Run("Validation Does Not Mutate State", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 5}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		first, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := e.Validate(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if first.IsValid != second.IsValid || len(first.Recommendations) != len(second.Recommendations) {
			t.Error("expected repeated validation to return identical results")
		}
	})

	t.Run("Unknown Account", func(t *testing.T) {
		e := newTestEntitlements(t, &mocks.MockAccountRepository{}, &mocks.MockUsageRepository{})

		_, err := e.Validate(context.Background(), accountID)
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestEntitlements_CanPerform(t *testing.T) {
	accountID := uuid.New()

	t.Run("Free Tier Intern Limit", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 5}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		allowed, reason, err := e.CanPerform(context.Background(), accountID, domain.ActionCreateIntern, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if allowed {
			t.Error("expected action to be denied")
		}
		want := "Limite de estagiários atingido (5/5). Faça upgrade para adicionar mais."
		if reason != want {
			t.Errorf("expected reason %q, got %q", want, reason)
		}
	})

	t.Run("Free Tier Below Limit", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 4}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		allowed, reason, err := e.CanPerform(context.Background(), accountID, domain.ActionCreateIntern, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !allowed {
			t.Errorf("expected action to be allowed, got reason %q", reason)
		}
		if reason != "Ação permitida" {
			t.Errorf("unexpected reason %q", reason)
		}
	})

	t.Run("Upload Denied By Storage Cap", func(t *testing.T) {
		// Resource count is fine, but the file would push storage past 1GB.
		usage := &mocks.MockUsageRepository{Resources: 1, StorageBytes: 1000 << 20}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		allowed, reason, err := e.CanPerform(context.Background(), accountID, domain.ActionUploadResource,
			domain.ActionContext{FileSize: 100 << 20})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if allowed {
			t.Error("expected upload to be denied")
		}
		if reason != "Limite de armazenamento excedido. Faça upgrade ou remova recursos antigos." {
			t.Errorf("unexpected reason %q", reason)
		}
	})

	t.Run("Upload Exactly At Storage Cap", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{StorageBytes: 1000 << 20}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		allowed, _, err := e.CanPerform(context.Background(), accountID, domain.ActionUploadResource,
			domain.ActionContext{FileSize: 24 << 20})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !allowed {
			t.Error("expected an upload landing exactly on the cap to be allowed")
		}
	})

	t.Run("Session Limit Scoped To Calendar Month", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Sessions: 5}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)
		e.now = func() time.Time {
			return time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)
		}

		allowed, reason, err := e.CanPerform(context.Background(), accountID, domain.ActionScheduleSession, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if allowed {
			t.Error("expected session scheduling to be denied")
		}
		if reason != "Limite de sessões mensais atingido (5/5). Faça upgrade para agendar mais." {
			t.Errorf("unexpected reason %q", reason)
		}

		wantSince := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		if len(usage.SessionQueries) != 1 || !usage.SessionQueries[0].Equal(wantSince) {
			t.Errorf("expected session count scoped to %v, got %v", wantSince, usage.SessionQueries)
		}
	})

	t.Run("Custom Competency Zero Allowance", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		allowed, _, err := e.CanPerform(context.Background(), accountID, domain.ActionCreateCustomCompetency, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if allowed {
			t.Error("expected zero-allowance competency creation to be denied")
		}
	})

	t.Run("Export Denied On Free", func(t *testing.T) {
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), &mocks.MockUsageRepository{})

		allowed, reason, err := e.CanPerform(context.Background(), accountID, domain.ActionExportReport, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if allowed {
			t.Error("expected export to be denied on free")
		}
		if !strings.Contains(reason, "Exportação de relatórios não disponível") {
			t.Errorf("unexpected reason %q", reason)
		}
	})

	t.Run("Export Allowed On Premium", func(t *testing.T) {
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierPremium), &mocks.MockUsageRepository{})

		allowed, _, err := e.CanPerform(context.Background(), accountID, domain.ActionExportReport, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !allowed {
			t.Error("expected export to be allowed on premium")
		}
	})

	t.Run("AI Allowed With Positive Allowance", func(t *testing.T) {
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), &mocks.MockUsageRepository{})

		allowed, _, err := e.CanPerform(context.Background(), accountID, domain.ActionUseAI, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !allowed {
			t.Error("expected AI use to be allowed with a positive allowance")
		}
	})

	t.Run("Enterprise Bypasses Counting", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 100000}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierEnterprise), usage)

		allowed, _, err := e.CanPerform(context.Background(), accountID, domain.ActionCreateIntern, domain.ActionContext{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !allowed {
			t.Error("expected enterprise intern creation to always be allowed")
		}
	})

	t.Run("Invalid Action", func(t *testing.T) {
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), &mocks.MockUsageRepository{})

		_, _, err := e.CanPerform(context.Background(), accountID, domain.Action("delete_everything"), domain.ActionContext{})
		if !errors.Is(err, domain.ErrInvalidAction) {
			t.Fatalf("expected ErrInvalidAction, got %v", err)
		}
	})

	t.Run("Record Store Error Propagates", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Err: errors.New("connection refused")}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		_, _, err := e.CanPerform(context.Background(), accountID, domain.ActionCreateIntern, domain.ActionContext{})
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}

func TestEntitlements_RecommendUpgrade(t *testing.T) {
	accountID := uuid.New()

	t.Run("No Upgrade Needed", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 1}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		rec, err := e.RecommendUpgrade(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.NeedsUpgrade {
			t.Error("expected no upgrade need")
		}
		if rec.SuggestedTier != nil {
			t.Errorf("expected no suggestion, got %v", *rec.SuggestedTier)
		}
		if rec.UsagePercentage[domain.DimensionInterns] != 20 {
			t.Errorf("expected 20%% intern usage, got %v", rec.UsagePercentage[domain.DimensionInterns])
		}
	})

	t.Run("Free Over Limit Suggests Premium", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 5}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		rec, err := e.RecommendUpgrade(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !rec.NeedsUpgrade {
			t.Error("expected upgrade to be needed")
		}
		if rec.SuggestedTier == nil || *rec.SuggestedTier != domain.TierPremium {
			t.Fatalf("expected premium suggestion, got %v", rec.SuggestedTier)
		}
		if rec.Pricing == nil || rec.Pricing.MonthlyPrice != 99.90 {
			t.Errorf("expected premium pricing, got %+v", rec.Pricing)
		}
		if !contains(rec.Benefits, "Estagiários: 50 (vs 5 atual)") {
			t.Errorf("expected intern benefit line, got %v", rec.Benefits)
		}
		if !contains(rec.Benefits, "Exportação de relatórios") {
			t.Errorf("expected export benefit line, got %v", rec.Benefits)
		}
	})

	t.Run("Nearing Limit Suggests Without Requiring", func(t *testing.T) {
		// 9/10 cases is 90%, past the advisory threshold.
		usage := &mocks.MockUsageRepository{Cases: 9}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		rec, err := e.RecommendUpgrade(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.NeedsUpgrade {
			t.Error("expected upgrade to be optional")
		}
		if rec.SuggestedTier == nil || *rec.SuggestedTier != domain.TierPremium {
			t.Fatalf("expected premium suggestion, got %v", rec.SuggestedTier)
		}
	})

	t.Run("Percentages Cap At One Hundred", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 12}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		rec, err := e.RecommendUpgrade(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.UsagePercentage[domain.DimensionInterns] != 100 {
			t.Errorf("expected capped 100%%, got %v", rec.UsagePercentage[domain.DimensionInterns])
		}
	})

	t.Run("Zero Limit With Usage Reads Full", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{CustomCompetencies: 1}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		rec, err := e.RecommendUpgrade(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.UsagePercentage[domain.DimensionCustomCompetencies] != 100 {
			t.Errorf("expected 100%% for usage against a zero limit, got %v",
				rec.UsagePercentage[domain.DimensionCustomCompetencies])
		}
	})

	t.Run("Enterprise Never Gets A Suggestion", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 100000, Cases: 100000}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierEnterprise), usage)

		rec, err := e.RecommendUpgrade(context.Background(), accountID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.SuggestedTier != nil {
			t.Errorf("expected no suggestion above enterprise, got %v", *rec.SuggestedTier)
		}
		if rec.UsagePercentage[domain.DimensionInterns] != 0 {
			t.Errorf("expected 0%% against unlimited, got %v", rec.UsagePercentage[domain.DimensionInterns])
		}
	})
}

func TestEntitlements_SimulateUpgrade(t *testing.T) {
	accountID := uuid.New()

	t.Run("Free To Premium", func(t *testing.T) {
		usage := &mocks.MockUsageRepository{Interns: 5, StorageBytes: 1 << 29}
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

		sim, err := e.SimulateUpgrade(context.Background(), accountID, domain.TierPremium)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sim.CurrentTier != domain.TierFree || sim.TargetTier != domain.TierPremium {
			t.Errorf("unexpected tiers in simulation: %+v", sim)
		}
		if sim.NewLimits.Interns != 50 {
			t.Errorf("expected premium intern limit 50, got %d", sim.NewLimits.Interns)
		}
		if sim.Pricing.MonthlyPrice != 99.90 {
			t.Errorf("expected premium pricing, got %+v", sim.Pricing)
		}
		if !contains(sim.Benefits, "Armazenamento: 10GB (vs 1GB atual)") {
			t.Errorf("expected storage benefit line, got %v", sim.Benefits)
		}
		if sim.CurrentUsage.InternsCount != 5 {
			t.Errorf("expected current usage in simulation, got %+v", sim.CurrentUsage)
		}
	})

	t.Run("Invalid Target", func(t *testing.T) {
		e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), &mocks.MockUsageRepository{})

		_, err := e.SimulateUpgrade(context.Background(), accountID, domain.Tier("platinum"))
		if !errors.Is(err, domain.ErrInvalidTier) {
			t.Fatalf("expected ErrInvalidTier, got %v", err)
		}
	})
}

func TestEntitlements_ProcessUpgrade(t *testing.T) {
	accountID := uuid.New()

	t.Run("Successful Upgrade", func(t *testing.T) {
		accounts := singleAccount(accountID, domain.TierFree)
		e := newTestEntitlements(t, accounts, &mocks.MockUsageRepository{})

		if err := e.ProcessUpgrade(context.Background(), accountID, domain.TierPremium); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(accounts.TierUpdates) != 1 {
			t.Fatalf("expected 1 tier update, got %d", len(accounts.TierUpdates))
		}
		update := accounts.TierUpdates[0]
		if update.AccountID != accountID || update.Tier != domain.TierPremium {
			t.Errorf("unexpected tier update %+v", update)
		}
		if update.UpgradedAt.IsZero() {
			t.Error("expected the upgrade timestamp to be set")
		}
	})

	t.Run("Invalid Target", func(t *testing.T) {
		accounts := singleAccount(accountID, domain.TierFree)
		e := newTestEntitlements(t, accounts, &mocks.MockUsageRepository{})

		err := e.ProcessUpgrade(context.Background(), accountID, domain.Tier("platinum"))
		if !errors.Is(err, domain.ErrInvalidTier) {
			t.Fatalf("expected ErrInvalidTier, got %v", err)
		}
		if len(accounts.TierUpdates) != 0 {
			t.Error("expected no tier update on invalid target")
		}
	})

	t.Run("Update Failure", func(t *testing.T) {
		accounts := singleAccount(accountID, domain.TierFree)
		accounts.UpdateErr = errors.New("deadlock detected")
		e := newTestEntitlements(t, accounts, &mocks.MockUsageRepository{})

		if err := e.ProcessUpgrade(context.Background(), accountID, domain.TierPremium); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}

func TestEntitlements_Report(t *testing.T) {
	accountID := uuid.New()
	usage := &mocks.MockUsageRepository{Interns: 5, Cases: 2}
	e := newTestEntitlements(t, singleAccount(accountID, domain.TierFree), usage)

	report, err := e.Report(context.Background(), accountID, 30)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.AccountID != accountID {
		t.Errorf("unexpected account id %v", report.AccountID)
	}
	if report.CurrentTier != domain.TierFree {
		t.Errorf("expected free tier, got %s", report.CurrentTier)
	}
	if report.PeriodDays != 30 {
		t.Errorf("expected 30 day period, got %d", report.PeriodDays)
	}
	if report.TierValidation.IsValid {
		t.Error("expected validation to flag the exhausted intern limit")
	}
	if report.Upgrade.SuggestedTier == nil || *report.Upgrade.SuggestedTier != domain.TierPremium {
		t.Errorf("expected premium suggestion, got %v", report.Upgrade.SuggestedTier)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("expected a generation timestamp")
	}
}

package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// TierLimitsConfig holds one tier's quota limits as read from the
// environment. -1 means unlimited.
type TierLimitsConfig struct {
	Interns            int64 `env:"INTERNS_LIMIT"`
	Cases              int64 `env:"CASES_LIMIT"`
	Resources          int64 `env:"RESOURCES_LIMIT"`
	Sessions           int64 `env:"SESSIONS_LIMIT"`
	StorageBytes       int64 `env:"STORAGE_LIMIT"`
	AIRequests         int64 `env:"AI_REQUESTS"`
	VideoSessions      int64 `env:"VIDEO_SESSIONS"`
	CustomCompetencies int64 `env:"CUSTOM_COMPETENCIES"`
	ExportReports      bool  `env:"EXPORT_REPORTS"`
}

// RateLimitsConfig holds one tier's request allowances per window.
type RateLimitsConfig struct {
	PerMinute int64 `env:"REQUESTS_PER_MINUTE"`
	PerHour   int64 `env:"REQUESTS_PER_HOUR"`
	PerDay    int64 `env:"REQUESTS_PER_DAY"`
}

// Config holds all application configuration.
type Config struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	APIServerAddr   string        `env:"API_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr string        `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`
	PostgresURL     string        `env:"POSTGRES_URL,required"`
	RedisAddr       string        `env:"REDIS_ADDR,required"`
	JWTSecret       string        `env:"JWT_SECRET,required"`
	TokenExpiry     time.Duration `env:"TOKEN_EXPIRY" envDefault:"24h"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`
	AccountCacheTTL time.Duration `env:"ACCOUNT_CACHE_TTL" envDefault:"60s"`

	// Usage-event pipeline.
	UsageStreamMaxLen    int64         `env:"USAGE_STREAM_MAX_LEN" envDefault:"1000000"`
	UsageEventRetention  time.Duration `env:"USAGE_EVENT_RETENTION" envDefault:"720h"` // 30 days
	AnonymizeUsageEvents bool          `env:"MENTORSHIP_DATA_ANONYMIZATION" envDefault:"true"`
	AnonymizationSalt    string        `env:"ANONYMIZATION_SALT" envDefault:"fisioflow"`

	// Tier catalog. Defaults mirror the published plans.
	FreeLimits       TierLimitsConfig `envPrefix:"MENTORSHIP_FREE_"`
	PremiumLimits    TierLimitsConfig `envPrefix:"MENTORSHIP_PREMIUM_"`
	EnterpriseLimits TierLimitsConfig `envPrefix:"MENTORSHIP_ENTERPRISE_"`

	FreeRateLimits       RateLimitsConfig `envPrefix:"MENTORSHIP_FREE_"`
	PremiumRateLimits    RateLimitsConfig `envPrefix:"MENTORSHIP_PREMIUM_"`
	EnterpriseRateLimits RateLimitsConfig `envPrefix:"MENTORSHIP_ENTERPRISE_"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config pre-filled with the published plan values. The
// env tags can override any of them individually; envDefault is unusable for
// limits because the zero value (0) is itself a meaningful limit.
func defaults() *Config {
	return &Config{
		FreeLimits: TierLimitsConfig{
			Interns:            5,
			Cases:              10,
			Resources:          20,
			Sessions:           5,
			StorageBytes:       1 << 30, // 1 GiB
			AIRequests:         50,
			VideoSessions:      2,
			CustomCompetencies: 0,
			ExportReports:      false,
		},
		PremiumLimits: TierLimitsConfig{
			Interns:            50,
			Cases:              100,
			Resources:          domain.Unlimited,
			Sessions:           50,
			StorageBytes:       10 << 30, // 10 GiB
			AIRequests:         500,
			VideoSessions:      20,
			CustomCompetencies: 50,
			ExportReports:      true,
		},
		EnterpriseLimits: TierLimitsConfig{
			Interns:            domain.Unlimited,
			Cases:              domain.Unlimited,
			Resources:          domain.Unlimited,
			Sessions:           domain.Unlimited,
			StorageBytes:       domain.Unlimited,
			AIRequests:         domain.Unlimited,
			VideoSessions:      domain.Unlimited,
			CustomCompetencies: domain.Unlimited,
			ExportReports:      true,
		},
		FreeRateLimits:       RateLimitsConfig{PerMinute: 30, PerHour: 500, PerDay: 2000},
		PremiumRateLimits:    RateLimitsConfig{PerMinute: 100, PerHour: 2000, PerDay: 10000},
		EnterpriseRateLimits: RateLimitsConfig{PerMinute: domain.Unlimited, PerHour: domain.Unlimited, PerDay: domain.Unlimited},
	}
}

// TierLimits assembles the domain tier catalog from the configured values.
// The support/analytics/white-label flags are fixed per plan, not
// env-overridable.
func (c *Config) TierLimits() map[domain.Tier]domain.TierLimits {
	return map[domain.Tier]domain.TierLimits{
		domain.TierFree: {
			Interns:               c.FreeLimits.Interns,
			Cases:                 c.FreeLimits.Cases,
			Resources:             c.FreeLimits.Resources,
			SessionsPerMonth:      c.FreeLimits.Sessions,
			StorageBytes:          c.FreeLimits.StorageBytes,
			AIRequestsPerMonth:    c.FreeLimits.AIRequests,
			VideoSessionsPerMonth: c.FreeLimits.VideoSessions,
			CustomCompetencies:    c.FreeLimits.CustomCompetencies,
			ExportReports:         c.FreeLimits.ExportReports,
		},
		domain.TierPremium: {
			Interns:               c.PremiumLimits.Interns,
			Cases:                 c.PremiumLimits.Cases,
			Resources:             c.PremiumLimits.Resources,
			SessionsPerMonth:      c.PremiumLimits.Sessions,
			StorageBytes:          c.PremiumLimits.StorageBytes,
			AIRequestsPerMonth:    c.PremiumLimits.AIRequests,
			VideoSessionsPerMonth: c.PremiumLimits.VideoSessions,
			CustomCompetencies:    c.PremiumLimits.CustomCompetencies,
			ExportReports:         c.PremiumLimits.ExportReports,
			PrioritySupport:       true,
			AdvancedAnalytics:     true,
		},
		domain.TierEnterprise: {
			Interns:               c.EnterpriseLimits.Interns,
			Cases:                 c.EnterpriseLimits.Cases,
			Resources:             c.EnterpriseLimits.Resources,
			SessionsPerMonth:      c.EnterpriseLimits.Sessions,
			StorageBytes:          c.EnterpriseLimits.StorageBytes,
			AIRequestsPerMonth:    c.EnterpriseLimits.AIRequests,
			VideoSessionsPerMonth: c.EnterpriseLimits.VideoSessions,
			CustomCompetencies:    c.EnterpriseLimits.CustomCompetencies,
			ExportReports:         c.EnterpriseLimits.ExportReports,
			PrioritySupport:       true,
			AdvancedAnalytics:     true,
			WhiteLabel:            true,
		},
	}
}

// RateLimits assembles the per-tier rate limits from the configured values.
func (c *Config) RateLimits() map[domain.Tier]domain.RateLimits {
	return map[domain.Tier]domain.RateLimits{
		domain.TierFree:       {PerMinute: c.FreeRateLimits.PerMinute, PerHour: c.FreeRateLimits.PerHour, PerDay: c.FreeRateLimits.PerDay},
		domain.TierPremium:    {PerMinute: c.PremiumRateLimits.PerMinute, PerHour: c.PremiumRateLimits.PerHour, PerDay: c.PremiumRateLimits.PerDay},
		domain.TierEnterprise: {PerMinute: c.EnterpriseRateLimits.PerMinute, PerHour: c.EnterpriseRateLimits.PerHour, PerDay: c.EnterpriseRateLimits.PerDay},
	}
}

// Pricing returns the published plan prices.
func Pricing() map[domain.Tier]domain.TierPricing {
	return map[domain.Tier]domain.TierPricing{
		domain.TierFree:       {MonthlyPrice: 0, YearlyPrice: 0, Currency: "BRL"},
		domain.TierPremium:    {MonthlyPrice: 99.90, YearlyPrice: 999.00, Currency: "BRL"},
		domain.TierEnterprise: {MonthlyPrice: 299.90, YearlyPrice: 2999.00, Currency: "BRL"},
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fisioflow/mentorship-api/internal/adapter/metrics"
	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/pkg/token"
	"github.com/fisioflow/mentorship-api/internal/usecase"
)

// Gate is the per-request freemium orchestrator: it resolves the caller's
// account and tier, applies tier-based rate limiting, checks entitlements
// for quota-gated routes, and records a usage event for every identified
// request. Denied requests are metered too, carrying the rejection status.
//
// Rate limiting fails open on counter-store trouble; entitlement checks fail
// closed on record-store trouble. The asymmetry is deliberate: availability
// wins for throttling, correctness wins for quota enforcement.
type Gate struct {
	accounts     domain.AccountRepository
	rateLimiter  *usecase.RateLimiter
	entitlements *usecase.Entitlements
	recorder     *usecase.RecordUsageUseCase
	metrics      *metrics.GateMetrics
	logger       *slog.Logger
	jwtSecret    string
}

// NewGate creates the gate middleware factory.
func NewGate(
	accounts domain.AccountRepository,
	rateLimiter *usecase.RateLimiter,
	entitlements *usecase.Entitlements,
	recorder *usecase.RecordUsageUseCase,
	m *metrics.GateMetrics,
	logger *slog.Logger,
	jwtSecret string,
) *Gate {
	return &Gate{
		accounts:     accounts,
		rateLimiter:  rateLimiter,
		entitlements: entitlements,
		recorder:     recorder,
		metrics:      m,
		logger:       logger,
		jwtSecret:    jwtSecret,
	}
}

// Handler wraps next with the full gate chain.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := g.identify(r)
		if !ok {
			// No usable credential. The auth layer owns that failure mode;
			// pass the request through untouched.
			next.ServeHTTP(w, r)
			return
		}

		account, err := g.accounts.FindByID(r.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				g.metrics.RequestsTotal.WithLabelValues("unknown", "not_found").Inc()
				writeRejection(w, http.StatusNotFound, Rejection{
					Error:   "Usuário não encontrado",
					Message: "A conta associada ao token não existe.",
				})
				return
			}
			g.logger.Error("failed to resolve account", "error", err, "account_id", claims.AccountID)
			g.metrics.RequestsTotal.WithLabelValues("unknown", "store_error").Inc()
			writeRejection(w, http.StatusServiceUnavailable, Rejection{
				Error:   "Serviço indisponível",
				Message: "Não foi possível validar sua conta. Tente novamente.",
			})
			return
		}

		r = r.WithContext(WithAccount(r.Context(), account))

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		switch {
		case !g.rateCheck(rw, r, account):
		case !g.entitlementCheck(rw, r, account):
		default:
			next.ServeHTTP(rw, r)
			g.metrics.RequestsTotal.WithLabelValues(string(account.Tier), "allowed").Inc()
		}
		duration := time.Since(start)

		g.metrics.RequestDuration.WithLabelValues(string(account.Tier)).Observe(duration.Seconds())

		// Best-effort metering, independent of the admit decision. A lost
		// event must never fail the request.
		event := &domain.UsageEvent{
			AccountID:    account.ID,
			Tier:         account.Tier,
			Method:       r.Method,
			Path:         r.URL.Path,
			StatusCode:   rw.statusCode,
			ResponseTime: duration,
			UserAgent:    r.UserAgent(),
			IPAddress:    r.RemoteAddr,
		}
		if err := g.recorder.Record(context.WithoutCancel(r.Context()), event); err != nil {
			g.metrics.UsageEventsTotal.WithLabelValues("dropped").Inc()
		} else {
			g.metrics.UsageEventsTotal.WithLabelValues("recorded").Inc()
		}
	})
}

// identify extracts and validates the bearer token. ok is false whenever the
// request carries no parseable credential.
func (g *Gate) identify(r *http.Request) (*token.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return nil, false
	}

	claims, err := token.Validate(tokenString, g.jwtSecret)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (g *Gate) rateCheck(w http.ResponseWriter, r *http.Request, account *domain.Account) bool {
	result := g.rateLimiter.Allow(r.Context(), account.ID, account.Tier)
	if result.Allowed {
		return true
	}

	g.metrics.RequestsTotal.WithLabelValues(string(account.Tier), "rate_limited").Inc()
	g.metrics.RateLimitedTotal.WithLabelValues(string(account.Tier), result.Granularity).Inc()

	retryAfter := int64(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	writeRejection(w, http.StatusTooManyRequests, Rejection{
		Error:       "Rate limit excedido",
		Message:     "Limite de requisições por " + result.Granularity + " atingido.",
		CurrentTier: account.Tier,
		RetryAfter:  retryAfter,
	})
	return false
}

func (g *Gate) entitlementCheck(w http.ResponseWriter, r *http.Request, account *domain.Account) bool {
	action, actx, mapped := actionFor(r)
	if !mapped {
		return true
	}

	allowed, reason, err := g.entitlements.CanPerform(r.Context(), account.ID, action, actx)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// The account vanished between resolution and the quota check.
			g.metrics.RequestsTotal.WithLabelValues(string(account.Tier), "not_found").Inc()
			writeRejection(w, http.StatusNotFound, Rejection{
				Error:   "Usuário não encontrado",
				Message: "A conta associada ao token não existe.",
			})
			return false
		}
		// Quota enforcement fails closed: a store outage denies rather than
		// handing out resources it cannot account for.
		g.logger.Error("entitlement check failed", "error", err, "account_id", account.ID, "action", action)
		g.metrics.RequestsTotal.WithLabelValues(string(account.Tier), "store_error").Inc()
		writeRejection(w, http.StatusServiceUnavailable, Rejection{
			Error:   "Serviço indisponível",
			Message: "Não foi possível validar os limites do seu plano. Tente novamente.",
		})
		return false
	}
	if allowed {
		return true
	}

	g.metrics.RequestsTotal.WithLabelValues(string(account.Tier), "quota_denied").Inc()
	g.metrics.QuotaDenialsTotal.WithLabelValues(string(account.Tier), string(action)).Inc()

	rejection := Rejection{
		Error:           "Limite do plano excedido",
		Message:         reason,
		CurrentTier:     account.Tier,
		UpgradeRequired: true,
	}
	if next, ok := account.Tier.Next(); ok {
		rejection.SuggestedTier = &next
	}
	writeRejection(w, http.StatusForbidden, rejection)
	return false
}

func isPublicPath(path string) bool {
	for _, prefix := range publicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

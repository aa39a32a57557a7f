package middleware

import (
	"fmt"
	"net/http"

	"github.com/fisioflow/mentorship-api/internal/domain"
	"github.com/fisioflow/mentorship-api/internal/usecase"
)

// RequireTier is a middleware factory that rejects callers below min. It
// expects the gate to have resolved the account already; an unauthenticated
// request is a 401, not a tier problem.
func RequireTier(min domain.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok {
				writeRejection(w, http.StatusUnauthorized, Rejection{
					Error:   "Autenticação necessária",
					Message: "Faça login para acessar esta funcionalidade.",
				})
				return
			}

			if account.Tier.Compare(min) < 0 {
				rejection := Rejection{
					Error:           "Tier insuficiente",
					Message:         fmt.Sprintf("Esta funcionalidade requer tier %s ou superior.", min),
					CurrentTier:     account.Tier,
					RequiredTier:    min,
					UpgradeRequired: true,
				}
				writeRejection(w, http.StatusForbidden, rejection)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature gates a route on a named feature flag from the catalog, so
// routes can declare what they need instead of hardcoding tier names.
func RequireFeature(catalog *usecase.Catalog, feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok {
				writeRejection(w, http.StatusUnauthorized, Rejection{
					Error:   "Autenticação necessária",
					Message: "Faça login para acessar esta funcionalidade.",
				})
				return
			}

			if !catalog.FeatureAvailability(account.Tier)[feature] {
				rejection := Rejection{
					Error:           "Funcionalidade não disponível",
					Message:         "Seu plano atual não inclui esta funcionalidade. Faça upgrade para utilizá-la.",
					CurrentTier:     account.Tier,
					UpgradeRequired: true,
				}
				if suggested, ok := account.Tier.Next(); ok {
					rejection.SuggestedTier = &suggested
				}
				writeRejection(w, http.StatusForbidden, rejection)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

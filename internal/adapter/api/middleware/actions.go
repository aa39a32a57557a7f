package middleware

import (
	"net/http"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

type routeKey struct {
	method string
	path   string
}

// actionRoutes maps (method, path) to the gated action it performs. Routes
// outside this table are not quota-gated.
var actionRoutes = map[routeKey]domain.Action{
	{http.MethodPost, "/api/mentorship/interns"}:       domain.ActionCreateIntern,
	{http.MethodPost, "/api/mentorship/cases"}:         domain.ActionCreateCase,
	{http.MethodPost, "/api/mentorship/resources"}:     domain.ActionUploadResource,
	{http.MethodPost, "/api/mentorship/sessions"}:      domain.ActionScheduleSession,
	{http.MethodPost, "/api/mentorship/competencies"}:  domain.ActionCreateCustomCompetency,
	{http.MethodGet, "/api/mentorship/reports/export"}: domain.ActionExportReport,
	{http.MethodPost, "/api/mentorship/ai/assist"}:     domain.ActionUseAI,
}

// actionFor resolves the gated action of a request, along with its typed
// context. Resource uploads carry the declared body size so the storage cap
// can be checked before the bytes land.
func actionFor(r *http.Request) (domain.Action, domain.ActionContext, bool) {
	action, ok := actionRoutes[routeKey{r.Method, r.URL.Path}]
	if !ok {
		return "", domain.ActionContext{}, false
	}

	var actx domain.ActionContext
	if action == domain.ActionUploadResource && r.ContentLength > 0 {
		actx.FileSize = r.ContentLength
	}
	return action, actx, true
}

// publicPathPrefixes lists routes the gate never touches: health probes,
// auth, metrics, and the public tier comparison.
var publicPathPrefixes = []string{
	"/health",
	"/metrics",
	"/api/auth/",
	"/api/tiers/comparison",
}

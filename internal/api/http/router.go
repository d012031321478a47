package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	rbac "github.com/mind-engage/scholaroute/internal/rbac"
)

// Mount registers the allocation API on r. identify must attach the caller's
// subject and role to the request context or reject the request; peek does
// the same without rejecting and may be nil.
func Mount(r chi.Router, d *Deps, identify, peek func(http.Handler) http.Handler) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	if peek != nil {
		r.With(peek).Get("/health", HealthHandler(d))
	} else {
		r.Get("/health", HealthHandler(d))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(identify)

		pr.Post("/auth/logout", LogoutHandler(d))

		pr.With(rbac.Require(rbac.PermAllocationRun)).
			Post("/allocate", AllocateHandler(d))

		pr.With(rbac.Require(rbac.PermOverrideWrite)).
			Post("/override", OverrideHandler(d))
		pr.With(rbac.Require(rbac.PermOverrideWrite)).
			Put("/overrides", ReplaceOverridesHandler(d))
		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/overrides", GetOverridesHandler(d))

		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/allocations", AllocationsHandler(d))
		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/allocations/summary", SummaryHandler(d))
		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/download_allocations/pdf", FullPDFHandler(d))
		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/download_allocations/csv", CSVHandler(d))
		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/download_report/{studentID}", StudentReportHandler(d))
		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/catalog", CatalogHandler(d))

		pr.With(rbac.Require(rbac.PermAuditView)).
			Get("/events", EventsHandler(d))
	})
}

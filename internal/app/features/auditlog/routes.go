// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log under /audit. Access is restricted to admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("ADMIN"))

		pr.Get("/", h.ServeList)
	})

	return r
}

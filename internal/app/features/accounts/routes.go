// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account routes under /accounts.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/autocomplete", h.ServeAutocomplete)
		pr.Get("/export.csv", h.ServeExportCSV)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeView)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}

// internal/app/features/accounts/export.go
package accounts

import (
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/export"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/csvutil"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

var accountTable = export.Table[models.Account]{
	Name:   "accounts",
	Header: []string{"name", "website", "phone", "billing_address", "industry", "status", "created_at"},
	Row: func(a models.Account) []string {
		return []string{
			csvutil.SafeField(a.Name),
			csvutil.SafeField(a.Website),
			csvutil.SafeField(a.Phone),
			csvutil.SafeField(a.BillingAddress),
			csvutil.SafeField(a.Industry),
			a.Status,
			export.Stamp(&a.CreatedAt),
		}
	},
}

// ServeExportCSV handles GET /accounts/export.csv with the list's filters.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "accounts CSV export")
	defer cancel()

	filter, _ := h.listFilter(ctx, actor, r)
	accountTable.Serve(w, r, h.Log, h.ErrLog, func(fn func(models.Account) error) error {
		return h.Accounts.Stream(ctx, filter, export.FindOptions("name_ci"), fn)
	})
}

// internal/app/features/leads/export.go
package leads

import (
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/export"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/csvutil"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

var leadTable = export.Table[models.Lead]{
	Name: "leads",
	Header: []string{
		"first_name", "last_name", "company_name", "title", "email",
		"work_phone", "mobile_phone", "status", "source", "created_at",
	},
	Row: leadRow,
}

// ServeExportCSV handles GET /leads/export.csv. It honours the same
// filters as the list and never includes converted leads.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "leads CSV export")
	defer cancel()

	filter, _ := h.listFilter(ctx, actor, r)
	leadTable.Serve(w, r, h.Log, h.ErrLog, func(fn func(models.Lead) error) error {
		return h.Leads.Stream(ctx, filter, export.FindOptions("name_ci"), fn)
	})
}

func leadRow(l models.Lead) []string {
	mobile := l.MobilePhone1
	if mobile == "" {
		mobile = l.MobilePhone2
	}
	return []string{
		csvutil.SafeField(l.FirstName),
		csvutil.SafeField(l.LastName),
		csvutil.SafeField(l.CompanyName),
		csvutil.SafeField(l.Title),
		csvutil.SafeField(l.Email),
		csvutil.SafeField(l.WorkPhone),
		csvutil.SafeField(mobile),
		string(l.Status),
		l.Source,
		export.Stamp(&l.CreatedAt),
	}
}

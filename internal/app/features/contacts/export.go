// internal/app/features/contacts/export.go
package contacts

import (
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/export"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/csvutil"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

var contactTable = export.Table[models.Contact]{
	Name: "contacts",
	Header: []string{
		"first_name", "last_name", "title", "department", "email",
		"work_phone", "mobile_phone_1", "mobile_phone_2", "created_at",
	},
	Row: func(c models.Contact) []string {
		return []string{
			csvutil.SafeField(c.FirstName),
			csvutil.SafeField(c.LastName),
			csvutil.SafeField(c.Title),
			csvutil.SafeField(c.Department),
			csvutil.SafeField(c.Email),
			csvutil.SafeField(c.WorkPhone),
			csvutil.SafeField(c.MobilePhone1),
			csvutil.SafeField(c.MobilePhone2),
			export.Stamp(&c.CreatedAt),
		}
	},
}

// ServeExportCSV handles GET /contacts/export.csv with the list's filters.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "contacts CSV export")
	defer cancel()

	filter, _ := h.listFilter(ctx, actor, r)
	contactTable.Serve(w, r, h.Log, h.ErrLog, func(fn func(models.Contact) error) error {
		return h.Contacts.Stream(ctx, filter, export.FindOptions("name_ci"), fn)
	})
}

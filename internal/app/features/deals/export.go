// internal/app/features/deals/export.go
package deals

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/export"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/csvutil"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

var dealTable = export.Table[models.Deal]{
	Name:   "deals",
	Header: []string{"deal_number", "name", "stage", "amount", "currency", "close_date", "probability"},
	Row: func(d models.Deal) []string {
		return []string{
			d.Number,
			csvutil.SafeField(d.Name),
			string(d.Stage),
			export.Money(d.AmountCents),
			d.Currency,
			export.Date(&d.CloseDate),
			strconv.Itoa(d.Probability),
		}
	},
}

// ServeExportCSV handles GET /deals/export.csv with the list's filters.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "deals CSV export")
	defer cancel()

	filter, _ := h.listFilter(ctx, actor, r)
	dealTable.Serve(w, r, h.Log, h.ErrLog, func(fn func(models.Deal) error) error {
		return h.Deals.Stream(ctx, filter, export.FindOptions("name_ci"), fn)
	})
}

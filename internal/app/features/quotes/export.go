// internal/app/features/quotes/export.go
package quotes

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/export"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

var quoteTable = export.Table[models.Quote]{
	Name:   "quotes",
	Header: []string{"quote_number", "status", "presented_date", "validity_days", "total"},
	Row: func(q models.Quote) []string {
		total := ""
		if q.TotalCents != nil {
			total = export.Money(*q.TotalCents)
		}
		return []string{
			q.Number,
			q.Status,
			export.Date(q.PresentedDate),
			strconv.Itoa(q.ValidityDays),
			total,
		}
	},
}

// ServeExportCSV handles GET /quotes/export.csv with the list's filters,
// ordered by quote number.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "quotes CSV export")
	defer cancel()

	filter, _ := h.listFilter(ctx, actor, r)
	quoteTable.Serve(w, r, h.Log, h.ErrLog, func(fn func(models.Quote) error) error {
		return h.Quotes.Stream(ctx, filter, export.FindOptions("quote_number"), fn)
	})
}

// internal/app/features/activities/export.go
package activities

import (
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/export"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/csvutil"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

// table lays out the download for this handler's kind. Tasks carry a
// priority and due date, calls and meetings a schedule.
func (h *Handler) table() export.Table[models.Activity] {
	name := strings.TrimPrefix(h.Base, "/")
	if h.isTask() {
		return export.Table[models.Activity]{
			Name:   name,
			Header: []string{"subject", "status", "priority", "due_date", "description", "created_at"},
			Row: func(a models.Activity) []string {
				return []string{
					csvutil.SafeField(a.Subject),
					a.Status,
					a.Priority,
					export.Date(a.DueDate),
					csvutil.SafeField(a.Description),
					export.Stamp(&a.CreatedAt),
				}
			},
		}
	}
	return export.Table[models.Activity]{
		Name: name,
		Header: []string{
			"subject", "status", "start_time", "end_time", "duration_minutes",
			"direction", "location", "description", "created_at",
		},
		Row: func(a models.Activity) []string {
			duration := ""
			if a.DurationMinutes > 0 {
				duration = strconv.Itoa(a.DurationMinutes)
			}
			return []string{
				csvutil.SafeField(a.Subject),
				a.Status,
				export.Stamp(a.StartTime),
				export.Stamp(a.EndTime),
				duration,
				a.Direction,
				csvutil.SafeField(a.Location),
				csvutil.SafeField(a.Description),
				export.Stamp(&a.CreatedAt),
			}
		},
	}
}

// ServeExportCSV handles GET {base}/export.csv with the list's filters.
func (h *Handler) ServeExportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "activities CSV export")
	defer cancel()

	filter, _ := h.listFilter(ctx, actor, r)
	h.table().Serve(w, r, h.Log, h.ErrLog, func(fn func(models.Activity) error) error {
		return h.Activities.Stream(ctx, filter, export.FindOptions("subject_ci"), fn)
	})
}

// internal/app/features/leads/list.go
package leads

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/app/system/paging"
	"github.com/dalemusser/salescrm/internal/app/system/scope"
	"github.com/dalemusser/salescrm/internal/app/system/search"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

// notConverted hides converted leads from every list, export, and
// autocomplete, for every role.
var notConverted = bson.M{"status": bson.M{"$ne": models.LeadConverted}}

// listFilter is the scoped filter shared by the list and the export.
func (h *Handler) listFilter(ctx context.Context, actor recordpolicy.Actor, r *http.Request) (bson.M, string) {
	q := query.Search(r, "q")

	view := bson.M{}
	if st := models.LeadStatus(normalize.Status(query.Get(r, "status"))); st != "" && st.Valid() {
		view["status"] = st
	}
	if src := normalize.Status(query.Get(r, "source")); src != "" {
		view["source"] = src
	}

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Leads)
	return scope.Restrict(pred, notConverted, view, search.Contains("name_ci", q)), q
}

// ServeList handles GET /leads (with optional ?q=, ?status=, ?source=, ?start=).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	start := paging.ParseStart(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter, q := h.listFilter(ctx, actor, r)

	total, err := h.Leads.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count leads failed", err, "Unable to load leads.", "/")
		return
	}
	rows, err := h.Leads.Find(ctx, filter, paging.FindOptions(start, "name_ci"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find leads failed", err, "Unable to load leads.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeAutocomplete handles GET /leads/autocomplete?q=. Lost and converted
// leads are not offered.
func (h *Handler) ServeAutocomplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	q := query.Search(r, "q")
	if q == "" {
		respond.Options(w, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Leads)
	filter := scope.Restrict(pred,
		bson.M{"status": bson.M{"$nin": bson.A{models.LeadConverted, models.LeadLost}}},
		search.Contains("name_ci", q),
	)

	opts := paging.FindOptions(1, "name_ci").SetLimit(paging.AutocompleteSize)
	rows, err := h.Leads.Find(ctx, filter, opts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "autocomplete leads failed", err, "Unable to search leads.", "/leads")
		return
	}

	out := make([]respond.Option, 0, len(rows))
	for _, l := range rows {
		label := l.FullName()
		if l.CompanyName != "" {
			label += " (" + l.CompanyName + ")"
		}
		out = append(out, respond.Option{ID: l.ID.Hex(), Label: label})
	}
	respond.Options(w, out)
}

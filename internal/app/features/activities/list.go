// internal/app/features/activities/list.go
package activities

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
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// relatedParams maps list query parameters to the related-record fields.
var relatedParams = map[string]string{
	"account": "related_account_id",
	"contact": "related_contact_id",
	"lead":    "related_lead_id",
	"deal":    "related_deal_id",
}

// listFilter is the scoped filter shared by the list and the export.
func (h *Handler) listFilter(ctx context.Context, actor recordpolicy.Actor, r *http.Request) (bson.M, string) {
	q := query.Search(r, "q")

	view := bson.M{}
	if st := normalize.Status(query.Get(r, "status")); h.Activities.ValidStatus(st) {
		view["status"] = st
	}
	if p := normalize.Status(query.Get(r, "priority")); h.isTask() && validPriority(p) {
		view["priority"] = p
	}
	for param, field := range relatedParams {
		if id, err := primitive.ObjectIDFromHex(query.Get(r, param)); err == nil {
			view[field] = id
		}
	}

	pred := h.Policy.Scope(ctx, actor, h.Kind)
	return scope.Restrict(pred, view, search.Contains("subject_ci", q)), q
}

// ServeList handles GET {base} (with optional ?q=, ?status=, ?priority=,
// ?account=, ?contact=, ?lead=, ?deal=, ?start=).
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

	total, err := h.Activities.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count "+h.Kind.Name+" failed", err, "Unable to load "+h.Kind.Name+".", "/")
		return
	}
	rows, err := h.Activities.Find(ctx, filter, paging.FindOptions(start, "subject_ci"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find "+h.Kind.Name+" failed", err, "Unable to load "+h.Kind.Name+".", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeAutocomplete handles GET {base}/autocomplete?q=.
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

	pred := h.Policy.Scope(ctx, actor, h.Kind)
	filter := scope.Restrict(pred, search.Contains("subject_ci", q))

	rows, err := h.Activities.Find(ctx, filter, paging.FindOptions(1, "subject_ci").SetLimit(paging.AutocompleteSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "autocomplete "+h.Kind.Name+" failed", err, "Unable to search.", h.Base)
		return
	}

	out := make([]respond.Option, 0, len(rows))
	for _, a := range rows {
		out = append(out, respond.Option{ID: a.ID.Hex(), Label: a.Subject})
	}
	respond.Options(w, out)
}

// internal/app/features/contacts/list.go
package contacts

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/paging"
	"github.com/dalemusser/salescrm/internal/app/system/scope"
	"github.com/dalemusser/salescrm/internal/app/system/search"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listFilter is the scoped filter shared by the list and the export.
func (h *Handler) listFilter(ctx context.Context, actor recordpolicy.Actor, r *http.Request) (bson.M, string) {
	q := query.Search(r, "q")

	view := bson.M{}
	if acct, err := primitive.ObjectIDFromHex(query.Get(r, "account")); err == nil {
		view["account_id"] = acct
	}

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Contacts)
	return scope.Restrict(pred, view, search.Contains("name_ci", q)), q
}

// ServeList handles GET /contacts (with optional ?q=, ?account=, ?start=).
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

	total, err := h.Contacts.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count contacts failed", err, "Unable to load contacts.", "/")
		return
	}
	rows, err := h.Contacts.Find(ctx, filter, paging.FindOptions(start, "name_ci"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find contacts failed", err, "Unable to load contacts.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeAutocomplete handles GET /contacts/autocomplete?q=.
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

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Contacts)
	filter := scope.Restrict(pred, search.Contains("name_ci", q))

	rows, err := h.Contacts.Find(ctx, filter, paging.FindOptions(1, "name_ci").SetLimit(paging.AutocompleteSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "autocomplete contacts failed", err, "Unable to search contacts.", "/contacts")
		return
	}

	out := make([]respond.Option, 0, len(rows))
	for _, c := range rows {
		label := c.FullName()
		if c.Email != "" {
			label += " <" + c.Email + ">"
		}
		out = append(out, respond.Option{ID: c.ID.Hex(), Label: label})
	}
	respond.Options(w, out)
}

// internal/app/features/accounts/list.go
package accounts

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
)

// listFilter is the scoped filter shared by the list and the export.
func (h *Handler) listFilter(ctx context.Context, actor recordpolicy.Actor, r *http.Request) (bson.M, string) {
	q := query.Search(r, "q")

	view := bson.M{}
	if st := normalize.Status(query.Get(r, "status")); validStatus(st) {
		view["status"] = st
	}
	if ind := query.Get(r, "industry"); ind != "" {
		view["industry"] = ind
	}

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Accounts)
	return scope.Restrict(pred, view, search.Contains("name_ci", q)), q
}

// ServeList handles GET /accounts (with optional ?q=, ?status=, ?industry=, ?start=).
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

	total, err := h.Accounts.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count accounts failed", err, "Unable to load accounts.", "/")
		return
	}
	rows, err := h.Accounts.Find(ctx, filter, paging.FindOptions(start, "name_ci"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find accounts failed", err, "Unable to load accounts.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeAutocomplete handles GET /accounts/autocomplete?q=.
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

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Accounts)
	filter := scope.Restrict(pred, search.Contains("name_ci", q))

	rows, err := h.Accounts.Find(ctx, filter, paging.FindOptions(1, "name_ci").SetLimit(paging.AutocompleteSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "autocomplete accounts failed", err, "Unable to search accounts.", "/accounts")
		return
	}

	out := make([]respond.Option, 0, len(rows))
	for _, a := range rows {
		out = append(out, respond.Option{ID: a.ID.Hex(), Label: a.Name})
	}
	respond.Options(w, out)
}

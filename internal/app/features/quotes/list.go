// internal/app/features/quotes/list.go
package quotes

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

// listFilter is the scoped filter shared by the list and the export.
// Quotes are searched by number prefix.
func (h *Handler) listFilter(ctx context.Context, actor recordpolicy.Actor, r *http.Request) (bson.M, string) {
	q := query.Search(r, "q")

	view := bson.M{}
	if st := normalize.Status(query.Get(r, "status")); validStatus(st) {
		view["status"] = st
	}
	if deal, err := primitive.ObjectIDFromHex(query.Get(r, "deal")); err == nil {
		view["deal_id"] = deal
	}

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Quotes)
	return scope.Restrict(pred, view, search.Prefix("quote_number", q)), q
}

// ServeList handles GET /quotes (with optional ?q=, ?status=, ?deal=, ?start=),
// newest number first.
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

	total, err := h.Quotes.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count quotes failed", err, "Unable to load quotes.", "/")
		return
	}
	opts := paging.FindOptions(start, "quote_number").
		SetSort(bson.D{{Key: "quote_number", Value: -1}, {Key: "_id", Value: -1}})
	rows, err := h.Quotes.Find(ctx, filter, opts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find quotes failed", err, "Unable to load quotes.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeAutocomplete handles GET /quotes/autocomplete?q=.
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

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Quotes)
	filter := scope.Restrict(pred, search.Prefix("quote_number", q))

	rows, err := h.Quotes.Find(ctx, filter, paging.FindOptions(1, "quote_number").SetLimit(paging.AutocompleteSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "autocomplete quotes failed", err, "Unable to search quotes.", "/quotes")
		return
	}

	out := make([]respond.Option, 0, len(rows))
	for _, qt := range rows {
		out = append(out, respond.Option{ID: qt.ID.Hex(), Label: qt.Number + " (" + qt.Status + ")"})
	}
	respond.Options(w, out)
}

// internal/app/features/deals/list.go
package deals

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
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// open is every stage short of a decision.
var open = bson.M{"stage": bson.M{"$nin": bson.A{models.StageClosedWon, models.StageClosedLost}}}

// listFilter is the scoped filter shared by the list and the export.
// ?stage=open selects the undecided pipeline.
func (h *Handler) listFilter(ctx context.Context, actor recordpolicy.Actor, r *http.Request) (bson.M, string) {
	q := query.Search(r, "q")

	view := bson.M{}
	switch st := models.DealStage(normalize.Status(query.Get(r, "stage"))); {
	case st == "OPEN":
		view = open
	case st.Valid():
		view["stage"] = st
	}
	var byAccount bson.M
	if acct, err := primitive.ObjectIDFromHex(query.Get(r, "account")); err == nil {
		byAccount = bson.M{"account_id": acct}
	}

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Deals)
	return scope.Restrict(pred, view, byAccount, matchDeal(q)), q
}

// ServeList handles GET /deals (with optional ?q=, ?stage=, ?account=, ?start=).
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

	total, err := h.Deals.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count deals failed", err, "Unable to load deals.", "/")
		return
	}
	rows, err := h.Deals.Find(ctx, filter, paging.FindOptions(start, "name_ci"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find deals failed", err, "Unable to load deals.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeAutocomplete handles GET /deals/autocomplete?q=. Only open deals
// are offered.
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

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Deals)
	filter := scope.Restrict(pred, open, search.Contains("name_ci", q))

	rows, err := h.Deals.Find(ctx, filter, paging.FindOptions(1, "name_ci").SetLimit(paging.AutocompleteSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "autocomplete deals failed", err, "Unable to search deals.", "/deals")
		return
	}

	out := make([]respond.Option, 0, len(rows))
	for _, d := range rows {
		out = append(out, respond.Option{ID: d.ID.Hex(), Label: d.Number + " " + d.Name})
	}
	respond.Options(w, out)
}

// matchDeal searches names anywhere and deal numbers by prefix.
func matchDeal(q string) bson.M {
	byName := search.Contains("name_ci", q)
	if byName == nil {
		return nil
	}
	return bson.M{"$or": bson.A{byName, search.Prefix("deal_number", q)}}
}

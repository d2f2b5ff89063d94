// internal/app/features/territories/list.go
package territories

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/paging"
	"github.com/dalemusser/salescrm/internal/app/system/search"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ServeList handles GET /territories (with optional ?q= and ?start=).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage territories.", "/")
		return
	}
	q := query.Search(r, "q")
	start := paging.ParseStart(r)

	filter := bson.M{}
	if m := search.Contains("name_ci", q); m != nil {
		filter = m
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	total, err := h.Territories.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count territories failed", err, "Unable to load territories.", "/")
		return
	}
	rows, err := h.Territories.Find(ctx, filter, paging.FindOptions(start, "name_ci"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find territories failed", err, "Unable to load territories.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

type territoryView struct {
	models.Territory
	Manager *models.User  `json:"manager,omitempty"`
	Members []models.User `json:"members"`
}

// ServeView handles GET /territories/{id}: the territory, its manager and
// the users whose home territory it is.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage territories.", "/")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/territories")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Territories.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Territory not found.", "/territories")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load territory failed", err, "A database error occurred.", "/territories")
		return
	}

	v := territoryView{Territory: t, Members: []models.User{}}
	if t.ManagerID != nil {
		if m, err := h.Users.GetByID(ctx, *t.ManagerID); err == nil {
			v.Manager = m
		}
	}
	members, err := h.Users.Find(ctx, bson.M{"territory_id": id}, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load territory members failed", err, "A database error occurred.", "/territories")
		return
	}
	if members != nil {
		v.Members = members
	}
	respond.JSON(w, http.StatusOK, v)
}

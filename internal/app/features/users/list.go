// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/app/system/paging"
	"github.com/dalemusser/salescrm/internal/app/system/search"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /users (with optional ?q=, ?role=, ?territory=,
// ?start=). The search matches full name or email.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage users.", "/")
		return
	}
	q := query.Search(r, "q")
	start := paging.ParseStart(r)

	var and bson.A
	if role := models.Role(normalize.Role(query.Get(r, "role"))); role.Valid() {
		and = append(and, bson.M{"role": role})
	}
	if tid, err := primitive.ObjectIDFromHex(query.Get(r, "territory")); err == nil {
		and = append(and, bson.M{"territory_id": tid})
	}
	if m := search.AnyContains(q, "full_name_ci", "email"); m != nil {
		and = append(and, m)
	}
	filter := bson.M{}
	if len(and) > 0 {
		filter = bson.M{"$and": and}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	total, err := h.Users.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count users failed", err, "Unable to load users.", "/")
		return
	}
	sortField := "full_name_ci"
	if search.EmailPivot(q) {
		sortField = "email"
	}
	rows, err := h.Users.Find(ctx, filter, paging.FindOptions(start, sortField))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find users failed", err, "Unable to load users.", "/")
		return
	}

	respond.JSON(w, http.StatusOK, respond.NewList(rows, total, q, start))
}

// ServeView handles GET /users/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage users.", "/")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/users")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "User not found.", "/users")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "A database error occurred.", "/users")
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

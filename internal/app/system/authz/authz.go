// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (uppercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "", "", NilObjectID, false. Callers can trust that ok=true means a valid,
// authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "", "", primitive.NilObjectID, false
	}
	return normalize.Role(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	return HasRole(r, "ADMIN")
}

// IsManager reports whether the current request's user is a territory manager.
func IsManager(r *http.Request) bool {
	return HasRole(r, "MANAGER")
}

// IsSales reports whether the current request's user is a sales rep.
func IsSales(r *http.Request) bool {
	return HasRole(r, "SALES")
}

// UserTerritoryID returns the current user's home territory, or
// NilObjectID when there is none.
func UserTerritoryID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.TerritoryID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.TerritoryID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// internal/app/features/shared/respond/respond.go
package respond

import (
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/paging"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// List is the envelope for scoped, paged list endpoints.
type List[T any] struct {
	Items []T          `json:"items"`
	Total int64        `json:"total"`
	Query string       `json:"q,omitempty"`
	Range paging.Range `json:"range"`
}

// NewList trims rows to a page and fills in the range.
func NewList[T any](rows []T, total int64, q string, start int) List[T] {
	hasNext := paging.TrimPage(&rows)
	if rows == nil {
		rows = []T{}
	}
	return List[T]{
		Items: rows,
		Total: total,
		Query: q,
		Range: paging.ComputeRange(start, len(rows), hasNext),
	}
}

// Option is one autocomplete suggestion.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Options writes an autocomplete response; never null.
func Options(w http.ResponseWriter, opts []Option) {
	if opts == nil {
		opts = []Option{}
	}
	JSON(w, http.StatusOK, opts)
}

// Redirect finishes a form post. JSON callers get status and body;
// browsers get the flash message and a 303 to url.
func Redirect(w http.ResponseWriter, r *http.Request, sm *auth.SessionManager, status int, body any, kind, msg, url string) {
	if auth.WantsJSON(r) || sm == nil {
		JSON(w, status, body)
		return
	}
	sm.AddFlash(w, r, kind, msg)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// ObjectIDParam parses the {key} URL parameter. On failure it answers 400
// and returns false.
func ObjectIDParam(w http.ResponseWriter, r *http.Request, key, backURL string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid ID.", backURL)
		return primitive.NilObjectID, false
	}
	return id, true
}

// Invalid answers 400 when err is a ValidationError and reports whether it
// did.
func Invalid(w http.ResponseWriter, r *http.Request, err error, backURL string) bool {
	msg, ok := models.IsValidation(err)
	if !ok {
		return false
	}
	uierrors.RenderBadRequest(w, r, msg, backURL)
	return true
}

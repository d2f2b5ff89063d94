// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"

	nav "github.com/dalemusser/waffle/toolkit/ui/nav"
)

// Body is the JSON error envelope every feature answers with.
type Body struct {
	Error   string `json:"error"`
	BackURL string `json:"back_url,omitempty"`
}

// Render writes status and a JSON error body. An empty backURL resolves a
// safe back URL from the request, defaulting to "/".
func Render(w http.ResponseWriter, r *http.Request, status int, msg, backURL string) {
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Error: msg, BackURL: backURL})
}

// RenderUnauthorized answers 401. If backURL is empty it defaults to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	Render(w, r, http.StatusUnauthorized, "Please sign in to continue.", backURL)
}

// RenderForbidden answers 403 with msg.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	Render(w, r, http.StatusForbidden, msg, backURL)
}

// RenderNotFound answers 404 with msg.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	Render(w, r, http.StatusNotFound, msg, backURL)
}

// RenderBadRequest answers 400 with msg.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	Render(w, r, http.StatusBadRequest, msg, backURL)
}

// RenderConflict answers 409 with msg.
func RenderConflict(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	Render(w, r, http.StatusConflict, msg, backURL)
}

// RenderServerError answers 500 with a user-safe msg.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	Render(w, r, http.StatusInternalServerError, msg, backURL)
}

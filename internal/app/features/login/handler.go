// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/store/audit"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/app/system/ratelimit"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultLanding is where a fresh session goes when no safe return URL
// was supplied.
const defaultLanding = "/leads"

// badCredentials is shared by the not-found and wrong-password paths so the
// response does not reveal which emails exist.
const badCredentials = "Invalid email or password."

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    ratelimit.NewLoginLimiter(),
	}
}

type formInfo struct {
	Fields    []string `json:"fields"`
	ReturnURL string   `json:"return,omitempty"`
}

type signedIn struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

// ServeLogin handles GET /login. There is no page to render; it describes
// the form a client should post back.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, formInfo{
		Fields:    []string{"email", "password", "return"},
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		uierrors.RenderBadRequest(w, r, "Please enter your email and password.", "/login")
		return
	}

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited", zap.String("email", email))
		uierrors.Render(w, r, http.StatusTooManyRequests, msg, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch err {
	case mongo.ErrNoDocuments:
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, primitive.NilObjectID, email, "user not found")
		uierrors.Render(w, r, http.StatusUnauthorized, badCredentials, "/login")
		return
	case nil:
	default:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if normalize.Status(u.Status) == normalize.Status(models.UserDisabled) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID, email, "user disabled")
		uierrors.RenderForbidden(w, r, "Your account is currently disabled. Please contact an administrator.", "/login")
		return
	}

	if !userstore.CheckPassword(u, password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID, email, "wrong password")
		uierrors.Render(w, r, http.StatusUnauthorized, badCredentials, "/login")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.", "/login")
		return
	}
	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)

	dest := urlutil.SafeReturn(r.FormValue("return"), "", defaultLanding)
	if auth.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, signedIn{User: *u, Redirect: dest})
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

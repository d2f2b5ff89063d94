package login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/login"
	"github.com/dalemusser/salescrm/internal/app/store/audit"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fixture struct {
	db     *mongo.Database
	router http.Handler
	audit  *audit.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	require.NoError(t, err)

	auditStore := audit.New(db)
	h := login.NewHandler(db, sm, uierrors.NewErrorLogger(logger),
		auditlog.New(auditStore, logger, auditlog.Config{}), logger)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err = userstore.New(db).Create(ctx, models.User{
		FullName: "Rita Rep",
		Email:    "rita@example.com",
		Role:     models.RoleSales,
	}, "correct horse")
	require.NoError(t, err)
	_, err = userstore.New(db).Create(ctx, models.User{
		FullName: "Dan Disabled",
		Email:    "dan@example.com",
		Role:     models.RoleSales,
		Status:   models.UserDisabled,
	}, "correct horse")
	require.NoError(t, err)

	return fixture{db: db, router: login.Routes(h), audit: auditStore}
}

func post(f fixture, vals url.Values, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func countEvents(t *testing.T, f fixture, eventType string) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := f.audit.CountByType(ctx, eventType)
	require.NoError(t, err)
	return n
}

func TestLogin_SuccessRedirectsAndSetsCookie(t *testing.T) {
	f := newFixture(t)
	rec := post(f, url.Values{
		"email":    {"RITA@example.com"},
		"password": {"correct horse"},
		"return":   {"/deals"},
	}, "")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/deals", rec.Header().Get("Location"))
	require.NotEmpty(t, rec.Result().Cookies())
	require.EqualValues(t, 1, countEvents(t, f, audit.EventLoginSuccess))
}

func TestLogin_UnsafeReturnFallsBack(t *testing.T) {
	f := newFixture(t)
	rec := post(f, url.Values{
		"email":    {"rita@example.com"},
		"password": {"correct horse"},
		"return":   {"https://evil.example.com/"},
	}, "")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/leads", rec.Header().Get("Location"))
}

func TestLogin_JSON(t *testing.T) {
	f := newFixture(t)
	rec := post(f, url.Values{"email": {"rita@example.com"}, "password": {"correct horse"}}, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User     map[string]any `json:"user"`
		Redirect string         `json:"redirect"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "rita@example.com", body.User["email"])
	require.NotContains(t, body.User, "password_hash")
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)

	rec := post(f, url.Values{"email": {"rita@example.com"}, "password": {"wrong"}}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	wrong := rec.Body.String()

	rec = post(f, url.Values{"email": {"nobody@example.com"}, "password": {"wrong"}}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, wrong, rec.Body.String(), "unknown email must look like a wrong password")

	rec = post(f, url.Values{"email": {"dan@example.com"}, "password": {"correct horse"}}, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(f, url.Values{"email": {""}}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.EqualValues(t, 1, countEvents(t, f, audit.EventLoginFailedWrongPassword))
	require.EqualValues(t, 1, countEvents(t, f, audit.EventLoginFailedUserNotFound))
	require.EqualValues(t, 1, countEvents(t, f, audit.EventLoginFailedUserDisabled))
}

func TestLogin_RateLimitedPerEmail(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		post(f, url.Values{"email": {"rita@example.com"}, "password": {"wrong"}}, "")
	}
	rec := post(f, url.Values{"email": {"rita@example.com"}, "password": {"correct horse"}}, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

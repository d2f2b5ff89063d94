// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/dalemusser/salescrm/internal/app/features/accounts"
	activitiesfeature "github.com/dalemusser/salescrm/internal/app/features/activities"
	auditlogfeature "github.com/dalemusser/salescrm/internal/app/features/auditlog"
	contactsfeature "github.com/dalemusser/salescrm/internal/app/features/contacts"
	dealsfeature "github.com/dalemusser/salescrm/internal/app/features/deals"
	errorsfeature "github.com/dalemusser/salescrm/internal/app/features/errors"
	healthfeature "github.com/dalemusser/salescrm/internal/app/features/health"
	leadsfeature "github.com/dalemusser/salescrm/internal/app/features/leads"
	loginfeature "github.com/dalemusser/salescrm/internal/app/features/login"
	logoutfeature "github.com/dalemusser/salescrm/internal/app/features/logout"
	profilefeature "github.com/dalemusser/salescrm/internal/app/features/profile"
	quotesfeature "github.com/dalemusser/salescrm/internal/app/features/quotes"
	territoriesfeature "github.com/dalemusser/salescrm/internal/app/features/territories"
	userinfofeature "github.com/dalemusser/salescrm/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/salescrm/internal/app/features/users"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/store/audit"
	conversionstore "github.com/dalemusser/salescrm/internal/app/store/conversion"
	"github.com/dalemusser/salescrm/internal/app/store/queries/teamscope"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"github.com/dalemusser/salescrm/internal/app/system/metrics"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The record policy and the lead
// converter are built once here and shared by every feature.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request, so role changes and disabled
	// accounts take effect immediately.
	db := deps.MongoDatabase
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	errLog := errorsfeature.NewErrorLogger(logger)
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	policy := recordpolicy.New(teamscope.New(db), logger)
	converter := leadconvert.New(conversionstore.New(db), policy, leadconvert.Config{
		Currency:  appCfg.DealCurrency,
		CloseDays: appCfg.DealCloseDays,
	}, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, audits, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, audits, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	r.Mount("/api/user", userinfofeature.Routes(userinfofeature.NewHandler()))

	profileHandler := profilefeature.NewHandler(db, errLog, audits, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Sales records
	leadsHandler := leadsfeature.NewHandler(db, policy, converter, sessionMgr, errLog, audits, logger)
	r.Mount("/leads", leadsfeature.Routes(leadsHandler, sessionMgr))

	accountsHandler := accountsfeature.NewHandler(db, policy, errLog, audits, logger)
	r.Mount("/accounts", accountsfeature.Routes(accountsHandler, sessionMgr))

	contactsHandler := contactsfeature.NewHandler(db, policy, errLog, audits, logger)
	r.Mount("/contacts", contactsfeature.Routes(contactsHandler, sessionMgr))

	dealsHandler := dealsfeature.NewHandler(db, policy, dealsfeature.Defaults{
		Currency:  appCfg.DealCurrency,
		CloseDays: appCfg.DealCloseDays,
	}, errLog, audits, logger)
	r.Mount("/deals", dealsfeature.Routes(dealsHandler, sessionMgr))

	quotesHandler := quotesfeature.NewHandler(db, policy, errLog, audits, logger)
	r.Mount("/quotes", quotesfeature.Routes(quotesHandler, sessionMgr))

	// Tasks, calls and meetings share one handler type, one per kind.
	for _, kind := range []models.ActivityKind{models.ActivityTask, models.ActivityCall, models.ActivityMeeting} {
		h := activitiesfeature.NewHandler(db, kind, policy, errLog, audits, logger)
		r.Mount(h.Base, activitiesfeature.Routes(h, sessionMgr))
	}

	// Administration
	territoriesHandler := territoriesfeature.NewHandler(db, errLog, audits, logger)
	r.Mount("/territories", territoriesfeature.Routes(territoriesHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(db, errLog, audits, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

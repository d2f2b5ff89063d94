// internal/app/features/leads/handler.go
package leads

import (
	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/store/cascade"
	leadstore "github.com/dalemusser/salescrm/internal/app/store/leads"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the lead screens, conversion, and export.
type Handler struct {
	Leads      *leadstore.Store
	Policy     *recordpolicy.Policy
	Converter  *leadconvert.Converter
	Cascade    *cascade.Deleter
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
}

func NewHandler(
	db *mongo.Database,
	policy *recordpolicy.Policy,
	converter *leadconvert.Converter,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Leads:      leadstore.New(db),
		Policy:     policy,
		Converter:  converter,
		Cascade:    cascade.New(db, logger),
		SessionMgr: sessionMgr,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
	}
}

// internal/app/features/accounts/handler.go
package accounts

import (
	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	accountstore "github.com/dalemusser/salescrm/internal/app/store/accounts"
	"github.com/dalemusser/salescrm/internal/app/store/cascade"
	contactstore "github.com/dalemusser/salescrm/internal/app/store/contacts"
	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the account screens.
type Handler struct {
	Accounts *accountstore.Store
	Contacts *contactstore.Store
	Deals    *dealstore.Store
	Policy   *recordpolicy.Policy
	Cascade  *cascade.Deleter
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(
	db *mongo.Database,
	policy *recordpolicy.Policy,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts: accountstore.New(db),
		Contacts: contactstore.New(db),
		Deals:    dealstore.New(db),
		Policy:   policy,
		Cascade:  cascade.New(db, logger),
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

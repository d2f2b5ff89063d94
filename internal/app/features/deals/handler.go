// internal/app/features/deals/handler.go
package deals

import (
	"context"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	accountstore "github.com/dalemusser/salescrm/internal/app/store/accounts"
	"github.com/dalemusser/salescrm/internal/app/store/cascade"
	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	quotestore "github.com/dalemusser/salescrm/internal/app/store/quotes"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Defaults fill in a new deal's currency and expected close date when the
// form leaves them empty.
type Defaults struct {
	Currency  string
	CloseDays int
}

// Handler serves the deal screens.
type Handler struct {
	Deals    *dealstore.Store
	Quotes   *quotestore.Store
	Accounts *accountstore.Store
	Policy   *recordpolicy.Policy
	Cascade  *cascade.Deleter
	Defaults Defaults
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(
	db *mongo.Database,
	policy *recordpolicy.Policy,
	defaults Defaults,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	if defaults.Currency == "" {
		defaults.Currency = leadconvert.DefaultCurrency
	}
	if defaults.CloseDays <= 0 {
		defaults.CloseDays = leadconvert.DefaultCloseDays
	}
	return &Handler{
		Deals:    dealstore.New(db),
		Quotes:   quotestore.New(db),
		Accounts: accountstore.New(db),
		Policy:   policy,
		Cascade:  cascade.New(db, logger),
		Defaults: defaults,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

// accountVisible reports whether the deal's account exists and is inside
// the actor's account scope.
func (h *Handler) accountVisible(ctx context.Context, actor recordpolicy.Actor, id primitive.ObjectID) (bool, error) {
	a, err := h.Accounts.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.Policy.CanAccess(ctx, actor, recordpolicy.Accounts, a), nil
}

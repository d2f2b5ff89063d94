// internal/app/features/quotes/handler.go
package quotes

import (
	"context"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	quotestore "github.com/dalemusser/salescrm/internal/app/store/quotes"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the quote screens.
type Handler struct {
	Quotes   *quotestore.Store
	Deals    *dealstore.Store
	Policy   *recordpolicy.Policy
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
		Quotes:   quotestore.New(db),
		Deals:    dealstore.New(db),
		Policy:   policy,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

// dealVisible reports whether a quote's deal exists and the actor may see it.
func (h *Handler) dealVisible(ctx context.Context, actor recordpolicy.Actor, id primitive.ObjectID) (bool, error) {
	d, err := h.Deals.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.Policy.CanAccess(ctx, actor, recordpolicy.Deals, d), nil
}

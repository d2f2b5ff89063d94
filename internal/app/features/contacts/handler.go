// internal/app/features/contacts/handler.go
package contacts

import (
	"context"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	accountstore "github.com/dalemusser/salescrm/internal/app/store/accounts"
	"github.com/dalemusser/salescrm/internal/app/store/cascade"
	contactstore "github.com/dalemusser/salescrm/internal/app/store/contacts"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the contact screens.
type Handler struct {
	Contacts *contactstore.Store
	Accounts *accountstore.Store
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
		Contacts: contactstore.New(db),
		Accounts: accountstore.New(db),
		Policy:   policy,
		Cascade:  cascade.New(db, logger),
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

// accountVisible reports whether a linked account exists and is inside the
// actor's account scope. A nil id is fine.
func (h *Handler) accountVisible(ctx context.Context, actor recordpolicy.Actor, id *primitive.ObjectID) (bool, error) {
	if id == nil {
		return true, nil
	}
	a, err := h.Accounts.GetByID(ctx, *id)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.Policy.CanAccess(ctx, actor, recordpolicy.Accounts, a), nil
}

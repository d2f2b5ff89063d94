// internal/app/features/territories/handler.go
package territories

import (
	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	territorystore "github.com/dalemusser/salescrm/internal/app/store/territories"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin territory screens.
type Handler struct {
	Territories *territorystore.Store
	Users       *userstore.Store
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Territories: territorystore.New(db),
		Users:       userstore.New(db),
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
	}
}

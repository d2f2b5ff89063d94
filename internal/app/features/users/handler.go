// internal/app/features/users/handler.go
package users

import (
	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	territorystore "github.com/dalemusser/salescrm/internal/app/store/territories"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin user screens.
type Handler struct {
	Users       *userstore.Store
	Territories *territorystore.Store
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       userstore.New(db),
		Territories: territorystore.New(db),
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
	}
}

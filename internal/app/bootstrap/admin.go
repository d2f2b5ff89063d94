// internal/app/bootstrap/admin.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ensureAdmin makes sure the configured bootstrap email belongs to an active
// admin. An existing user is promoted and re-enabled; the password is only
// used when the user has to be created. An empty email does nothing.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	email = normalize.Email(email)
	if email == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if password == "" {
			logger.Warn("bootstrap admin not found and no password configured; skipping",
				zap.String("email", email))
			return nil
		}
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     models.RoleAdmin,
			Status:   models.UserActive,
		}, password)
		if err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}
		logger.Info("created bootstrap admin", zap.String("user_id", created.ID.Hex()), zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load bootstrap admin: %w", err)
	}

	if u.Role == models.RoleAdmin && u.Status == models.UserActive {
		return nil
	}
	err = users.Update(ctx, u.ID, userstore.Update{
		FullName:    u.FullName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        models.RoleAdmin,
		Status:      models.UserActive,
		TerritoryID: u.TerritoryID,
	})
	if err != nil {
		return fmt.Errorf("promote bootstrap admin: %w", err)
	}
	logger.Warn("promoted bootstrap user to active admin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", string(u.Role)),
		zap.String("previous_status", u.Status))
	return nil
}

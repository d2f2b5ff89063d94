// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the business classification of a CRM user. A user holds exactly
// one role at a time.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleSales   Role = "SALES"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales:
		return true
	}
	return false
}

// User account states. Disabled users cannot sign in and are dropped from
// manager teams.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User represents admins, managers, and sales associates.
//
// NOTE:
//   - Territories a manager runs are not embedded on User.
//     Use territories.manager_id to discover them.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Role         Role                `bson:"role" json:"role"`
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	TerritoryID  *primitive.ObjectID `bson:"territory_id,omitempty" json:"territory_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

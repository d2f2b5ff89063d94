package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is a person, usually at an Account.
type Contact struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	AccountID    *primitive.ObjectID `bson:"account_id,omitempty" json:"account_id,omitempty"`
	FirstName    string              `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName     string              `bson:"last_name" json:"last_name"`
	NameCI       string              `bson:"name_ci" json:"-"`
	Title        string              `bson:"title,omitempty" json:"title,omitempty"`
	Department   string              `bson:"department,omitempty" json:"department,omitempty"`
	Email        string              `bson:"email,omitempty" json:"email,omitempty"`
	WorkPhone    string              `bson:"work_phone,omitempty" json:"work_phone,omitempty"`
	MobilePhone1 string              `bson:"mobile_phone_1,omitempty" json:"mobile_phone_1,omitempty"`
	MobilePhone2 string              `bson:"mobile_phone_2,omitempty" json:"mobile_phone_2,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`

	Ownership `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, falling back to the last name.
func (c Contact) FullName() string {
	return fullName(c.FirstName, c.LastName)
}

// ScopeRef returns the reference stored under a scoping field.
func (c Contact) ScopeRef(field string) primitive.ObjectID {
	return refOrNil(c.Ownership, field, nil, c.AccountID)
}

func fullName(first, last string) string {
	if n := strings.TrimSpace(first + " " + last); n != "" {
		return n
	}
	return last
}

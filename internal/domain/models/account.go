// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account lifecycle values.
const (
	AccountActive   = "ACTIVE"
	AccountInactive = "INACTIVE"
	AccountProspect = "PROSPECT"
	AccountCustomer = "CUSTOMER"
	AccountPartner  = "PARTNER"
	AccountFormer   = "FORMER"
)

// Account is a client company. Name is globally unique.
type Account struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	Name            string              `bson:"name" json:"name"`
	NameCI          string              `bson:"name_ci" json:"-"`
	Website         string              `bson:"website,omitempty" json:"website,omitempty"`
	Phone           string              `bson:"phone,omitempty" json:"phone,omitempty"`
	BillingAddress  string              `bson:"billing_address,omitempty" json:"billing_address,omitempty"`
	ShippingAddress string              `bson:"shipping_address,omitempty" json:"shipping_address,omitempty"`
	Industry        string              `bson:"industry,omitempty" json:"industry,omitempty"`
	Status          string              `bson:"status" json:"status"`
	TerritoryID     *primitive.ObjectID `bson:"territory_id,omitempty" json:"territory_id,omitempty"`

	Ownership `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ScopeRef returns the reference stored under a scoping field.
func (a Account) ScopeRef(field string) primitive.ObjectID {
	return refOrNil(a.Ownership, field, a.TerritoryID, nil)
}

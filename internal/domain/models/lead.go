// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadStatus is the lead lifecycle:
// NEW -> CONTACTED -> QUALIFIED -> {CONVERTED | LOST}.
type LeadStatus string

const (
	LeadNew       LeadStatus = "NEW"
	LeadContacted LeadStatus = "CONTACTED"
	LeadQualified LeadStatus = "QUALIFIED"
	LeadLost      LeadStatus = "LOST"
	LeadConverted LeadStatus = "CONVERTED"
)

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadLost, LeadConverted:
		return true
	}
	return false
}

// Lead sources.
const (
	SourceWebsite  = "WEBSITE"
	SourceReferral = "REFERRAL"
	SourceColdCall = "COLD_CALL"
	SourceEvent    = "EVENT"
	SourceOther    = "OTHER"
)

// Lead is a prospect that has not yet become an Account/Contact/Deal.
type Lead struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	FirstName    string              `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName     string              `bson:"last_name" json:"last_name"`
	NameCI       string              `bson:"name_ci" json:"-"`
	CompanyName  string              `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Title        string              `bson:"title,omitempty" json:"title,omitempty"`
	Department   string              `bson:"department,omitempty" json:"department,omitempty"`
	Email        string              `bson:"email,omitempty" json:"email,omitempty"`
	WorkPhone    string              `bson:"work_phone,omitempty" json:"work_phone,omitempty"`
	MobilePhone1 string              `bson:"mobile_phone_1,omitempty" json:"mobile_phone_1,omitempty"`
	MobilePhone2 string              `bson:"mobile_phone_2,omitempty" json:"mobile_phone_2,omitempty"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Status       LeadStatus          `bson:"status" json:"status"`
	Source       string              `bson:"source,omitempty" json:"source,omitempty"`
	TerritoryID  *primitive.ObjectID `bson:"territory_id,omitempty" json:"territory_id,omitempty"`

	Ownership `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, falling back to the last name.
func (l Lead) FullName() string {
	return fullName(l.FirstName, l.LastName)
}

// ScopeRef returns the reference stored under a scoping field.
func (l Lead) ScopeRef(field string) primitive.ObjectID {
	return refOrNil(l.Ownership, field, l.TerritoryID, nil)
}

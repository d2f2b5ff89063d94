// internal/domain/models/deal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DealStage is a pipeline position.
type DealStage string

const (
	StageProspecting   DealStage = "PROSPECTING"
	StageQualification DealStage = "QUALIFICATION"
	StageProposal      DealStage = "PROPOSAL"
	StageNegotiation   DealStage = "NEGOTIATION"
	StageClosedWon     DealStage = "CLOSED_WON"
	StageClosedLost    DealStage = "CLOSED_LOST"
)

var stageProbability = map[DealStage]int{
	StageProspecting:   10,
	StageQualification: 25,
	StageProposal:      60,
	StageNegotiation:   80,
	StageClosedWon:     100,
	StageClosedLost:    0,
}

// Probability is the close probability implied by the stage. Unknown
// stages map to 0.
func (s DealStage) Probability() int {
	return stageProbability[s]
}

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	_, ok := stageProbability[s]
	return ok
}

// Deal is a sales opportunity against an Account.
// Amount is stored in minor units (cents) to avoid float rounding.
type Deal struct {
	ID               primitive.ObjectID  `bson:"_id" json:"id"`
	Number           string              `bson:"deal_number" json:"deal_number"` // e.g. D25-00001
	Name             string              `bson:"name" json:"name"`
	NameCI           string              `bson:"name_ci" json:"-"`
	AccountID        primitive.ObjectID  `bson:"account_id" json:"account_id"`
	PrimaryContactID *primitive.ObjectID `bson:"primary_contact_id,omitempty" json:"primary_contact_id,omitempty"`
	Stage            DealStage           `bson:"stage" json:"stage"`
	AmountCents      int64               `bson:"amount_cents" json:"amount_cents"`
	Currency         string              `bson:"currency" json:"currency"`
	CloseDate        time.Time           `bson:"close_date" json:"close_date"`
	Probability      int                 `bson:"probability" json:"probability"`
	Description      string              `bson:"description,omitempty" json:"description,omitempty"`

	Ownership `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ScopeRef returns the reference stored under a scoping field.
func (d Deal) ScopeRef(field string) primitive.ObjectID {
	return refOrNil(d.Ownership, field, nil, &d.AccountID)
}

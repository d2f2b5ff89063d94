package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quote statuses.
const (
	QuoteDraft     = "DRAFT"
	QuotePresented = "PRESENTED"
	QuoteAccepted  = "ACCEPTED"
	QuoteRejected  = "REJECTED"
)

// Quote is a formal price offer tied to a Deal. AccountID is always copied
// from the deal on write.
type Quote struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Number        string              `bson:"quote_number" json:"quote_number"` // e.g. Q25-00001
	DealID        primitive.ObjectID  `bson:"deal_id" json:"deal_id"`
	AccountID     *primitive.ObjectID `bson:"account_id,omitempty" json:"account_id,omitempty"`
	ContactID     *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	PresentedDate *time.Time          `bson:"presented_date,omitempty" json:"presented_date,omitempty"`
	ValidityDays  int                 `bson:"validity_days" json:"validity_days"`
	Status        string              `bson:"status" json:"status"`
	TotalCents    *int64              `bson:"total_cents,omitempty" json:"total_cents,omitempty"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`

	Ownership `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ExpiryDate is the presented date plus the validity window, or nil when
// the quote has not been presented.
func (q Quote) ExpiryDate() *time.Time {
	if q.PresentedDate == nil {
		return nil
	}
	exp := q.PresentedDate.AddDate(0, 0, q.ValidityDays)
	return &exp
}

// ScopeRef returns the reference stored under a scoping field.
func (q Quote) ScopeRef(field string) primitive.ObjectID {
	return refOrNil(q.Ownership, field, nil, q.AccountID)
}

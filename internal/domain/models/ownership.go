package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Field names shared by every ownable collection. Scoping filters are built
// from these and nothing else.
const (
	FieldAssignedTo = "assigned_to"
	FieldCreatedBy  = "created_by"
	FieldTerritory  = "territory_id"
	FieldAccount    = "account_id"
)

// Ownership carries the owner and author of a record. It is embedded
// (inline) in every ownable model.
type Ownership struct {
	AssignedTo *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	CreatedBy  *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// ownerRef resolves the two ownership fields; ok is false for any other field.
func (o Ownership) ownerRef(field string) (primitive.ObjectID, bool) {
	switch field {
	case FieldAssignedTo:
		return deref(o.AssignedTo), true
	case FieldCreatedBy:
		return deref(o.CreatedBy), true
	}
	return primitive.NilObjectID, false
}

func deref(id *primitive.ObjectID) primitive.ObjectID {
	if id == nil {
		return primitive.NilObjectID
	}
	return *id
}

// refOrNil is the common ScopeRef body for records with an optional
// territory and/or account.
func refOrNil(o Ownership, field string, territory, account *primitive.ObjectID) primitive.ObjectID {
	if id, ok := o.ownerRef(field); ok {
		return id
	}
	switch field {
	case FieldTerritory:
		return deref(territory)
	case FieldAccount:
		return deref(account)
	}
	return primitive.NilObjectID
}

// Ptr returns a pointer to id, or nil for the zero ObjectID.
func Ptr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// SameID reports whether two optional references point at the same record.
func SameID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Package scope expresses record visibility as a small boolean expression
// tree over ownership fields (assigned_to, created_by, territory_id,
// account_id).
//
// A Predicate can be evaluated two ways:
//   - Match checks a single in-memory record (detail views, permission checks)
//   - Filter compiles to a MongoDB filter document (list, search, export)
//
// Both evaluations must agree; the package tests hold them to that.
package scope

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is anything that can report the ObjectID stored under a scoping
// field. A missing reference is reported as primitive.NilObjectID and never
// matches.
type Record interface {
	ScopeRef(field string) primitive.ObjectID
}

// Predicate is a node in the visibility expression tree.
type Predicate interface {
	Match(rec Record) bool
	Filter() bson.M
}

// matchNothing is a filter no document can satisfy.
var matchNothing = bson.M{"_id": bson.M{"$in": bson.A{}}}

type all struct{}

// All matches every record.
func All() Predicate { return all{} }

func (all) Match(Record) bool { return true }
func (all) Filter() bson.M    { return bson.M{} }

type none struct{}

// None matches no record.
func None() Predicate { return none{} }

func (none) Match(Record) bool { return false }
func (none) Filter() bson.M    { return matchNothing }

type eq struct {
	field string
	id    primitive.ObjectID
}

// Eq matches records whose field references id. A zero id matches nothing.
func Eq(field string, id primitive.ObjectID) Predicate {
	if id.IsZero() {
		return None()
	}
	return eq{field: field, id: id}
}

func (p eq) Match(rec Record) bool {
	ref := rec.ScopeRef(p.field)
	return !ref.IsZero() && ref == p.id
}

func (p eq) Filter() bson.M { return bson.M{p.field: p.id} }

type in struct {
	field string
	ids   []primitive.ObjectID
	set   map[primitive.ObjectID]struct{}
}

// In matches records whose field references any of ids. Zero ids are
// dropped; an empty set matches nothing.
func In(field string, ids []primitive.ObjectID) Predicate {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	kept := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		return None()
	}
	return in{field: field, ids: kept, set: set}
}

func (p in) Match(rec Record) bool {
	ref := rec.ScopeRef(p.field)
	if ref.IsZero() {
		return false
	}
	_, ok := p.set[ref]
	return ok
}

func (p in) Filter() bson.M { return bson.M{p.field: bson.M{"$in": p.ids}} }

type or struct {
	terms []Predicate
}

// Or matches when any term matches. None terms are pruned; an All term
// collapses the whole expression to All.
func Or(terms ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(terms))
	for _, t := range terms {
		switch t.(type) {
		case nil, none:
			continue
		case all:
			return All()
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return None()
	case 1:
		return kept[0]
	}
	return or{terms: kept}
}

func (p or) Match(rec Record) bool {
	for _, t := range p.terms {
		if t.Match(rec) {
			return true
		}
	}
	return false
}

func (p or) Filter() bson.M {
	arr := make(bson.A, 0, len(p.terms))
	for _, t := range p.terms {
		arr = append(arr, t.Filter())
	}
	return bson.M{"$or": arr}
}

// Restrict ANDs a visibility predicate with view-level conditions (status
// exclusions, search terms). Empty extras are skipped.
func Restrict(p Predicate, extra ...bson.M) bson.M {
	parts := bson.A{}
	if f := p.Filter(); len(f) > 0 {
		parts = append(parts, f)
	}
	for _, e := range extra {
		if len(e) > 0 {
			parts = append(parts, e)
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0].(bson.M)
	}
	return bson.M{"$and": parts}
}

// IsAll reports whether p places no restriction at all.
func IsAll(p Predicate) bool {
	_, ok := p.(all)
	return ok
}

// IsNone reports whether p can never match.
func IsNone(p Predicate) bool {
	_, ok := p.(none)
	return ok
}

// internal/app/system/search/search.go
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contains matches documents whose folded field (e.g. name_ci) contains the
// folded query. Regex metacharacters in q are escaped. An empty query
// returns nil so callers can pass the result straight to scope.Restrict.
func Contains(field, q string) bson.M {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	return bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(q))}}
}

// AnyContains is Contains over several fields, ORed.
func AnyContains(q string, fields ...string) bson.M {
	q = strings.TrimSpace(q)
	if q == "" || len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 {
		return Contains(fields[0], q)
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, Contains(f, q))
	}
	return bson.M{"$or": or}
}

// EmailPivot reports whether a users search should sort by email instead
// of name: the query looks like an email fragment.
func EmailPivot(q string) bool {
	return strings.Contains(q, "@")
}

// Prefix matches documents whose field starts with q, ignoring case. It is
// meant for generated codes such as deal and quote numbers, which are
// stored as typed and have no folded copy.
func Prefix(field, q string) bson.M {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	return bson.M{field: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q), Options: "i"}}
}

package search

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestContains(t *testing.T) {
	if got := Contains("name_ci", "   "); got != nil {
		t.Errorf("expected nil for blank query, got %v", got)
	}

	got := Contains("name_ci", "Acme")
	re, ok := got["name_ci"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected primitive.Regex, got %T", got["name_ci"])
	}
	if re.Pattern != "acme" {
		t.Errorf("expected folded pattern, got %q", re.Pattern)
	}
}

func TestContains_EscapesMetacharacters(t *testing.T) {
	got := Contains("name_ci", "a.b*(c)")
	re := got["name_ci"].(primitive.Regex)
	if re.Pattern != `a\.b\*\(c\)` {
		t.Errorf("expected escaped pattern, got %q", re.Pattern)
	}
}

func TestAnyContains(t *testing.T) {
	if got := AnyContains("", "a", "b"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := AnyContains("x", "a"); got["a"] == nil {
		t.Errorf("expected single-field filter, got %v", got)
	}
	got := AnyContains("x", "name_ci", "email")
	or, ok := got["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Errorf("expected $or of two, got %v", got)
	}
}

func TestEmailPivot(t *testing.T) {
	if !EmailPivot("alice@") {
		t.Error("expected pivot for email fragment")
	}
	if EmailPivot("alice") {
		t.Error("expected no pivot for name")
	}
}

func TestPrefix(t *testing.T) {
	if got := Prefix("deal_number", ""); got != nil {
		t.Errorf("expected nil for blank query, got %v", got)
	}

	got := Prefix("deal_number", "d25-0")
	re, ok := got["deal_number"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected a regex, got %T", got["deal_number"])
	}
	if re.Pattern != `^d25-0` || re.Options != "i" {
		t.Errorf("unexpected regex %+v", re)
	}
}

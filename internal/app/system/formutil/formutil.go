// Package formutil reads typed values out of submitted forms.
//
// Every helper trims the raw value first. An empty field is never an error:
// optional helpers return nil and required ones report ErrRequired so the
// handler can answer with a field-specific message.
//
// Example usage:
//
//	acct, err := formutil.OptionalID(r, "account_id")
//	if err != nil {
//		uierrors.RenderBadRequest(w, r, "Invalid account.", "/contacts")
//		return
//	}
package formutil

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accepted layouts. Dates are calendar days in UTC; date-times come from
// <input type="datetime-local"> or full RFC 3339.
const (
	DateLayout          = "2006-01-02"
	DateTimeLocalLayout = "2006-01-02T15:04"
)

var (
	ErrRequired = errors.New("value is required")
	ErrInvalid  = errors.New("value is invalid")
)

// Text returns the trimmed form value.
func Text(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// RequiredID parses a hex ObjectID.
func RequiredID(r *http.Request, key string) (primitive.ObjectID, error) {
	s := Text(r, key)
	if s == "" {
		return primitive.NilObjectID, ErrRequired
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalid
	}
	return id, nil
}

// OptionalID parses a hex ObjectID; empty means nil.
func OptionalID(r *http.Request, key string) (*primitive.ObjectID, error) {
	id, err := RequiredID(r, key)
	if errors.Is(err, ErrRequired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// OptionalDate parses YYYY-MM-DD as midnight UTC; empty means nil.
func OptionalDate(r *http.Request, key string) (*time.Time, error) {
	s := Text(r, key)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, ErrInvalid
	}
	return &t, nil
}

// OptionalDateTime parses RFC 3339 or a datetime-local value (taken as
// UTC); empty means nil.
func OptionalDateTime(r *http.Request, key string) (*time.Time, error) {
	s := Text(r, key)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(DateTimeLocalLayout, s, time.UTC)
	if err != nil {
		return nil, ErrInvalid
	}
	return &t, nil
}

// Int parses a non-negative integer, returning def when empty.
func Int(r *http.Request, key string, def int) (int, error) {
	s := Text(r, key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrInvalid
	}
	return n, nil
}

// Cents parses a non-negative decimal amount ("1,250.50") into minor units.
// Empty means 0.
func Cents(r *http.Request, key string) (int64, error) {
	c, err := OptionalCents(r, key)
	if err != nil || c == nil {
		return 0, err
	}
	return *c, nil
}

// OptionalCents is Cents with nil for an empty field.
func OptionalCents(r *http.Request, key string) (*int64, error) {
	s := strings.ReplaceAll(Text(r, key), ",", "")
	if s == "" {
		return nil, nil
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 || (whole == "" && frac == "") {
		return nil, ErrInvalid
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(orZero(whole), 10, 64)
	if err != nil || w < 0 || w > math.MaxInt64/100 {
		return nil, ErrInvalid
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return nil, ErrInvalid
	}
	c := w*100 + f
	return &c, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

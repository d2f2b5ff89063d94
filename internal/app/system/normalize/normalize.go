// Package normalize holds the canonical forms for user-entered values so
// that stores, handlers, and lookups compare like with like.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and uppercases a role name (ADMIN, MANAGER, SALES).
func Role(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Status trims and uppercases a status or stage code (QUALIFIED, PROPOSAL).
func Status(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a query-string value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// OptionalID trims an ID filter from a select box. "all" and "none" mean
// no filter and normalize to "".
func OptionalID(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "all", "none":
		return ""
	}
	return s
}

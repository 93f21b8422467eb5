package model

import "fmt"

// DataError reports malformed input that should have been rejected upstream.
// It is fatal: callers abort the run rather than optimize over bad tables.
type DataError struct {
	Entity string
	ID     string
	Reason string
}

func (e DataError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// LookupError reports a reference to an entity that does not exist in the
// domain tables.
type LookupError struct {
	Entity string
	ID     string
}

func (e LookupError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Entity, e.ID)
}

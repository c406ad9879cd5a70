// Package logging persists dispatch decisions for later inspection.
package logging

import (
	"context"
	"time"
)

// Decision outcomes recorded per event.
const (
	OutcomeAssigned    = "assigned"
	OutcomeReserved    = "reserved"
	OutcomeNoCandidate = "no_candidate"
	OutcomeWithdrawn   = "withdrawn"
	OutcomeFinalized   = "finalized"
	OutcomeFallback    = "fallback"
)

// Record captures one dispatch decision.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Outcome   string    `json:"outcome"`
	Order     string    `json:"order,omitempty"`
	Vehicle   string    `json:"vehicle,omitempty"`
	Cost      int64     `json:"cost,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start   time.Time
	End     time.Time
	Order   string
	Vehicle string
}

// LogStore persists Records and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

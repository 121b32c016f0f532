// Package history provides persistent records of completed event
// dispatches. The records are an audit trail for operators and the
// repeating scheduler. The dispatch engine never consults them, so the
// core stays stateless across restarts.
package history

import (
	"context"
	"errors"
	"time"
)

// Outcome classifies how a dispatch ended.
type Outcome string

// Dispatch outcome constants.
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Record is one completed dispatch.
type Record struct {
	// ID is the dispatch identifier.
	ID string
	// Event is the dispatched event name.
	Event string
	// Prepositions is the requested phase mask, rendered as a string
	// (e.g. "before|on|after").
	Prepositions string
	// Outcome classifies how the dispatch ended.
	Outcome Outcome
	// Results is the number of results returned to the caller.
	Results int
	// Error holds the failure or cancellation message, if any.
	Error string
	// StartedAt is when the dispatch began.
	StartedAt time.Time
	// Duration is how long the dispatch took.
	Duration time.Duration
}

// Recorder accepts dispatch records. The dispatch engine writes through
// this interface when a recorder is attached.
type Recorder interface {
	// Record stores one dispatch record.
	Record(ctx context.Context, rec Record) error
}

// Store persists and queries dispatch records.
// Implementations must be safe for concurrent use.
type Store interface {
	Recorder

	// Get retrieves a record by dispatch ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id string) (Record, error)

	// List returns records for an event name, newest first. An empty
	// event name returns all records. Returns an empty slice (not an
	// error) when nothing matches.
	List(ctx context.Context, eventName string, limit int) ([]Record, error)

	// Delete removes a record. Returns nil if the record doesn't exist.
	Delete(ctx context.Context, id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("dispatch record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")
)

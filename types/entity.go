package types

import "time"

// Entity carries first-seen and last-modified timestamps for ledger records.
// Timestamps come from the engine clock, never from time.Now directly, so
// replay and tests stay deterministic.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntityAt creates an Entity with both timestamps set to t (UTC).
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch sets UpdatedAt to t (UTC).
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = t.UTC()
}

// IsZero returns true if the entity was never stamped.
func (e Entity) IsZero() bool {
	return e.CreatedAt.IsZero()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

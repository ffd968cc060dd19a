package engine

import "fmt"

// ConfigError reports a construction-time configuration problem: an
// out-of-range numeric value, or a team roster that is empty or
// larger than MaxTeams. A scene base's TeamID is not checked against
// the roster.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// GeometryError reports a base shape template that rasterized to zero
// pixels. The base is still constructed (it becomes inert, per
// spec.md §7) and NewBase returns the error alongside it;
// NewSimulation keeps the inert base and logs the error as a warning
// rather than returning it.
type GeometryError struct {
	BaseID   string
	ShapeKind ShapeKind
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: base %s: shape %s rasterized to zero pixels, base is inert", e.BaseID, e.ShapeKind)
}

// CapacityError is returned by AgentStore.Add when the pool is full.
// Per spec.md §7 this is not fatal to the tick: callers count it and
// move on (Simulation does this via Snapshot.DroppedSpawns).
type CapacityError struct {
	MaxAgents int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity: agent pool full at %d agents", e.MaxAgents)
}

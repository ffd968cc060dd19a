package engine

import "github.com/ashenforge/slimewar/pkg/geometry"

// AgentStore is a structure-of-arrays pool of agents. Index i across
// Pos/Heading/TeamID/Health refers to the same agent. Dead
// agents are compacted out of the live prefix [0, Len()) by Compact,
// a stable filter that preserves the relative order of survivors so
// that an agent's index -- and therefore its stratified AI-update
// schedule (spec.md §4.7 step 1) -- only ever changes when a
// lower-indexed agent ahead of it dies, never as a side effect of an
// unrelated agent dying elsewhere in the pool.
type AgentStore struct {
	Pos     []geometry.Vector2D
	Heading []float64
	TeamID  []uint8
	Health  []int32

	live int
	cap  int
}

// NewAgentStore preallocates a pool able to hold up to capacity
// agents without reallocating (spec.md §4.4's MAX_AGENTS bound).
func NewAgentStore(capacity int) *AgentStore {
	return &AgentStore{
		Pos:     make([]geometry.Vector2D, 0, capacity),
		Heading: make([]float64, 0, capacity),
		TeamID:  make([]uint8, 0, capacity),
		Health:  make([]int32, 0, capacity),
		cap:     capacity,
	}
}

// Len returns the number of live agents.
func (s *AgentStore) Len() int { return s.live }

// Cap returns the pool's fixed capacity.
func (s *AgentStore) Cap() int { return s.cap }

// Add appends a new agent and returns its index, or a *CapacityError
// if the pool is already at capacity.
func (s *AgentStore) Add(pos geometry.Vector2D, heading float64, teamID uint8, health int32) (int, error) {
	if s.live >= s.cap {
		return -1, &CapacityError{MaxAgents: s.cap}
	}
	if s.live < len(s.Pos) {
		// Reuse a slot vacated by a prior Compact.
		s.Pos[s.live] = pos
		s.Heading[s.live] = heading
		s.TeamID[s.live] = teamID
		s.Health[s.live] = health
	} else {
		s.Pos = append(s.Pos, pos)
		s.Heading = append(s.Heading, heading)
		s.TeamID = append(s.TeamID, teamID)
		s.Health = append(s.Health, health)
	}
	idx := s.live
	s.live++
	return idx, nil
}

// Kill zeroes an agent's health in place. The agent stays in the live
// prefix until the next Compact so that a tick's combat pass can
// observe every victim's health==0 without index shifts mid-tick
// (spec.md §4.7's idempotent-write requirement).
func (s *AgentStore) Kill(i int) {
	s.Health[i] = 0
}

// Compact removes every agent with Health<=0 from the live prefix
// with a stable two-pointer filter, preserving the relative order of
// survivors. Ordering must be preserved because stratified AI
// scheduling (spec.md §4.7 step 1) keys off `i mod ai_interval`,
// where `i` is the store index: a swap-based compaction would
// silently reassign some unrelated survivor's AI-update stratum every
// time another agent dies. Returns the number of agents removed. Call
// this once per tick, after combat resolution, never mid-resolution.
func (s *AgentStore) Compact() int {
	write := 0
	for read := 0; read < s.live; read++ {
		if s.Health[read] <= 0 {
			continue
		}
		if write != read {
			s.Pos[write] = s.Pos[read]
			s.Heading[write] = s.Heading[read]
			s.TeamID[write] = s.TeamID[read]
			s.Health[write] = s.Health[read]
		}
		write++
	}
	removed := s.live - write
	s.live = write
	return removed
}

// CountByTeam tallies live agents per team id, sized to teamCount.
func (s *AgentStore) CountByTeam(teamCount int) []int {
	counts := make([]int, teamCount)
	for i := 0; i < s.live; i++ {
		if int(s.TeamID[i]) < teamCount {
			counts[s.TeamID[i]]++
		}
	}
	return counts
}

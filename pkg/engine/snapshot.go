package engine

// WinnerInfo reports whether the match has ended, and why.
type WinnerInfo struct {
	Decided bool
	TeamID  uint8
	Reason  string // "elimination", "kills", or "draw"
}

// Snapshot is the immutable, read-only view of a Simulation returned
// after every Step call. None of its slices alias the engine's
// internal storage that the next Step will mutate.
type Snapshot struct {
	Tick uint64

	AgentCountByTeam []int
	BaseHealthByTeam []int // live armor-cell count, summed across each team's bases
	KillCounts       []int

	DroppedSpawns int
	Winner        WinnerInfo

	Events []Event
}

// buildSnapshot assembles a Snapshot from the current engine state,
// the same role buildSnapshot plays on the teacher's WorldActor,
// generalized from a fixed two-count win check to an N-team
// elimination check driven by TeamTable.
func (s *Simulation) buildSnapshot(events []Event) *Snapshot {
	teamCount := s.teams.Count()
	agentCounts := s.store.CountByTeam(teamCount)

	baseHealth := make([]int, teamCount)
	aliveBaseTeams := make([]bool, teamCount)
	for _, b := range s.bases {
		if int(b.TeamID) >= teamCount {
			continue
		}
		baseHealth[b.TeamID] += len(b.ArmorCells)
		if b.HasArmor() {
			aliveBaseTeams[b.TeamID] = true
		}
	}

	snap := &Snapshot{
		Tick:              s.tick,
		AgentCountByTeam:  agentCounts,
		BaseHealthByTeam:  baseHealth,
		KillCounts:        append([]int(nil), s.killCounts...),
		DroppedSpawns:     s.droppedSpawns,
		Events:            events,
	}
	snap.Winner = s.evaluateWinner(agentCounts, aliveBaseTeams)
	return snap
}

// evaluateWinner applies spec.md §8's termination rule: a team is
// eliminated once it has neither live agents nor any remaining base
// armor (core is never destructible by combat, so armor -- not
// core -- is what "base dead" means here; see S6). The match ends
// when at most one team remains standing, or the configured frame
// budget runs out.
func (s *Simulation) evaluateWinner(agentCounts []int, aliveBaseTeams []bool) WinnerInfo {
	standing := []uint8{}
	for t := 0; t < s.teams.Count(); t++ {
		if agentCounts[t] > 0 || aliveBaseTeams[t] {
			standing = append(standing, uint8(t))
		}
	}

	if len(standing) == 1 {
		return WinnerInfo{Decided: true, TeamID: standing[0], Reason: "elimination"}
	}
	if len(standing) == 0 {
		return WinnerInfo{Decided: true, Reason: "draw"}
	}
	if s.cfg.TotalFrames > 0 && s.tick >= uint64(s.cfg.TotalFrames) {
		best := standing[0]
		for _, t := range standing[1:] {
			if s.killCounts[t] > s.killCounts[best] {
				best = t
			}
		}
		return WinnerInfo{Decided: true, TeamID: best, Reason: "kills"}
	}
	return WinnerInfo{Decided: false}
}

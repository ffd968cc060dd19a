package engine

import "fmt"

// MaxTeams is the hard ceiling on TEAM_COUNT (spec.md §3).
const MaxTeams = 16

// Terrain id ranges. EMPTY is walkable; ARMOR is destructible;
// CORE is impassable and indestructible this tick. The offsets mirror
// the original prototype's constants.py (SOLDIER_OFFSET / BASE_ARMOR_OFFSET
// / BASE_CORE_OFFSET), generalized from a fixed two-team table to an
// arbitrary TEAM_COUNT <= MaxTeams.
const (
	EmptyTerrain uint8 = 0
	ArmorBase    uint8 = 40
	CoreBase     uint8 = 40 + MaxTeams
)

// TeamSpec is one row of the static team table a Simulation is
// constructed with. AllianceID groups teams into hostility classes:
// two teams are hostile iff their AllianceID differs.
type TeamSpec struct {
	Name       string
	AllianceID uint8
}

// TeamTable is the closed, ordered set of teams participating in a
// Simulation. Index == team_id throughout the engine.
type TeamTable struct {
	teams []TeamSpec
}

// NewTeamTable validates and wraps a team roster.
func NewTeamTable(teams []TeamSpec) (*TeamTable, error) {
	if len(teams) == 0 {
		return nil, &ConfigError{Field: "teams", Msg: "at least one team is required"}
	}
	if len(teams) > MaxTeams {
		return nil, &ConfigError{Field: "teams", Msg: fmt.Sprintf("team count %d exceeds MaxTeams %d", len(teams), MaxTeams)}
	}
	cp := make([]TeamSpec, len(teams))
	copy(cp, teams)
	return &TeamTable{teams: cp}, nil
}

// Count returns TEAM_COUNT.
func (t *TeamTable) Count() int { return len(t.teams) }

// Name returns the display name of a team id, or "" if out of range.
func (t *TeamTable) Name(teamID uint8) string {
	if int(teamID) >= len(t.teams) {
		return ""
	}
	return t.teams[teamID].Name
}

// IndexByName resolves a team name to an id. ok is false if unknown.
func (t *TeamTable) IndexByName(name string) (id uint8, ok bool) {
	for i, spec := range t.teams {
		if spec.Name == name {
			return uint8(i), true
		}
	}
	return 0, false
}

// Hostile reports whether two teams belong to different alliances.
// Hostility is symmetric by construction and never reflexive-true:
// a team is never hostile to itself, since it shares its own alliance id.
func (t *TeamTable) Hostile(a, b uint8) bool {
	if int(a) >= len(t.teams) || int(b) >= len(t.teams) {
		return false
	}
	return t.teams[a].AllianceID != t.teams[b].AllianceID
}

// ArmorID returns the LogicGrid terrain id for team's armor.
func ArmorID(teamID uint8) uint8 { return ArmorBase + teamID }

// CoreID returns the LogicGrid terrain id for team's core.
func CoreID(teamID uint8) uint8 { return CoreBase + teamID }

// TeamOfArmor returns the owning team id if id is an armor terrain id.
func TeamOfArmor(id uint8) (teamID uint8, ok bool) {
	if id >= ArmorBase && id < ArmorBase+MaxTeams {
		return id - ArmorBase, true
	}
	return 0, false
}

// TeamOfCore returns the owning team id if id is a core terrain id.
func TeamOfCore(id uint8) (teamID uint8, ok bool) {
	if id >= CoreBase && id < CoreBase+MaxTeams {
		return id - CoreBase, true
	}
	return 0, false
}

package engine

import (
	"math/rand"
	"testing"

	"github.com/ashenforge/slimewar/internal/shardwork"
	"github.com/ashenforge/slimewar/pkg/geometry"
)

func newTestTeams(t *testing.T) *TeamTable {
	t.Helper()
	tt, err := NewTeamTable([]TeamSpec{{Name: "red", AllianceID: 0}, {Name: "blue", AllianceID: 1}})
	if err != nil {
		t.Fatalf("NewTeamTable: %v", err)
	}
	return tt
}

// TestResolver_HostileCollisionRollsTwoIndependentTrials exercises
// spec.md §4.7 step 5's ObjectGrid-driven combat: agent 0 proposes a
// move onto agent 1's cell. With combatChance=1.0 both trials must
// succeed, killing both sides, and the attacker must not have moved.
func TestResolver_HostileCollisionRollsTwoIndependentTrials(t *testing.T) {
	teams := newTestTeams(t)
	resolver := NewResolver(teams)

	store := NewAgentStore(4)
	store.Add(geometry.Vector2D{X: 10.5, Y: 10.5}, 0, 0, 100) // heading 0 -> east, proposes (10.5, 11.5)
	store.Add(geometry.Vector2D{X: 11.5, Y: 10.5}, 0, 1, 100)

	grid := NewGrid(40, 40)
	grid.RebuildOccupancy(store)

	fields := []*PheromoneField{NewPheromoneField(40, 40, 0.97, 1.0), NewPheromoneField(40, 40, 0.97, 1.0)}
	index := NewSpatialIndex(40, 40, 10)
	index.Build(store)

	cfg := DefaultConfig()
	cfg.CombatChance = 1.0
	cfg.AIUpdateInterval = 1000 // keep heading fixed; exercise motion/collision, not steering

	events := make(chan Event, 16)
	rng := rand.New(rand.NewSource(1))
	resolver.ResolveShard(1, shardwork.Range{Start: 0, End: 1}, rng, store, grid, fields, nil, index, cfg, events)
	close(events)

	if store.Health[0] > 0 || store.Health[1] > 0 {
		t.Error("combatChance=1.0 must kill both combatants")
	}
	if store.Pos[0] != (geometry.Vector2D{X: 10.5, Y: 10.5}) {
		t.Error("the attacker must not move into the contested cell")
	}

	sawExplosion, sawCombat := false, false
	for e := range events {
		switch e.(type) {
		case ExplosionEvent:
			sawExplosion = true
		case CombatEvent:
			sawCombat = true
		}
	}
	if !sawExplosion || !sawCombat {
		t.Error("expected both an ExplosionEvent and a CombatEvent")
	}
}

func TestResolver_HostileCollisionCanSpareBothSides(t *testing.T) {
	teams := newTestTeams(t)
	resolver := NewResolver(teams)

	store := NewAgentStore(4)
	store.Add(geometry.Vector2D{X: 10.5, Y: 10.5}, 0, 0, 100)
	store.Add(geometry.Vector2D{X: 11.5, Y: 10.5}, 0, 1, 100)

	grid := NewGrid(40, 40)
	grid.RebuildOccupancy(store)

	fields := []*PheromoneField{NewPheromoneField(40, 40, 0.97, 1.0), NewPheromoneField(40, 40, 0.97, 1.0)}
	index := NewSpatialIndex(40, 40, 10)
	index.Build(store)

	cfg := DefaultConfig()
	cfg.CombatChance = 0.0
	cfg.AIUpdateInterval = 1000

	events := make(chan Event, 16)
	rng := rand.New(rand.NewSource(1))
	resolver.ResolveShard(1, shardwork.Range{Start: 0, End: 1}, rng, store, grid, fields, nil, index, cfg, events)
	close(events)

	if store.Health[0] <= 0 || store.Health[1] <= 0 {
		t.Error("combatChance=0.0 must kill neither combatant")
	}
}

func TestResolver_FriendlyAgentsNeverFight(t *testing.T) {
	teams := newTestTeams(t)
	resolver := NewResolver(teams)

	store := NewAgentStore(4)
	store.Add(geometry.Vector2D{X: 10.5, Y: 10.5}, 0, 0, 100)
	store.Add(geometry.Vector2D{X: 11.5, Y: 10.5}, 0, 0, 100) // same team

	grid := NewGrid(40, 40)
	grid.RebuildOccupancy(store)

	fields := []*PheromoneField{NewPheromoneField(40, 40, 0.97, 1.0), NewPheromoneField(40, 40, 0.97, 1.0)}
	index := NewSpatialIndex(40, 40, 10)
	index.Build(store)

	cfg := DefaultConfig()
	cfg.CombatChance = 1.0
	cfg.AIUpdateInterval = 1000

	events := make(chan Event, 16)
	rng := rand.New(rand.NewSource(1))
	resolver.ResolveShard(1, shardwork.Range{Start: 0, End: 1}, rng, store, grid, fields, nil, index, cfg, events)
	close(events)

	if store.Health[0] <= 0 || store.Health[1] <= 0 {
		t.Error("same-team agents must never kill each other")
	}
	if store.Pos[0] == (geometry.Vector2D{X: 11.5, Y: 10.5}) {
		t.Error("an ally-occupied cell must route through the catchall, not silently pass through onto agent 1's cell")
	}
}

func TestResolver_BoundaryContactKillsAgent(t *testing.T) {
	teams := newTestTeams(t)
	resolver := NewResolver(teams)

	store := NewAgentStore(4)
	store.Add(geometry.Vector2D{X: 0.5, Y: 0.5}, 0, 0, 100) // heading 0 -> east, stays at row 0 (< 1)

	grid := NewGrid(40, 40)
	grid.RebuildOccupancy(store)
	fields := []*PheromoneField{NewPheromoneField(40, 40, 0.97, 1.0)}
	index := NewSpatialIndex(40, 40, 10)
	index.Build(store)

	cfg := DefaultConfig()
	cfg.AIUpdateInterval = 1000

	events := make(chan Event, 4)
	rng := rand.New(rand.NewSource(1))
	resolver.ResolveShard(1, shardwork.Range{Start: 0, End: 1}, rng, store, grid, fields, nil, index, cfg, events)
	close(events)

	if store.Health[0] != 0 {
		t.Error("an agent within 1 cell of the boundary must be killed, not bounced")
	}
}

func TestResolver_ArmorBiteKillsAttackerAndEmitsBaseDamage(t *testing.T) {
	teams := newTestTeams(t)
	resolver := NewResolver(teams)

	b, err := NewBase(1, ShapeBox, Cell{Row: 20, Col: 20}, 1.0)
	if err != nil {
		t.Fatalf("NewBase: %v", err)
	}
	armorCell := b.ArmorCells[0]

	store := NewAgentStore(4)
	// Position the agent one step away from armorCell, heading straight at it.
	start := geometry.Vector2D{X: float64(armorCell.Col) + 0.5 - 1, Y: float64(armorCell.Row) + 0.5}
	store.Add(start, 0, 0, 100) // team 0, heading 0 (east)

	grid := NewGrid(40, 40)
	grid.RebuildTerrain([]*Base{b})
	grid.RebuildOccupancy(store)
	fields := []*PheromoneField{NewPheromoneField(40, 40, 0.97, 1.0), NewPheromoneField(40, 40, 0.97, 1.0)}
	index := NewSpatialIndex(40, 40, 10)
	index.Build(store)

	cfg := DefaultConfig()
	cfg.AIUpdateInterval = 1000

	events := make(chan Event, 16)
	rng := rand.New(rand.NewSource(1))
	resolver.ResolveShard(1, shardwork.Range{Start: 0, End: 1}, rng, store, grid, fields, []*Base{b}, index, cfg, events)
	close(events)

	if store.Health[0] != 0 {
		t.Error("biting hostile armor must always kill the attacker")
	}
	if grid.Terrain(armorCell.Row, armorCell.Col) != EmptyTerrain {
		t.Error("the bitten armor cell must become EMPTY")
	}

	var sawDamage bool
	for e := range events {
		if dmg, ok := e.(BaseDamageEvent); ok {
			sawDamage = true
			if dmg.Damaged != 1 || dmg.Attacker != 0 {
				t.Errorf("BaseDamageEvent = %+v; want Damaged=1 Attacker=0", dmg)
			}
		}
	}
	if !sawDamage {
		t.Error("expected a BaseDamageEvent")
	}
}

func TestResolver_DepositsPheromoneOnOwnTeamField(t *testing.T) {
	teams := newTestTeams(t)
	resolver := NewResolver(teams)

	store := NewAgentStore(4)
	store.Add(geometry.Vector2D{X: 10.5, Y: 10.5}, 0, 0, 100)

	grid := NewGrid(40, 40)
	grid.RebuildOccupancy(store)
	fields := []*PheromoneField{NewPheromoneField(40, 40, 0.97, 1.0), NewPheromoneField(40, 40, 0.97, 1.0)}
	index := NewSpatialIndex(40, 40, 10)
	index.Build(store)

	cfg := DefaultConfig()
	events := make(chan Event, 16)
	rng := rand.New(rand.NewSource(1))
	resolver.ResolveShard(1, shardwork.Range{Start: 0, End: 1}, rng, store, grid, fields, nil, index, cfg, events)
	close(events)

	if fields[0].At(10, 10) <= 0 {
		t.Error("expected the agent's own team field to receive a deposit at its prior cell")
	}
	if fields[1].At(10, 10) != 0 {
		t.Error("an agent must never deposit onto another team's pheromone field")
	}
}

package engine

import (
	"math"
	"math/rand"

	"github.com/ashenforge/slimewar/internal/shardwork"
	"github.com/ashenforge/slimewar/pkg/geometry"
)

const (
	moveSpeed        = 1.0
	catchallAttempts = 5
)

// Resolver is the stateless per-tick agent kernel: target acquisition,
// steering, motion, and combat resolution, grounded on the scanning
// and combat logic in the teacher's WorldActor.scanNeighbors and
// resolveCombat, generalized from a hardcoded two-team check into an
// alliance-aware, N-team kernel driven by TeamTable.Hostile.
type Resolver struct {
	Teams *TeamTable
}

// NewResolver builds a Resolver bound to a fixed team roster.
func NewResolver(teams *TeamTable) *Resolver {
	return &Resolver{Teams: teams}
}

// ResolveShard advances every live agent in [shard.Start, shard.End)
// by one tick, following spec.md §4.7's five-step kernel: stratified
// AI gating, target acquisition, steering fallback, motion proposal
// with boundary-kill, then collision/combat against the tick's
// ObjectGrid and the current LogicGrid. Events are pushed onto
// the caller-owned events channel so the caller can fan shards in
// with channerics.Merge.
func (r *Resolver) ResolveShard(
	tick uint64,
	shard shardwork.Range,
	rng *rand.Rand,
	store *AgentStore,
	grid *Grid,
	fields []*PheromoneField,
	bases []*Base,
	index *SpatialIndex,
	cfg *Config,
	events chan<- Event,
) {
	for i := shard.Start; i < shard.End; i++ {
		if store.Health[i] <= 0 {
			continue
		}
		teamID := store.TeamID[i]
		heading := store.Heading[i]

		interval, _ := cfg.GetParam(teamID, "aiUpdateInterval")
		aiInterval := int(interval)
		if aiInterval < 1 {
			aiInterval = 1
		}

		runAI := int(tick)%aiInterval == i%aiInterval
		if runAI {
			heading = r.decideHeading(i, teamID, store, fields, bases, index, cfg, rng)
		}

		pos := store.Pos[i]
		row, col := pos.Cell()
		proposed := pos.Add(geometry.FromHeading(heading).Mul(moveSpeed))
		pRow, pCol := proposed.Cell()

		if pRow < 1 || pRow >= grid.Height-1 || pCol < 1 || pCol >= grid.Width-1 {
			store.Kill(i)
			store.Heading[i] = heading
			continue
		}

		heading, proposed = r.resolveMove(tick, i, teamID, heading, pos, proposed, pRow, pCol, store, grid, bases, cfg, rng, events)

		store.Heading[i] = heading
		store.Pos[i] = proposed
		if int(teamID) < len(fields) {
			amount, _ := cfg.GetParam(teamID, "pheromoneDepositAmount")
			fields[teamID].Deposit(row, col, amount)
		}
	}
}

// decideHeading picks a target heading: chase the nearer of the
// closest hostile agent within enemySenseRadius or the closest
// hostile armor cell within baseAttackRadius (ties preferring the
// agent, spec.md §4.7 step 2), otherwise fall back to the slime-mold
// scent-following rule.
func (r *Resolver) decideHeading(
	i int,
	teamID uint8,
	store *AgentStore,
	fields []*PheromoneField,
	bases []*Base,
	index *SpatialIndex,
	cfg *Config,
	rng *rand.Rand,
) float64 {
	pos := store.Pos[i]
	senseRadius, _ := cfg.GetParam(teamID, "enemySenseRadius")
	senseRadiusSq := senseRadius * senseRadius

	var closestAgent int32 = -1
	closestAgentDistSq := math.MaxFloat64

	index.Neighbors(pos.Y, pos.X, func(j int32) {
		if int(j) == i || store.Health[j] <= 0 {
			return
		}
		if !r.Teams.Hostile(teamID, store.TeamID[j]) {
			return
		}
		d := pos.DistanceSquaredTo(store.Pos[j])
		if d <= senseRadiusSq && d < closestAgentDistSq {
			closestAgentDistSq = d
			closestAgent = j
		}
	})

	attackRadius, _ := cfg.GetParam(teamID, "baseAttackRadius")
	attackRadiusSq := attackRadius * attackRadius
	var closestArmor *geometry.Vector2D
	closestArmorDistSq := math.MaxFloat64

	for _, b := range bases {
		if !r.Teams.Hostile(teamID, b.TeamID) {
			continue
		}
		for _, c := range b.ArmorCells {
			cellPos := geometry.Vector2D{X: float64(c.Col) + 0.5, Y: float64(c.Row) + 0.5}
			d := pos.DistanceSquaredTo(cellPos)
			if d <= attackRadiusSq && d < closestArmorDistSq {
				closestArmorDistSq = d
				cp := cellPos
				closestArmor = &cp
			}
		}
	}

	switch {
	case closestAgent >= 0 && (closestArmor == nil || closestAgentDistSq <= closestArmorDistSq):
		return pos.AngleTo(store.Pos[closestAgent])
	case closestArmor != nil:
		return pos.AngleTo(*closestArmor)
	}

	sensorAngle, _ := cfg.GetParam(teamID, "sensorAngleDegrees")
	sensorDist, _ := cfg.GetParam(teamID, "sensorDistance")
	rotationAngle, _ := cfg.GetParam(teamID, "rotationAngleDegrees")

	var field *PheromoneField
	if int(teamID) < len(fields) {
		field = fields[teamID]
	}
	if field == nil {
		return store.Heading[i]
	}
	return NextHeading(field, pos.Y, pos.X, store.Heading[i],
		sensorAngle*math.Pi/180, sensorDist, rotationAngle*math.Pi/180, rng)
}

// resolveMove implements spec.md §4.7 step 5 against the tick's
// ObjectGrid, which stays unchanged for the duration of the kernel,
// and the LogicGrid as it stands: LogicGrid is not copied, an armor
// bite clears its cell in place, and agents resolved later in the
// same tick see that cell as EMPTY. Hostile occupant beats hostile
// armor beats a clear empty
// cell beats the catchall (own terrain, hostile core, or an
// ally-occupied cell), which retries up to 5 random headings before
// reversing in place.
func (r *Resolver) resolveMove(
	tick uint64,
	i int,
	teamID uint8,
	heading float64,
	pos, proposed geometry.Vector2D,
	pRow, pCol int,
	store *AgentStore,
	grid *Grid,
	bases []*Base,
	cfg *Config,
	rng *rand.Rand,
	events chan<- Event,
) (float64, geometry.Vector2D) {
	occupant, occupied := grid.OccupantAt(pRow, pCol)
	occupied = occupied && int(occupant) != i && store.Health[occupant] > 0

	if occupied && r.Teams.Hostile(teamID, store.TeamID[occupant]) {
		r.resolveCombat(tick, i, teamID, int(occupant), Cell{Row: pRow, Col: pCol}, store, cfg, rng, events)
		return heading, pos
	}

	terrain := grid.Terrain(pRow, pCol)
	if armorTeam, isArmor := TeamOfArmor(terrain); isArmor && armorTeam != teamID {
		r.attackArmor(tick, i, teamID, grid, bases, armorTeam, Cell{Row: pRow, Col: pCol}, store, events)
		return heading, pos
	}

	if terrain == EmptyTerrain && !occupied {
		return heading, proposed
	}

	for attempt := 0; attempt < catchallAttempts; attempt++ {
		altHeading := rng.Float64() * 2 * math.Pi
		alt := pos.Add(geometry.FromHeading(altHeading).Mul(moveSpeed))
		aRow, aCol := alt.Cell()
		if grid.InBounds(aRow, aCol) && grid.Terrain(aRow, aCol) == EmptyTerrain {
			return altHeading, alt
		}
	}
	return heading + math.Pi, pos
}

// resolveCombat rolls the two independent Bernoulli(combat_chance)
// trials spec.md §4.7 step 5 requires for a hostile-occupant
// collision: the first trial may kill the defender j, the second may
// kill the attacker i. Both, either, or neither may die. The attacker
// never moves this tick regardless of outcome.
func (r *Resolver) resolveCombat(
	tick uint64,
	i int,
	teamID uint8,
	j int,
	cell Cell,
	store *AgentStore,
	cfg *Config,
	rng *rand.Rand,
	events chan<- Event,
) {
	chance, _ := cfg.GetParam(teamID, "combatChance")
	defenderDied := rng.Float64() < chance
	attackerDied := rng.Float64() < chance

	if defenderDied {
		store.Kill(j)
	}
	if attackerDied {
		store.Kill(i)
	}

	if events != nil {
		events <- ExplosionEvent{Tick: tick, Row: cell.Row, Col: cell.Col, TeamID: teamID}
		events <- CombatEvent{Tick: tick, AttackerID: int32(i), DefenderID: int32(j), AttackerDied: attackerDied, DefenderDied: defenderDied}
	}
}

// attackArmor is the suicidal base-armor bite: the attacker always
// dies, the armor cell is always stripped (no combat_chance roll;
// spec.md §4.7 step 5's armor branch is unconditional), and a
// BaseDamageEvent reports the hit.
func (r *Resolver) attackArmor(
	tick uint64,
	i int,
	attackerTeam uint8,
	grid *Grid,
	bases []*Base,
	ownerTeam uint8,
	cell Cell,
	store *AgentStore,
	events chan<- Event,
) {
	for _, b := range bases {
		if b.TeamID != ownerTeam {
			continue
		}
		if b.RemoveArmorCell(cell) {
			grid.SetTerrain(cell.Row, cell.Col, EmptyTerrain)
			store.Kill(i)
			if events != nil {
				events <- ExplosionEvent{Tick: tick, Row: cell.Row, Col: cell.Col, TeamID: attackerTeam}
				events <- BaseDamageEvent{Tick: tick, Damaged: ownerTeam, Attacker: attackerTeam}
			}
			return
		}
	}
}

package engine

// Event is the sum type emitted by a tick's Resolver pass. Consumers
// type-switch on the concrete type, the same pattern the original
// prototype's combat loop would otherwise have logged inline.
type Event interface {
	isEvent()
}

// CombatEvent reports one resolved agent-vs-agent fight (spec.md
// §4.7 step 5's two independent Bernoulli trials): either, both, or
// neither side may die from a single encounter.
type CombatEvent struct {
	Tick         uint64
	AttackerID   int32
	DefenderID   int32
	AttackerDied bool
	DefenderDied bool
}

func (CombatEvent) isEvent() {}

// ExplosionEvent reports a fight or an armor bite at (Row, Col),
// colored by the team of the agent that moved into the cell. A fight
// emits one whether or not either side died.
type ExplosionEvent struct {
	Tick   uint64
	Row    int
	Col    int
	TeamID uint8
	Core   bool
}

func (ExplosionEvent) isEvent() {}

// BaseDamageEvent reports one armor cell removed by a suicidal
// attacker (spec.md §3, §4.7 step 5).
type BaseDamageEvent struct {
	Tick     uint64
	Damaged  uint8 // team whose armor was hit
	Attacker uint8 // team of the agent that hit it
}

func (BaseDamageEvent) isEvent() {}

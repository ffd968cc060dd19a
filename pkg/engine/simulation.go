package engine

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"go.uber.org/zap"

	"github.com/ashenforge/slimewar/internal/shardwork"
)

// SceneBase places one base in a Scene's starting layout.
type SceneBase struct {
	TeamID uint8
	Shape  ShapeKind
	Origin Cell
	Scale  float64
}

// Scene is the declarative starting layout a Simulation is built
// from: the team roster and base placements, the Go analogue of
// assets/layouts.py's poll_layout in the original prototype,
// generalized from its hardcoded two-base call site to an arbitrary
// list.
type Scene struct {
	Teams []TeamSpec
	Bases []SceneBase
	Seed  int64
}

// Simulation is the owned aggregate holding every piece of engine
// state and the single entry point, step(tick), that mutates it.
// There is no global mutable state anywhere else in the package: a
// driver can run as many independent Simulations as it wants in the
// same process.
type Simulation struct {
	cfg   *Config
	teams *TeamTable

	store    *AgentStore
	grid     *Grid
	fields   []*PheromoneField
	bases    []*Base
	index    *SpatialIndex
	resolver *Resolver

	rng    *rand.Rand
	tick   uint64
	serial bool

	killCounts    []int
	droppedSpawns int

	logger  *zap.Logger
	metrics *Metrics
}

// NewSimulation builds a Simulation from a scene and an already-built
// configuration. LoadScene wraps it for callers that start from a
// config file and schema file on disk.
func NewSimulation(scene *Scene, cfg *Config, logger *zap.Logger, metrics *Metrics) (*Simulation, error) {
	teams, err := NewTeamTable(scene.Teams)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sim := &Simulation{
		cfg:        cfg,
		teams:      teams,
		store:      NewAgentStore(cfg.MaxAgents),
		grid:       NewGrid(cfg.GridHeight, cfg.GridWidth),
		index:      NewSpatialIndex(cfg.GridHeight, cfg.GridWidth, cfg.EnemySenseRadius),
		resolver:   NewResolver(teams),
		rng:        rand.New(rand.NewSource(scene.Seed)),
		killCounts: make([]int, teams.Count()),
		logger:     logger,
		metrics:    metrics,
	}

	sim.fields = make([]*PheromoneField, teams.Count())
	for t := range sim.fields {
		decay, _ := cfg.GetParam(uint8(t), "pheromoneDecayRate")
		sigma, _ := cfg.GetParam(uint8(t), "pheromoneBlurSigma")
		sim.fields[t] = NewPheromoneField(cfg.GridHeight, cfg.GridWidth, decay, sigma)
	}

	var geomErrs []error
	for _, sb := range scene.Bases {
		b, err := NewBase(sb.TeamID, sb.Shape, sb.Origin, sb.Scale)
		if err != nil {
			geomErrs = append(geomErrs, err)
		}
		sim.bases = append(sim.bases, b)
	}
	sim.grid.RebuildTerrain(sim.bases)

	if logger != nil {
		for _, e := range geomErrs {
			logger.Warn("base geometry degraded", zap.Error(e))
		}
	}

	return sim, nil
}

// LoadScene is the driver-facing constructor: it builds a Simulation
// from a scene and a schema-validated configuration file pair,
// mirroring how cmd/simulation/main.go in the teacher loads its
// Config before constructing the world.
func LoadScene(scene *Scene, configFile, schemaFile string, logger *zap.Logger, metrics *Metrics) (*Simulation, error) {
	cfg, err := LoadConfig(configFile, schemaFile)
	if err != nil {
		return nil, err
	}
	return NewSimulation(scene, cfg, logger, metrics)
}

// Serial forces single-shard, single-goroutine tick resolution. Use
// this for deterministic replay/testing: with Serial set, two runs
// given the same scene, config and seed produce byte-identical
// snapshot sequences, since there is exactly one goroutine touching
// agent state and no channel-interleaving nondeterminism is possible.
func (s *Simulation) Serial(serial bool) { s.serial = serial }

// Teams exposes the simulation's team roster.
func (s *Simulation) Teams() *TeamTable { return s.teams }

func (s *Simulation) numShards() int {
	if s.serial {
		return 1
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// Step advances the simulation by exactly one tick and returns the
// resulting snapshot. Step never suspends mid-tick: every goroutine
// it spawns is joined before Step returns, so a caller is always
// looking at a fully-settled state.
func (s *Simulation) Step(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	s.tick++
	s.index.Build(s.store)

	events, err := s.runResolver(ctx)
	if err != nil {
		return nil, err
	}
	s.tallyKills(events)

	s.store.Compact()
	s.grid.RebuildOccupancy(s.store)

	for _, f := range s.fields {
		f.Update(s.tick)
	}
	for _, b := range s.bases {
		for _, c := range b.ArmorCells {
			s.fields[b.TeamID].DampenAt(c.Row, c.Col, 0.1)
		}
		for _, c := range b.CoreCells {
			s.fields[b.TeamID].DampenAt(c.Row, c.Col, 0.1)
		}
	}

	for _, b := range s.bases {
		s.droppedSpawns += b.UpdateSpawning(s.cfg, s.store, s.grid, s.rng)
	}

	s.grid.RebuildTerrain(s.bases)

	snap := s.buildSnapshot(events)
	s.recordMetrics(snap)
	if s.metrics != nil {
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
	return snap, nil
}

// runResolver shards the live agent range across numShards workers,
// fanning their per-shard event channels into one stream with
// channerics.Merge the way the rest of the corpus fans in worker
// channels, and drains it concurrently with the shards running.
func (s *Simulation) runResolver(ctx context.Context) ([]Event, error) {
	n := s.store.Len()
	numShards := s.numShards()
	shards := shardwork.Shards(n, numShards)

	rawChans := make([]chan Event, len(shards))
	mergeInputs := make([]<-chan Event, len(shards))
	for i := range shards {
		rawChans[i] = make(chan Event, 32)
		mergeInputs[i] = rawChans[i]
	}

	done := make(chan struct{})
	merged := channerics.Merge(done, mergeInputs...)

	var events []Event
	var drainWG sync.WaitGroup
	drainWG.Add(1)
	go func() {
		defer drainWG.Done()
		for e := range merged {
			events = append(events, e)
		}
	}()

	tick := s.tick
	rngs := make([]*rand.Rand, len(shards))
	for i := range shards {
		rngs[i] = rand.New(rand.NewSource(s.rng.Int63()))
	}

	err := shardwork.Run(ctx, n, numShards, func(ctx context.Context, shardIdx int, r shardwork.Range) error {
		defer close(rawChans[shardIdx])
		s.resolver.ResolveShard(tick, r, rngs[shardIdx], s.store, s.grid, s.fields, s.bases, s.index, s.cfg, rawChans[shardIdx])
		return nil
	})
	close(done)
	drainWG.Wait()
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Simulation) tallyKills(events []Event) {
	for _, e := range events {
		if ce, ok := e.(CombatEvent); ok && ce.DefenderDied {
			attackerTeam := s.teamOfAgentBeforeCompact(ce.AttackerID)
			if int(attackerTeam) < len(s.killCounts) {
				s.killCounts[attackerTeam]++
				if s.metrics != nil {
					s.metrics.KillCount.WithLabelValues(s.teams.Name(attackerTeam)).Inc()
				}
			}
		}
	}
}

// teamOfAgentBeforeCompact looks up an agent's team id. It must be
// called before Compact reshuffles indices -- tallyKills runs prior
// to the Compact call in Step for exactly this reason.
func (s *Simulation) teamOfAgentBeforeCompact(agentIdx int32) uint8 {
	if int(agentIdx) < 0 || int(agentIdx) >= len(s.store.TeamID) {
		return 0
	}
	return s.store.TeamID[agentIdx]
}

func (s *Simulation) recordMetrics(snap *Snapshot) {
	if s.metrics == nil {
		return
	}
	s.metrics.TickCounter.Inc()
	total := 0
	for _, c := range snap.AgentCountByTeam {
		total += c
	}
	s.metrics.AgentCount.Set(float64(total))
	for _, e := range snap.Events {
		if _, ok := e.(CombatEvent); ok {
			s.metrics.CombatCount.Inc()
		}
	}
}

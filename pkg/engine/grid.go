package engine

// Grid holds the two dense planes every tick reads and rewrites:
// LogicGrid (static-per-tick terrain: empty, armor, core) and
// ObjectGrid (agent occupancy, rebuilt fresh every tick from the
// AgentStore). Both are row-major, height*width in length, mirroring
// the numpy object_grid/logic arrays the original prototype keeps,
// generalized here to an arbitrary TeamTable instead of two hardcoded
// colors.
type Grid struct {
	Height int
	Width  int

	// LogicGrid holds EmptyTerrain, ArmorID(team) or CoreID(team) per
	// cell. Simulation rebuilds it from the bases with RebuildTerrain
	// at construction and at the end of every Step; in between, the
	// Resolver clears a bitten armor cell in place.
	LogicGrid []uint8

	// ObjectGrid holds the agent index occupying a cell, or -1 if
	// empty. It is rebuilt every tick from the live AgentStore.
	ObjectGrid []int32
}

// NewGrid allocates a height x width grid with every cell empty.
func NewGrid(height, width int) *Grid {
	g := &Grid{
		Height:     height,
		Width:      width,
		LogicGrid:  make([]uint8, height*width),
		ObjectGrid: make([]int32, height*width),
	}
	g.ClearObjects()
	return g
}

// InBounds reports whether (row, col) addresses a real cell.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

func (g *Grid) index(row, col int) int { return row*g.Width + col }

// Terrain returns the LogicGrid id at (row, col). Out-of-bounds reads
// return CoreBase's first id territory as impassable, matching the
// convention that the simulated world is walled.
func (g *Grid) Terrain(row, col int) uint8 {
	if !g.InBounds(row, col) {
		return CoreID(0)
	}
	return g.LogicGrid[g.index(row, col)]
}

// SetTerrain writes a LogicGrid cell, applying the fusion rule: a
// core pixel is never overwritten by an armor pixel (core always
// outranks armor when two bases' geometries overlap), but an empty
// cell or an armor pixel can be overwritten by anything.
func (g *Grid) SetTerrain(row, col int, id uint8) {
	if !g.InBounds(row, col) {
		return
	}
	idx := g.index(row, col)
	if _, isCore := TeamOfCore(g.LogicGrid[idx]); isCore {
		if _, wouldBeCore := TeamOfCore(id); !wouldBeCore {
			return
		}
	}
	g.LogicGrid[idx] = id
}

// ClearObjects resets ObjectGrid to all-empty (-1 sentinel).
func (g *Grid) ClearObjects() {
	for i := range g.ObjectGrid {
		g.ObjectGrid[i] = -1
	}
}

// OccupantAt returns the agent index occupying (row, col), or
// (-1, false) if the cell is unoccupied or out of bounds.
func (g *Grid) OccupantAt(row, col int) (int32, bool) {
	if !g.InBounds(row, col) {
		return -1, false
	}
	v := g.ObjectGrid[g.index(row, col)]
	if v < 0 {
		return -1, false
	}
	return v, true
}

// SetOccupant writes an agent index into ObjectGrid. A smaller agent
// index wins ties so the rebuild is deterministic regardless of
// iteration order: callers rebuild in ascending agent-index order and
// skip cells already claimed (see RebuildOccupancy).
func (g *Grid) SetOccupant(row, col int, agentIdx int32) {
	if !g.InBounds(row, col) {
		return
	}
	g.ObjectGrid[g.index(row, col)] = agentIdx
}

// RebuildTerrain recomputes LogicGrid from scratch by rasterizing
// every base's ArmorCells, then every base's CoreCells, applying the
// fusion rule via SetTerrain. Bases are iterated in slice order;
// where two bases' armor overlaps, or two cores overlap, the later
// base keeps the cell, and no armor ever replaces a core.
func (g *Grid) RebuildTerrain(bases []*Base) {
	for i := range g.LogicGrid {
		g.LogicGrid[i] = EmptyTerrain
	}
	for _, b := range bases {
		for _, c := range b.ArmorCells {
			g.SetTerrain(c.Row, c.Col, ArmorID(b.TeamID))
		}
	}
	for _, b := range bases {
		for _, c := range b.CoreCells {
			g.SetTerrain(c.Row, c.Col, CoreID(b.TeamID))
		}
	}
}

// RebuildOccupancy recomputes ObjectGrid from the live agents in s,
// in ascending agent-index order (the AgentStore's live prefix), so
// the lowest-indexed agent wins any same-cell collision
// deterministically.
func (g *Grid) RebuildOccupancy(s *AgentStore) {
	g.ClearObjects()
	for i := 0; i < s.Len(); i++ {
		row, col := s.Pos[i].Cell()
		if !g.InBounds(row, col) {
			continue
		}
		idx := g.index(row, col)
		if g.ObjectGrid[idx] >= 0 {
			continue
		}
		g.ObjectGrid[idx] = int32(i)
	}
}

package engine

// SpatialIndex buckets agents into uniform cells sized to the
// neighbor-query radius the Resolver cares about, giving O(1)
// average-case neighbor lookups the way the teacher's WorldActor
// rebuilds a map[gridKey][]*Entity every tick -- generalized here to
// a flat head/next array pair so a Build pass touches no heap
// allocations per agent.
type SpatialIndex struct {
	cellSize float64
	cols     int
	rows     int

	head []int32 // cellIndex -> first agent index in that cell, or -1
	next []int32 // agent index -> next agent index in the same cell, or -1
}

// NewSpatialIndex sizes the hash grid to cover a worldHeight x
// worldWidth area with cells of cellSize, the radius neighbor queries
// will use.
func NewSpatialIndex(worldHeight, worldWidth int, cellSize float64) *SpatialIndex {
	if cellSize < 1 {
		cellSize = 1
	}
	cols := int(float64(worldWidth)/cellSize) + 1
	rows := int(float64(worldHeight)/cellSize) + 1
	idx := &SpatialIndex{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		head:     make([]int32, cols*rows),
	}
	for i := range idx.head {
		idx.head[i] = -1
	}
	return idx
}

func (s *SpatialIndex) cellOf(row, col float64) (int, int) {
	cr := int(row / s.cellSize)
	cc := int(col / s.cellSize)
	if cr < 0 {
		cr = 0
	}
	if cr >= s.rows {
		cr = s.rows - 1
	}
	if cc < 0 {
		cc = 0
	}
	if cc >= s.cols {
		cc = s.cols - 1
	}
	return cr, cc
}

// Build clears and rebuilds the index from every live agent in store.
// It must be called once per tick before any Neighbors query, since
// agent indices are only meaningful until the next AgentStore.Compact.
func (s *SpatialIndex) Build(store *AgentStore) {
	for i := range s.head {
		s.head[i] = -1
	}
	s.next = make([]int32, store.Len())
	for i := 0; i < store.Len(); i++ {
		row, col := store.Pos[i].Y, store.Pos[i].X
		cr, cc := s.cellOf(row, col)
		cellIdx := cr*s.cols + cc
		s.next[i] = s.head[cellIdx]
		s.head[cellIdx] = int32(i)
	}
}

// Neighbors calls visit once for every agent index bucketed into the
// 3x3 block of cells centered on (row, col). visit may see an agent
// more than once only if cellSize is smaller than the actual agent
// spacing within a cell, which never happens since cells bucket
// disjoint ranges.
func (s *SpatialIndex) Neighbors(row, col float64, visit func(agentIdx int32)) {
	cr, cc := s.cellOf(row, col)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, c := cr+dr, cc+dc
			if r < 0 || r >= s.rows || c < 0 || c >= s.cols {
				continue
			}
			for i := s.head[r*s.cols+c]; i != -1; i = s.next[i] {
				visit(i)
			}
		}
	}
}

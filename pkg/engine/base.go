package engine

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ashenforge/slimewar/pkg/geometry"
)

// ShapeKind names one of the fixed base silhouettes a layout can
// place, mirroring the hardcoded templates in the original
// prototype's base.py _get_shape_template.
type ShapeKind int

const (
	ShapeY ShapeKind = iota
	ShapeN
	ShapeArrowhead
	ShapeBox
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeY:
		return "Y"
	case ShapeN:
		return "N"
	case ShapeArrowhead:
		return "Arrowhead"
	case ShapeBox:
		return "Box"
	default:
		return "Unknown"
	}
}

// Cell is an integer (row, col) grid coordinate.
type Cell struct {
	Row int
	Col int
}

// Base is a team's fortified structure: an indestructible core
// surrounded by a destructible armor rind, plus the exit ports new
// agents spawn from. Geometry is computed once at construction by
// RecalculateGeometry and mutated cell-by-cell as armor takes damage.
type Base struct {
	ID     string
	TeamID uint8
	Shape  ShapeKind
	Origin Cell
	Scale  float64

	CoreCells  []Cell
	ArmorCells []Cell
	ExitPorts  []Cell

	SpawnCooldown int
	Params        map[string]float64

	// mu guards CoreCells/ArmorCells against concurrent mutation from
	// sharded Resolver workers hitting the same base from different
	// shards in the same tick. This is a per-base lock, not the
	// per-cell locking the Resolver's design deliberately avoids --
	// bases are few, so contention stays negligible.
	mu sync.Mutex
}

// shapeTemplate returns the shape's line segments in local
// (row, col) coordinates, a direct generalization of base.py's
// hardcoded Y/N vertex lists. Arrowhead and Box are returned as
// closed polygons instead of line segments, since they are filled
// rather than stroked.
type segment struct{ a, b Cell }

func shapeTemplate(kind ShapeKind) (lines []segment, polygon []Cell) {
	switch kind {
	case ShapeY:
		return []segment{
			{Cell{0, 5}, Cell{5, 5}},
			{Cell{5, 5}, Cell{10, 0}},
			{Cell{5, 5}, Cell{10, 10}},
		}, nil
	case ShapeN:
		return []segment{
			{Cell{0, 0}, Cell{10, 0}},
			{Cell{0, 0}, Cell{10, 10}},
			{Cell{0, 10}, Cell{10, 10}},
		}, nil
	case ShapeArrowhead:
		return nil, []Cell{{0, 5}, {10, 0}, {7, 5}, {10, 10}}
	case ShapeBox:
		return nil, []Cell{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	default:
		return nil, nil
	}
}

// bresenhamLine rasterizes the line from a to b, the same integer
// DDA the original prototype's _bresenham_line generator implements.
func bresenhamLine(a, b Cell) []Cell {
	cells := []Cell{}
	y0, x0, y1, x1 := a.Row, a.Col, b.Row, b.Col
	dx := int(math.Abs(float64(x1 - x0)))
	dy := -int(math.Abs(float64(y1 - y0)))
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy
	for {
		cells = append(cells, Cell{Row: y0, Col: x0})
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
	return cells
}

// fillPolygon scan-converts a closed polygon's interior using the
// standard even-odd scanline rule, used for the Arrowhead and Box
// shapes which are solid rather than line-stroked.
func fillPolygon(verts []Cell) []Cell {
	if len(verts) < 3 {
		return nil
	}
	minRow, maxRow := verts[0].Row, verts[0].Row
	for _, v := range verts {
		if v.Row < minRow {
			minRow = v.Row
		}
		if v.Row > maxRow {
			maxRow = v.Row
		}
	}
	out := []Cell{}
	for row := minRow; row <= maxRow; row++ {
		xs := []int{}
		n := len(verts)
		for i := 0; i < n; i++ {
			p1 := verts[i]
			p2 := verts[(i+1)%n]
			if p1.Row == p2.Row {
				continue
			}
			lo, hi := p1, p2
			if lo.Row > hi.Row {
				lo, hi = hi, lo
			}
			if row < lo.Row || row >= hi.Row {
				continue
			}
			t := float64(row-lo.Row) / float64(hi.Row-lo.Row)
			x := float64(lo.Col) + t*float64(hi.Col-lo.Col)
			xs = append(xs, int(math.Round(x)))
		}
		if len(xs) < 2 {
			continue
		}
		for i := 0; i+1 < len(xs); i += 2 {
			lo, hi := xs[i], xs[i+1]
			if lo > hi {
				lo, hi = hi, lo
			}
			for col := lo; col <= hi; col++ {
				out = append(out, Cell{Row: row, Col: col})
			}
		}
	}
	return out
}

// dilate8 grows cellSet by one ring in all 8 neighbor directions,
// returning the cells newly introduced (excluding the input set
// itself). This is the canonical armor-computation step: armor is
// the core's one-pixel morphological dilation, chosen over the
// original prototype's flood-fill approach because dilation needs no
// connectivity assumption about the core shape.
func dilate8(core map[Cell]bool) []Cell {
	seen := map[Cell]bool{}
	out := []Cell{}
	for c := range core {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				n := Cell{Row: c.Row + dr, Col: c.Col + dc}
				if core[n] || seen[n] {
					continue
				}
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// NewBase constructs a base at origin, scales and rasterizes its
// shape template, and computes its armor rind by dilation. If the
// template rasterizes to zero core pixels the base is still returned
// (inert, never spawns, never blocks anything) alongside a
// *GeometryError so the caller can log/report it (spec.md §7).
func NewBase(teamID uint8, shape ShapeKind, origin Cell, scale float64) (*Base, error) {
	b := &Base{
		ID:            uuid.NewString(),
		TeamID:        teamID,
		Shape:         shape,
		Origin:        origin,
		Scale:         scale,
		SpawnCooldown: 0,
		Params:        map[string]float64{},
	}

	lines, polygon := shapeTemplate(shape)
	coreSet := map[Cell]bool{}

	scaleCell := func(c Cell) Cell {
		return Cell{
			Row: origin.Row + int(math.Round(float64(c.Row)*scale)),
			Col: origin.Col + int(math.Round(float64(c.Col)*scale)),
		}
	}

	for _, seg := range lines {
		for _, c := range bresenhamLine(scaleCell(seg.a), scaleCell(seg.b)) {
			coreSet[c] = true
		}
	}
	if polygon != nil {
		scaled := make([]Cell, len(polygon))
		for i, v := range polygon {
			scaled[i] = scaleCell(v)
		}
		for _, c := range fillPolygon(scaled) {
			coreSet[c] = true
		}
	}

	b.CoreCells = make([]Cell, 0, len(coreSet))
	for c := range coreSet {
		b.CoreCells = append(b.CoreCells, c)
	}
	b.ArmorCells = dilate8(coreSet)
	b.ExitPorts = computeExitPorts(lines, polygon, scaleCell)

	// The sets above come out of map iteration; sort them so that
	// spawn-port choice and armor scans follow the seeded RNG alone.
	for _, cells := range [][]Cell{b.CoreCells, b.ArmorCells, b.ExitPorts} {
		sort.Slice(cells, func(x, y int) bool {
			if cells[x].Row != cells[y].Row {
				return cells[x].Row < cells[y].Row
			}
			return cells[x].Col < cells[y].Col
		})
	}

	if len(b.CoreCells) == 0 {
		return b, &GeometryError{BaseID: b.ID, ShapeKind: shape}
	}
	return b, nil
}

// computeExitPorts places one spawn port just outside each line
// segment's or polygon's extremal vertex, offset one cell along that
// vertex's outward direction -- the same template-endpoint-plus-sign
// offset the original base.py uses.
func computeExitPorts(lines []segment, polygon []Cell, scaleCell func(Cell) Cell) []Cell {
	endpoints := map[Cell]bool{}
	for _, seg := range lines {
		endpoints[seg.a] = true
		endpoints[seg.b] = true
	}
	for _, v := range polygon {
		endpoints[v] = true
	}
	ports := make([]Cell, 0, len(endpoints))
	for ep := range endpoints {
		scaled := scaleCell(ep)
		sign := func(v int) int {
			switch {
			case v > 0:
				return 1
			case v < 0:
				return -1
			default:
				return 0
			}
		}
		dr, dc := sign(ep.Row-5), sign(ep.Col-5)
		if dr == 0 && dc == 0 {
			dr = 1
		}
		ports = append(ports, Cell{Row: scaled.Row + dr, Col: scaled.Col + dc})
	}
	return ports
}

// Alive reports whether the base's core has not been fully destroyed.
func (b *Base) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.CoreCells) > 0
}

// HasArmor reports whether any armor cell remains. Spawning stops
// once a base's armor is gone (spec §4.5), independent of whether its
// core has been destroyed.
func (b *Base) HasArmor() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ArmorCells) > 0
}

// RemoveArmorCell deletes one cell from ArmorCells (a hit lands and
// strips a plate), returning whether it was present.
func (b *Base) RemoveArmorCell(c Cell) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.ArmorCells {
		if a == c {
			b.ArmorCells[i] = b.ArmorCells[len(b.ArmorCells)-1]
			b.ArmorCells = b.ArmorCells[:len(b.ArmorCells)-1]
			return true
		}
	}
	return false
}

// GetParam looks up a base-level override, falling back to cfg's
// global/team value, matching Simulation.get_param in the original
// prototype.
func (b *Base) GetParam(cfg *Config, key string) float64 {
	if v, ok := b.Params[key]; ok {
		return v
	}
	v, _ := cfg.GetParam(b.TeamID, key)
	return v
}

// UpdateSpawning decrements the base's cooldown and, once it
// expires, spawns unitsPerSpawn agents at random unoccupied exit
// ports, matching update_spawning in the original prototype. It
// returns the number of spawn attempts dropped because the pool was
// at capacity, for the caller to fold into Snapshot.DroppedSpawns.
func (b *Base) UpdateSpawning(cfg *Config, store *AgentStore, grid *Grid, rng *rand.Rand) int {
	if !b.HasArmor() || len(b.ExitPorts) == 0 {
		return 0
	}
	b.SpawnCooldown--
	if b.SpawnCooldown > 0 {
		return 0
	}
	b.SpawnCooldown = int(b.GetParam(cfg, "spawnRate"))
	units := int(b.GetParam(cfg, "unitsPerSpawn"))
	dropped := 0
	for i := 0; i < units; i++ {
		port := b.ExitPorts[rng.Intn(len(b.ExitPorts))]
		if !grid.InBounds(port.Row, port.Col) {
			continue
		}
		if _, occupied := grid.OccupantAt(port.Row, port.Col); occupied {
			continue
		}
		pos := geometry.Vector2D{X: float64(port.Col) + 0.5, Y: float64(port.Row) + 0.5}
		heading := rng.Float64() * 2 * math.Pi
		if _, err := store.Add(pos, heading, b.TeamID, 100); err != nil {
			dropped++
		}
	}
	return dropped
}

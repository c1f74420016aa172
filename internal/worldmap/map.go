package worldmap

import "goldrush/internal/fixed"

// Map is a rectangular grid of tiles with per-layer cell occupancy,
// generalizing the teacher's Grid (engine/world/grid.go) from a single
// room-graph layer to multiple occupancy layers over a dense array.
type Map struct {
	width, height int
	tiles         []Tile
	cells         [LayerCount][]CellOccupant

	spawnCells    []fixed.IVec2
	goldmineCells []fixed.IVec2
}

// NewMap allocates a width x height map with all tiles zeroed and all
// cells empty on every layer.
func NewMap(width, height int) *Map {
	m := &Map{width: width, height: height}
	m.tiles = make([]Tile, width*height)
	for l := Layer(0); l < LayerCount; l++ {
		m.cells[l] = make([]CellOccupant, width*height)
	}
	return m
}

// Width returns the map width in tiles.
func (m *Map) Width() int { return m.width }

// Height returns the map height in tiles.
func (m *Map) Height() int { return m.height }

// InBounds reports whether (x, y) is within the map.
func (m *Map) InBounds(x, y int32) bool {
	return x >= 0 && y >= 0 && int(x) < m.width && int(y) < m.height
}

func (m *Map) index(x, y int32) int {
	return int(y)*m.width + int(x)
}

// Tile returns the static terrain data at (x, y). The zero Tile is
// returned for out-of-bounds coordinates.
func (m *Map) Tile(x, y int32) Tile {
	if !m.InBounds(x, y) {
		return Tile{}
	}
	return m.tiles[m.index(x, y)]
}

// SetTile overwrites the static terrain data at (x, y).
func (m *Map) SetTile(x, y int32, t Tile) {
	if !m.InBounds(x, y) {
		return
	}
	m.tiles[m.index(x, y)] = t
}

// Cell returns the occupant of (x, y) on the given layer.
func (m *Map) Cell(layer Layer, x, y int32) CellOccupant {
	if !m.InBounds(x, y) || layer < 0 || layer >= LayerCount {
		return CellOccupant{}
	}
	return m.cells[layer][m.index(x, y)]
}

// SetCell writes the occupant of (x, y) on the given layer.
func (m *Map) SetCell(layer Layer, x, y int32, occ CellOccupant) {
	if !m.InBounds(x, y) || layer < 0 || layer >= LayerCount {
		return
	}
	m.cells[layer][m.index(x, y)] = occ
}

// SpawnCells returns the player spawn cells chosen at map generation.
func (m *Map) SpawnCells() []fixed.IVec2 { return m.spawnCells }

// GoldmineCells returns the goldmine cells chosen at map generation.
func (m *Map) GoldmineCells() []fixed.IVec2 { return m.goldmineCells }

// rectCells calls fn for every cell in the size x size rectangle rooted at
// origin that lies within the map; out-of-bounds cells are skipped.
func (m *Map) rectCells(origin fixed.IVec2, size int32, fn func(x, y int32)) {
	for dy := int32(0); dy < size; dy++ {
		for dx := int32(0); dx < size; dx++ {
			x, y := origin.X+dx, origin.Y+dy
			if m.InBounds(x, y) {
				fn(x, y)
			}
		}
	}
}

// IsCellRectOccupied reports whether any cell in the size x size rectangle
// rooted at origin is non-empty on LayerGround, excluding the rectangle of
// the same size rooted at ignoringOrigin (typically the querying entity's
// own footprint) and, if includeDecorations is false, ignoring decoration
// occupants (ground clutter an entity may walk over).
func (m *Map) IsCellRectOccupied(origin fixed.IVec2, size int32, ignoringOrigin fixed.IVec2, includeDecorations bool) bool {
	ignored := make(map[fixed.IVec2]bool, size*size)
	m.rectCells(ignoringOrigin, size, func(x, y int32) {
		ignored[fixed.IVec2Of(x, y)] = true
	})

	occupied := false
	m.rectCells(origin, size, func(x, y int32) {
		if occupied {
			return
		}
		if ignored[fixed.IVec2Of(x, y)] {
			return
		}
		occ := m.Cell(LayerGround, x, y)
		if occ.Empty() {
			return
		}
		if !includeDecorations && occ.Type.IsDecoration() {
			return
		}
		occupied = true
	})
	return occupied
}

// GetCellRectEqualTo reports whether every cell in the size x size
// rectangle rooted at origin is owned by id on LayerGround.
func (m *Map) GetCellRectEqualTo(origin fixed.IVec2, size int32, id EntityID) bool {
	ok := true
	m.rectCells(origin, size, func(x, y int32) {
		if !ok {
			return
		}
		if m.Cell(LayerGround, x, y).ID != id {
			ok = false
		}
	})
	// A rectangle that extends out of bounds cannot be "equal to" id: the
	// out-of-bounds portion can never have been claimed.
	if origin.X < 0 || origin.Y < 0 || int(origin.X)+int(size) > m.width || int(origin.Y)+int(size) > m.height {
		return false
	}
	return ok
}

// ClaimRect writes occ into every cell of the size x size rectangle rooted
// at origin on LayerGround.
func (m *Map) ClaimRect(origin fixed.IVec2, size int32, occ CellOccupant) {
	m.rectCells(origin, size, func(x, y int32) {
		m.SetCell(LayerGround, x, y, occ)
	})
}

// ReleaseRect clears (sets to CellEmpty) every cell of the size x size
// rectangle rooted at origin on LayerGround, but only those cells still
// owned by id — a stale release after the entity has already moved must
// not clobber whoever claimed the cell next.
func (m *Map) ReleaseRect(origin fixed.IVec2, size int32, id EntityID) {
	m.rectCells(origin, size, func(x, y int32) {
		if m.Cell(LayerGround, x, y).ID == id {
			m.SetCell(LayerGround, x, y, CellOccupant{})
		}
	})
}

// ringDirections lists the eight compass offsets in clockwise order
// starting from north, used to break ties in NearestCellAroundRect per
// §4.2's "clockwise from north" tie-break rule.
var ringDirections = []fixed.IVec2{
	{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
	{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
}

// NearestCellAroundRect returns the cell in the ring immediately
// surrounding the targetSize x targetSize rectangle rooted at targetOrigin
// that is closest (Manhattan distance) to sourceOrigin, breaking ties
// clockwise from north. If ignoring is non-nil, that single cell is
// excluded from consideration (used to keep a goldmine's exit path clear
// of the cell the path itself will traverse first). The boolean result is
// false if the ring is entirely out of bounds or excluded.
func (m *Map) NearestCellAroundRect(sourceOrigin fixed.IVec2, targetOrigin fixed.IVec2, targetSize int32, ignoring *fixed.IVec2) (fixed.IVec2, bool) {
	var ring []fixed.IVec2
	// Top and bottom edges, including corners.
	for dx := int32(-1); dx <= targetSize; dx++ {
		ring = append(ring, fixed.IVec2Of(targetOrigin.X+dx, targetOrigin.Y-1))
		ring = append(ring, fixed.IVec2Of(targetOrigin.X+dx, targetOrigin.Y+targetSize))
	}
	// Left and right edges, excluding corners (already added above).
	for dy := int32(0); dy < targetSize; dy++ {
		ring = append(ring, fixed.IVec2Of(targetOrigin.X-1, targetOrigin.Y+dy))
		ring = append(ring, fixed.IVec2Of(targetOrigin.X+targetSize, targetOrigin.Y+dy))
	}

	best := fixed.IVec2{}
	bestDist := int32(-1)
	bestAngle := -1
	for _, cell := range ring {
		if !m.InBounds(cell.X, cell.Y) {
			continue
		}
		if ignoring != nil && cell == *ignoring {
			continue
		}
		dist := sourceOrigin.ManhattanDistance(cell)
		angle := ringAngleRank(cell.Sub(targetOrigin), targetSize)
		if bestDist == -1 || dist < bestDist || (dist == bestDist && angle < bestAngle) {
			best = cell
			bestDist = dist
			bestAngle = angle
		}
	}
	return best, bestDist != -1
}

// ringAngleRank assigns each ring cell a rank increasing clockwise from
// north, used purely to break Manhattan-distance ties deterministically.
func ringAngleRank(offset fixed.IVec2, targetSize int32) int {
	for i, dir := range ringDirections {
		// A ring cell "belongs" to the compass direction whose sign
		// pattern matches its offset from the target rectangle.
		switch {
		case dir.X == 0 && dir.Y < 0 && offset.Y < 0 && offset.X >= 0 && offset.X < targetSize:
			return i
		case dir.X > 0 && dir.Y < 0 && offset.X >= targetSize && offset.Y < 0:
			return i
		case dir.X > 0 && dir.Y == 0 && offset.X >= targetSize && offset.Y >= 0 && offset.Y < targetSize:
			return i
		case dir.X > 0 && dir.Y > 0 && offset.X >= targetSize && offset.Y >= targetSize:
			return i
		case dir.X == 0 && dir.Y > 0 && offset.Y >= targetSize && offset.X >= 0 && offset.X < targetSize:
			return i
		case dir.X < 0 && dir.Y > 0 && offset.X < 0 && offset.Y >= targetSize:
			return i
		case dir.X < 0 && dir.Y == 0 && offset.X < 0 && offset.Y >= 0 && offset.Y < targetSize:
			return i
		case dir.X < 0 && dir.Y < 0 && offset.X < 0 && offset.Y < 0:
			return i
		}
	}
	return len(ringDirections)
}

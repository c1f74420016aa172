package worldmap

import "goldrush/internal/fixed"

// Noise is the elevation/biome buffer a match's map is generated from. It
// is produced by the host (or read back off a replay) and must be
// identical on every peer — see §9's "serialize the noise explicitly in
// MATCH_LOAD rather than assume identical noise across peers."
type Noise struct {
	Width, Height int
	Values        []uint8
}

// At returns the noise value at (x, y), or 0 if out of bounds.
func (n Noise) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= n.Width || y >= n.Height {
		return 0
	}
	return n.Values[y*n.Width+x]
}

// elevationFromNoise maps a noise byte to one of four elevation tiers,
// mirroring the original's biome banding without floating point.
func elevationFromNoise(v uint8) uint8 {
	switch {
	case v < 64:
		return 0
	case v < 128:
		return 1
	case v < 192:
		return 2
	default:
		return 3
	}
}

// autotileMask computes a 4-bit neighbor mask from the four orthogonal
// elevations relative to (x, y), used to pick a static autotile sprite
// frame so elevation transitions render as a continuous edge.
func autotileMask(n Noise, x, y int) uint8 {
	here := elevationFromNoise(n.At(x, y))
	var mask uint8
	if elevationFromNoise(n.At(x, y-1)) != here {
		mask |= 1
	}
	if elevationFromNoise(n.At(x+1, y)) != here {
		mask |= 2
	}
	if elevationFromNoise(n.At(x, y+1)) != here {
		mask |= 4
	}
	if elevationFromNoise(n.At(x-1, y)) != here {
		mask |= 8
	}
	return mask
}

// GenerateResult bundles the generated map with the spawn/goldmine cells
// match_init needs.
type GenerateResult struct {
	Map           *Map
	SpawnCells    []fixed.IVec2
	GoldmineCells []fixed.IVec2
}

// Generate builds the tile grid, a spawn cell per potential player slot,
// and a set of goldmine cells, consuming a noise buffer and the
// deterministic simulation RNG. Given the same noise and an RNG seeded
// identically, Generate is pure and reproducible, as required by §4.4's
// determinism contract — map_init itself never calls any other random
// source.
func Generate(size MapSize, noise Noise, rng *fixed.SimRNG, numPlayers int) GenerateResult {
	width, height := size.Dimensions()
	m := NewMap(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.SetTile(int32(x), int32(y), Tile{
				SpriteIndex:  uint16(elevationFromNoise(noise.At(x, y))),
				AutotileMask: autotileMask(noise, x, y),
				Elevation:    elevationFromNoise(noise.At(x, y)),
			})
		}
	}

	spawnCells := generateSpawnCells(m, numPlayers)
	goldmineCells := generateGoldmineCells(m, rng, spawnCells)

	m.spawnCells = spawnCells
	m.goldmineCells = goldmineCells

	for _, cell := range goldmineCells {
		m.ClaimRect(cell, 2, CellOccupant{Type: CellGoldmine, ID: IDNull})
	}

	return GenerateResult{Map: m, SpawnCells: spawnCells, GoldmineCells: goldmineCells}
}

// generateSpawnCells places player spawns evenly around the map perimeter
// at a fixed inset, in increasing player-slot order, so spawn assignment
// is a pure function of map dimensions and player count.
func generateSpawnCells(m *Map, numPlayers int) []fixed.IVec2 {
	if numPlayers <= 0 {
		return nil
	}
	const inset = 6
	cells := make([]fixed.IVec2, 0, numPlayers)
	cx, cy := int32(m.width/2), int32(m.height/2)
	radiusX, radiusY := int32(m.width/2-inset), int32(m.height/2-inset)

	for i := 0; i < numPlayers; i++ {
		// Evenly spaced angles approximated on an octagon so all math
		// stays in integers: slot i takes compass offset i*8/numPlayers,
		// scaled by radius.
		dir := ringDirections[(i*len(ringDirections)/numPlayers)%len(ringDirections)]
		x := cx + dir.X*radiusX
		y := cy + dir.Y*radiusY
		if !m.InBounds(x, y) {
			x, y = cx, cy
		}
		cells = append(cells, fixed.IVec2Of(x, y))
	}
	return cells
}

// generateGoldmineCells deterministically scatters goldmines at
// rng-selected positions away from every spawn cell, drawing only from the
// supplied simulation RNG.
func generateGoldmineCells(m *Map, rng *fixed.SimRNG, spawns []fixed.IVec2) []fixed.IVec2 {
	const numGoldmines = 4
	const minSpawnDistance = 10

	var mines []fixed.IVec2
	attempts := 0
	for len(mines) < numGoldmines && attempts < 1000 {
		attempts++
		x := int32(rng.Intn(m.width))
		y := int32(rng.Intn(m.height))
		cand := fixed.IVec2Of(x, y)

		tooClose := false
		for _, s := range spawns {
			if s.ManhattanDistance(cand) < minSpawnDistance {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		if m.IsCellRectOccupied(cand, 2, fixed.IVec2Of(-1000, -1000), true) {
			continue
		}
		mines = append(mines, cand)
	}
	return mines
}

// Package worldmap implements the tile grid, multi-layer cell occupancy,
// A*-style pathfinding, and per-team fog-of-war described in §4.2 of the
// specification. It generalizes the teacher's engine/world grid (which
// models a single-layer dungeon of rooms) into a multi-layer RTS map.
package worldmap

import "goldrush/internal/fixed"

// Layer identifies one of the overlapping cell-occupancy planes a tile
// carries. GROUND holds units, buildings, and goldmines; SKY is reserved
// for airborne occupants and is never blocked by ground decorations.
type Layer int

// Layer values.
const (
	LayerGround Layer = iota
	LayerSky
	LayerCount
)

// CellType tags what kind of entity (if any) occupies a cell on a layer.
type CellType int

// CellType values.
const (
	CellEmpty CellType = iota
	CellUnit
	CellMiner
	CellBuilding
	CellGoldmine
	CellDecoration1
	CellDecoration2
	CellDecoration3
	CellDecoration4
	CellDecoration5
)

// IsDecoration reports whether t is one of the five decoration categories.
func (t CellType) IsDecoration() bool {
	return t >= CellDecoration1 && t <= CellDecoration5
}

// EntityID is a stable identifier into internal/entity's IdArray. ID_NULL
// (zero value) means "no entity."
type EntityID uint32

// IDNull is the sentinel meaning "no entity referenced."
const IDNull EntityID = 0

// CellOccupant records {type, id} for one layer of one tile. The invariant
// from §3 holds here: a non-empty cell references an existing entity of
// the corresponding category, enforced by internal/match, not by this
// struct.
type CellOccupant struct {
	Type CellType
	ID   EntityID
}

// Empty reports whether the occupant slot is unoccupied.
func (c CellOccupant) Empty() bool {
	return c.Type == CellEmpty || c.ID == IDNull
}

// Tile is one grid cell's static terrain data, independent of occupancy.
type Tile struct {
	SpriteIndex  uint16
	AutotileMask uint8
	Elevation    uint8
}

// MapSize enumerates the three configured match map dimensions.
type MapSize int

// MapSize values and their side lengths, mirroring typical RTS map tiers.
const (
	MapSmall MapSize = iota
	MapMedium
	MapLarge
)

// Dimensions returns the (width, height) tile count for a map size.
func (s MapSize) Dimensions() (int, int) {
	switch s {
	case MapSmall:
		return 64, 64
	case MapMedium:
		return 96, 96
	case MapLarge:
		return 128, 128
	default:
		return 64, 64
	}
}

// CellToPosition converts a tile coordinate to the fixed-point sub-tile
// position of its top-left corner.
func CellToPosition(cell fixed.IVec2) fixed.FVec2 {
	return cell.ToFVec2()
}

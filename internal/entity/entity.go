package entity

import (
	"goldrush/internal/fixed"
	"goldrush/internal/worldmap"
)

// Type enumerates every spawnable entity kind. Units vs buildings are
// distinguished by Type via the static Stats table (§3), not a separate
// boolean field.
type Type int

// Type values.
const (
	TypeMiner Type = iota
	TypeWagon
	TypeCannon
	TypeSoldier
	TypeGoldmine
	TypeBuildingTownHall
	TypeBuildingHouse
	TypeBuildingBarracks
	TypeBuildingWorkshop
	TypeBuildingLandmine
	TypeCount
)

// BuildingType restricts Type to the building-producing subset, used by
// Target's BUILD variant so a unit can't be asked to "build" a miner.
type BuildingType = Type

// Mode is the entity state-machine state from §4.3's transition table.
type Mode int

// Mode values.
const (
	ModeIdle Mode = iota
	ModeMove
	ModeMoveFinished
	ModeBlocked
	ModeAttack
	ModeBuild
	ModeMine
	ModeDeathFade
)

// Flags is a bit set of the per-entity boolean modifiers from §3.
type Flags uint32

// Flags bits.
const (
	FlagHoldPosition Flags = 1 << iota
	FlagDamageFlicker
	FlagInvisible
	FlagOnFire
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
func (f *Flags) Set(bit Flags)     { *f |= bit }
func (f *Flags) Clear(bit Flags)   { *f &^= bit }

// Animation is the entity's current animation playback state, generalized
// from the per-frame-duration discrete table design in §4.3.
type Animation struct {
	Key            AnimationKey
	Frame          int
	TicksInFrame   int
	LoopsRemaining int // 0 = not playing, -1 = indefinite
}

// Playing reports whether the animation is actively advancing, per the
// invariant "animation.loops_remaining == 0 <-> not playing" (§3).
func (a Animation) Playing() bool {
	return a.LoopsRemaining != 0
}

// Entity is the full per-entity data model from §3.
type Entity struct {
	Type     Type
	Mode     Mode
	PlayerID int
	Flags    Flags

	Cell           fixed.IVec2
	SubTilePos     fixed.FVec2
	Direction      fixed.Direction8
	Health         int32
	MaxHealthOverride int32 // 0 means "use the static table's MaxHealth"

	Target      Target
	TargetQueue TargetQueue
	Path        []fixed.IVec2
	PathAttempts int

	Animation Animation

	BlockedTimer  int
	CooldownTimer int
	RegenTimer    int

	GoldHeld int32

	GarrisonHost ID // IDNull unless this entity is garrisoned inside another
	RallyPoint   fixed.IVec2
	HasRally     bool

	DeathFadeTimer int
}

// EffectiveMaxHealth returns MaxHealthOverride if set, else the static
// table's value for Type.
func (e *Entity) EffectiveMaxHealth() int32 {
	if e.MaxHealthOverride != 0 {
		return e.MaxHealthOverride
	}
	return StatsFor(e.Type).MaxHealth
}

// CellSize returns the footprint size (in tiles, a square) for this
// entity's Type.
func (e *Entity) CellSize() int32 {
	return StatsFor(e.Type).CellSize
}

// IsGarrisoned reports whether the entity currently occupies no cells of
// its own because it is inside a garrison host.
func (e *Entity) IsGarrisoned() bool {
	return e.GarrisonHost != IDNull
}

// IsBuilding reports whether Type is one of the building kinds.
func (e *Entity) IsBuilding() bool {
	return StatsFor(e.Type).IsBuilding
}

// IsAlive reports whether Health is above zero and the entity is not
// mid-death-fade.
func (e *Entity) IsAlive() bool {
	return e.Health > 0 && e.Mode != ModeDeathFade
}

// EntityRect returns the tile rectangle this entity's Cell+CellSize
// describes, for occupancy queries against the map.
func (e *Entity) EntityRect() (fixed.IVec2, int32) {
	return e.Cell, e.CellSize()
}

// ToCellType maps an entity Type to the worldmap.CellType category used to
// tag its occupied cells.
func (t Type) ToCellType() worldmap.CellType {
	switch t {
	case TypeMiner:
		return worldmap.CellMiner
	case TypeGoldmine:
		return worldmap.CellGoldmine
	case TypeBuildingTownHall, TypeBuildingHouse, TypeBuildingBarracks, TypeBuildingWorkshop, TypeBuildingLandmine:
		return worldmap.CellBuilding
	default:
		return worldmap.CellUnit
	}
}

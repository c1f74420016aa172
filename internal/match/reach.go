package match

import (
	"goldrush/internal/entity"
	"goldrush/internal/fixed"
)

// targetValid reports whether an entity's active target still makes
// sense: an ENTITY-kind target is invalid once its referent is dead, and
// any target naming an entity the owning player can no longer see (and
// that isn't a detected INVISIBLE unit) is treated as stale, per §4.3's
// IDLE transition "target invalid (dead/hidden)."
func (m *State) targetValid(owner *entity.Entity, t entity.Target) bool {
	switch t.Kind {
	case entity.TargetNone:
		return false
	case entity.TargetEntity, entity.TargetAttackEntity, entity.TargetRepair, entity.TargetBuildAssist:
		referent := m.Entities.GetByID(t.Cell)
		if referent == nil || !referent.IsAlive() {
			return false
		}
		if owner.PlayerID >= 0 && referent.PlayerID != owner.PlayerID {
			team := m.Players[owner.PlayerID].Team
			if !m.Fog.IsVisibleOrDetected(team, referent.Cell.X, referent.Cell.Y) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// reachedTarget implements the per-target-kind reaching predicate from
// §4.3's bulleted list.
func (m *State) reachedTarget(e *entity.Entity, t entity.Target) bool {
	switch t.Kind {
	case entity.TargetCell, entity.TargetAttackCell:
		return e.Cell == t.CellPos

	case entity.TargetBuild:
		if t.BuildingType == entity.TypeBuildingLandmine {
			return e.Cell.ManhattanDistance(t.UnitCell) == 1
		}
		return e.Cell == t.UnitCell

	case entity.TargetBuildAssist:
		builder := m.Entities.GetByID(t.Cell)
		if builder == nil {
			return false
		}
		return rectsAdjacent(e.Cell, e.CellSize(), builder.Cell, builder.CellSize())

	case entity.TargetUnload:
		return len(e.Path) == 0 && e.Cell.ManhattanDistance(t.CellPos) < 3

	case entity.TargetEntity, entity.TargetRepair:
		other := m.Entities.GetByID(t.Cell)
		if other == nil {
			return false
		}
		return rectsAdjacent(e.Cell, e.CellSize(), other.Cell, other.CellSize())

	case entity.TargetAttackEntity:
		other := m.Entities.GetByID(t.Cell)
		if other == nil {
			return false
		}
		rangeSq := int64(entity.StatsFor(e.Type).Range) * int64(entity.StatsFor(e.Type).Range)
		if rangeSq == 1 {
			return rectsAdjacent(e.Cell, e.CellSize(), other.Cell, other.CellSize())
		}
		return rectsSquaredDistance(e.Cell, e.CellSize(), other.Cell, other.CellSize()) <= rangeSq

	case entity.TargetSmoke:
		return e.Cell.SquaredEuclideanDistance(t.CellPos) <= 36

	default:
		return false
	}
}

// rectsAdjacent reports whether two size x size rectangles rooted at a
// and b touch or overlap (8-adjacency, including corners).
func rectsAdjacent(a fixed.IVec2, aSize int32, b fixed.IVec2, bSize int32) bool {
	ax0, ay0, ax1, ay1 := a.X-1, a.Y-1, a.X+aSize, a.Y+aSize
	return b.X <= ax1 && b.X+bSize-1 >= ax0 && b.Y <= ay1 && b.Y+bSize-1 >= ay0
}

// rectsSquaredDistance returns the minimum squared Euclidean distance
// between two axis-aligned size x size rectangles.
func rectsSquaredDistance(a fixed.IVec2, aSize int32, b fixed.IVec2, bSize int32) int64 {
	dx := rectAxisGap(a.X, aSize, b.X, bSize)
	dy := rectAxisGap(a.Y, aSize, b.Y, bSize)
	return int64(dx)*int64(dx) + int64(dy)*int64(dy)
}

func rectAxisGap(aMin int32, aSize int32, bMin int32, bSize int32) int32 {
	aMax := aMin + aSize - 1
	bMax := bMin + bSize - 1
	if aMax < bMin {
		return bMin - aMax
	}
	if bMax < aMin {
		return aMin - bMax
	}
	return 0
}

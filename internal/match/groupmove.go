package match

import (
	"goldrush/internal/entity"
	"goldrush/internal/fixed"
)

// groupMoveMaxOffset bounds how far a unit's centroid-adjusted target may
// drift from the commanded cell, per §4.4.
const groupMoveMaxOffset = 3

// ApplyGroupMove computes each entity's effective MOVE/ATTACK_CELL target
// cell when N>=2 units are ordered to the same destination. A unit whose
// offset cell would land out of bounds, too far from the commanded target,
// or at a different elevation falls back to the commanded cell unmodified.
// With N=1 the centroid equals the single unit's own cell and the offset
// is always zero, so callers may route both group and single-unit orders
// through this function without a special case (§8: "Group move with N=1
// never applies the centroid offset" holds trivially here).
func (m *State) ApplyGroupMove(ids []entity.ID, target fixed.IVec2) map[entity.ID]fixed.IVec2 {
	result := make(map[entity.ID]fixed.IVec2, len(ids))
	if len(ids) == 0 {
		return result
	}

	cells := make(map[entity.ID]fixed.IVec2, len(ids))
	minX, minY := int32(1<<31-1), int32(1<<31-1)
	maxX, maxY := -int32(1<<31-1)-1, -int32(1<<31-1)-1
	for _, id := range ids {
		e := m.Entities.GetByID(id)
		if e == nil {
			continue
		}
		cells[id] = e.Cell
		if e.Cell.X < minX {
			minX = e.Cell.X
		}
		if e.Cell.X > maxX {
			maxX = e.Cell.X
		}
		if e.Cell.Y < minY {
			minY = e.Cell.Y
		}
		if e.Cell.Y > maxY {
			maxY = e.Cell.Y
		}
	}

	if len(cells) == 0 {
		return result
	}

	inRect := minX <= target.X && target.X <= maxX && minY <= target.Y && target.Y <= maxY

	for _, id := range ids {
		cell, ok := cells[id]
		if !ok {
			continue
		}
		if len(cells) < 2 || inRect {
			result[id] = target
			continue
		}

		centroid := fixed.IVec2Of((minX+maxX)/2, (minY+maxY)/2)
		offset := fixed.IVec2Of(cell.X-centroid.X, cell.Y-centroid.Y)
		candidate := fixed.IVec2Of(target.X+offset.X, target.Y+offset.Y)

		if m.groupOffsetValid(target, candidate) {
			result[id] = candidate
		} else {
			result[id] = target
		}
	}

	return result
}

// groupOffsetValid reports whether candidate is a legal centroid-adjusted
// target for original: in bounds, within Manhattan 3 of original, and at
// the same tile elevation.
func (m *State) groupOffsetValid(original, candidate fixed.IVec2) bool {
	if !m.Map.InBounds(candidate.X, candidate.Y) {
		return false
	}
	if original.ManhattanDistance(candidate) > groupMoveMaxOffset {
		return false
	}
	if m.Map.Tile(original.X, original.Y).Elevation != m.Map.Tile(candidate.X, candidate.Y).Elevation {
		return false
	}
	return true
}

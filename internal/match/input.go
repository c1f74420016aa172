package match

import (
	"goldrush/internal/entity"
	"goldrush/internal/fixed"
	"goldrush/internal/inputplane"
)

// HandleInput mutates state according to the command taxonomy in §4.5,
// grounded on original_source/gold/src/match/state.cpp's match_handle_input
// switch. playerID identifies whose turn-slot produced in; entities not
// owned by that player are ignored, since a well-formed peer never sends
// commands for another player's units, but a malicious or desynced one
// might.
func (m *State) HandleInput(playerID int, in inputplane.Input) {
	switch in.Kind {
	case inputplane.KindNone:
		return

	case inputplane.KindMoveCell, inputplane.KindMoveAttackCell,
		inputplane.KindMoveUnload, inputplane.KindMoveSmoke:
		target := m.cellTargetFor(in)
		assigned := m.ApplyGroupMove(m.ownedSelectable(playerID, in.EntityIDs), in.TargetCell)
		for _, id := range in.EntityIDs {
			e := m.ownedSelectableEntity(playerID, id)
			if e == nil {
				continue
			}
			t := target
			if cell, ok := assigned[id]; ok {
				t = retarget(target, cell)
			}
			m.assignTarget(e, t, in.Shift)
		}

	case inputplane.KindMoveEntity, inputplane.KindMoveAttackEntity, inputplane.KindMoveRepair:
		for _, id := range in.EntityIDs {
			e := m.ownedSelectableEntity(playerID, id)
			if e == nil || id == in.TargetID {
				continue
			}
			m.assignTarget(e, m.entityTargetFor(in), in.Shift)
		}

	case inputplane.KindStop:
		for _, id := range in.EntityIDs {
			e := m.ownedSelectableEntity(playerID, id)
			if e == nil {
				continue
			}
			e.TargetQueue.Clear()
			e.Target = entity.NoTarget
			e.Path = nil
			e.PathAttempts = 0
			e.Flags.Clear(entity.FlagHoldPosition)
			if e.Mode == entity.ModeMove || e.Mode == entity.ModeBlocked {
				e.Mode = entity.ModeIdle
			}
		}

	case inputplane.KindDefend:
		for _, id := range in.EntityIDs {
			e := m.ownedSelectableEntity(playerID, id)
			if e == nil {
				continue
			}
			e.TargetQueue.Clear()
			e.Target = entity.NoTarget
			e.Path = nil
			e.Flags.Set(entity.FlagHoldPosition)
		}

	case inputplane.KindBuild:
		for _, id := range in.EntityIDs {
			e := m.ownedSelectableEntity(playerID, id)
			if e == nil {
				continue
			}
			unitCell, ok := m.Map.NearestCellAroundRect(e.Cell, in.TargetCell, entity.StatsFor(in.BuildingType).CellSize, nil)
			if !ok {
				unitCell = in.TargetCell
			}
			t := entity.TargetBuildAt(in.BuildingType, unitCell, in.TargetCell)
			m.assignTarget(e, t, in.Shift)
		}

	case inputplane.KindBuildCancel:
		m.cancelBuild(playerID, in.BuildingID)

	case inputplane.KindChat:
		m.pushEvent(Event{Kind: EventStatus, PlayerID: playerID, Text: in.ChatText})
	}
}

// cancelBuild removes an in-progress building the issuing player owns. Gold
// refund/economy bookkeeping is out of scope for the lockstep core (§1's
// Non-goals exclude rendering and sound, and the spec's C1-C9 modules never
// define a resource-refund formula), so this only retracts the
// construction itself.
func (m *State) cancelBuild(playerID int, buildingID entity.ID) {
	e := m.Entities.GetByID(buildingID)
	if e == nil || e.PlayerID != playerID || !e.IsBuilding() || e.Mode != entity.ModeBuild {
		return
	}
	m.Map.ReleaseRect(e.Cell, e.CellSize(), buildingID)
	m.Entities.RemoveByID(buildingID)
}

func (m *State) cellTargetFor(in inputplane.Input) entity.Target {
	switch in.Kind {
	case inputplane.KindMoveAttackCell:
		return entity.TargetAttackCellAt(in.TargetCell)
	case inputplane.KindMoveUnload:
		return entity.TargetUnloadAt(in.TargetCell)
	case inputplane.KindMoveSmoke:
		return entity.TargetSmokeAt(in.TargetCell)
	default:
		return entity.TargetCellAt(in.TargetCell)
	}
}

func (m *State) entityTargetFor(in inputplane.Input) entity.Target {
	switch in.Kind {
	case inputplane.KindMoveAttackEntity:
		return entity.TargetAttackEntityID(in.TargetID)
	case inputplane.KindMoveRepair:
		return entity.TargetRepairID(in.TargetID)
	default:
		return entity.TargetEntityID(in.TargetID)
	}
}

// retarget rewrites a cell-kind target's cell field to a group-move
// adjusted cell, preserving the target's kind.
func retarget(t entity.Target, cell fixed.IVec2) entity.Target {
	t.CellPos = cell
	return t
}

func (m *State) assignTarget(e *entity.Entity, t entity.Target, shift bool) {
	if shift {
		e.TargetQueue.Push(t)
		if e.Target.Kind == entity.TargetNone {
			e.Target = e.TargetQueue.Head()
		}
		return
	}
	e.TargetQueue.Replace(t)
	e.Target = t
	e.Path = nil
	e.PathAttempts = 0
	if e.Mode == entity.ModeAttack || e.Mode == entity.ModeMine {
		e.Mode = entity.ModeIdle
	}
}

// ownedSelectable filters ids down to those the player owns and that are
// alive and not garrisoned, preserving order (order matters for group-move
// centroid computation, which must match across every peer).
func (m *State) ownedSelectable(playerID int, ids []entity.ID) []entity.ID {
	out := make([]entity.ID, 0, len(ids))
	for _, id := range ids {
		if m.ownedSelectableEntity(playerID, id) != nil {
			out = append(out, id)
		}
	}
	return out
}

func (m *State) ownedSelectableEntity(playerID int, id entity.ID) *entity.Entity {
	e := m.Entities.GetByID(id)
	if e == nil || e.PlayerID != playerID || !e.IsAlive() || e.IsGarrisoned() {
		return nil
	}
	return e
}

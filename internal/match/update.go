package match

import (
	"goldrush/internal/entity"
	"goldrush/internal/fixed"
	"goldrush/internal/worldmap"
)

// Update runs exactly one deterministic simulation tick: every live entity
// is stepped once, in current dense-index order. An entity appended during
// this call (e.g. a newly recruited unit) is guaranteed not to be stepped
// until the *next* Update call, since the iteration bound is captured
// before the loop starts; this ordering is part of the determinism
// contract (§4.4).
func (m *State) Update() {
	n := m.Entities.Len()
	var finishedDeathFade []entity.ID

	for i := 0; i < n; i++ {
		id := m.Entities.IDOf(uint32(i))
		e := m.Entities.Get(uint32(i))
		m.stepEntity(id, e)
		if e.Mode == entity.ModeDeathFade && e.DeathFadeTimer <= 0 {
			finishedDeathFade = append(finishedDeathFade, id)
		}
	}

	// Deferred tombstone removal: swap-remove happens only at the end of
	// the tick, after every entity (including ones ahead of a removed
	// one in the dense array) has already been stepped this tick.
	for _, id := range finishedDeathFade {
		idx := m.Entities.IndexOf(id)
		if entity.HasIndex(idx) {
			m.Entities.RemoveAt(idx)
		}
	}

	for i := range m.Players {
		if m.Players[i].Active {
			m.Players[i].TickUpgrades()
		}
	}
}

// AdvanceTurn increments the turn counter; called by the lockstep
// coordinator (§4.7), not by Update itself, since a turn can span several
// rendered frames without a new simulation tick (§5).
func (m *State) AdvanceTurn() {
	m.TurnCounter++
}

// stepEntity advances one entity by one tick: decrement timers regardless
// of mode, then run the mode-specific state machine, then advance
// animation.
func (m *State) stepEntity(id entity.ID, e *entity.Entity) {
	m.tickTimers(e)

	if e.Mode == entity.ModeDeathFade {
		e.DeathFadeTimer--
		e.Animation = entity.AdvanceAnimation(e.Animation, e.Mode, e.Type)
		return
	}

	switch e.Mode {
	case entity.ModeIdle:
		m.stepIdle(id, e)
	case entity.ModeBlocked:
		m.stepBlocked(id, e)
	case entity.ModeMove:
		m.stepMove(id, e)
	case entity.ModeMoveFinished:
		m.advanceTarget(e)
		e.Mode = entity.ModeIdle
	default:
		// ATTACK/BUILD/MINE run their own bookkeeping elsewhere (combat,
		// construction, extraction); the lockstep core only needs their
		// entry/exit to interoperate correctly with IDLE/MOVE, which is
		// exercised above.
	}

	e.Animation = entity.AdvanceAnimation(e.Animation, e.Mode, e.Type)
}

// tickTimers clears damage flicker, decrements the cooldown, and advances
// health regen every tick "regardless of mode," per §4.3.
func (m *State) tickTimers(e *entity.Entity) {
	if e.Flags.Has(entity.FlagDamageFlicker) {
		e.Flags.Clear(entity.FlagDamageFlicker)
	}
	if e.CooldownTimer > 0 {
		e.CooldownTimer--
	}
	if e.Health > 0 && e.Health < e.EffectiveMaxHealth() {
		e.RegenTimer++
		if e.RegenTimer >= entity.RegenCadenceTicks {
			e.RegenTimer = 0
			e.Health++
		}
	} else {
		e.RegenTimer = 0
	}
}

func (m *State) stepIdle(id entity.ID, e *entity.Entity) {
	if e.IsGarrisoned() {
		return
	}

	if e.Target.Kind == entity.TargetNone {
		e.Target = e.TargetQueue.Head()
		if e.Target.Kind == entity.TargetNone {
			return
		}
	}

	if !m.targetValid(e, e.Target) {
		m.advanceTarget(e)
		return
	}

	if m.reachedTarget(e, e.Target) {
		e.Mode = entity.ModeMoveFinished
		return
	}

	if e.Flags.Has(entity.FlagHoldPosition) {
		return
	}

	m.beginMove(id, e)
}

// advanceTarget discards the active target (popping it off the queue, since
// e.Target always mirrors the queue head while active) and loads whatever
// is queued next, clearing path-following state along with it.
func (m *State) advanceTarget(e *entity.Entity) {
	e.TargetQueue.Pop()
	e.Target = e.TargetQueue.Head()
	e.Path = nil
	e.PathAttempts = 0
}

// beginMove attempts to path the entity toward its active target's cell,
// applying the IDLE->MOVE/BLOCKED/IDLE pathfind-failure transitions.
func (m *State) beginMove(id entity.ID, e *entity.Entity) {
	goal := m.resolveTargetCell(e.Target)

	mining := e.Type == entity.TypeMiner
	path := worldmap.FindPath(m.Map, e.Cell, goal, m.makeBlockedFunc(id, e, mining))

	if len(path) > 0 {
		e.Path = path
		e.PathAttempts = 0
		e.Mode = entity.ModeMove
		return
	}

	e.PathAttempts++
	if e.PathAttempts < entity.MaxPathfindAttempts {
		e.Mode = entity.ModeBlocked
		e.BlockedTimer = entity.BlockedTimerDefault
		return
	}

	// Third consecutive failure: give up on the target entirely.
	wasBuild := e.Target.Kind == entity.TargetBuild
	m.advanceTarget(e)
	e.Mode = entity.ModeIdle
	if wasBuild {
		m.pushEvent(Event{Kind: EventCantBuild, PlayerID: e.PlayerID, EntityID: id})
	}
}

func (m *State) stepBlocked(id entity.ID, e *entity.Entity) {
	if e.BlockedTimer > 0 {
		e.BlockedTimer--
		return
	}
	e.Mode = entity.ModeIdle
}

func (m *State) stepMove(id entity.ID, e *entity.Entity) {
	if !m.targetValid(e, e.Target) {
		e.Mode = entity.ModeIdle
		e.Path = nil
		return
	}

	if len(e.Path) == 0 {
		if m.reachedTarget(e, e.Target) {
			e.Mode = entity.ModeMoveFinished
		} else {
			e.Mode = entity.ModeIdle
		}
		return
	}

	mining := e.Type == entity.TypeMiner
	next := e.Path[0]

	if m.Map.IsCellRectOccupied(next, e.CellSize(), e.Cell, true) || (mining && m.cellHasMiner(next)) {
		e.Mode = entity.ModeBlocked
		if mining {
			e.BlockedTimer = entity.BlockedTimerMining
		} else {
			e.BlockedTimer = entity.BlockedTimerDefault
		}
		return
	}

	m.stepAlongPath(id, e, next)
}

// stepAlongPath consumes movement_left against the path: on arriving at
// next, release the previous cell and claim the new one, then advance
// sub-tile position by direction_unit_vector * min(speed_left,
// distance_to_target_position), per §4.3. Distance-to-target is computed
// as a projection onto the direction's unit vector rather than a
// Euclidean square root, since sub-tile movement is always a straight
// hop between adjacent cells and the remaining offset is exactly
// parallel to the unit vector, so every step stays an exact Q16.16
// operation with no transcendental function anywhere in the tick.
func (m *State) stepAlongPath(id entity.ID, e *entity.Entity, next fixed.IVec2) {
	speed := entity.StatsFor(e.Type).Speed
	dir := fixed.FromDelta(next.X-e.Cell.X, next.Y-e.Cell.Y)
	e.Direction = dir
	unit := dir.UnitVector()

	targetPos := next.ToFVec2()
	delta := targetPos.Sub(e.SubTilePos)
	dist := delta.X.Mul(unit.X).Add(delta.Y.Mul(unit.Y))

	step := speed
	if step > dist {
		step = dist
	}

	e.SubTilePos = e.SubTilePos.Add(fixed.FVec2{X: unit.X.Mul(step), Y: unit.Y.Mul(step)})

	if step >= dist {
		// Snap exactly onto the target cell's position instead of
		// accumulating rounding drift across many ticks.
		e.SubTilePos = targetPos
	}

	if e.SubTilePos == targetPos {
		m.Map.ReleaseRect(e.Cell, e.CellSize(), id)
		prevSight := entity.StatsFor(e.Type).Sight
		m.revealSight(e.PlayerID, e.Cell, prevSight, false)

		e.Cell = next
		m.Map.ClaimRect(e.Cell, e.CellSize(), worldmap.CellOccupant{Type: e.Type.ToCellType(), ID: id})
		m.revealSight(e.PlayerID, e.Cell, prevSight, true)

		e.Path = e.Path[1:]
		if len(e.Path) == 0 {
			if m.reachedTarget(e, e.Target) {
				e.Mode = entity.ModeMoveFinished
			} else {
				e.Mode = entity.ModeIdle
			}
		}
	}
}

func (m *State) cellHasMiner(cell fixed.IVec2) bool {
	occ := m.Map.Cell(worldmap.LayerGround, cell.X, cell.Y)
	return occ.Type == worldmap.CellMiner && !occ.Empty()
}

func (m *State) makeBlockedFunc(id entity.ID, e *entity.Entity, mining bool) worldmap.BlockedFunc {
	return func(cell fixed.IVec2) bool {
		if m.Map.IsCellRectOccupied(cell, e.CellSize(), e.Cell, true) {
			return true
		}
		if mining && m.cellHasMiner(cell) {
			return true
		}
		return false
	}
}

// resolveTargetCell returns the tile-space cell a target implies for
// pathfinding purposes.
func (m *State) resolveTargetCell(t entity.Target) fixed.IVec2 {
	switch t.Kind {
	case entity.TargetCell, entity.TargetAttackCell, entity.TargetUnload, entity.TargetSmoke:
		return t.CellPos
	case entity.TargetBuild:
		return t.UnitCell
	case entity.TargetEntity, entity.TargetAttackEntity, entity.TargetRepair, entity.TargetBuildAssist:
		other := m.Entities.GetByID(t.Cell)
		if other == nil {
			return fixed.IVec2{}
		}
		return other.Cell
	default:
		return fixed.IVec2{}
	}
}

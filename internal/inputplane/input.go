// Package inputplane implements the per-turn command encoding and the
// per-player input queues described in §4.5 of the specification: every
// player action is tagged, encoded into a byte buffer, and queued TURN_OFFSET
// turns ahead of the turn it applies to, so that every peer executes the
// same commands on the same simulation tick.
package inputplane

import (
	"goldrush/internal/entity"
	"goldrush/internal/fixed"
)

// Kind tags the command taxonomy from §4.5.
type Kind uint8

// Kind values. The wire tag byte is this value verbatim.
const (
	KindNone Kind = iota
	KindMoveCell
	KindMoveEntity
	KindMoveAttackCell
	KindMoveAttackEntity
	KindMoveRepair
	KindMoveUnload
	KindMoveSmoke
	KindStop
	KindDefend
	KindBuild
	KindBuildCancel
	KindChat
)

// isMoveKind reports whether k uses the shared move-command wire layout.
func isMoveKind(k Kind) bool {
	switch k {
	case KindMoveCell, KindMoveEntity, KindMoveAttackCell, KindMoveAttackEntity,
		KindMoveRepair, KindMoveUnload, KindMoveSmoke:
		return true
	default:
		return false
	}
}

// MaxEntityIDs bounds how many entity ids a single move/stop/build/defend
// command may carry, matching the original's fixed-size entity_ids array.
const MaxEntityIDs = 255

// Input is one decoded command. Only the fields relevant to Kind are
// meaningful.
type Input struct {
	Kind Kind

	Shift bool // additive/queued command vs. replace

	TargetCell fixed.IVec2
	TargetID   entity.ID

	EntityIDs []entity.ID

	BuildingType entity.Type
	BuildingID   entity.ID

	ChatText string
}

// NoneInput is the taxonomy's NONE command: a turn with no user action
// emits exactly one of these so peers can tell the player has advanced.
var NoneInput = Input{Kind: KindNone}

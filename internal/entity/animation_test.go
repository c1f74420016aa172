package entity

import (
	"testing"

	"goldrush/internal/fixed"
)

func TestAnimationPlayingInvariant(t *testing.T) {
	a := StartAnimation(AnimAttack) // loops: 1
	if !a.Playing() {
		t.Fatalf("freshly started animation should be playing")
	}
	for i := 0; i < 100 && a.Playing(); i++ {
		a = AdvanceAnimation(a, ModeAttack, TypeSoldier)
	}
	if a.Playing() {
		t.Errorf("animation with loops=1 should eventually stop playing")
	}
	if a.LoopsRemaining != 0 {
		t.Errorf("LoopsRemaining = %d, want 0 when not playing", a.LoopsRemaining)
	}
}

func TestAnimationIndefiniteLoopKeepsPlaying(t *testing.T) {
	a := StartAnimation(AnimMove)
	for i := 0; i < 500; i++ {
		a = AdvanceAnimation(a, ModeMove, TypeMiner)
	}
	if !a.Playing() {
		t.Errorf("indefinite-loop animation should still be playing after many ticks")
	}
}

func TestExpectedAnimationSwitchesOnModeChange(t *testing.T) {
	a := StartAnimation(AnimIdle)
	a = AdvanceAnimation(a, ModeMove, TypeMiner)
	if a.Key != AnimMove {
		t.Errorf("animation should switch to AnimMove when mode becomes MOVE, got %v", a.Key)
	}
}

func TestCannonUsesSlowMoveAnimation(t *testing.T) {
	a := StartAnimation(AnimIdle)
	a = AdvanceAnimation(a, ModeMove, TypeCannon)
	if a.Key != AnimMoveSlow {
		t.Errorf("cannon should use AnimMoveSlow, got %v", a.Key)
	}
}

func TestTargetQueueHeadPop(t *testing.T) {
	var q TargetQueue
	if q.Head().Kind != TargetNone {
		t.Fatalf("empty queue head should be NONE")
	}
	q.Push(TargetCellAt(fixed.IVec2Of(1, 1)))
	q.Push(TargetCellAt(fixed.IVec2Of(2, 2)))
	if q.Head().CellPos != fixed.IVec2Of(1, 1) {
		t.Errorf("head should be the first pushed target")
	}
	q.Pop()
	if q.Head().CellPos != fixed.IVec2Of(2, 2) {
		t.Errorf("after Pop, head should be the second pushed target")
	}
	q.Pop()
	if !q.Empty() {
		t.Errorf("queue should be empty after popping all targets")
	}
}

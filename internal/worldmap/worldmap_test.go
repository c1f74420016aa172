package worldmap

import (
	"testing"

	"pgregory.net/rapid"

	"goldrush/internal/fixed"
)

func TestIsCellRectOccupiedIgnoresOwnOrigin(t *testing.T) {
	m := NewMap(20, 20)
	origin := fixed.IVec2Of(5, 5)
	m.ClaimRect(origin, 1, CellOccupant{Type: CellMiner, ID: 1})

	if m.IsCellRectOccupied(origin, 1, origin, true) {
		t.Errorf("rect should not be occupied when ignoring its own origin")
	}
	if !m.IsCellRectOccupied(origin, 1, fixed.IVec2Of(0, 0), true) {
		t.Errorf("rect should be occupied when ignoring an unrelated origin")
	}
}

func TestIsCellRectOccupiedExcludesDecorations(t *testing.T) {
	m := NewMap(20, 20)
	origin := fixed.IVec2Of(3, 3)
	m.ClaimRect(origin, 1, CellOccupant{Type: CellDecoration1, ID: 1})

	if m.IsCellRectOccupied(origin, 1, fixed.IVec2Of(0, 0), false) {
		t.Errorf("decoration should not count as occupied when includeDecorations=false")
	}
	if !m.IsCellRectOccupied(origin, 1, fixed.IVec2Of(0, 0), true) {
		t.Errorf("decoration should count as occupied when includeDecorations=true")
	}
}

func TestGetCellRectEqualTo(t *testing.T) {
	m := NewMap(10, 10)
	origin := fixed.IVec2Of(2, 2)
	m.ClaimRect(origin, 2, CellOccupant{Type: CellBuilding, ID: 7})

	if !m.GetCellRectEqualTo(origin, 2, 7) {
		t.Errorf("rect should be entirely owned by id 7")
	}
	if m.GetCellRectEqualTo(origin, 2, 8) {
		t.Errorf("rect should not be owned by id 8")
	}
}

// TestPathBlockedFallback is end-to-end scenario 2 from spec.md §8: a
// MINER at (2,2) asked to path to (2,10), blocked by a second MINER at
// (2,5), must find a route around it.
func TestPathBlockedFallback(t *testing.T) {
	m := NewMap(20, 20)
	blockerOrigin := fixed.IVec2Of(2, 5)
	m.ClaimRect(blockerOrigin, 1, CellOccupant{Type: CellMiner, ID: 99})

	blocked := func(cell fixed.IVec2) bool {
		occ := m.Cell(LayerGround, cell.X, cell.Y)
		return !occ.Empty()
	}

	path := FindPath(m, fixed.IVec2Of(2, 2), fixed.IVec2Of(2, 10), blocked)
	if len(path) == 0 {
		t.Fatalf("expected a path around the blocker, got none")
	}
	for _, step := range path {
		if step == blockerOrigin {
			t.Fatalf("path should not traverse the blocked cell %v", step)
		}
	}
	if path[len(path)-1] != fixed.IVec2Of(2, 10) {
		t.Errorf("path should end at goal, got %v", path[len(path)-1])
	}
}

func TestPathReturnsEmptyWhenUnreachable(t *testing.T) {
	m := NewMap(10, 10)
	// Wall off the goal entirely.
	for x := int32(0); x < 10; x++ {
		m.ClaimRect(fixed.IVec2Of(x, 5), 1, CellOccupant{Type: CellBuilding, ID: 1})
	}
	blocked := func(cell fixed.IVec2) bool {
		return !m.Cell(LayerGround, cell.X, cell.Y).Empty()
	}
	path := FindPath(m, fixed.IVec2Of(0, 0), fixed.IVec2Of(0, 9), blocked)
	if path != nil {
		t.Errorf("expected nil path when goal is unreachable, got %v", path)
	}
}

func TestPathExcludesStartCell(t *testing.T) {
	m := NewMap(10, 10)
	path := FindPath(m, fixed.IVec2Of(0, 0), fixed.IVec2Of(2, 0), nil)
	for _, step := range path {
		if step == (fixed.IVec2{X: 0, Y: 0}) {
			t.Errorf("path must not include the start cell")
		}
	}
}

// TestFogMonotonicity is the §8 universal property: once a cell is
// EXPLORED for a team, it never reverts to HIDDEN, across any sequence of
// Reveal/Conceal calls.
func TestFogMonotonicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fog := NewTeamFog(30, 30)
		explored := make(map[fixed.IVec2]bool)

		steps := rapid.SliceOfN(rapid.IntRange(0, 1), 0, 40).Draw(t, "steps")
		center := fixed.IVec2Of(15, 15)
		for _, op := range steps {
			if op == 0 {
				fog.Reveal(center, 4)
			} else {
				fog.Conceal(center, 4)
			}
			for dy := int32(-4); dy <= 4; dy++ {
				for dx := int32(-4); dx <= 4; dx++ {
					x, y := center.X+dx, center.Y+dy
					if fog.State(x, y) != FogHidden {
						explored[fixed.IVec2Of(x, y)] = true
					}
				}
			}
			for cell := range explored {
				if fog.State(cell.X, cell.Y) == FogHidden {
					t.Fatalf("cell %v regressed to HIDDEN after being explored", cell)
				}
			}
		}
	})
}

func TestTeamFogDetectionOverridesInvisible(t *testing.T) {
	fog := NewTeamFog(10, 10)
	cell := fixed.IVec2Of(4, 4)
	if fog.IsDetected(cell.X, cell.Y) {
		t.Fatalf("cell should not be detected before marking")
	}
	fog.MarkDetected(cell, 2)
	if !fog.IsDetected(cell.X, cell.Y) {
		t.Errorf("cell should be detected after MarkDetected")
	}
	fog.ClearDetected(cell, 2)
	if fog.IsDetected(cell.X, cell.Y) {
		t.Errorf("cell should no longer be detected after ClearDetected")
	}
}

package worldmap

import (
	"github.com/zyedidia/generic/mapset"

	"goldrush/internal/fixed"
)

// FogState is the per-cell, per-team visibility value. Unlike the
// teacher's single-player Discovered/Visited booleans (engine/world/fov.go),
// an RTS needs three states per team: a cell can be EXPLORED (seen before,
// never forgotten) without being VISIBLE right now.
type FogState int

// FogState values.
const (
	FogHidden FogState = iota
	FogExplored
	FogVisible
)

// TeamFog is one team's visibility grid plus the set of cells a detector
// entity currently reveals (which is what lets that team see INVISIBLE
// units standing in an otherwise-VISIBLE cell).
type TeamFog struct {
	width, height int
	cells         []FogState
	detected      *mapset.Set[fixed.IVec2]
}

// NewTeamFog allocates a HIDDEN fog grid for a team over a width x height
// map.
func NewTeamFog(width, height int) *TeamFog {
	s := mapset.New[fixed.IVec2]()
	return &TeamFog{
		width:    width,
		height:   height,
		cells:    make([]FogState, width*height),
		detected: &s,
	}
}

func (f *TeamFog) index(x, y int32) (int, bool) {
	if x < 0 || y < 0 || int(x) >= f.width || int(y) >= f.height {
		return 0, false
	}
	return int(y)*f.width + int(x), true
}

// State returns the fog state at (x, y), or FogHidden if out of bounds.
func (f *TeamFog) State(x, y int32) FogState {
	i, ok := f.index(x, y)
	if !ok {
		return FogHidden
	}
	return f.cells[i]
}

// IsDetected reports whether a detector currently reveals (x, y), which
// overrides an occupant's INVISIBLE flag for this team.
func (f *TeamFog) IsDetected(x, y int32) bool {
	return f.detected.Has(fixed.IVec2Of(x, y))
}

// applyRadius calls fn(x, y) for every in-bounds cell within a Chebyshev
// radius of center; out-of-bounds cells are skipped.
func (f *TeamFog) applyRadius(center fixed.IVec2, radius int32, fn func(x, y int32)) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if chebyshev(fixed.IVec2{}, fixed.IVec2Of(dx, dy)) > radius {
				continue
			}
			x, y := center.X+dx, center.Y+dy
			if _, ok := f.index(x, y); ok {
				fn(x, y)
			}
		}
	}
}

// Reveal marks every cell within sight (Chebyshev radius) of center as
// VISIBLE and, monotonically, EXPLORED. Called whenever a player-owned
// entity's occupied cell-rect changes (§4.2).
func (f *TeamFog) Reveal(center fixed.IVec2, sight int32) {
	f.applyRadius(center, sight, func(x, y int32) {
		i, _ := f.index(x, y)
		f.cells[i] = FogVisible
	})
}

// Conceal reduces every cell within sight of center from VISIBLE back to
// EXPLORED (never below EXPLORED — fog monotonicity per §8 is "once a
// cell is EXPLORED for a team, it never reverts to HIDDEN").
func (f *TeamFog) Conceal(center fixed.IVec2, sight int32) {
	f.applyRadius(center, sight, func(x, y int32) {
		i, _ := f.index(x, y)
		if f.cells[i] == FogVisible {
			f.cells[i] = FogExplored
		}
	})
}

// MarkDetected adds every cell within radius of center to this team's
// detected set, used by detector-type entities.
func (f *TeamFog) MarkDetected(center fixed.IVec2, radius int32) {
	f.applyRadius(center, radius, func(x, y int32) {
		f.detected.Put(fixed.IVec2Of(x, y))
	})
}

// ClearDetected removes every cell within radius of center from this
// team's detected set, called when a detector moves or dies.
func (f *TeamFog) ClearDetected(center fixed.IVec2, radius int32) {
	f.applyRadius(center, radius, func(x, y int32) {
		f.detected.Remove(fixed.IVec2Of(x, y))
	})
}

// Fog is the whole match's per-team visibility state, indexed by team id.
type Fog struct {
	width, height int
	teams         map[int]*TeamFog
}

// NewFog allocates a Fog with no teams yet; call Team to lazily create a
// team's grid on first access.
func NewFog(width, height int) *Fog {
	return &Fog{width: width, height: height, teams: make(map[int]*TeamFog)}
}

// Team returns the fog grid for a team, creating it (all HIDDEN) on first
// use.
func (f *Fog) Team(team int) *TeamFog {
	tf, ok := f.teams[team]
	if !ok {
		tf = NewTeamFog(f.width, f.height)
		f.teams[team] = tf
	}
	return tf
}

// IsVisibleOrDetected reports whether (x, y) is currently VISIBLE to team,
// or is within a detector's reveal radius for team — the condition that
// defeats an occupant's INVISIBLE flag.
func (f *Fog) IsVisibleOrDetected(team int, x, y int32) bool {
	tf := f.Team(team)
	return tf.State(x, y) == FogVisible || tf.IsDetected(x, y)
}

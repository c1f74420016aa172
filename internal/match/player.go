// Package match implements the deterministic match state and its one
// simulation tick, described in §4.4 of the specification: entity
// updates, the map and pathfinder, and fog all advance exactly once per
// call to Update, driven only by the seeded simulation RNG and the inputs
// handed to HandleInput.
package match

// Upgrade identifies a researchable upgrade. Monotone per player: once
// owned, never removed (§3 invariant).
type Upgrade int

// MaxPlayers bounds the player slots a lobby and match can hold.
const MaxPlayers = 8

// Player is the per-slot player record from §3.
type Player struct {
	Active         bool
	Name           string
	Team           int
	RecolorID      int
	Gold           int32
	UpgradesOwned  map[Upgrade]bool
	UpgradesInProg map[Upgrade]int // upgrade -> ticks remaining
}

// NewPlayer constructs an inactive player slot.
func NewPlayer() Player {
	return Player{
		UpgradesOwned:  make(map[Upgrade]bool),
		UpgradesInProg: make(map[Upgrade]int),
	}
}

// OwnsUpgrade reports whether the player has completed an upgrade.
func (p *Player) OwnsUpgrade(u Upgrade) bool {
	return p.UpgradesOwned[u]
}

// BeginUpgrade starts researching u, ticks from now, if not already owned
// or in progress.
func (p *Player) BeginUpgrade(u Upgrade, ticks int) {
	if p.UpgradesOwned[u] {
		return
	}
	if _, inProgress := p.UpgradesInProg[u]; inProgress {
		return
	}
	p.UpgradesInProg[u] = ticks
}

// TickUpgrades advances every in-progress upgrade by one tick, completing
// (and moving to UpgradesOwned, monotonically, per §3/§8) any that reach
// zero.
func (p *Player) TickUpgrades() {
	for u, remaining := range p.UpgradesInProg {
		remaining--
		if remaining <= 0 {
			delete(p.UpgradesInProg, u)
			p.UpgradesOwned[u] = true
		} else {
			p.UpgradesInProg[u] = remaining
		}
	}
}

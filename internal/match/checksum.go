package match

import (
	"encoding/binary"

	"goldrush/internal/checksum"
	"goldrush/internal/entity"
	"goldrush/internal/worldmap"
)

// Checksum computes the Adler-32 digest of state's canonical serialization
// per §4.9: entities in id-ascending order, map cell layers, fog grids,
// and player gold/upgrades. The layout is an explicit byte encoding, not
// a memory dump, so it is identical across platforms and Go versions.
// Comparing this value across peers at a turn boundary is how desync is
// detected; it excludes the event list, which §4.4 states is not
// checksummed.
func (m *State) Checksum() uint32 {
	return checksum.Sum(m.serialize())
}

// ChecksumSelfTest runs the scalar and vectorized Adler-32 paths over the
// same serialized state and reports whether they agree. This is the
// concrete home for §6's GOLD_SIMD_CHECKSUM_TEST cross-check: both
// implementations always exist, and a caller can compare them against
// live data without a second peer.
func (m *State) ChecksumSelfTest() (scalar, vectorized uint32, ok bool) {
	return checksum.CheckConsistency(m.serialize())
}

func (m *State) serialize() []byte {
	buf := make([]byte, 0, 4096)
	buf = m.appendEntities(buf)
	buf = m.appendMapLayers(buf)
	buf = m.appendFog(buf)
	buf = m.appendPlayers(buf)
	return buf
}

func (m *State) appendEntities(buf []byte) []byte {
	for _, id := range m.Entities.IDsAscending() {
		e := m.Entities.GetByID(id)
		buf = appendU32(buf, uint32(id))
		buf = append(buf, byte(e.Type), byte(e.Mode), byte(int32(e.PlayerID)))
		buf = appendU32(buf, uint32(e.Flags))
		buf = appendI32(buf, e.Cell.X)
		buf = appendI32(buf, e.Cell.Y)
		buf = appendI32(buf, e.SubTilePos.X.Raw())
		buf = appendI32(buf, e.SubTilePos.Y.Raw())
		buf = append(buf, byte(e.Direction))
		buf = appendI32(buf, e.Health)
		buf = appendI32(buf, e.MaxHealthOverride)
		buf = appendTarget(buf, e.Target)
		buf = append(buf, byte(e.Animation.Key))
		buf = appendI32(buf, int32(e.Animation.Frame))
		buf = appendI32(buf, int32(e.BlockedTimer))
		buf = appendI32(buf, int32(e.CooldownTimer))
		buf = appendI32(buf, int32(e.RegenTimer))
		buf = appendI32(buf, e.GoldHeld)
		buf = appendU32(buf, uint32(e.GarrisonHost))
		buf = appendI32(buf, int32(e.DeathFadeTimer))
	}
	return buf
}

func appendTarget(buf []byte, t entity.Target) []byte {
	buf = append(buf, byte(t.Kind))
	buf = appendU32(buf, uint32(t.Cell))
	buf = appendI32(buf, t.CellPos.X)
	buf = appendI32(buf, t.CellPos.Y)
	buf = append(buf, byte(t.BuildingType))
	buf = appendI32(buf, t.UnitCell.X)
	buf = appendI32(buf, t.UnitCell.Y)
	buf = appendI32(buf, t.BuildingCell.X)
	buf = appendI32(buf, t.BuildingCell.Y)
	return buf
}

func (m *State) appendMapLayers(buf []byte) []byte {
	w, h := m.Map.Width(), m.Map.Height()
	buf = appendI32(buf, int32(w))
	buf = appendI32(buf, int32(h))
	for layer := worldmap.Layer(0); layer < worldmap.LayerCount; layer++ {
		for y := int32(0); y < int32(h); y++ {
			for x := int32(0); x < int32(w); x++ {
				occ := m.Map.Cell(layer, x, y)
				buf = append(buf, byte(occ.Type))
				buf = appendU32(buf, uint32(occ.ID))
			}
		}
	}
	for y := int32(0); y < int32(h); y++ {
		for x := int32(0); x < int32(w); x++ {
			tile := m.Map.Tile(x, y)
			buf = append(buf, byte(tile.AutotileMask), tile.Elevation)
		}
	}
	return buf
}

// activeTeamsAscending returns the distinct teams any active player
// belongs to, sorted. Only these teams' fog grids are serialized, so
// checksumming never forces Fog.Team to lazily allocate a grid for a team
// nobody occupies.
func (m *State) activeTeamsAscending() []int {
	seen := make(map[int]bool)
	var teams []int
	for _, p := range m.Players {
		if !p.Active || seen[p.Team] {
			continue
		}
		seen[p.Team] = true
		teams = append(teams, p.Team)
	}
	for i := 1; i < len(teams); i++ {
		for j := i; j > 0 && teams[j-1] > teams[j]; j-- {
			teams[j-1], teams[j] = teams[j], teams[j-1]
		}
	}
	return teams
}

func (m *State) appendFog(buf []byte) []byte {
	w, h := m.Map.Width(), m.Map.Height()
	for _, team := range m.activeTeamsAscending() {
		buf = appendI32(buf, int32(team))
		tf := m.Fog.Team(team)
		for y := int32(0); y < int32(h); y++ {
			for x := int32(0); x < int32(w); x++ {
				buf = append(buf, byte(tf.State(x, y)))
			}
		}
	}
	return buf
}

func (m *State) appendPlayers(buf []byte) []byte {
	for _, p := range m.Players {
		buf = appendI32(buf, p.Gold)
		buf = appendU32(buf, uint32(len(p.UpgradesOwned)))
		for _, u := range sortedUpgradeKeys(p.UpgradesOwned) {
			buf = appendI32(buf, int32(u))
		}
		buf = appendU32(buf, uint32(len(p.UpgradesInProg)))
		for _, u := range sortedUpgradeKeysInt(p.UpgradesInProg) {
			buf = appendI32(buf, int32(u))
			buf = appendI32(buf, int32(p.UpgradesInProg[u]))
		}
	}
	return buf
}

func sortedUpgradeKeys(m map[Upgrade]bool) []Upgrade {
	keys := make([]Upgrade, 0, len(m))
	for u := range m {
		keys = append(keys, u)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func sortedUpgradeKeysInt(m map[Upgrade]int) []Upgrade {
	keys := make([]Upgrade, 0, len(m))
	for u := range m {
		keys = append(keys, u)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func appendI32(buf []byte, v int32) []byte {
	return appendU32(buf, uint32(v))
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

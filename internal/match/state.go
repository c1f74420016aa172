package match

import (
	"goldrush/internal/entity"
	"goldrush/internal/fixed"
	"goldrush/internal/worldmap"
)

// State is the entire deterministic match state: everything that must be
// bit-identical across peers at every turn boundary (§4.4's determinism
// contract), plus the non-checksummed event list.
type State struct {
	RNG *fixed.SimRNG

	Map *worldmap.Map
	Fog *worldmap.Fog

	Entities *entity.IdArray[entity.Entity]
	Players  [MaxPlayers]Player

	TurnCounter uint32

	Events []Event

	mapSize worldmap.MapSize
}

// MatchInit seeds the RNG, generates the map from seed+noise, spawns a
// goldmine at each goldmine cell with GOLDMINE_STARTING_GOLD, places one
// miner at each active player's spawn cell, and sets each active player's
// gold to PLAYER_STARTING_GOLD. Deterministic given identical inputs, per
// §4.4.
func MatchInit(seed int32, size worldmap.MapSize, noise worldmap.Noise, players [MaxPlayers]Player) *State {
	rng := fixed.NewSimRNG(seed)

	numActive := 0
	for _, p := range players {
		if p.Active {
			numActive++
		}
	}

	gen := worldmap.Generate(size, noise, rng, numActive)

	st := &State{
		RNG:      rng,
		Map:      gen.Map,
		Fog:      worldmap.NewFog(gen.Map.Width(), gen.Map.Height()),
		Entities: entity.NewIdArray[entity.Entity](),
		Players:  players,
		mapSize:  size,
	}

	for _, mineCell := range gen.GoldmineCells {
		st.spawnGoldmine(mineCell)
	}

	spawnIdx := 0
	for i := range st.Players {
		if !st.Players[i].Active {
			continue
		}
		st.Players[i].Gold = entity.PlayerStartingGold
		if spawnIdx < len(gen.SpawnCells) {
			st.spawnMiner(i, gen.SpawnCells[spawnIdx])
		}
		spawnIdx++
	}

	return st
}

func (m *State) spawnGoldmine(cell fixed.IVec2) entity.ID {
	e := entity.Entity{
		Type:     entity.TypeGoldmine,
		Mode:     entity.ModeIdle,
		PlayerID: -1,
		Cell:     cell,
		GoldHeld: entity.GoldmineStartingGold,
	}
	id := m.Entities.PushBack(e)
	m.Map.ClaimRect(cell, e.CellSize(), worldmap.CellOccupant{Type: worldmap.CellGoldmine, ID: id})
	return id
}

func (m *State) spawnMiner(playerID int, cell fixed.IVec2) entity.ID {
	e := entity.Entity{
		Type:       entity.TypeMiner,
		Mode:       entity.ModeIdle,
		PlayerID:   playerID,
		Cell:       cell,
		SubTilePos: cell.ToFVec2(),
		Direction:  fixed.DirSouth,
		Health:     entity.StatsFor(entity.TypeMiner).MaxHealth,
	}
	id := m.Entities.PushBack(e)
	m.Map.ClaimRect(cell, e.CellSize(), worldmap.CellOccupant{Type: worldmap.CellMiner, ID: id})
	m.revealSight(playerID, cell, entity.StatsFor(entity.TypeMiner).Sight, true)
	return id
}

// revealSight reveals or conceals a player's team's fog around cell,
// within sight radius. It does not touch the team's detected set, for
// detector entities or any other. Called on every cell-rect occupation
// change for a player-owned entity, per §4.2.
func (m *State) revealSight(playerID int, cell fixed.IVec2, sight int32, reveal bool) {
	if playerID < 0 || playerID >= MaxPlayers {
		return
	}
	team := m.Players[playerID].Team
	tf := m.Fog.Team(team)
	if reveal {
		tf.Reveal(cell, sight)
	} else {
		tf.Conceal(cell, sight)
	}
}

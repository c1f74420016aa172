package entity

import "goldrush/internal/fixed"

// Stats is the static, read-only per-Type attribute table from §3: "the
// table also supplies size, sight, max health, speed, and range." Built
// once at package init time per the "static tables" design note (§9) —
// never rebuilt per match.
type Stats struct {
	Name      string
	IsBuilding bool
	CellSize  int32
	Sight     int32 // Chebyshev radius
	MaxHealth int32
	Speed     fixed.Scalar // tiles per tick, Q16.16
	Range     int32        // attack range in tiles; 1 means melee/adjacency
	IsDetector bool
	GoldCost  int32
	Capacity  int32 // miner gold-carry capacity; 0 for non-miners
}

var statsTable [TypeCount]Stats

func init() {
	statsTable[TypeMiner] = Stats{Name: "Miner", CellSize: 1, Sight: 5, MaxHealth: 30, Speed: fixed.FromInt(1).Div(fixed.FromInt(8)), Range: 1, GoldCost: 0, Capacity: 10}
	statsTable[TypeWagon] = Stats{Name: "Wagon", CellSize: 1, Sight: 4, MaxHealth: 60, Speed: fixed.FromInt(1).Div(fixed.FromInt(10)), Range: 1, GoldCost: 50}
	statsTable[TypeCannon] = Stats{Name: "Cannon", CellSize: 1, Sight: 6, MaxHealth: 50, Speed: fixed.FromInt(1).Div(fixed.FromInt(14)), Range: 5, GoldCost: 120}
	statsTable[TypeSoldier] = Stats{Name: "Soldier", CellSize: 1, Sight: 5, MaxHealth: 40, Speed: fixed.FromInt(1).Div(fixed.FromInt(9)), Range: 1, GoldCost: 60}
	statsTable[TypeGoldmine] = Stats{Name: "Goldmine", IsBuilding: true, CellSize: 2, Sight: 0, MaxHealth: 1, GoldCost: 0}
	statsTable[TypeBuildingTownHall] = Stats{Name: "Town Hall", IsBuilding: true, CellSize: 3, Sight: 8, MaxHealth: 400, IsDetector: true, GoldCost: 0}
	statsTable[TypeBuildingHouse] = Stats{Name: "House", IsBuilding: true, CellSize: 2, Sight: 4, MaxHealth: 150, GoldCost: 40}
	statsTable[TypeBuildingBarracks] = Stats{Name: "Barracks", IsBuilding: true, CellSize: 2, Sight: 5, MaxHealth: 200, GoldCost: 80}
	statsTable[TypeBuildingWorkshop] = Stats{Name: "Workshop", IsBuilding: true, CellSize: 2, Sight: 5, MaxHealth: 180, GoldCost: 80}
	statsTable[TypeBuildingLandmine] = Stats{Name: "Landmine", IsBuilding: true, CellSize: 1, Sight: 2, MaxHealth: 1, GoldCost: 25}
}

// StatsFor returns the static attribute row for a Type.
func StatsFor(t Type) Stats {
	if t < 0 || t >= TypeCount {
		return Stats{}
	}
	return statsTable[t]
}

// GoldmineStartingGold is the gold every generated goldmine begins with.
const GoldmineStartingGold = 2000

// PlayerStartingGold is the gold every active player begins a match with.
const PlayerStartingGold = 200

// RegenCadenceTicks is the tick interval at which a damaged entity below
// max health regenerates one point, per §4.3.
const RegenCadenceTicks = 64

// BlockedTimerMining is the BLOCKED-state duration (ticks) used when a
// miner's next path cell is occupied.
const BlockedTimerMining = 10

// BlockedTimerDefault is the BLOCKED-state duration (ticks) for every other
// entry into BLOCKED: a non-miner's occupied next cell, or a failed
// pathfind attempt.
const BlockedTimerDefault = 30

// MaxPathfindAttempts is the number of consecutive pathfind failures
// tolerated before a target is abandoned (§4.3's IDLE transition table).
const MaxPathfindAttempts = 3

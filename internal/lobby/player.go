package lobby

import "goldrush/internal/host"

// PlayerStatus mirrors original_source's player_status enum.
type PlayerStatus uint8

// PlayerStatus values.
const (
	PlayerNone PlayerStatus = iota
	PlayerHost
	PlayerNotReady
	PlayerReady
	PlayerDisconnected
)

// Player is one lobby roster slot, tracked by every peer identically: the
// coordinator's own view of a player_t plus the host.PeerID that slot maps
// to on the local Host instance.
type Player struct {
	Status    PlayerStatus
	Name      string
	Team      int
	RecolorID int

	Peer   host.PeerID // zero if this slot is the local player
	IsSelf bool
}

func (p Player) wireState() playerState {
	return playerState{
		Status:    uint8(p.Status),
		RecolorID: uint8(p.RecolorID),
		Team:      uint8(p.Team),
		Name:      p.Name,
	}
}

func playerFromWire(s playerState) Player {
	return Player{
		Status:    PlayerStatus(s.Status),
		RecolorID: int(s.RecolorID),
		Team:      int(s.Team),
		Name:      s.Name,
	}
}

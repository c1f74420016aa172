// Package host implements the polymorphic transport abstraction described
// in §4.6: a reliable-ordered-datagram peer connection with two concrete
// backends, LAN (broadcast-discovered UDP) and Relay (a websocket-carried
// Internet transport keyed by opaque peer identities). internal/lobby
// drives a Host; it never constructs packets itself.
package host

import "errors"

// Privacy controls who may discover and join an open lobby.
type Privacy int

// Privacy values.
const (
	PrivacyPublic Privacy = iota
	PrivacyFriends
	PrivacySingleplayer
)

// PeerID identifies one connected peer from the local host's perspective.
// It is local to a Host instance and has no meaning across peers.
type PeerID uint32

// PeerStatus distinguishes a peer still establishing or tearing down a
// connection from one fully connected, grounded on original_source's
// network_status enum. A "gentle" disconnect (CloseLobby/DisconnectPeers
// on an already-CONNECTED peer) differs from a "forced" one (a peer still
// CONNECTING or already DISCONNECTING when torn down), per spec.md §5's
// cancellation policy; internal/lobby reads this to decide which applies.
type PeerStatus int

// PeerStatus values.
const (
	PeerConnecting PeerStatus = iota
	PeerConnected
	PeerDisconnecting
)

// EventKind discriminates the Host event-poll union from §4.6.
type EventKind int

// EventKind values.
const (
	EventLobbyCreateSuccess EventKind = iota
	EventLobbyCreateFailed
	EventConnected
	EventDisconnected
	EventReceived
)

// Event is one entry from Poll.
type Event struct {
	Kind EventKind

	Peer     PeerID
	PlayerID int // meaningful for EventDisconnected

	Packet []byte // meaningful for EventReceived
}

// Errors returned by Host implementations; callers compare with errors.Is.
var (
	ErrNotOpen       = errors.New("host: lobby not open")
	ErrAlreadyOpen   = errors.New("host: lobby already open")
	ErrUnknownPeer   = errors.New("host: unknown peer")
	ErrConnectFailed = errors.New("host: connect failed")
)

// Host is the transport interface §4.6 names. Every payload sent through
// it is assumed reliable and ordered per peer; the lockstep core never
// retransmits, so an implementation that cannot provide that guarantee
// (e.g. raw unordered UDP without a resend layer) would silently break
// the determinism contract.
type Host interface {
	// OpenLobby begins hosting; only one lobby may be open at a time.
	OpenLobby(name string, privacy Privacy) error
	CloseLobby() error

	// Connect dials a peer described by opaque, implementation-specific
	// bytes (LAN carries {ip, port}; Relay carries an identity string).
	Connect(connectionInfo []byte) error

	PeerCount() int
	PeerPlayerID(peer PeerID) (int, bool)
	SetPeerPlayerID(peer PeerID, playerID int)
	IsPeerConnected(peer PeerID) bool
	PeerStatus(peer PeerID) (PeerStatus, bool)
	DisconnectPeers() error

	// PeerConnectionInfo returns the opaque bytes used to forward a new
	// arrival's address to existing clients, so they can dial the
	// newcomer directly (§4.7 step 3).
	PeerConnectionInfo(peer PeerID) ([]byte, error)

	Send(peer PeerID, payload []byte) error
	Broadcast(payload []byte) error
	Flush() error
	Service()

	// Poll drains and returns all events accumulated since the last call.
	Poll() []Event
}

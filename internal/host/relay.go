package host

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	relayWriteWait = 10 * time.Second
	relayPongWait  = 60 * time.Second
)

var relayUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The relay sits behind a matchmaking service operating across origins
	// by design, so origin checking is left to that front door rather than
	// duplicated here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type relayConn struct {
	ws       *websocket.Conn
	identity string
	playerID int
	hasID    bool
	status   PeerStatus
	send     chan []byte
}

// RelayHost is a Host backend for Internet play: each peer is a websocket
// connection to a relay server, addressed by a UUID identity string that
// stands in for a platform account id, grounded on
// leanlp-BTC-coinjoin/internal/api/websocket.go's client-map-plus-broadcast-
// channel Hub shape.
type RelayHost struct {
	mu sync.Mutex

	selfIdentity string
	lobbyOpen    bool

	server  *http.Server
	upgrade func(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error)
	dial    func(addr string) (*websocket.Conn, error)

	peers    map[PeerID]*relayConn
	nextPeer PeerID

	events []Event
}

// NewRelayHost constructs an idle relay host identified by identity, a
// caller-supplied stand-in for a platform account id (§4.6).
func NewRelayHost(identity string) *RelayHost {
	if identity == "" {
		identity = uuid.NewString()
	}
	return &RelayHost{
		selfIdentity: identity,
		peers:        make(map[PeerID]*relayConn),
		nextPeer:     1,
		upgrade: func(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
			return relayUpgrader.Upgrade(w, r, nil)
		},
		dial: func(addr string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
			return conn, err
		},
	}
}

// OpenLobby starts accepting inbound relay connections on addr.
func (h *RelayHost) OpenLobby(addr string, _ Privacy) error {
	h.mu.Lock()
	if h.lobbyOpen {
		h.mu.Unlock()
		return ErrAlreadyOpen
	}
	h.lobbyOpen = true
	h.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/peer", h.handleUpgrade)
	h.server = &http.Server{Addr: addr, Handler: mux}

	go h.server.ListenAndServe()
	return nil
}

// CloseLobby stops accepting connections and drops existing peers.
func (h *RelayHost) CloseLobby() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.lobbyOpen {
		return ErrNotOpen
	}
	if h.server != nil {
		h.server.Close()
		h.server = nil
	}
	for _, p := range h.peers {
		p.ws.Close()
	}
	h.peers = make(map[PeerID]*relayConn)
	h.lobbyOpen = false
	return nil
}

func (h *RelayHost) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrade(w, r)
	if err != nil {
		return
	}
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = uuid.NewString()
	}
	h.addPeer(ws, identity)
}

// Connect dials the relay address carried in connectionInfo, an
// identity-query-stringed websocket URL.
func (h *RelayHost) Connect(connectionInfo []byte) error {
	raw := string(connectionInfo)
	u, err := url.Parse(raw)
	if err != nil {
		return ErrConnectFailed
	}
	q := u.Query()
	q.Set("identity", h.selfIdentity)
	u.RawQuery = q.Encode()

	ws, err := h.dial(u.String())
	if err != nil {
		return ErrConnectFailed
	}
	h.addPeer(ws, "")
	return nil
}

func (h *RelayHost) addPeer(ws *websocket.Conn, identity string) PeerID {
	h.mu.Lock()
	id := h.nextPeer
	h.nextPeer++
	conn := &relayConn{ws: ws, identity: identity, status: PeerConnecting, send: make(chan []byte, 32)}
	h.peers[id] = conn
	h.mu.Unlock()

	go h.writePump(id, conn)
	go h.readPump(id, conn)

	h.mu.Lock()
	h.pushEventLocked(Event{Kind: EventConnected, Peer: id})
	h.mu.Unlock()
	return id
}

func (h *RelayHost) writePump(id PeerID, conn *relayConn) {
	for payload := range conn.send {
		conn.ws.SetWriteDeadline(time.Now().Add(relayWriteWait))
		if err := conn.ws.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			h.dropPeer(id)
			return
		}
	}
}

func (h *RelayHost) readPump(id PeerID, conn *relayConn) {
	conn.ws.SetReadDeadline(time.Now().Add(relayPongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(relayPongWait))
		return nil
	})
	for {
		_, payload, err := conn.ws.ReadMessage()
		if err != nil {
			h.dropPeer(id)
			return
		}
		h.mu.Lock()
		h.pushEventLocked(Event{Kind: EventReceived, Peer: id, Packet: payload})
		h.mu.Unlock()
	}
}

func (h *RelayHost) dropPeer(id PeerID) {
	h.mu.Lock()
	conn, ok := h.peers[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, id)
	playerID := conn.playerID
	close(conn.send)
	h.pushEventLocked(Event{Kind: EventDisconnected, Peer: id, PlayerID: playerID})
	h.mu.Unlock()
}

// PeerCount returns the number of currently connected peers.
func (h *RelayHost) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// PeerPlayerID returns the player id assigned to peer, if any.
func (h *RelayHost) PeerPlayerID(peer PeerID) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[peer]
	if !ok || !p.hasID {
		return 0, false
	}
	return p.playerID, true
}

// SetPeerPlayerID assigns the match player id a peer represents, and
// flips its status from CONNECTING to CONNECTED (see PeerStatus).
func (h *RelayHost) SetPeerPlayerID(peer PeerID, playerID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.peers[peer]; ok {
		p.playerID = playerID
		p.hasID = true
		p.status = PeerConnected
	}
}

// PeerStatus returns peer's connection lifecycle stage.
func (h *RelayHost) PeerStatus(peer PeerID) (PeerStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[peer]
	if !ok {
		return 0, false
	}
	return p.status, true
}

// IsPeerConnected reports whether peer is currently tracked.
func (h *RelayHost) IsPeerConnected(peer PeerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.peers[peer]
	return ok
}

// DisconnectPeers closes every tracked peer connection.
func (h *RelayHost) DisconnectPeers() error {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[PeerID]*relayConn)
	h.mu.Unlock()
	for _, p := range peers {
		p.ws.Close()
	}
	return nil
}

// PeerConnectionInfo returns peer's identity string, so a lobby host can
// hand it to other peers for direct relay addressing (§4.7 step 3).
func (h *RelayHost) PeerConnectionInfo(peer PeerID) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[peer]
	if !ok {
		return nil, ErrUnknownPeer
	}
	return []byte(p.identity), nil
}

// Send queues payload for delivery to one peer. The websocket write itself
// happens on that peer's writePump goroutine.
func (h *RelayHost) Send(peer PeerID, payload []byte) error {
	h.mu.Lock()
	p, ok := h.peers[peer]
	h.mu.Unlock()
	if !ok {
		return ErrUnknownPeer
	}
	select {
	case p.send <- payload:
		return nil
	default:
		h.dropPeer(peer)
		return ErrUnknownPeer
	}
}

// Broadcast queues payload for delivery to every tracked peer.
func (h *RelayHost) Broadcast(payload []byte) error {
	h.mu.Lock()
	peers := make([]PeerID, 0, len(h.peers))
	for id := range h.peers {
		peers = append(peers, id)
	}
	h.mu.Unlock()

	var firstErr error
	for _, id := range peers {
		if err := h.Send(id, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Flush is a no-op: writes are pumped continuously by each peer's
// writePump goroutine rather than batched.
func (h *RelayHost) Flush() error { return nil }

// Service is a no-op for RelayHost: read/write pumps run on their own
// goroutines rather than being driven by a polling tick.
func (h *RelayHost) Service() {}

func (h *RelayHost) pushEventLocked(e Event) {
	h.events = append(h.events, e)
}

// Poll drains accumulated events.
func (h *RelayHost) Poll() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := h.events
	h.events = nil
	return events
}

package lobby

import (
	"sync"

	"goldrush/internal/host"
)

// fakeNetwork routes Connect calls between fakeHost instances registered
// under a name, standing in for a real transport in tests: the coordinator
// never knows the difference, since it only ever calls the host.Host
// interface.
type fakeNetwork struct {
	mu    sync.Mutex
	hosts map[string]*fakeHost
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{hosts: make(map[string]*fakeHost)}
}

type fakePeer struct {
	remote   *fakeHost
	remoteID host.PeerID
	playerID int
	hasID    bool
	status   host.PeerStatus
}

// fakeHost is a minimal in-memory host.Host: Send/Broadcast deliver
// synchronously into the remote's event queue, so tests never need a real
// socket or a Service() poll loop to make progress.
type fakeHost struct {
	mu sync.Mutex

	net  *fakeNetwork
	name string

	peers    map[host.PeerID]*fakePeer
	nextPeer host.PeerID

	events []host.Event
}

func newFakeHost(net *fakeNetwork, name string) *fakeHost {
	return &fakeHost{net: net, name: name, peers: make(map[host.PeerID]*fakePeer), nextPeer: 1}
}

func (h *fakeHost) OpenLobby(name string, _ host.Privacy) error {
	h.net.mu.Lock()
	defer h.net.mu.Unlock()
	h.net.hosts[h.name] = h
	return nil
}

func (h *fakeHost) CloseLobby() error {
	h.net.mu.Lock()
	delete(h.net.hosts, h.name)
	h.net.mu.Unlock()
	return nil
}

func (h *fakeHost) Connect(connectionInfo []byte) error {
	remoteName := string(connectionInfo)
	h.net.mu.Lock()
	remote, ok := h.net.hosts[remoteName]
	h.net.mu.Unlock()
	if !ok {
		return host.ErrConnectFailed
	}

	h.mu.Lock()
	localID := h.nextPeer
	h.nextPeer++
	h.peers[localID] = &fakePeer{remote: remote, status: host.PeerConnecting}
	h.mu.Unlock()

	remote.mu.Lock()
	remoteID := remote.nextPeer
	remote.nextPeer++
	remote.peers[remoteID] = &fakePeer{remote: h, status: host.PeerConnecting}
	remote.mu.Unlock()

	h.mu.Lock()
	h.peers[localID].remoteID = remoteID
	h.mu.Unlock()
	remote.mu.Lock()
	remote.peers[remoteID].remoteID = localID
	remote.mu.Unlock()

	h.pushEvent(host.Event{Kind: host.EventConnected, Peer: localID})
	remote.pushEvent(host.Event{Kind: host.EventConnected, Peer: remoteID})
	return nil
}

func (h *fakeHost) pushEvent(e host.Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *fakeHost) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *fakeHost) PeerPlayerID(peer host.PeerID) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[peer]
	if !ok || !p.hasID {
		return 0, false
	}
	return p.playerID, true
}

func (h *fakeHost) SetPeerPlayerID(peer host.PeerID, playerID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.peers[peer]; ok {
		p.playerID = playerID
		p.hasID = true
		p.status = host.PeerConnected
	}
}

func (h *fakeHost) PeerStatus(peer host.PeerID) (host.PeerStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[peer]
	if !ok {
		return 0, false
	}
	return p.status, true
}

func (h *fakeHost) IsPeerConnected(peer host.PeerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.peers[peer]
	return ok
}

func (h *fakeHost) DisconnectPeers() error {
	h.mu.Lock()
	h.peers = make(map[host.PeerID]*fakePeer)
	h.mu.Unlock()
	return nil
}

func (h *fakeHost) PeerConnectionInfo(peer host.PeerID) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[peer]
	if !ok {
		return nil, host.ErrUnknownPeer
	}
	return []byte(p.remote.name), nil
}

func (h *fakeHost) Send(peer host.PeerID, payload []byte) error {
	h.mu.Lock()
	p, ok := h.peers[peer]
	h.mu.Unlock()
	if !ok {
		return host.ErrUnknownPeer
	}
	cp := append([]byte(nil), payload...)
	p.remote.pushEvent(host.Event{Kind: host.EventReceived, Peer: p.remoteID, Packet: cp})
	return nil
}

func (h *fakeHost) Broadcast(payload []byte) error {
	h.mu.Lock()
	peers := make([]host.PeerID, 0, len(h.peers))
	for id := range h.peers {
		peers = append(peers, id)
	}
	h.mu.Unlock()
	for _, id := range peers {
		h.Send(id, payload)
	}
	return nil
}

func (h *fakeHost) Flush() error { return nil }
func (h *fakeHost) Service()     {}

func (h *fakeHost) Poll() []host.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := h.events
	h.events = nil
	return events
}

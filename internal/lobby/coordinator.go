// Package lobby implements the handshake, ready flags, match-load
// broadcast, and turn barrier described in §4.7: everything a peer needs
// above the raw Host transport (§4.6) and below match simulation (§4.4).
// Coordinator drives a host.Host; it never touches a socket directly.
package lobby

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
	"github.com/zyedidia/generic/mapset"

	"goldrush/internal/fixed"
	"goldrush/internal/host"
	"goldrush/internal/inputplane"
	"goldrush/internal/logx"
	"goldrush/internal/match"
	"goldrush/internal/replay"
	"goldrush/internal/worldmap"
)

type lobbyState int

const (
	stateLobby lobbyState = iota
	stateLoading
	stateRunning
)

// Config carries the ambient tunables internal/config loads.
type Config struct {
	AppVersion string
	LobbyName  string

	TurnDuration        int
	DisconnectThreshold int
}

// MatchSummary is handed to OnMatchEnd when a match concludes, so a caller
// can write it to internal/matchlog without this package depending on it.
type MatchSummary struct {
	SessionID   string
	Seed        int32
	MapSize     worldmap.MapSize
	PlayerCount int
	FinalTurn   uint32
	Checksum    uint32
}

// Coordinator is the lockstep coordinator (C7): it owns the lobby roster,
// the handshake state machine, the turn barrier, and (once a match is
// loaded) the match.State, replay writer, and per-turn checksum.
type Coordinator struct {
	Host      host.Host
	Log       *logx.Logger
	cfg       Config
	SessionID string

	IsServer      bool
	Self          int // -1 until assigned (client, pre-WELCOME)
	localUsername string
	serverKnown   bool
	serverPeer    host.PeerID

	Players      [match.MaxPlayers]Player
	peerToPlayer map[host.PeerID]int
	playerToPeer map[int]host.PeerID

	state           lobbyState
	turnTimer       int
	TurnCounter     uint32
	disconnectTimer int
	disconnected    *mapset.Set[int]

	queues       [match.MaxPlayers]*inputplane.PlayerQueue
	pendingLocal []inputplane.Input

	Match   *match.State
	seed    int32
	mapSize worldmap.MapSize
	noise   worldmap.Noise

	Replay      *replay.Writer
	OnMatchEnd  func(MatchSummary)
	selfTestSim bool // GOLD_SIMD_CHECKSUM_TEST

	events []Event
}

func newCoordinator(h host.Host, cfg Config) *Coordinator {
	if cfg.TurnDuration <= 0 {
		cfg.TurnDuration = 4
	}
	if cfg.DisconnectThreshold <= 0 {
		cfg.DisconnectThreshold = 30
	}
	c := &Coordinator{
		Host:         h,
		Log:          logx.Default,
		cfg:          cfg,
		SessionID:    uuid.NewString(),
		Self:         -1,
		peerToPlayer: make(map[host.PeerID]int),
		playerToPeer: make(map[int]host.PeerID),
		disconnected: mapset.New[int](),
		mapSize:      worldmap.MapSmall,
	}
	for i := range c.queues {
		c.queues[i] = inputplane.NewPlayerQueue()
	}
	if _, ok := os.LookupEnv("GOLD_SIMD_CHECKSUM_TEST"); ok {
		c.selfTestSim = true
	}
	return c
}

// NewServer opens a lobby and seats the local player at slot 0 as host.
func NewServer(h host.Host, cfg Config, username string, privacy host.Privacy) (*Coordinator, error) {
	if err := h.OpenLobby(cfg.LobbyName, privacy); err != nil {
		return nil, err
	}
	c := newCoordinator(h, cfg)
	c.IsServer = true
	c.Self = 0
	c.Players[0] = Player{Status: PlayerHost, Name: username, IsSelf: true}
	c.Log.Info("lobby %q opened, session %s", cfg.LobbyName, c.SessionID)
	return c, nil
}

// NewClient builds a coordinator that will join a lobby once Connect is
// called against the server's connection info.
func NewClient(h host.Host, cfg Config, username string) *Coordinator {
	c := newCoordinator(h, cfg)
	c.localUsername = username
	return c
}

// Connect dials connectionInfo (opaque per-backend bytes). The first call
// (before WELCOME) is assumed to be dialing the server, per §4.7 step 1;
// later calls (dialing a newcomer after NEW_PLAYER) are not.
func (c *Coordinator) Connect(connectionInfo []byte) error {
	return c.Host.Connect(connectionInfo)
}

// QueueInput appends a locally generated input to the pending list the
// next turn barrier flush will broadcast (§5 step 3, out-of-scope shell
// input feeding into C7).
func (c *Coordinator) QueueInput(in inputplane.Input) {
	c.pendingLocal = append(c.pendingLocal, in)
}

// ReadyUp marks the local player ready and broadcasts it.
func (c *Coordinator) ReadyUp() {
	if c.Self < 0 {
		return
	}
	c.Players[c.Self].Status = PlayerReady
	c.Host.Broadcast(encodeEmpty(MsgReady))
	c.maybeStartMatch()
}

// NotReady marks the local player not-ready and broadcasts it.
func (c *Coordinator) NotReady() {
	if c.Self < 0 {
		return
	}
	c.Players[c.Self].Status = PlayerNotReady
	c.Host.Broadcast(encodeEmpty(MsgNotReady))
}

// SetColor changes the local player's recolor id.
func (c *Coordinator) SetColor(recolorID int) {
	if c.Self < 0 {
		return
	}
	c.Players[c.Self].RecolorID = recolorID
	c.Host.Broadcast(encodeColor(colorMsg{RecolorID: uint8(recolorID)}))
}

// SetTeam changes the local player's team.
func (c *Coordinator) SetTeam(team int) {
	if c.Self < 0 {
		return
	}
	c.Players[c.Self].Team = team
	c.Host.Broadcast(encodeTeam(teamMsg{Team: uint8(team)}))
}

// SendChat broadcasts a chat message and enqueues a local Event for it,
// matching how every other peer observes their own chat (§4.7 step 5).
func (c *Coordinator) SendChat(text string) {
	if len(text) > chatLen {
		text = text[:chatLen]
	}
	c.Host.Broadcast(encodeChat(chatMsg{Text: text}))
	if c.Replay != nil {
		c.Replay.AppendChat(c.TurnCounter, uint8(maxInt(c.Self, 0)), text)
	}
	c.pushEvent(Event{Kind: EventChat, PlayerID: c.Self, Text: text})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Service drains the host's event queue and advances the handshake/lobby
// state machine (§5 step 1-2).
func (c *Coordinator) Service() {
	c.Host.Service()
	for _, e := range c.Host.Poll() {
		c.handleHostEvent(e)
	}
}

func (c *Coordinator) handleHostEvent(e host.Event) {
	switch e.Kind {
	case host.EventLobbyCreateFailed:
		c.Log.Error("lobby create failed")
	case host.EventConnected:
		c.handlePeerConnected(e.Peer)
	case host.EventDisconnected:
		c.handlePeerDisconnected(e.Peer, e.PlayerID)
	case host.EventReceived:
		if err := c.handlePacket(e.Peer, e.Packet); err != nil {
			c.Log.Warn("dropped malformed packet from peer %d: %v", e.Peer, err)
		}
	}
}

func (c *Coordinator) handlePeerConnected(peer host.PeerID) {
	if !c.IsServer && !c.serverKnown {
		c.serverKnown = true
		c.serverPeer = peer
		c.Host.Send(peer, encodeGreetServer(greetServerMsg{Username: c.localUsername, AppVersion: c.cfg.AppVersion}))
		return
	}
	// A connection to some other peer (server accepting an inbound client,
	// or a client dialing a newcomer after NEW_PLAYER): if we already have
	// an assigned slot, introduce ourselves directly, per §4.7 step 3's
	// "each existing client sends GREET...directly to the newcomer."
	if c.Self >= 0 {
		c.Host.Send(peer, encodeGreet(greetMsg{PlayerID: uint8(c.Self), State: c.Players[c.Self].wireState()}))
	}
}

func (c *Coordinator) handlePeerDisconnected(peer host.PeerID, playerID int) {
	id, ok := c.peerToPlayer[peer]
	if !ok {
		id = playerID
	}
	if id < 0 || id >= match.MaxPlayers || c.Players[id].Status == PlayerNone {
		return
	}
	c.disconnected.Put(id)
	c.Players[id].Status = PlayerDisconnected
	delete(c.peerToPlayer, peer)
	delete(c.playerToPeer, id)
	c.Log.Warn("player %d disconnected", id)
	c.pushEvent(Event{Kind: EventPlayerDisconnected, PlayerID: id})
}

func (c *Coordinator) handlePacket(peer host.PeerID, packet []byte) error {
	msgType, err := peekMsgType(packet)
	if err != nil {
		return err
	}

	switch msgType {
	case MsgGreetServer:
		return c.handleGreetServer(peer, packet)
	case MsgInvalidVersion:
		c.Log.Error("rejected: invalid app version")
		c.pushEvent(Event{Kind: EventInvalidVersion})
		c.Host.DisconnectPeers()
	case MsgGameAlreadyStarted:
		c.Log.Error("rejected: game already started")
		c.pushEvent(Event{Kind: EventGameAlreadyStarted})
		c.Host.DisconnectPeers()
	case MsgWelcome:
		return c.handleWelcome(peer, packet)
	case MsgNewPlayer:
		return c.handleNewPlayer(packet)
	case MsgGreet:
		return c.handleGreet(peer, packet)
	case MsgReady, MsgNotReady:
		return c.handleReadyState(peer, msgType == MsgReady)
	case MsgColor:
		return c.handleColor(peer, packet)
	case MsgTeam:
		return c.handleTeam(peer, packet)
	case MsgMatchSetting:
		_, err := decodeMatchSetting(packet)
		return err
	case MsgChat:
		return c.handleChat(peer, packet)
	case MsgMatchLoad:
		return c.handleMatchLoad(packet)
	case MsgInput:
		return c.handleInputPacket(peer, packet)
	default:
		return fmt.Errorf("lobby: unknown message type %d", msgType)
	}
	return nil
}

func (c *Coordinator) handleGreetServer(peer host.PeerID, packet []byte) error {
	if !c.IsServer {
		return nil
	}
	msg, err := decodeGreetServer(packet)
	if err != nil {
		return err
	}
	if msg.AppVersion != c.cfg.AppVersion {
		c.Host.Send(peer, encodeEmpty(MsgInvalidVersion))
		return nil
	}
	if c.state != stateLobby {
		c.Host.Send(peer, encodeEmpty(MsgGameAlreadyStarted))
		return nil
	}

	id, ok := c.lowestFreeSlot()
	if !ok {
		c.Host.Send(peer, encodeEmpty(MsgGameAlreadyStarted))
		return nil
	}

	recolor := c.lowestFreeRecolor()
	team := c.smallerTeam()
	c.Players[id] = Player{Status: PlayerNotReady, Name: msg.Username, Team: team, RecolorID: recolor, Peer: peer}
	c.peerToPlayer[peer] = id
	c.playerToPeer[id] = peer
	c.Host.SetPeerPlayerID(peer, id)

	host0 := c.Players[0]
	c.Host.Send(peer, encodeWelcome(welcomeMsg{
		PlayerID:        uint8(id),
		RecolorID:       uint8(recolor),
		Team:            uint8(team),
		ServerRecolorID: uint8(host0.RecolorID),
		ServerTeam:      uint8(host0.Team),
		ServerUsername:  host0.Name,
		LobbyName:       c.cfg.LobbyName,
	}))

	info, err := c.Host.PeerConnectionInfo(peer)
	if err == nil {
		for otherID, otherPeer := range c.playerToPeer {
			if otherID == id {
				continue
			}
			c.Host.Send(otherPeer, encodeNewPlayer(newPlayerMsg{ConnectionInfo: info}))
		}
	}

	c.Log.Info("player %q joined as slot %d", msg.Username, id)
	c.pushEvent(Event{Kind: EventPlayerJoined, PlayerID: id, Text: msg.Username})
	return nil
}

func (c *Coordinator) handleWelcome(peer host.PeerID, packet []byte) error {
	msg, err := decodeWelcome(packet)
	if err != nil {
		return err
	}
	c.Self = int(msg.PlayerID)
	c.Players[c.Self] = Player{Status: PlayerNotReady, Name: c.localUsername, Team: int(msg.Team), RecolorID: int(msg.RecolorID), IsSelf: true}
	c.Players[0] = Player{Status: PlayerHost, Name: msg.ServerUsername, Team: int(msg.ServerTeam), RecolorID: int(msg.ServerRecolorID), Peer: peer}
	c.cfg.LobbyName = msg.LobbyName
	c.peerToPlayer[peer] = 0
	c.playerToPeer[0] = peer
	c.Host.SetPeerPlayerID(peer, 0)
	c.Log.Info("joined lobby %q as slot %d", msg.LobbyName, c.Self)
	c.pushEvent(Event{Kind: EventPlayerJoined, PlayerID: c.Self})
	return nil
}

func (c *Coordinator) handleNewPlayer(packet []byte) error {
	msg, err := decodeNewPlayer(packet)
	if err != nil {
		return err
	}
	return c.Host.Connect(msg.ConnectionInfo)
}

func (c *Coordinator) handleGreet(peer host.PeerID, packet []byte) error {
	msg, err := decodeGreet(packet)
	if err != nil {
		return err
	}
	id := int(msg.PlayerID)
	if id < 0 || id >= match.MaxPlayers {
		return fmt.Errorf("lobby: GREET for out-of-range player id %d", id)
	}
	p := playerFromWire(msg.State)
	p.Peer = peer
	c.Players[id] = p
	c.peerToPlayer[peer] = id
	c.playerToPeer[id] = peer
	c.Host.SetPeerPlayerID(peer, id)
	c.pushEvent(Event{Kind: EventPlayerJoined, PlayerID: id, Text: p.Name})
	return nil
}

func (c *Coordinator) handleReadyState(peer host.PeerID, ready bool) error {
	id, ok := c.peerToPlayer[peer]
	if !ok {
		return fmt.Errorf("lobby: ready/not-ready from unknown peer")
	}
	if ready {
		c.Players[id].Status = PlayerReady
	} else {
		c.Players[id].Status = PlayerNotReady
	}
	// READY/NOT_READY is the same opcode before and after match load (§4.7):
	// in the lobby it gates whether MATCH_LOAD fires, after loading it gates
	// whether the turn barrier starts running.
	switch c.state {
	case stateLobby:
		c.maybeStartMatch()
	case stateLoading:
		c.maybeBeginRunning()
	}
	return nil
}

func (c *Coordinator) handleColor(peer host.PeerID, packet []byte) error {
	msg, err := decodeColor(packet)
	if err != nil {
		return err
	}
	id, ok := c.peerToPlayer[peer]
	if !ok {
		return fmt.Errorf("lobby: COLOR from unknown peer")
	}
	c.Players[id].RecolorID = int(msg.RecolorID)
	return nil
}

func (c *Coordinator) handleTeam(peer host.PeerID, packet []byte) error {
	msg, err := decodeTeam(packet)
	if err != nil {
		return err
	}
	id, ok := c.peerToPlayer[peer]
	if !ok {
		return fmt.Errorf("lobby: TEAM from unknown peer")
	}
	c.Players[id].Team = int(msg.Team)
	return nil
}

func (c *Coordinator) handleChat(peer host.PeerID, packet []byte) error {
	msg, err := decodeChat(packet)
	if err != nil {
		return err
	}
	id, ok := c.peerToPlayer[peer]
	if !ok {
		id = -1
	}
	if c.Replay != nil {
		c.Replay.AppendChat(c.TurnCounter, uint8(maxInt(id, 0)), msg.Text)
	}
	c.pushEvent(Event{Kind: EventChat, PlayerID: id, Text: msg.Text})
	return nil
}

func (c *Coordinator) handleInputPacket(peer host.PeerID, packet []byte) error {
	id, ok := c.peerToPlayer[peer]
	if !ok {
		return fmt.Errorf("lobby: INPUT from unknown peer")
	}
	inputs, err := inputplane.DecodeAll(packet, 1)
	if err != nil {
		return err
	}
	c.queues[id].Push(inputs)
	return nil
}

// lowestFreeSlot returns the lowest index i where Players[i].Status ==
// PlayerNone, per §4.7 step 2's "assigns lowest free player_id."
func (c *Coordinator) lowestFreeSlot() (int, bool) {
	for i := 0; i < match.MaxPlayers; i++ {
		if c.Players[i].Status == PlayerNone {
			return i, true
		}
	}
	return 0, false
}

func (c *Coordinator) lowestFreeRecolor() int {
	used := make(map[int]bool)
	for i := 0; i < match.MaxPlayers; i++ {
		if c.Players[i].Status != PlayerNone {
			used[c.Players[i].RecolorID] = true
		}
	}
	for r := 0; r < match.MaxPlayers; r++ {
		if !used[r] {
			return r
		}
	}
	return 0
}

// smallerTeam returns the team a new player should join, per §4.7 step 2's
// "and the smaller team": the lowest-numbered team among 0..MaxPlayers-1
// with the fewest players.
func (c *Coordinator) smallerTeam() int {
	counts := make(map[int]int)
	for i := 0; i < match.MaxPlayers; i++ {
		if c.Players[i].Status != PlayerNone {
			counts[c.Players[i].Team]++
		}
	}
	best, bestCount := 0, math.MaxInt32
	for team := 0; team < match.MaxPlayers; team++ {
		if counts[team] < bestCount {
			best, bestCount = team, counts[team]
		}
	}
	return best
}

func (c *Coordinator) activePlayerCount() int {
	n := 0
	for i := 0; i < match.MaxPlayers; i++ {
		if c.Players[i].Status != PlayerNone {
			n++
		}
	}
	return n
}

func (c *Coordinator) allReady() bool {
	any := false
	for i := 0; i < match.MaxPlayers; i++ {
		if c.Players[i].Status == PlayerNone {
			continue
		}
		any = true
		if c.Players[i].Status != PlayerReady && c.Players[i].Status != PlayerHost {
			return false
		}
	}
	return any
}

// maybeStartMatch picks a seed and noise and broadcasts MATCH_LOAD once
// every player is ready, per §4.7's "Match load." Only the server decides
// this, so every peer ends up with the same seed.
func (c *Coordinator) maybeStartMatch() {
	if !c.IsServer || c.state != stateLobby || !c.allReady() {
		return
	}
	c.state = stateLoading

	seed := c.pickSeed()
	noise := generateNoise(c.mapSize, fixed.NewSimRNG(seed))
	c.beginLoad(seed, noise)

	compressed := compressNoise(noise)
	c.Host.Broadcast(encodeMatchLoad(matchLoadMsg{
		Seed: seed, Width: int32(noise.Width), Height: int32(noise.Height), NoiseCompressed: compressed,
	}))
}

func (c *Coordinator) handleMatchLoad(packet []byte) error {
	msg, err := decodeMatchLoad(packet)
	if err != nil {
		return err
	}
	noise, err := decompressNoise(msg.NoiseCompressed, int(msg.Width), int(msg.Height))
	if err != nil {
		return err
	}
	c.state = stateLoading
	c.beginLoad(msg.Seed, noise)
	return nil
}

// beginLoad is the common client/server tail of match load: every peer
// flips to NOT_READY and begins initializing (§4.7), building match.State
// identically. It opens no replay writer; the caller passes one to
// FinishLoading.
func (c *Coordinator) beginLoad(seed int32, noise worldmap.Noise) {
	c.seed = seed
	c.noise = noise
	for i := 0; i < match.MaxPlayers; i++ {
		if c.Players[i].Status != PlayerNone {
			c.Players[i].Status = PlayerNotReady
		}
	}
	c.Match = match.MatchInit(seed, c.mapSize, noise, c.buildMatchPlayers())
	c.pushEvent(Event{Kind: EventMatchLoading})
}

// FinishLoading is called by the caller once local initialization (asset
// loading, camera centering — out of scope) completes: it records
// replayWriter as the replay log (nil records nothing), sends READY and,
// once every peer's READY has arrived, flips the coordinator into the
// running state.
func (c *Coordinator) FinishLoading(replayWriter *replay.Writer) {
	c.Replay = replayWriter
	if c.Self >= 0 {
		c.Players[c.Self].Status = PlayerReady
	}
	c.Host.Broadcast(encodeEmpty(MsgReady))
	c.maybeBeginRunning()
}

func (c *Coordinator) maybeBeginRunning() {
	if c.state != stateLoading || !c.allReady() {
		return
	}
	c.state = stateRunning
	c.turnTimer = 0
	c.pushEvent(Event{Kind: EventMatchStarted})
}

// MatchInfo returns the seed, map size, and noise buffer the current (or
// most recently loaded) match was generated from, so a caller can open a
// replay header without this package depending on the replay format.
func (c *Coordinator) MatchInfo() (seed int32, mapSize worldmap.MapSize, noise worldmap.Noise) {
	return c.seed, c.mapSize, c.noise
}

func (c *Coordinator) buildMatchPlayers() [match.MaxPlayers]match.Player {
	var out [match.MaxPlayers]match.Player
	for i := 0; i < match.MaxPlayers; i++ {
		out[i] = match.NewPlayer()
		if c.Players[i].Status == PlayerNone {
			continue
		}
		out[i].Active = true
		out[i].Name = c.Players[i].Name
		out[i].Team = c.Players[i].Team
		out[i].RecolorID = c.Players[i].RecolorID
	}
	return out
}

// Tick runs one pass of §5's turn barrier (step 4) and simulation step
// (step 5): if the turn timer has reached zero and every active,
// non-disconnected player's input head is populated, it flushes the local
// pending list, broadcasts one INPUT packet, advances the turn counter,
// applies every player's head turn, and runs match.Update. While the turn
// timer is above zero it only decrements the timer; once the timer is zero
// and some input head is missing, it counts the stall in disconnectTimer
// and escalates stalled players when that reaches DisconnectThreshold,
// matching original_source's match_ui_update turn loop.
func (c *Coordinator) Tick() {
	if c.state != stateRunning {
		return
	}
	if c.turnTimer > 0 {
		c.turnTimer--
		return
	}
	if !c.allInputHeadsReady() {
		c.disconnectTimer++
		if c.disconnectTimer >= c.cfg.DisconnectThreshold {
			c.escalateStalledPlayers()
		}
		return
	}
	c.disconnectTimer = 0
	c.turnTimer = c.cfg.TurnDuration
	c.TurnCounter++

	for id := 0; id < match.MaxPlayers; id++ {
		if c.Players[id].Status == PlayerNone || c.disconnected.Has(id) {
			continue
		}
		inputs := c.queues[id].Pop()
		for _, in := range inputs {
			c.Match.HandleInput(id, in)
		}
		if c.Replay != nil {
			var buf []byte
			for _, in := range inputs {
				buf = inputplane.Encode(buf, in)
			}
			c.Replay.AppendInput(c.TurnCounter, uint8(id), buf)
		}
	}

	c.flushLocalInput()
	c.Match.Update()

	if c.selfTestSim {
		scalar, vectorized, ok := c.Match.ChecksumSelfTest()
		if !ok {
			c.Log.Desync("adler32 scalar/vectorized mismatch: %d vs %d", scalar, vectorized)
			c.pushEvent(Event{Kind: EventDesync, Turn: c.TurnCounter})
		}
	}
	c.pushEvent(Event{Kind: EventTurnAdvanced, Turn: c.TurnCounter})
}

func (c *Coordinator) flushLocalInput() {
	if c.Self < 0 {
		return
	}
	if len(c.pendingLocal) == 0 {
		c.pendingLocal = []inputplane.Input{inputplane.NoneInput}
	}
	var out []byte
	for _, in := range c.pendingLocal {
		out = inputplane.Encode(out, in)
	}
	c.queues[c.Self].Push(c.pendingLocal)
	c.Host.Broadcast(encodeInputPacket(out))
	c.pendingLocal = nil
}

func (c *Coordinator) allInputHeadsReady() bool {
	for id := 0; id < match.MaxPlayers; id++ {
		if c.Players[id].Status == PlayerNone || c.disconnected.Has(id) {
			continue
		}
		if !c.queues[id].HeadReady() {
			return false
		}
	}
	return true
}

// escalateStalledPlayers marks every player whose input head has stalled
// past the disconnect threshold as disconnected, per §5/§7: "the input
// barrier stalls; after a threshold, the missing player is marked
// DISCONNECTED and future turns proceed without their inputs."
func (c *Coordinator) escalateStalledPlayers() {
	for id := 0; id < match.MaxPlayers; id++ {
		if c.Players[id].Status == PlayerNone || c.disconnected.Has(id) {
			continue
		}
		if !c.queues[id].HeadReady() {
			c.disconnected.Put(id)
			c.Players[id].Status = PlayerDisconnected
			c.Log.Warn("player %d marked disconnected: input barrier stalled", id)
			c.pushEvent(Event{Kind: EventPlayerDisconnected, PlayerID: id})
		}
	}
	c.disconnectTimer = 0
}

// LeaveMatch implements §5's cancellation policy: gentle disconnect for
// peers already CONNECTED, forced for peers still CONNECTING or
// DISCONNECTING, closes the replay file, and drops pending input. The
// caller is responsible for transitioning the out-of-scope shell mode.
func (c *Coordinator) LeaveMatch() error {
	c.pendingLocal = nil
	for id, peer := range c.playerToPeer {
		status, ok := c.Host.PeerStatus(peer)
		if ok && status == host.PeerConnected {
			c.Log.Info("gentle disconnect of player %d", id)
		} else {
			c.Log.Info("forced disconnect of player %d", id)
		}
	}
	if err := c.Host.DisconnectPeers(); err != nil {
		return err
	}

	var replayErr error
	if c.Replay != nil {
		replayErr = c.Replay.Close()
		c.Replay = nil
	}

	if c.Match != nil && c.OnMatchEnd != nil {
		c.OnMatchEnd(MatchSummary{
			SessionID:   c.SessionID,
			Seed:        c.seed,
			MapSize:     c.mapSize,
			PlayerCount: c.activePlayerCount(),
			FinalTurn:   c.TurnCounter,
			Checksum:    c.Match.Checksum(),
		})
	}

	c.state = stateLobby
	return replayErr
}

// pickSeed chooses the simulation seed, honoring GOLD_RAND_SEED if set
// (§6's "GOLD_RAND_SEED overrides the random seed"), else drawing from a
// cryptographic source: the seed itself is not part of the determinism
// contract, only its consistent use across peers once chosen is.
func (c *Coordinator) pickSeed() int32 {
	if raw, ok := os.LookupEnv("GOLD_RAND_SEED"); ok {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
			return int32(v)
		}
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return int32(binary.LittleEndian.Uint32(buf[:]))
}

// generateNoise fills a noise buffer for size using rng, so the server's
// choice of seed alone determines the map terrain before the raw buffer is
// shipped to every peer over MATCH_LOAD (§4.2's determinism note: noise is
// serialized explicitly rather than assumed identical across peers).
func generateNoise(size worldmap.MapSize, rng *fixed.SimRNG) worldmap.Noise {
	w, h := size.Dimensions()
	values := make([]byte, w*h)
	for i := range values {
		values[i] = byte(rng.Intn(256))
	}
	return worldmap.Noise{Width: w, Height: h, Values: values}
}

// compressNoise LZ4-compresses a noise buffer for the MATCH_LOAD wire
// message, the same way internal/replay compresses it for the header, so
// a replay's stored blob is never larger than what peers exchanged live.
func compressNoise(n worldmap.Noise) []byte {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	zw.Write(n.Values)
	zw.Close()
	return buf.Bytes()
}

func decompressNoise(compressed []byte, width, height int) (worldmap.Noise, error) {
	zr := lz4.NewReader(bytes.NewReader(compressed))
	values := make([]byte, width*height)
	if _, err := io.ReadFull(zr, values); err != nil {
		return worldmap.Noise{}, fmt.Errorf("lobby: decompress noise: %w", err)
	}
	return worldmap.Noise{Width: width, Height: height, Values: values}, nil
}

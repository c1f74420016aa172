package lobby

import (
	"testing"

	"goldrush/internal/host"
	"goldrush/internal/inputplane"
)

func testConfig() Config {
	return Config{AppVersion: "1.0.0", LobbyName: "Test Lobby", TurnDuration: 2, DisconnectThreshold: 3}
}

func pump(rounds int, cs ...*Coordinator) {
	for i := 0; i < rounds; i++ {
		for _, c := range cs {
			c.Service()
		}
	}
}

func newPair(t *testing.T) (server, client *Coordinator) {
	t.Helper()
	net := newFakeNetwork()
	serverHost := newFakeHost(net, "server")
	clientHost := newFakeHost(net, "client")

	var err error
	server, err = NewServer(serverHost, testConfig(), "Host", host.PrivacyPublic)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	client = NewClient(clientHost, testConfig(), "Guest")

	if err := client.Connect([]byte("server")); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	pump(4, server, client)
	return server, client
}

func TestHandshakeAssignsPlayerSlots(t *testing.T) {
	server, client := newPair(t)

	if server.Players[1].Status == PlayerNone {
		t.Fatalf("server never registered the joining client")
	}
	if client.Self != 1 {
		t.Fatalf("client expected slot 1, got %d", client.Self)
	}
	if client.Players[0].Name != "Host" {
		t.Fatalf("client never learned the server's username, got %q", client.Players[0].Name)
	}
	if server.Players[1].Name != "Guest" {
		t.Fatalf("server recorded wrong username for joining client: %q", server.Players[1].Name)
	}
}

func TestLobbyFullRejectsExtraGreet(t *testing.T) {
	net := newFakeNetwork()
	serverHost := newFakeHost(net, "server")
	server, err := NewServer(serverHost, testConfig(), "Host", host.PrivacyPublic)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	for i := 1; i < 8; i++ {
		server.Players[i] = Player{Status: PlayerNotReady, Name: "filler"}
	}

	clientHost := newFakeHost(net, "client")
	client := NewClient(clientHost, testConfig(), "Guest")
	if err := client.Connect([]byte("server")); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	pump(4, server, client)

	if client.Self >= 0 {
		t.Fatalf("expected rejected client to never receive a slot, got %d", client.Self)
	}
}

func TestInvalidVersionRejected(t *testing.T) {
	net := newFakeNetwork()
	serverHost := newFakeHost(net, "server")
	server, err := NewServer(serverHost, testConfig(), "Host", host.PrivacyPublic)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	clientHost := newFakeHost(net, "client")
	badCfg := testConfig()
	badCfg.AppVersion = "9.9.9"
	client := NewClient(clientHost, badCfg, "Guest")
	if err := client.Connect([]byte("server")); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	pump(4, server, client)

	if client.Self >= 0 {
		t.Fatalf("expected version-mismatched client to never receive a slot")
	}
}

func TestReadyUpTriggersMatchLoad(t *testing.T) {
	server, client := newPair(t)

	server.ReadyUp()
	client.ReadyUp()
	pump(4, server, client)

	if server.Match == nil {
		t.Fatalf("server never loaded a match after both players readied up")
	}
	if client.Match == nil {
		t.Fatalf("client never loaded a match after MATCH_LOAD broadcast")
	}
	if server.seed != client.seed {
		t.Fatalf("server and client disagree on seed: %d vs %d", server.seed, client.seed)
	}
}

func TestTurnBarrierAdvancesOnceBothInputsArrive(t *testing.T) {
	server, client := newPair(t)
	server.ReadyUp()
	client.ReadyUp()
	pump(4, server, client)

	server.FinishLoading(nil)
	client.FinishLoading(nil)
	pump(4, server, client)

	server.QueueInput(inputplane.NoneInput)
	client.QueueInput(inputplane.NoneInput)

	for i := 0; i < testConfig().TurnDuration+2; i++ {
		server.Tick()
		client.Tick()
		pump(2, server, client)
	}

	if server.TurnCounter == 0 {
		t.Fatalf("server never advanced past turn 0")
	}
	if server.TurnCounter != client.TurnCounter {
		t.Fatalf("server and client turn counters diverged: %d vs %d", server.TurnCounter, client.TurnCounter)
	}
	if server.Match.Checksum() != client.Match.Checksum() {
		t.Fatalf("server and client checksums diverged after identical input")
	}
}

func TestDisconnectEscalatesAfterStalledInput(t *testing.T) {
	server, client := newPair(t)
	server.ReadyUp()
	client.ReadyUp()
	pump(4, server, client)
	server.FinishLoading(nil)
	client.FinishLoading(nil)
	pump(4, server, client)

	// Client never queues input again; server should eventually mark it
	// disconnected rather than stalling forever.
	cfg := testConfig()
	iterations := cfg.DisconnectThreshold * (cfg.TurnDuration + 1) * 2
	for i := 0; i < iterations; i++ {
		server.QueueInput(inputplane.NoneInput)
		server.Tick()
		if server.Players[1].Status == PlayerDisconnected {
			break
		}
	}

	if server.Players[1].Status != PlayerDisconnected {
		t.Fatalf("expected stalled player to be marked disconnected, got %v", server.Players[1].Status)
	}
}

func TestChatBroadcastsToPeer(t *testing.T) {
	server, client := newPair(t)

	server.SendChat("hello")
	pump(2, server, client)

	events := client.Poll()
	found := false
	for _, e := range events {
		if e.Kind == EventChat && e.Text == "hello" {
			found = true
		}
	}
	if !found {
		t.Fatalf("client never observed the server's chat message")
	}
}

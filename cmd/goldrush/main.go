// Command goldrush runs a headless lockstep peer: it opens or joins a
// lobby, drives the turn barrier once the match loads, and writes a
// replay and a match-history row when the match ends. Rendering, camera
// control, and real player input are out of scope (§1 Non-goals); the
// shell here is a stdin command line standing in for all three.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"goldrush/internal/config"
	"goldrush/internal/host"
	"goldrush/internal/inputplane"
	"goldrush/internal/lobby"
	"goldrush/internal/logx"
	"goldrush/internal/match"
	"goldrush/internal/matchlog"
	"goldrush/internal/replay"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		serverFlag = flag.Bool("server", false, "open a new lobby instead of joining one")
		connect    = flag.String("connect", "", "connection info of the lobby to join (required unless -server)")
		transport  = flag.String("transport", "lan", "lan or relay")
		username   = flag.String("name", "Player", "display name")
		dbPath     = flag.String("history", "goldrush.db", "path to the match history database")
		replayDir  = flag.String("replay-dir", ".", "directory replay files are written to")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logx.Error("loading config: %v", err)
		os.Exit(1)
	}

	store, err := matchlog.Open(*dbPath)
	if err != nil {
		logx.Error("opening match history: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	h, err := buildHost(*transport, cfg)
	if err != nil {
		logx.Error("building transport: %v", err)
		os.Exit(1)
	}

	lobbyCfg := lobby.Config{
		AppVersion:          cfg.AppVersion,
		LobbyName:           cfg.LobbyName,
		TurnDuration:        cfg.TurnDuration,
		DisconnectThreshold: cfg.DisconnectThreshold,
	}

	var c *lobby.Coordinator
	if *serverFlag {
		c, err = lobby.NewServer(h, lobbyCfg, *username, host.PrivacyPublic)
		if err != nil {
			logx.Error("opening lobby: %v", err)
			os.Exit(1)
		}
	} else {
		if *connect == "" {
			logx.Error("-connect is required when not hosting")
			os.Exit(1)
		}
		c = lobby.NewClient(h, lobbyCfg, *username)
		if err := c.Connect([]byte(*connect)); err != nil {
			logx.Error("connecting: %v", err)
			os.Exit(1)
		}
	}

	c.OnMatchEnd = func(sm lobby.MatchSummary) {
		err := store.Record(matchlog.Summary{
			SessionID:   sm.SessionID,
			Seed:        sm.Seed,
			MapSize:     int(sm.MapSize),
			PlayerCount: sm.PlayerCount,
			FinalTurn:   sm.FinalTurn,
			Checksum:    sm.Checksum,
		})
		if err != nil {
			logx.Error("recording match history: %v", err)
			return
		}
		logx.Info("match %s recorded: %s turns, checksum %08x", sm.SessionID, logx.Count(int64(sm.FinalTurn)), sm.Checksum)
	}

	lines := make(chan string, 16)
	go readShellLines(lines)

	loaded := false
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		c.Service()
		c.Tick()

		for _, e := range c.Poll() {
			handleEvent(c, e)
			if e.Kind == lobby.EventMatchLoading && !loaded {
				loaded = true
				rw, err := openReplay(*replayDir, c)
				if err != nil {
					logx.Warn("opening replay file: %v", err)
				}
				c.FinishLoading(rw)
			}
		}

		select {
		case line := <-lines:
			handleShellLine(c, line)
		default:
		}
	}
}

func buildHost(transport string, cfg config.Config) (host.Host, error) {
	switch transport {
	case "relay":
		return host.NewRelayHost(""), nil
	case "lan", "":
		if cfg.ScannerPort > 0 {
			return host.NewLANHostWithScannerPort(cfg.ScannerPort), nil
		}
		return host.NewLANHost(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

func openReplay(dir string, c *lobby.Coordinator) (*replay.Writer, error) {
	path := fmt.Sprintf("%s/%s.grrp", dir, c.SessionID)
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	var players [match.MaxPlayers]replay.PlayerRecord
	for i, p := range c.Players {
		players[i] = replay.PlayerRecord{
			Status:    uint8(p.Status),
			RecolorID: uint8(p.RecolorID),
			Team:      uint8(p.Team),
			Name:      p.Name,
		}
	}
	seed, mapSize, noise := c.MatchInfo()
	rw, err := replay.Create(f, replay.Header{Seed: seed, MapSize: mapSize, Noise: noise, Players: players})
	if err != nil {
		f.Close()
		return nil, err
	}
	return rw, nil
}

func handleEvent(c *lobby.Coordinator, e lobby.Event) {
	switch e.Kind {
	case lobby.EventPlayerJoined:
		logx.Info("player %d joined (%s)", e.PlayerID, e.Text)
	case lobby.EventPlayerLeft, lobby.EventPlayerDisconnected:
		logx.Warn("player %d disconnected", e.PlayerID)
	case lobby.EventChat:
		logx.Info("chat[%d]: %s", e.PlayerID, e.Text)
	case lobby.EventMatchLoading:
		logx.Info("match loading")
	case lobby.EventMatchStarted:
		logx.Info("match started")
	case lobby.EventTurnAdvanced:
		logx.Info("turn %s", logx.Count(int64(e.Turn)))
	case lobby.EventDesync:
		logx.Desync("checksum mismatch at turn %d", e.Turn)
	case lobby.EventLobbyFull:
		logx.Error("lobby full")
	case lobby.EventInvalidVersion:
		logx.Error("rejected: version mismatch")
	case lobby.EventGameAlreadyStarted:
		logx.Error("rejected: game already in progress")
	}
}

// handleShellLine implements the stdin stand-in for player commands:
// "ready", "notready", or anything else is broadcast as chat.
func handleShellLine(c *lobby.Coordinator, line string) {
	switch strings.TrimSpace(line) {
	case "ready":
		c.ReadyUp()
	case "notready":
		c.NotReady()
	case "":
	default:
		c.SendChat(line)
	}
	c.QueueInput(inputplane.NoneInput)
}

func readShellLines(out chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

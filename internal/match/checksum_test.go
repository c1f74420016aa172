package match

import (
	"testing"

	"goldrush/internal/worldmap"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	noise := worldmap.Noise{Width: 16, Height: 16, Values: make([]byte, 16*16)}
	for i := range noise.Values {
		noise.Values[i] = byte(i * 13 % 256)
	}
	var players [MaxPlayers]Player
	players[0] = NewPlayer()
	players[0].Active = true
	players[0].Team = 0
	players[1] = NewPlayer()
	players[1].Active = true
	players[1].Team = 1
	return MatchInit(42, worldmap.MapSmall, noise, players)
}

func TestChecksumDeterministic(t *testing.T) {
	a := newTestState(t)
	b := newTestState(t)

	if a.Checksum() != b.Checksum() {
		t.Fatalf("identical MatchInit runs produced different checksums: %d vs %d", a.Checksum(), b.Checksum())
	}
}

func TestChecksumChangesOnMutation(t *testing.T) {
	st := newTestState(t)
	before := st.Checksum()

	st.Players[0].Gold += 10
	after := st.Checksum()

	if before == after {
		t.Fatalf("checksum did not change after mutating player gold")
	}
}

func TestChecksumStableAcrossTurnsWithNoInput(t *testing.T) {
	st := newTestState(t)
	c1 := st.Checksum()
	st.Update()
	st.Update()
	c2 := st.Checksum()
	if c1 != c2 {
		t.Fatalf("checksum changed across two no-input ticks: %d vs %d", c1, c2)
	}
}

func TestChecksumExcludesEvents(t *testing.T) {
	st := newTestState(t)
	before := st.Checksum()
	st.pushEvent(Event{Kind: EventStatus, Text: "hello"})
	after := st.Checksum()

	if before != after {
		t.Fatalf("checksum changed after appending a non-checksummed event")
	}
}

package replay

import (
	"bytes"
	"io"
	"testing"

	"goldrush/internal/match"
	"goldrush/internal/worldmap"
)

func sampleHeader() Header {
	var hdr Header
	hdr.Seed = 1234
	hdr.MapSize = worldmap.MapMedium
	hdr.Noise = worldmap.Noise{Width: 4, Height: 4, Values: []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}}
	hdr.Players[0] = PlayerRecord{Status: 1, RecolorID: 2, Team: 0, Name: "host"}
	hdr.Players[1] = PlayerRecord{Status: 3, RecolorID: 0, Team: 1, Name: "challenger"}
	return hdr
}

func TestWriteReadRoundTrip(t *testing.T) {
	hdr := sampleHeader()

	var buf bytes.Buffer
	w, err := Create(&buf, hdr)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.AppendInput(5, 0, []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("AppendInput: %v", err)
	}
	if err := w.AppendChat(7, 1, "gg"); err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	gotHdr, r, err := VerifyAndOpen(buf.Bytes())
	if err != nil {
		t.Fatalf("VerifyAndOpen: %v", err)
	}
	if gotHdr.Seed != hdr.Seed || gotHdr.MapSize != hdr.MapSize {
		t.Fatalf("header mismatch: got %+v", gotHdr)
	}
	if !bytes.Equal(gotHdr.Noise.Values, hdr.Noise.Values) {
		t.Fatalf("noise mismatch: got %v want %v", gotHdr.Noise.Values, hdr.Noise.Values)
	}
	if gotHdr.Players[0].Name != "host" || gotHdr.Players[1].Name != "challenger" {
		t.Fatalf("player roster mismatch: got %+v", gotHdr.Players)
	}

	rec1, err := r.Next()
	if err != nil {
		t.Fatalf("Next (1): %v", err)
	}
	if rec1.Kind != RecordInput || rec1.Turn != 5 || rec1.PlayerID != 0 {
		t.Fatalf("record 1 mismatch: %+v", rec1)
	}
	if !bytes.Equal(rec1.Payload, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("record 1 payload mismatch: %v", rec1.Payload)
	}

	rec2, err := r.Next()
	if err != nil {
		t.Fatalf("Next (2): %v", err)
	}
	if rec2.Kind != RecordChat || rec2.Turn != 7 || string(rec2.Payload) != "gg" {
		t.Fatalf("record 2 mismatch: %+v", rec2)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last record, got %v", err)
	}
}

func TestVerifyAndOpenDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	w, _ := Create(&buf, sampleHeader())
	w.AppendInput(0, 0, []byte{0xAA})
	w.Close()

	data := buf.Bytes()
	data[len(data)/2] ^= 0xFF

	if _, _, err := VerifyAndOpen(data); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestVerifyAndOpenRejectsTruncated(t *testing.T) {
	if _, _, err := VerifyAndOpen([]byte{1, 2, 3}); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	_, _, err := Open(bytes.NewReader([]byte("NOPE!!!!")))
	if err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestMaxPlayersMatchesMatchPackage(t *testing.T) {
	var hdr Header
	if len(hdr.Players) != match.MaxPlayers {
		t.Fatalf("replay.Header.Players has %d slots, match.MaxPlayers is %d", len(hdr.Players), match.MaxPlayers)
	}
}

// Package replay implements the append-only match recording described in
// §4.8: a header capturing everything match_init needs to reproduce a
// match deterministically, followed by a stream of per-turn INPUT and
// CHAT records. Reading a replay back reconstructs the match exactly by
// replaying MatchInit and then each turn's recorded inputs through
// HandleInput, grounded on original_source/gold/src/core/network.h's
// player_t/lobby_t fields for the header's player roster.
package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/pierrec/lz4/v4"
	"goldrush/internal/match"
	"goldrush/internal/worldmap"
	"lukechampine.com/blake3"
)

// Magic is the four-byte signature every replay file begins with.
var Magic = [4]byte{'G', 'R', 'R', 'P'}

// FormatVersion is the replay binary format's version, bumped whenever the
// header or record layout changes incompatibly.
const FormatVersion = 1

const playerNameLen = 36

// RecordKind discriminates a replay record.
type RecordKind uint8

// RecordKind values.
const (
	RecordInput RecordKind = iota
	RecordChat
)

// PlayerRecord is one header roster slot, grounded on player_t.
type PlayerRecord struct {
	Status    uint8
	RecolorID uint8
	Team      uint8
	Name      string
}

// Header captures everything MatchInit needs, plus the player roster.
type Header struct {
	Seed    int32
	MapSize worldmap.MapSize
	Noise   worldmap.Noise
	Players [match.MaxPlayers]PlayerRecord
}

// ErrBadMagic is returned by Open when the file doesn't start with Magic.
var ErrBadMagic = errors.New("replay: bad magic")

// ErrWrongVersion is returned by Open when the file's version doesn't
// match FormatVersion.
var ErrWrongVersion = errors.New("replay: unsupported version")

// Writer appends records to an open replay file and hashes every byte
// written so Close can append a BLAKE3 integrity trailer.
type Writer struct {
	w    io.Writer
	hash hash.Hash
}

// Create writes a replay header to w and returns a Writer ready to accept
// records. w is typically a freshly created *os.File.
func Create(w io.Writer, hdr Header) (*Writer, error) {
	h := blake3.New(32, nil)
	tee := io.MultiWriter(w, h)

	if err := writeHeader(tee, hdr); err != nil {
		return nil, fmt.Errorf("replay: write header: %w", err)
	}
	return &Writer{w: w, hash: h}, nil
}

func writeHeader(w io.Writer, hdr Header) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr.Seed); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(hdr.MapSize)); err != nil {
		return err
	}

	compressed := compressNoise(hdr.Noise)
	if err := binary.Write(w, binary.LittleEndian, uint32(hdr.Noise.Width)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(hdr.Noise.Height)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}

	for _, p := range hdr.Players {
		if err := writePlayerRecord(w, p); err != nil {
			return err
		}
	}
	return nil
}

func writePlayerRecord(w io.Writer, p PlayerRecord) error {
	var nameBuf [playerNameLen]byte
	copy(nameBuf[:], p.Name)
	if _, err := w.Write([]byte{p.Status, p.RecolorID, p.Team}); err != nil {
		return err
	}
	_, err := w.Write(nameBuf[:])
	return err
}

// compressNoise compresses a noise grid's byte plane with LZ4, matching
// the wire compression the lobby uses for MATCH_LOAD so a replay's header
// never carries a larger payload than the broadcast that produced it.
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
		return worldmap.Noise{}, fmt.Errorf("replay: decompress noise: %w", err)
	}
	return worldmap.Noise{Width: width, Height: height, Values: values}, nil
}

// AppendInput writes an INPUT record carrying one turn's already-encoded
// commands for one player.
func (rw *Writer) AppendInput(turn uint32, playerID uint8, encoded []byte) error {
	return rw.appendRecord(RecordInput, turn, playerID, encoded)
}

// AppendChat writes a CHAT record.
func (rw *Writer) AppendChat(turn uint32, playerID uint8, text string) error {
	return rw.appendRecord(RecordChat, turn, playerID, []byte(text))
}

func (rw *Writer) appendRecord(kind RecordKind, turn uint32, playerID uint8, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("replay: record payload too large: %d bytes", len(payload))
	}
	tee := io.MultiWriter(rw.w, rw.hash)
	if _, err := tee.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	if err := binary.Write(tee, binary.LittleEndian, turn); err != nil {
		return err
	}
	if _, err := tee.Write([]byte{playerID}); err != nil {
		return err
	}
	if err := binary.Write(tee, binary.LittleEndian, uint16(len(payload))); err != nil {
		return err
	}
	_, err := tee.Write(payload)
	return err
}

// Close appends a BLAKE3 digest of everything written so far as the
// file's trailer, detecting at-rest truncation or corruption on reopen.
// This is distinct from C9's Adler-32, which detects cross-peer
// simulation divergence turn-by-turn rather than file corruption.
func (rw *Writer) Close() error {
	sum := rw.hash.Sum(nil)
	_, err := rw.w.Write(sum)
	return err
}

// Record is one decoded INPUT or CHAT entry read back from a replay.
type Record struct {
	Kind     RecordKind
	Turn     uint32
	PlayerID uint8
	Payload  []byte
}

// Reader reads a replay file's header and records back.
type Reader struct {
	r io.Reader
}

// trailerLen is the width of the BLAKE3 digest Writer.Close appends.
const trailerLen = 32

// VerifyAndOpen checks data's BLAKE3 trailer against the bytes that
// precede it, then opens the header and record stream from the verified
// body. This is the entry point for reopening a completed replay file
// from disk, where the whole file is available up front; a replay still
// being written (no trailer yet) should use Open on a plain io.Reader
// instead: without a trailer, VerifyAndOpen reports ErrCorrupt (or
// ErrTruncated when fewer than 32 bytes exist).
func VerifyAndOpen(data []byte) (Header, *Reader, error) {
	if len(data) < trailerLen {
		return Header{}, nil, ErrTruncated
	}
	body, trailer := data[:len(data)-trailerLen], data[len(data)-trailerLen:]

	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return Header{}, nil, ErrCorrupt
	}
	return Open(bytes.NewReader(body))
}

// ErrTruncated is returned when data is too short to contain a trailer.
var ErrTruncated = errors.New("replay: file too short for trailer")

// ErrCorrupt is returned by VerifyAndOpen when the trailing BLAKE3 digest
// doesn't match the body that precedes it.
var ErrCorrupt = errors.New("replay: trailer digest mismatch")

// Open reads and validates a replay header from r, returning the header
// and a Reader positioned at the first record. r should not include the
// BLAKE3 trailer; callers reading a file at rest should use
// VerifyAndOpen, which strips the trailer before calling this.
func Open(r io.Reader) (Header, *Reader, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Header{}, nil, fmt.Errorf("replay: read magic: %w", err)
	}
	if magic != Magic {
		return Header{}, nil, ErrBadMagic
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Header{}, nil, err
	}
	if version != FormatVersion {
		return Header{}, nil, ErrWrongVersion
	}

	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr.Seed); err != nil {
		return Header{}, nil, err
	}
	var mapSize uint8
	if err := binary.Read(r, binary.LittleEndian, &mapSize); err != nil {
		return Header{}, nil, err
	}
	hdr.MapSize = worldmap.MapSize(mapSize)

	var width, height, compressedLen uint32
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return Header{}, nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return Header{}, nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &compressedLen); err != nil {
		return Header{}, nil, err
	}
	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return Header{}, nil, err
	}
	noise, err := decompressNoise(compressed, int(width), int(height))
	if err != nil {
		return Header{}, nil, err
	}
	hdr.Noise = noise

	for i := range hdr.Players {
		p, err := readPlayerRecord(r)
		if err != nil {
			return Header{}, nil, err
		}
		hdr.Players[i] = p
	}

	return hdr, &Reader{r: r}, nil
}

func readPlayerRecord(r io.Reader) (PlayerRecord, error) {
	var fixedFields [3]byte
	if _, err := io.ReadFull(r, fixedFields[:]); err != nil {
		return PlayerRecord{}, err
	}
	var nameBuf [playerNameLen]byte
	if _, err := io.ReadFull(r, nameBuf[:]); err != nil {
		return PlayerRecord{}, err
	}
	end := bytes.IndexByte(nameBuf[:], 0)
	if end < 0 {
		end = len(nameBuf)
	}
	return PlayerRecord{
		Status:    fixedFields[0],
		RecolorID: fixedFields[1],
		Team:      fixedFields[2],
		Name:      string(nameBuf[:end]),
	}, nil
}

// Next reads the following record, returning io.EOF once the trailer (or
// a partially flushed file's true end) is reached. A truncated record
// tail is reported as io.ErrUnexpectedEOF rather than panicking, since
// §4.8 requires a partial file to be a valid replay "up to its last
// flushed turn" rather than an error.
func (rr *Reader) Next() (Record, error) {
	var kindByte [1]byte
	if _, err := io.ReadFull(rr.r, kindByte[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return Record{}, err
	}

	var turn uint32
	if err := binary.Read(rr.r, binary.LittleEndian, &turn); err != nil {
		return Record{}, io.ErrUnexpectedEOF
	}
	var playerID [1]byte
	if _, err := io.ReadFull(rr.r, playerID[:]); err != nil {
		return Record{}, io.ErrUnexpectedEOF
	}
	var length uint16
	if err := binary.Read(rr.r, binary.LittleEndian, &length); err != nil {
		return Record{}, io.ErrUnexpectedEOF
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return Record{}, io.ErrUnexpectedEOF
	}

	return Record{Kind: RecordKind(kindByte[0]), Turn: turn, PlayerID: playerID[0], Payload: payload}, nil
}

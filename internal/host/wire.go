package host

import (
	"encoding/binary"
	"errors"
	"net"
)

// lobbyNameLen is the NUL-padded name field width carried by LobbyInfo on
// the wire, matching §6's LobbyInfo{name[40], port:u16, player_count:u8,
// padding:u8}.
const lobbyNameLen = 40

// LobbyInfo is the scanner response payload, grounded on original_source's
// lobby_info_t and §6's wire table.
type LobbyInfo struct {
	Name        string
	Port        uint16
	PlayerCount uint8
}

// Encode serializes a LobbyInfo as: name[40] port:u16 player_count:u8
// padding:u8, little-endian, matching the wire table exactly.
func (l LobbyInfo) Encode() []byte {
	buf := make([]byte, lobbyNameLen+2+1+1)
	name := l.Name
	if len(name) > lobbyNameLen {
		name = name[:lobbyNameLen]
	}
	copy(buf[:lobbyNameLen], name)
	binary.LittleEndian.PutUint16(buf[lobbyNameLen:lobbyNameLen+2], l.Port)
	buf[lobbyNameLen+2] = l.PlayerCount
	return buf
}

// DecodeLobbyInfo parses the wire form Encode produces.
func DecodeLobbyInfo(buf []byte) (LobbyInfo, error) {
	if len(buf) < lobbyNameLen+2+1+1 {
		return LobbyInfo{}, errors.New("host: truncated lobby info")
	}
	end := lobbyNameLen
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	name := string(buf[:end])
	port := binary.LittleEndian.Uint16(buf[lobbyNameLen : lobbyNameLen+2])
	count := buf[lobbyNameLen+2]
	return LobbyInfo{Name: name, Port: port, PlayerCount: count}, nil
}

// encodeLANConnectionInfo packs an {ip, port} pair as the opaque
// connection-info bytes Host.Connect and Host.PeerConnectionInfo exchange.
func encodeLANConnectionInfo(info lanConnectionInfo) []byte {
	buf := make([]byte, 0, 1+len(info.IP)+2)
	buf = append(buf, byte(len(info.IP)))
	buf = append(buf, info.IP...)
	buf = binary.LittleEndian.AppendUint16(buf, info.Port)
	return buf
}

func decodeLANConnectionInfo(buf []byte) (lanConnectionInfo, error) {
	if len(buf) < 1 {
		return lanConnectionInfo{}, ErrConnectFailed
	}
	n := int(buf[0])
	if len(buf) < 1+n+2 {
		return lanConnectionInfo{}, ErrConnectFailed
	}
	ip := string(buf[1 : 1+n])
	port := binary.LittleEndian.Uint16(buf[1+n : 1+n+2])
	if net.ParseIP(ip) == nil {
		return lanConnectionInfo{}, ErrConnectFailed
	}
	return lanConnectionInfo{IP: ip, Port: port}, nil
}

// encodeFrame prefixes payload with a u32 sequence number, giving the UDP
// transport a per-peer ordering signal raw datagrams don't otherwise carry.
func encodeFrame(seq uint32, payload []byte) []byte {
	buf := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, seq)
	return append(buf, payload...)
}

func decodeFrame(data []byte) (uint32, []byte, bool) {
	if len(data) < 4 {
		return 0, nil, false
	}
	seq := binary.LittleEndian.Uint32(data[0:4])
	return seq, data[4:], true
}

package lobby

import (
	"encoding/binary"
	"fmt"
)

// MsgType is the one-byte message type every packet begins with, per §6.
type MsgType uint8

// MsgType values, in the order spec.md §6 lists them.
const (
	MsgGreetServer MsgType = iota
	MsgInvalidVersion
	MsgGameAlreadyStarted
	MsgWelcome
	MsgNewPlayer
	MsgGreet
	MsgReady
	MsgNotReady
	MsgColor
	MsgTeam
	MsgMatchSetting
	MsgChat
	MsgMatchLoad
	MsgInput
)

const (
	usernameLen = 36
	versionLen  = 16
	lobbyLen    = 40
	chatLen     = 128
)

func putFixedString(buf []byte, s string, width int) []byte {
	field := make([]byte, width)
	copy(field, s)
	return append(buf, field...)
}

func readFixedString(buf []byte, head *int, width int) (string, error) {
	if *head+width > len(buf) {
		return "", fmt.Errorf("lobby: truncated fixed string field")
	}
	field := buf[*head : *head+width]
	*head += width
	n := 0
	for n < len(field) && field[n] != 0 {
		n++
	}
	return string(field[:n]), nil
}

func putU8(buf []byte, v uint8) []byte { return append(buf, v) }

func readU8(buf []byte, head *int) (uint8, error) {
	if *head >= len(buf) {
		return 0, fmt.Errorf("lobby: truncated u8 field")
	}
	v := buf[*head]
	*head++
	return v, nil
}

func putI32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func readI32(buf []byte, head *int) (int32, error) {
	if *head+4 > len(buf) {
		return 0, fmt.Errorf("lobby: truncated i32 field")
	}
	v := int32(binary.LittleEndian.Uint32(buf[*head:]))
	*head += 4
	return v, nil
}

func putU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readU32(buf []byte, head *int) (uint32, error) {
	if *head+4 > len(buf) {
		return 0, fmt.Errorf("lobby: truncated u32 field")
	}
	v := binary.LittleEndian.Uint32(buf[*head:])
	*head += 4
	return v, nil
}

func putBytes(buf []byte, b []byte) []byte {
	buf = putU32(buf, uint32(len(b)))
	return append(buf, b...)
}

func readBytes(buf []byte, head *int) ([]byte, error) {
	n, err := readU32(buf, head)
	if err != nil {
		return nil, err
	}
	if *head+int(n) > len(buf) {
		return nil, fmt.Errorf("lobby: truncated byte blob field")
	}
	b := buf[*head : *head+int(n)]
	*head += int(n)
	return b, nil
}

// greetServerMsg is the client's handshake opener: GREET_SERVER{username,
// app_version}, per §6/§4.7 step 1.
type greetServerMsg struct {
	Username   string
	AppVersion string
}

func encodeGreetServer(m greetServerMsg) []byte {
	buf := []byte{byte(MsgGreetServer)}
	buf = putFixedString(buf, m.Username, usernameLen)
	buf = putFixedString(buf, m.AppVersion, versionLen)
	return buf
}

func decodeGreetServer(buf []byte) (greetServerMsg, error) {
	head := 1
	var m greetServerMsg
	var err error
	if m.Username, err = readFixedString(buf, &head, usernameLen); err != nil {
		return m, err
	}
	if m.AppVersion, err = readFixedString(buf, &head, versionLen); err != nil {
		return m, err
	}
	return m, nil
}

// playerState mirrors player_t: one roster slot as broadcast in WELCOME and
// GREET.
type playerState struct {
	Status    uint8
	RecolorID uint8
	Team      uint8
	Name      string
}

func putPlayerState(buf []byte, p playerState) []byte {
	buf = putU8(buf, p.Status)
	buf = putU8(buf, p.RecolorID)
	buf = putU8(buf, p.Team)
	buf = putFixedString(buf, p.Name, usernameLen)
	return buf
}

func readPlayerState(buf []byte, head *int) (playerState, error) {
	var p playerState
	var err error
	if p.Status, err = readU8(buf, head); err != nil {
		return p, err
	}
	if p.RecolorID, err = readU8(buf, head); err != nil {
		return p, err
	}
	if p.Team, err = readU8(buf, head); err != nil {
		return p, err
	}
	if p.Name, err = readFixedString(buf, head, usernameLen); err != nil {
		return p, err
	}
	return p, nil
}

// welcomeMsg is the server's handshake reply: WELCOME{assigned_player_id,
// recolor, team, server_info, lobby_name}, per §6/§4.7 step 3.
type welcomeMsg struct {
	PlayerID        uint8
	RecolorID       uint8
	Team            uint8
	ServerRecolorID uint8
	ServerTeam      uint8
	ServerUsername  string
	LobbyName       string
}

func encodeWelcome(m welcomeMsg) []byte {
	buf := []byte{byte(MsgWelcome)}
	buf = putU8(buf, m.PlayerID)
	buf = putU8(buf, m.RecolorID)
	buf = putU8(buf, m.Team)
	buf = putU8(buf, m.ServerRecolorID)
	buf = putU8(buf, m.ServerTeam)
	buf = putFixedString(buf, m.ServerUsername, usernameLen)
	buf = putFixedString(buf, m.LobbyName, lobbyLen)
	return buf
}

func decodeWelcome(buf []byte) (welcomeMsg, error) {
	head := 1
	var m welcomeMsg
	var err error
	if m.PlayerID, err = readU8(buf, &head); err != nil {
		return m, err
	}
	if m.RecolorID, err = readU8(buf, &head); err != nil {
		return m, err
	}
	if m.Team, err = readU8(buf, &head); err != nil {
		return m, err
	}
	if m.ServerRecolorID, err = readU8(buf, &head); err != nil {
		return m, err
	}
	if m.ServerTeam, err = readU8(buf, &head); err != nil {
		return m, err
	}
	if m.ServerUsername, err = readFixedString(buf, &head, usernameLen); err != nil {
		return m, err
	}
	if m.LobbyName, err = readFixedString(buf, &head, lobbyLen); err != nil {
		return m, err
	}
	return m, nil
}

// newPlayerMsg carries an opaque connection-info blob (LAN {ip,port}, Relay
// identity string) so existing clients can dial the newcomer, per §4.6's
// get_peer_connection_info/§4.7 step 3.
type newPlayerMsg struct {
	ConnectionInfo []byte
}

func encodeNewPlayer(m newPlayerMsg) []byte {
	buf := []byte{byte(MsgNewPlayer)}
	return putBytes(buf, m.ConnectionInfo)
}

func decodeNewPlayer(buf []byte) (newPlayerMsg, error) {
	head := 1
	var m newPlayerMsg
	var err error
	if m.ConnectionInfo, err = readBytes(buf, &head); err != nil {
		return m, err
	}
	return m, nil
}

// greetMsg is what each existing client sends directly to a newcomer,
// introducing one already-present player, per §4.7 step 3.
type greetMsg struct {
	PlayerID uint8
	State    playerState
}

func encodeGreet(m greetMsg) []byte {
	buf := []byte{byte(MsgGreet)}
	buf = putU8(buf, m.PlayerID)
	buf = putPlayerState(buf, m.State)
	return buf
}

func decodeGreet(buf []byte) (greetMsg, error) {
	head := 1
	var m greetMsg
	var err error
	if m.PlayerID, err = readU8(buf, &head); err != nil {
		return m, err
	}
	if m.State, err = readPlayerState(buf, &head); err != nil {
		return m, err
	}
	return m, nil
}

func encodeEmpty(t MsgType) []byte { return []byte{byte(t)} }

// colorMsg / teamMsg change a player's own recolor/team, broadcast and
// echoed to every peer including the sender.
type colorMsg struct{ RecolorID uint8 }

func encodeColor(m colorMsg) []byte { return []byte{byte(MsgColor), m.RecolorID} }

func decodeColor(buf []byte) (colorMsg, error) {
	if len(buf) < 2 {
		return colorMsg{}, fmt.Errorf("lobby: truncated COLOR message")
	}
	return colorMsg{RecolorID: buf[1]}, nil
}

type teamMsg struct{ Team uint8 }

func encodeTeam(m teamMsg) []byte { return []byte{byte(MsgTeam), m.Team} }

func decodeTeam(buf []byte) (teamMsg, error) {
	if len(buf) < 2 {
		return teamMsg{}, fmt.Errorf("lobby: truncated TEAM message")
	}
	return teamMsg{Team: buf[1]}, nil
}

// MatchSetting identifies a lobby-wide game rule, mirroring
// original_source's MATCH_SETTING_TEAMS toggle read by match_ui_init to
// decide whether players share a team or are free-for-all.
type MatchSetting uint8

// MatchSetting values.
const (
	SettingTeams MatchSetting = iota
)

type matchSettingMsg struct {
	Setting MatchSetting
	Value   uint8
}

func encodeMatchSetting(m matchSettingMsg) []byte {
	return []byte{byte(MsgMatchSetting), byte(m.Setting), m.Value}
}

func decodeMatchSetting(buf []byte) (matchSettingMsg, error) {
	if len(buf) < 3 {
		return matchSettingMsg{}, fmt.Errorf("lobby: truncated MATCH_SETTING message")
	}
	return matchSettingMsg{Setting: MatchSetting(buf[1]), Value: buf[2]}, nil
}

type chatMsg struct{ Text string }

func encodeChat(m chatMsg) []byte {
	buf := []byte{byte(MsgChat)}
	return putFixedString(buf, m.Text, chatLen)
}

func decodeChat(buf []byte) (chatMsg, error) {
	head := 1
	text, err := readFixedString(buf, &head, chatLen)
	if err != nil {
		return chatMsg{}, err
	}
	return chatMsg{Text: text}, nil
}

// matchLoadMsg announces the seed and map noise a server picked, per
// §4.7's "Match load" and §6's MATCH_LOAD row. The noise blob is carried
// LZ4-compressed (see compressNoise in coordinator.go) with its
// dimensions prefixed, since a receiver must allocate before decompressing.
type matchLoadMsg struct {
	Seed            int32
	Width, Height   int32
	NoiseCompressed []byte
}

func encodeMatchLoad(m matchLoadMsg) []byte {
	buf := []byte{byte(MsgMatchLoad)}
	buf = putI32(buf, m.Seed)
	buf = putI32(buf, m.Width)
	buf = putI32(buf, m.Height)
	buf = putBytes(buf, m.NoiseCompressed)
	return buf
}

func decodeMatchLoad(buf []byte) (matchLoadMsg, error) {
	head := 1
	var m matchLoadMsg
	var err error
	if m.Seed, err = readI32(buf, &head); err != nil {
		return m, err
	}
	if m.Width, err = readI32(buf, &head); err != nil {
		return m, err
	}
	if m.Height, err = readI32(buf, &head); err != nil {
		return m, err
	}
	if m.NoiseCompressed, err = readBytes(buf, &head); err != nil {
		return m, err
	}
	return m, nil
}

// encodeInputPacket prefixes an already-encoded concatenated input buffer
// (see internal/inputplane) with the INPUT message tag, per §6's INPUT row.
func encodeInputPacket(encoded []byte) []byte {
	buf := make([]byte, 0, len(encoded)+1)
	buf = append(buf, byte(MsgInput))
	return append(buf, encoded...)
}

func peekMsgType(packet []byte) (MsgType, error) {
	if len(packet) == 0 {
		return 0, fmt.Errorf("lobby: empty packet")
	}
	return MsgType(packet[0]), nil
}

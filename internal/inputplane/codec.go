package inputplane

import (
	"encoding/binary"
	"fmt"

	"goldrush/internal/entity"
	"goldrush/internal/fixed"
)

// Encode appends the wire encoding of in to buf and returns the extended
// slice. All multi-byte fields are little-endian, per §4.5.
func Encode(buf []byte, in Input) []byte {
	buf = append(buf, byte(in.Kind))

	switch {
	case isMoveKind(in.Kind):
		buf = appendBool(buf, in.Shift)
		buf = appendI32(buf, in.TargetCell.X)
		buf = appendI32(buf, in.TargetCell.Y)
		buf = appendU32(buf, uint32(in.TargetID))
		buf = appendIDs(buf, in.EntityIDs)

	case in.Kind == KindStop || in.Kind == KindDefend:
		buf = appendIDs(buf, in.EntityIDs)

	case in.Kind == KindBuild:
		buf = appendBool(buf, in.Shift)
		buf = append(buf, byte(in.BuildingType))
		buf = appendI32(buf, in.TargetCell.X)
		buf = appendI32(buf, in.TargetCell.Y)
		buf = appendIDs(buf, in.EntityIDs)

	case in.Kind == KindBuildCancel:
		buf = appendU32(buf, uint32(in.BuildingID))

	case in.Kind == KindChat:
		text := []byte(in.ChatText)
		if len(text) > 255 {
			text = text[:255]
		}
		buf = append(buf, byte(len(text)))
		buf = append(buf, text...)

	case in.Kind == KindNone:
		// No payload.
	}

	return buf
}

// Decode reads one Input starting at buf[*head], advancing head past it.
func Decode(buf []byte, head *int) (Input, error) {
	if *head >= len(buf) {
		return Input{}, fmt.Errorf("inputplane: decode past end of buffer")
	}
	in := Input{Kind: Kind(buf[*head])}
	*head++

	switch {
	case isMoveKind(in.Kind):
		var err error
		if in.Shift, err = readBool(buf, head); err != nil {
			return Input{}, err
		}
		x, err := readI32(buf, head)
		if err != nil {
			return Input{}, err
		}
		y, err := readI32(buf, head)
		if err != nil {
			return Input{}, err
		}
		in.TargetCell = fixed.IVec2Of(x, y)
		id, err := readU32(buf, head)
		if err != nil {
			return Input{}, err
		}
		in.TargetID = entity.ID(id)
		if in.EntityIDs, err = readIDs(buf, head); err != nil {
			return Input{}, err
		}

	case in.Kind == KindStop || in.Kind == KindDefend:
		var err error
		if in.EntityIDs, err = readIDs(buf, head); err != nil {
			return Input{}, err
		}

	case in.Kind == KindBuild:
		var err error
		if in.Shift, err = readBool(buf, head); err != nil {
			return Input{}, err
		}
		if *head >= len(buf) {
			return Input{}, fmt.Errorf("inputplane: truncated build input")
		}
		in.BuildingType = entity.Type(buf[*head])
		*head++
		x, err := readI32(buf, head)
		if err != nil {
			return Input{}, err
		}
		y, err := readI32(buf, head)
		if err != nil {
			return Input{}, err
		}
		in.TargetCell = fixed.IVec2Of(x, y)
		if in.EntityIDs, err = readIDs(buf, head); err != nil {
			return Input{}, err
		}

	case in.Kind == KindBuildCancel:
		id, err := readU32(buf, head)
		if err != nil {
			return Input{}, err
		}
		in.BuildingID = entity.ID(id)

	case in.Kind == KindChat:
		if *head >= len(buf) {
			return Input{}, fmt.Errorf("inputplane: truncated chat input")
		}
		n := int(buf[*head])
		*head++
		if *head+n > len(buf) {
			return Input{}, fmt.Errorf("inputplane: truncated chat text")
		}
		in.ChatText = string(buf[*head : *head+n])
		*head += n

	case in.Kind == KindNone:
		// No payload.
	}

	return in, nil
}

// DecodeAll decodes every input packed into buf, starting at headStart (the
// caller passes 1 to skip a leading framing byte, per §4.5).
func DecodeAll(buf []byte, headStart int) ([]Input, error) {
	var out []Input
	head := headStart
	for head < len(buf) {
		in, err := Decode(buf, &head)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func readBool(buf []byte, head *int) (bool, error) {
	if *head >= len(buf) {
		return false, fmt.Errorf("inputplane: truncated bool field")
	}
	v := buf[*head] != 0
	*head++
	return v, nil
}

func appendI32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func readI32(buf []byte, head *int) (int32, error) {
	if *head+4 > len(buf) {
		return 0, fmt.Errorf("inputplane: truncated i32 field")
	}
	v := int32(binary.LittleEndian.Uint32(buf[*head:]))
	*head += 4
	return v, nil
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readU32(buf []byte, head *int) (uint32, error) {
	if *head+4 > len(buf) {
		return 0, fmt.Errorf("inputplane: truncated u32 field")
	}
	v := binary.LittleEndian.Uint32(buf[*head:])
	*head += 4
	return v, nil
}

func appendIDs(buf []byte, ids []entity.ID) []byte {
	n := len(ids)
	if n > MaxEntityIDs {
		n = MaxEntityIDs
	}
	buf = append(buf, byte(n))
	for i := 0; i < n; i++ {
		buf = appendU32(buf, uint32(ids[i]))
	}
	return buf
}

func readIDs(buf []byte, head *int) ([]entity.ID, error) {
	if *head >= len(buf) {
		return nil, fmt.Errorf("inputplane: truncated id count")
	}
	n := int(buf[*head])
	*head++
	ids := make([]entity.ID, n)
	for i := 0; i < n; i++ {
		v, err := readU32(buf, head)
		if err != nil {
			return nil, err
		}
		ids[i] = entity.ID(v)
	}
	return ids, nil
}

// internal/service/mlmodel/codec.go

package mlmodel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Encoded layout:
//
//	magic "PMDL" | version u8 | kind length u8 | kind | payload length u32 BE | JSON payload
var codecMagic = []byte("PMDL")

const codecVersion byte = 1

// ErrCorruptModel indicates model bytes that cannot be decoded
var ErrCorruptModel = errors.New("corrupt model data")

// Encode serializes params into the length-prefixed model blob
func Encode(p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var payload []byte
	var err error
	switch p.Kind {
	case KindLexicon:
		payload, err = json.Marshal(p.Lexicon)
	case KindLinear:
		payload, err = json.Marshal(p.Linear)
	}
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s params: %w", p.Kind, err)
	}

	kind := []byte(p.Kind)
	if len(kind) > 255 {
		return nil, fmt.Errorf("params kind too long: %d bytes", len(kind))
	}

	var buf bytes.Buffer
	buf.Grow(len(codecMagic) + 2 + len(kind) + 4 + len(payload))
	buf.Write(codecMagic)
	buf.WriteByte(codecVersion)
	buf.WriteByte(byte(len(kind)))
	buf.Write(kind)

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(payload)))
	buf.Write(size[:])
	buf.Write(payload)

	return buf.Bytes(), nil
}

// Decode parses a model blob produced by Encode
func Decode(data []byte) (Params, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(codecMagic))
	if _, err := r.Read(magic); err != nil || !bytes.Equal(magic, codecMagic) {
		return Params{}, fmt.Errorf("%w: bad magic", ErrCorruptModel)
	}

	version, err := r.ReadByte()
	if err != nil {
		return Params{}, fmt.Errorf("%w: missing version", ErrCorruptModel)
	}
	if version != codecVersion {
		return Params{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptModel, version)
	}

	kindLen, err := r.ReadByte()
	if err != nil {
		return Params{}, fmt.Errorf("%w: missing kind", ErrCorruptModel)
	}
	kind := make([]byte, kindLen)
	if n, _ := r.Read(kind); n != int(kindLen) {
		return Params{}, fmt.Errorf("%w: truncated kind", ErrCorruptModel)
	}

	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return Params{}, fmt.Errorf("%w: missing payload length", ErrCorruptModel)
	}
	if int(size) != r.Len() {
		return Params{}, fmt.Errorf("%w: payload length %d, have %d", ErrCorruptModel, size, r.Len())
	}
	payload := data[len(data)-int(size):]

	p := Params{Kind: ParamsKind(kind)}
	switch p.Kind {
	case KindLexicon:
		p.Lexicon = &LexiconParams{}
		err = json.Unmarshal(payload, p.Lexicon)
	case KindLinear:
		p.Linear = &LinearParams{}
		err = json.Unmarshal(payload, p.Linear)
	default:
		return Params{}, fmt.Errorf("%w: unknown kind %q", ErrCorruptModel, p.Kind)
	}
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}

	return p, nil
}

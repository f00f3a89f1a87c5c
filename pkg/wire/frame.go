package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcode is a WebSocket frame opcode.
type Opcode byte

const (
	OpcodeContinuation Opcode = 0x0
	OpcodeText         Opcode = 0x1
	OpcodeBinary       Opcode = 0x2
	OpcodeClose        Opcode = 0x8
	OpcodePing         Opcode = 0x9
	OpcodePong         Opcode = 0xA
)

// ErrFrameProtocol marks a frame that violates the supported subset:
// unmasked client payloads, reserved bits, fragmentation, unknown opcodes,
// or oversized payloads. The session loop closes the connection and signals
// a protocol error to OnDisconnect.
var ErrFrameProtocol = errors.New("websocket protocol violation")

// frame is one decoded WebSocket frame.
type frame struct {
	opcode  Opcode
	payload []byte
}

// readFrame decodes one client frame. Client frames must be masked and
// unfragmented; control frames must fit in a single small frame per RFC
// 6455, but this decoder only enforces the shared payload cap.
func readFrame(br *bufio.Reader, maxPayload int64) (*frame, error) {
	var head [2]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return nil, err
	}

	fin := head[0]&0x80 != 0
	if head[0]&0x70 != 0 {
		return nil, fmt.Errorf("%w: reserved bits set", ErrFrameProtocol)
	}
	opcode := Opcode(head[0] & 0x0f)
	if !fin || opcode == OpcodeContinuation {
		return nil, fmt.Errorf("%w: fragmented messages not supported", ErrFrameProtocol)
	}
	switch opcode {
	case OpcodeText, OpcodeBinary, OpcodeClose, OpcodePing, OpcodePong:
	default:
		return nil, fmt.Errorf("%w: unknown opcode %#x", ErrFrameProtocol, byte(opcode))
	}

	masked := head[1]&0x80 != 0
	if !masked {
		return nil, fmt.Errorf("%w: client frame not masked", ErrFrameProtocol)
	}

	length := int64(head[1] & 0x7f)
	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(br, ext[:]); err != nil {
			return nil, err
		}
		length = int64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(br, ext[:]); err != nil {
			return nil, err
		}
		v := binary.BigEndian.Uint64(ext[:])
		if v > 1<<62 {
			return nil, fmt.Errorf("%w: payload length overflow", ErrFrameProtocol)
		}
		length = int64(v)
	}
	if maxPayload > 0 && length > maxPayload {
		return nil, fmt.Errorf("%w: frame payload exceeds %d bytes", ErrFrameProtocol, maxPayload)
	}

	var mask [4]byte
	if _, err := io.ReadFull(br, mask[:]); err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, err
	}
	for i := range payload {
		payload[i] ^= mask[i%4]
	}
	return &frame{opcode: opcode, payload: payload}, nil
}

// writeFrame encodes one server frame in a single write. Server frames are
// never masked and never fragmented.
func writeFrame(w io.Writer, op Opcode, payload []byte) error {
	head := make([]byte, 0, 10)
	head = append(head, 0x80|byte(op))

	switch n := len(payload); {
	case n < 126:
		head = append(head, byte(n))
	case n <= 0xffff:
		head = append(head, 126, 0, 0)
		binary.BigEndian.PutUint16(head[2:], uint16(n))
	default:
		head = append(head, 127, 0, 0, 0, 0, 0, 0, 0, 0)
		binary.BigEndian.PutUint64(head[2:], uint64(n))
	}

	buf := make([]byte, 0, len(head)+len(payload))
	buf = append(buf, head...)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

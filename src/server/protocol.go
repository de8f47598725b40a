package server

// Wire protocol for the binary RPC port. Every message is one
// length-prefixed frame:
//
//	u32 body_len (big-endian) ; body_len bytes
//
// A request body is one opcode byte followed by the operation payload;
// a response body is one status byte followed by the result payload.
// Document payloads are BSON, the same encoding the snapshot codec
// uses, so a stored document and its wire form are identical bytes.

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcodes.
const (
	OpAuth   byte = 1 // body: username 0x00 password -> Result
	OpSave   byte = 2 // body: BSON File -> Result
	OpGet    byte = 3 // body: raw file id -> BSON File
	OpExists byte = 4 // body: raw file id -> Result
	OpDelete byte = 5 // body: raw file id -> Result
	OpExport byte = 6 // body: empty -> Result
)

// Response status bytes.
const (
	StatusOK       byte = 0
	StatusError    byte = 1
	StatusNotFound byte = 2
)

// maxFrameSize bounds a single frame. A length prefix beyond this is
// treated as a protocol violation, not an allocation request.
const maxFrameSize = 32 << 20

var errFrameTooLarge = errors.New("frame exceeds maximum size")

// readFrame reads one length-prefixed frame body.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	bodyLen := binary.BigEndian.Uint32(lenBuf[:])
	if bodyLen > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", errFrameTooLarge, bodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return body, nil
}

// writeFrame writes tag (opcode or status) plus payload as one frame.
func writeFrame(w *bufio.Writer, tag byte, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(1+len(payload)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	if err := w.WriteByte(tag); err != nil {
		return err
	}

	if _, err := w.Write(payload); err != nil {
		return err
	}

	return w.Flush()
}

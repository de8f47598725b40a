package engine

import (
	"encoding/binary"
	"fmt"

	"diagramdb/src/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Snapshot blob layout, all integers big-endian:
//
//	u32 entry_count
//	repeat entry_count times:
//	    u32 key_len ; key_len bytes of UTF-8 file id
//	    u32 payload_len ; payload_len bytes of BSON-encoded File
//
// The per-document payload is self-describing BSON, which is also what
// the RPC bodies and the export files carry.

const lenFieldSize = 4

// EncodeFile serializes a single document to its BSON payload.
func EncodeFile(file *models.File) ([]byte, error) {
	data, err := bson.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("error encoding file %s: %w", file.FileID, err)
	}

	return data, nil
}

// DecodeFile parses one BSON payload back into a document.
func DecodeFile(data []byte) (*models.File, error) {
	var file models.File
	if err := bson.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decoding file payload: %v", ErrCorruptSnapshot, err)
	}

	return &file, nil
}

// EncodeSnapshot serializes the full id-to-document map into one blob.
// It succeeds for any state reachable through the store API. Iteration
// order is whatever the map yields; a single call is internally
// consistent, which is all the decoder needs.
func EncodeSnapshot(files map[string]*models.File) ([]byte, error) {
	buf := make([]byte, lenFieldSize, lenFieldSize+len(files)*64)
	binary.BigEndian.PutUint32(buf[0:lenFieldSize], uint32(len(files)))

	for id, file := range files {
		payload, err := EncodeFile(file)
		if err != nil {
			return nil, err
		}

		buf = binary.BigEndian.AppendUint32(buf, uint32(len(id)))
		buf = append(buf, id...)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
		buf = append(buf, payload...)
	}

	return buf, nil
}

// DecodeSnapshot parses a snapshot blob. A zero-length input is an
// empty store, not an error. Every length field is bounds-checked
// against the remaining buffer before it is used, so a truncated or
// garbage file fails with ErrCorruptSnapshot instead of panicking.
func DecodeSnapshot(data []byte) (map[string]*models.File, error) {
	files := make(map[string]*models.File)

	if len(data) == 0 {
		return files, nil
	}

	pos := 0

	entryCount, err := readUint32(data, &pos, "entry count")
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < entryCount; i++ {
		keyLen, err := readUint32(data, &pos, "key length")
		if err != nil {
			return nil, err
		}

		key, err := readBytes(data, &pos, int(keyLen), "key")
		if err != nil {
			return nil, err
		}

		payloadLen, err := readUint32(data, &pos, "payload length")
		if err != nil {
			return nil, err
		}

		payload, err := readBytes(data, &pos, int(payloadLen), "payload")
		if err != nil {
			return nil, err
		}

		file, err := DecodeFile(payload)
		if err != nil {
			return nil, err
		}

		files[string(key)] = file
	}

	return files, nil
}

func readUint32(data []byte, pos *int, what string) (uint32, error) {
	if len(data)-*pos < lenFieldSize {
		return 0, fmt.Errorf("%w: %s runs past end of buffer at offset %d", ErrCorruptSnapshot, what, *pos)
	}

	v := binary.BigEndian.Uint32(data[*pos : *pos+lenFieldSize])
	*pos += lenFieldSize

	return v, nil
}

func readBytes(data []byte, pos *int, n int, what string) ([]byte, error) {
	if n < 0 || len(data)-*pos < n {
		return nil, fmt.Errorf("%w: %s claims %d bytes with %d remaining", ErrCorruptSnapshot, what, n, len(data)-*pos)
	}

	b := data[*pos : *pos+n]
	*pos += n

	return b, nil
}

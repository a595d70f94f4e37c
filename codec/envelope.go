package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	// MagicNumber identifies sealed block structure payloads (ASCII: "BSC0").
	MagicNumber = 0x42534330
	// FormatVersion is the current envelope format version.
	FormatVersion = 1

	// Codec ids stored in the envelope.
	codecIDBinary uint8 = 1
	codecIDJSON   uint8 = 2

	// Envelope layout (little-endian):
	//   [0:4)   magic
	//   [4:8)   format version
	//   [8]     codec id
	//   [9]     compression id
	//   [10:12) reserved
	//   [12:16) uncompressed body size
	//   [16:20) CRC32 (IEEE) of the compressed body
	headerSize = 20
)

// seal compresses a body and wraps it in the payload envelope.
func seal(codecID uint8, c Compression, body []byte) ([]byte, error) {
	compressed, actual, err := compress(body, c)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(payload[0:], MagicNumber)
	binary.LittleEndian.PutUint32(payload[4:], FormatVersion)
	payload[8] = codecID
	payload[9] = uint8(actual)
	binary.LittleEndian.PutUint32(payload[12:], uint32(len(body)))
	binary.LittleEndian.PutUint32(payload[16:], crc32.ChecksumIEEE(compressed))
	copy(payload[headerSize:], compressed)

	return payload, nil
}

// open validates the envelope and returns the decompressed body.
// codecID is the id of the codec doing the decoding; a payload written by
// a different codec fails with ErrCodecMismatch.
func open(codecID uint8, payload []byte) ([]byte, error) {
	if len(payload) < headerSize {
		return nil, fmt.Errorf("%w: payload truncated (%d bytes)", ErrCorruptPayload, len(payload))
	}

	if magic := binary.LittleEndian.Uint32(payload[0:]); magic != MagicNumber {
		return nil, fmt.Errorf("%w: invalid magic number 0x%08x", ErrCorruptPayload, magic)
	}
	if version := binary.LittleEndian.Uint32(payload[4:]); version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptPayload, version)
	}
	if id := payload[8]; id != codecID {
		return nil, fmt.Errorf("%w: payload written by codec id %d", ErrCodecMismatch, id)
	}

	compression := Compression(payload[9])
	uncompressedSize := binary.LittleEndian.Uint32(payload[12:])
	expectedCRC := binary.LittleEndian.Uint32(payload[16:])

	body := payload[headerSize:]
	if actualCRC := crc32.ChecksumIEEE(body); actualCRC != expectedCRC {
		return nil, fmt.Errorf("%w: checksum mismatch: expected 0x%08x, got 0x%08x", ErrCorruptPayload, expectedCRC, actualCRC)
	}

	plain, err := decompress(body, compression, uncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}

	return plain, nil
}

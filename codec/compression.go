package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
)

// Compression defines the compression algorithm applied to payload bodies.
type Compression uint8

const (
	// CompressionNone stores the body uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, default).
	CompressionZSTD Compression = 2
	// CompressionLZMA uses LZMA compression (best ratio, slowest; for
	// rarely-read archival payloads).
	CompressionLZMA Compression = 3
)

// String returns the stable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZMA:
		return "lzma"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress compresses a payload body with the requested algorithm.
// If compression doesn't help (ratio > 0.9) or the body is incompressible,
// the body is stored uncompressed and the returned Compression says so;
// the envelope records the returned value, which is authoritative on read.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var compressed []byte
	var err error

	switch c {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed, err = compressZSTD(data)
	case CompressionLZMA:
		compressed, err = compressLZMA(data)
	default:
		return nil, 0, fmt.Errorf("unsupported compression: %d", uint8(c))
	}

	if err != nil {
		return nil, 0, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return data, CompressionNone, nil
	}

	return compressed, c, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	maxCompressedSize := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, maxCompressedSize)

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, nil // Incompressible
	}

	return compressed[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

func compressLZMA(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompress expands a payload body. uncompressedSize comes from the
// envelope and is verified against the actual output.
func decompress(body []byte, c Compression, uncompressedSize uint32) ([]byte, error) {
	switch c {
	case CompressionNone:
		if uint32(len(body)) != uncompressedSize {
			return nil, fmt.Errorf("body size mismatch: expected %d, got %d", uncompressedSize, len(body))
		}
		return body, nil

	case CompressionLZ4:
		result := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(body, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, fmt.Errorf("decompressed size mismatch: expected %d, got %d", uncompressedSize, n)
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(body, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, fmt.Errorf("decompressed size mismatch: expected %d, got %d", uncompressedSize, len(decoded))
		}
		return decoded, nil

	case CompressionLZMA:
		r, err := lzma.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		buf.Grow(int(uncompressedSize))
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, err
		}
		if uint32(buf.Len()) != uncompressedSize {
			return nil, fmt.Errorf("decompressed size mismatch: expected %d, got %d", uncompressedSize, buf.Len())
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression: %d", uint8(c))
	}
}

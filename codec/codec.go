package codec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blockcache/structure"
)

// TransformersSchemaVersion is the version of the per-block annotation
// payload encoding. Annotation payloads are opaque bytes; this version
// changes only when their meaning does, and it participates in cache key
// construction upstream.
const TransformersSchemaVersion uint32 = 1

var (
	// ErrCorruptPayload is returned when stored bytes fail to decode:
	// truncated envelope, bad magic, checksum mismatch, failed
	// decompression or a malformed body. It is never a "not found"
	// condition.
	ErrCorruptPayload = errors.New("corrupt payload")

	// ErrCodecMismatch is returned when a payload was written by a
	// different codec than the one decoding it. It wraps
	// ErrCorruptPayload: the payload is undecodable by this codec, but
	// callers can still tell the two cases apart.
	ErrCodecMismatch = fmt.Errorf("%w: codec mismatch", ErrCorruptPayload)
)

// Codec encodes and decodes block structure tables.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes the tables into a sealed payload.
	Encode(t structure.Tables) ([]byte, error)

	// Decode deserializes a sealed payload. The returned tables always
	// have initialized (non-nil) maps. Failures wrap ErrCorruptPayload.
	Decode(data []byte) (structure.Tables, error)

	// Name returns the stable name of the codec (e.g. "binary").
	Name() string

	// Version returns the version of the codec's table encoding.
	// Bumping it orphans previously written payloads by construction.
	Version() uint32
}

// ByName returns a built-in codec by its stable name, with default
// options. It is used where a codec choice is configured by string.
func ByName(name string) (Codec, bool) {
	switch name {
	case "binary":
		return NewBinary(), true
	case "json":
		return NewJSON(), true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
var Default Codec = NewBinary()

// Options configures a codec constructor.
type Options struct {
	// Compression selects the body compression. Defaults to
	// CompressionZSTD.
	Compression Compression
}

// DefaultOptions returns the default codec options.
func DefaultOptions() Options {
	return Options{
		Compression: CompressionZSTD,
	}
}

// MustEncode is a helper for internal tests/benchmarks.
func MustEncode(c Codec, t structure.Tables) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Encode(t)
	if err != nil {
		panic(fmt.Errorf("codec %s encode failed: %w", c.Name(), err))
	}
	return b
}

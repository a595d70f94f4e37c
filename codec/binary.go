package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/hupe1980/blockcache/structure"
)

// Maximum encodable lengths. Keys and transformer names are short strings;
// annotation payloads can be large.
const (
	maxKeyLen  = 1<<16 - 1
	maxDataLen = 1<<32 - 1
)

// Binary is the canonical length-prefixed table encoding.
//
// The body is deterministic: entries are written sorted, so encoding the
// same tables twice yields byte-identical payloads (modulo compression,
// which is also deterministic for a fixed library version).
type Binary struct {
	compression Compression
}

// NewBinary creates the binary codec.
func NewBinary(optFns ...func(o *Options)) *Binary {
	o := DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return &Binary{compression: o.Compression}
}

// Name returns the unique name of the codec ("binary").
func (c *Binary) Name() string { return "binary" }

// Version returns the version of the binary table encoding.
func (c *Binary) Version() uint32 { return 1 }

// Encode serializes the tables into a sealed payload.
func (c *Binary) Encode(t structure.Tables) ([]byte, error) {
	var buf bytes.Buffer

	if err := writeRelations(&buf, t.Relations); err != nil {
		return nil, err
	}
	if err := writeTransformerData(&buf, t.TransformerData); err != nil {
		return nil, err
	}
	if err := writeBlockData(&buf, t.BlockData); err != nil {
		return nil, err
	}

	return seal(codecIDBinary, c.compression, buf.Bytes())
}

// Decode deserializes a sealed payload.
func (c *Binary) Decode(data []byte) (structure.Tables, error) {
	body, err := open(codecIDBinary, data)
	if err != nil {
		return structure.Tables{}, err
	}

	r := &bodyReader{data: body}
	t := structure.NewTables()

	if err := readRelations(r, t.Relations); err != nil {
		return structure.Tables{}, fmt.Errorf("%w: relations: %w", ErrCorruptPayload, err)
	}
	if err := readTransformerData(r, t.TransformerData); err != nil {
		return structure.Tables{}, fmt.Errorf("%w: transformer data: %w", ErrCorruptPayload, err)
	}
	if err := readBlockData(r, t.BlockData); err != nil {
		return structure.Tables{}, fmt.Errorf("%w: block data: %w", ErrCorruptPayload, err)
	}
	if r.remaining() != 0 {
		return structure.Tables{}, fmt.Errorf("%w: %d trailing bytes", ErrCorruptPayload, r.remaining())
	}

	return t, nil
}

func writeRelations(buf *bytes.Buffer, relations map[structure.Key][]structure.Key) error {
	parents := sortedKeys(relations)

	writeUint32(buf, uint32(len(parents)))
	for _, parent := range parents {
		if err := writeKey(buf, parent); err != nil {
			return err
		}
		children := relations[parent]
		writeUint32(buf, uint32(len(children)))
		for _, child := range children {
			if err := writeKey(buf, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTransformerData(buf *bytes.Buffer, data map[structure.TransformerKey][]byte) error {
	keys := make([]structure.TransformerKey, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Transformer != keys[j].Transformer {
			return keys[i].Transformer < keys[j].Transformer
		}
		return keys[i].Block < keys[j].Block
	})

	writeUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		if err := writeString(buf, k.Transformer); err != nil {
			return err
		}
		if err := writeKey(buf, k.Block); err != nil {
			return err
		}
		if err := writeBytes(buf, data[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeBlockData(buf *bytes.Buffer, data map[structure.Key][]byte) error {
	blocks := sortedKeys(data)

	writeUint32(buf, uint32(len(blocks)))
	for _, block := range blocks {
		if err := writeKey(buf, block); err != nil {
			return err
		}
		if err := writeBytes(buf, data[block]); err != nil {
			return err
		}
	}
	return nil
}

func readRelations(r *bodyReader, relations map[structure.Key][]structure.Key) error {
	count, err := r.uint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		parent, err := r.key()
		if err != nil {
			return err
		}
		childCount, err := r.uint32()
		if err != nil {
			return err
		}
		// Empty child lists normalize to nil.
		var children []structure.Key
		if childCount > 0 {
			children = make([]structure.Key, 0, childCount)
		}
		for j := uint32(0); j < childCount; j++ {
			child, err := r.key()
			if err != nil {
				return err
			}
			children = append(children, child)
		}
		relations[parent] = children
	}
	return nil
}

func readTransformerData(r *bodyReader, data map[structure.TransformerKey][]byte) error {
	count, err := r.uint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		transformer, err := r.str()
		if err != nil {
			return err
		}
		block, err := r.key()
		if err != nil {
			return err
		}
		payload, err := r.blob()
		if err != nil {
			return err
		}
		data[structure.TransformerKey{Block: block, Transformer: transformer}] = payload
	}
	return nil
}

func readBlockData(r *bodyReader, data map[structure.Key][]byte) error {
	count, err := r.uint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		block, err := r.key()
		if err != nil {
			return err
		}
		payload, err := r.blob()
		if err != nil {
			return err
		}
		data[block] = payload
	}
	return nil
}

func sortedKeys[V any](m map[structure.Key]V) []structure.Key {
	keys := make([]structure.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeKey(buf *bytes.Buffer, k structure.Key) error {
	return writeString(buf, string(k))
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxKeyLen {
		return fmt.Errorf("key too long: %d bytes", len(s))
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(s)))
	buf.Write(b[:])
	buf.WriteString(s)
	return nil
}

func writeBytes(buf *bytes.Buffer, data []byte) error {
	if uint64(len(data)) > maxDataLen {
		return fmt.Errorf("data too long: %d bytes", len(data))
	}
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
	return nil
}

// bodyReader is a bounds-checked cursor over a decoded payload body.
type bodyReader struct {
	data []byte
	off  int
}

func (r *bodyReader) remaining() int { return len(r.data) - r.off }

func (r *bodyReader) uint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, fmt.Errorf("truncated at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *bodyReader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("truncated at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *bodyReader) key() (structure.Key, error) {
	s, err := r.str()
	return structure.Key(s), err
}

func (r *bodyReader) str() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	if r.remaining() < int(n) {
		return "", fmt.Errorf("truncated at offset %d", r.off)
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// blob returns a copy so decoded tables never alias the payload buffer.
// Empty payloads normalize to nil.
func (r *bodyReader) blob() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if r.remaining() < int(n) {
		return nil, fmt.Errorf("truncated at offset %d", r.off)
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+int(n)])
	r.off += int(n)
	return b, nil
}

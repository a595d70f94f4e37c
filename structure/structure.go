package structure

import (
	"sort"
	"time"
)

// Key identifies a single block within a structure. It is opaque to this
// library: only equality, map-key use and a stable string rendering are
// ever required of it.
type Key string

// String returns the string rendering of the key.
func (k Key) String() string { return string(k) }

// TransformerKey identifies one transformer's annotation on one block.
type TransformerKey struct {
	Block       Key
	Transformer string
}

// Tables holds the three serializable tables of a block structure.
// They are combined atomically: a cached payload always contains all three.
type Tables struct {
	// Relations maps a parent block to its ordered list of children.
	Relations map[Key][]Key
	// TransformerData holds opaque per-(block, transformer) payloads.
	TransformerData map[TransformerKey][]byte
	// BlockData holds opaque per-block attributes.
	BlockData map[Key][]byte
}

// NewTables returns Tables with all maps initialized.
func NewTables() Tables {
	return Tables{
		Relations:       make(map[Key][]Key),
		TransformerData: make(map[TransformerKey][]byte),
		BlockData:       make(map[Key][]byte),
	}
}

// Len returns the number of blocks that appear in the relation table,
// either as a parent or as a child.
func (t Tables) Len() int {
	seen := make(map[Key]struct{}, len(t.Relations))
	for parent, children := range t.Relations {
		seen[parent] = struct{}{}
		for _, c := range children {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// BlockStructure is a tree of blocks anchored at Root, together with the
// version sources its producer supplies. The cache layer reads and
// serializes structures; it never mutates one it was given.
type BlockStructure struct {
	// Root is the block the structure is anchored at. Lookups are by root.
	Root Key

	// DataVersion is an opaque version token supplied by the producer of
	// the source content. It participates in cache key construction.
	DataVersion string

	// EditedAt is the last-modified time of the source content. The zero
	// value is allowed and means "unknown".
	EditedAt time.Time

	// Tables holds the serializable relation and annotation tables.
	Tables Tables
}

// New creates an empty block structure anchored at root.
func New(root Key) *BlockStructure {
	return &BlockStructure{
		Root:   root,
		Tables: NewTables(),
	}
}

// NewFromTables creates a block structure anchored at root from existing
// tables. Nil maps are initialized so the structure is immediately usable.
func NewFromTables(root Key, t Tables) *BlockStructure {
	if t.Relations == nil {
		t.Relations = make(map[Key][]Key)
	}
	if t.TransformerData == nil {
		t.TransformerData = make(map[TransformerKey][]byte)
	}
	if t.BlockData == nil {
		t.BlockData = make(map[Key][]byte)
	}
	return &BlockStructure{
		Root:   root,
		Tables: t,
	}
}

// SetChildren records the ordered child list of parent, replacing any
// previous list.
func (s *BlockStructure) SetChildren(parent Key, children ...Key) {
	s.Tables.Relations[parent] = children
}

// Children returns the ordered child list of parent, or nil if parent has
// no recorded children.
func (s *BlockStructure) Children(parent Key) []Key {
	return s.Tables.Relations[parent]
}

// SetTransformerData records one transformer's annotation payload for a
// block.
func (s *BlockStructure) SetTransformerData(transformer string, block Key, data []byte) {
	s.Tables.TransformerData[TransformerKey{Block: block, Transformer: transformer}] = data
}

// TransformerData returns one transformer's annotation payload for a block.
func (s *BlockStructure) TransformerData(transformer string, block Key) ([]byte, bool) {
	data, ok := s.Tables.TransformerData[TransformerKey{Block: block, Transformer: transformer}]
	return data, ok
}

// SetBlockData records the opaque attributes of a block.
func (s *BlockStructure) SetBlockData(block Key, data []byte) {
	s.Tables.BlockData[block] = data
}

// BlockData returns the opaque attributes of a block.
func (s *BlockStructure) BlockData(block Key) ([]byte, bool) {
	data, ok := s.Tables.BlockData[block]
	return data, ok
}

// Blocks returns all block keys known to the relation table, sorted.
// It includes parents and children; blocks that only appear in the
// annotation tables are not listed.
func (s *BlockStructure) Blocks() []Key {
	seen := make(map[Key]struct{}, len(s.Tables.Relations))
	for parent, children := range s.Tables.Relations {
		seen[parent] = struct{}{}
		for _, c := range children {
			seen[c] = struct{}{}
		}
	}
	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

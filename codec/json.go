package codec

import (
	"fmt"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/hupe1980/blockcache/structure"
)

// JSON encodes tables as JSON inside the standard payload envelope.
//
// It exists for payload inspectability (debugging, tooling that wants to
// read cached payloads) and interop; the binary codec is smaller and
// faster and is the default. TransformerData keys are composite, so the
// body is a sorted list of entries rather than nested objects.
type JSON struct {
	compression Compression
}

// NewJSON creates the JSON codec.
func NewJSON(optFns ...func(o *Options)) *JSON {
	o := DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return &JSON{compression: o.Compression}
}

// Name returns the unique name of the codec ("json").
func (c *JSON) Name() string { return "json" }

// Version returns the version of the JSON table encoding.
func (c *JSON) Version() uint32 { return 1 }

type jsonRelation struct {
	Block    string   `json:"block"`
	Children []string `json:"children"`
}

type jsonTransformerEntry struct {
	Transformer string `json:"transformer"`
	Block       string `json:"block"`
	Data        []byte `json:"data"`
}

type jsonBlockEntry struct {
	Block string `json:"block"`
	Data  []byte `json:"data"`
}

type jsonTables struct {
	Relations       []jsonRelation         `json:"relations"`
	TransformerData []jsonTransformerEntry `json:"transformer_data"`
	BlockData       []jsonBlockEntry       `json:"block_data"`
}

// Encode serializes the tables into a sealed payload.
func (c *JSON) Encode(t structure.Tables) ([]byte, error) {
	doc := jsonTables{
		Relations:       make([]jsonRelation, 0, len(t.Relations)),
		TransformerData: make([]jsonTransformerEntry, 0, len(t.TransformerData)),
		BlockData:       make([]jsonBlockEntry, 0, len(t.BlockData)),
	}

	for _, parent := range sortedKeys(t.Relations) {
		children := t.Relations[parent]
		rel := jsonRelation{Block: string(parent), Children: make([]string, 0, len(children))}
		for _, child := range children {
			rel.Children = append(rel.Children, string(child))
		}
		doc.Relations = append(doc.Relations, rel)
	}

	tkeys := make([]structure.TransformerKey, 0, len(t.TransformerData))
	for k := range t.TransformerData {
		tkeys = append(tkeys, k)
	}
	sort.Slice(tkeys, func(i, j int) bool {
		if tkeys[i].Transformer != tkeys[j].Transformer {
			return tkeys[i].Transformer < tkeys[j].Transformer
		}
		return tkeys[i].Block < tkeys[j].Block
	})
	for _, k := range tkeys {
		doc.TransformerData = append(doc.TransformerData, jsonTransformerEntry{
			Transformer: k.Transformer,
			Block:       string(k.Block),
			Data:        t.TransformerData[k],
		})
	}

	for _, block := range sortedKeys(t.BlockData) {
		doc.BlockData = append(doc.BlockData, jsonBlockEntry{
			Block: string(block),
			Data:  t.BlockData[block],
		})
	}

	body, err := sonic.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return seal(codecIDJSON, c.compression, body)
}

// Decode deserializes a sealed payload.
func (c *JSON) Decode(data []byte) (structure.Tables, error) {
	body, err := open(codecIDJSON, data)
	if err != nil {
		return structure.Tables{}, err
	}

	var doc jsonTables
	if err := sonic.Unmarshal(body, &doc); err != nil {
		return structure.Tables{}, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}

	t := structure.NewTables()
	for _, rel := range doc.Relations {
		// Empty child lists normalize to nil, matching the binary codec.
		var children []structure.Key
		for _, child := range rel.Children {
			children = append(children, structure.Key(child))
		}
		t.Relations[structure.Key(rel.Block)] = children
	}
	for _, entry := range doc.TransformerData {
		key := structure.TransformerKey{Block: structure.Key(entry.Block), Transformer: entry.Transformer}
		t.TransformerData[key] = entry.Data
	}
	for _, entry := range doc.BlockData {
		t.BlockData[structure.Key(entry.Block)] = entry.Data
	}

	return t, nil
}

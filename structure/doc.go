// Package structure defines the block structure data model.
//
// A block structure is a tree of content blocks anchored at a root block,
// plus two annotation tables filled in by external producers:
//
//   - Relations: ordered parent -> children lists that define the tree
//   - TransformerData: opaque per-(block, transformer) payloads
//   - BlockData: opaque per-block attributes
//
// The three tables form one logical value and are always serialized and
// cached together. The package never interprets the annotation payloads;
// they are opaque bytes owned by whoever produced them.
package structure

package structure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New("block-v1:course+root")

	require.NotNil(t, s.Tables.Relations)
	require.NotNil(t, s.Tables.TransformerData)
	require.NotNil(t, s.Tables.BlockData)
	assert.Equal(t, Key("block-v1:course+root"), s.Root)
	assert.True(t, s.EditedAt.IsZero())
}

func TestNewFromTables(t *testing.T) {
	t.Run("initializes nil maps", func(t *testing.T) {
		s := NewFromTables("root", Tables{})

		require.NotNil(t, s.Tables.Relations)
		require.NotNil(t, s.Tables.TransformerData)
		require.NotNil(t, s.Tables.BlockData)
	})

	t.Run("keeps existing tables", func(t *testing.T) {
		tables := NewTables()
		tables.Relations["root"] = []Key{"a", "b"}

		s := NewFromTables("root", tables)
		assert.Equal(t, []Key{"a", "b"}, s.Children("root"))
	})
}

func TestBlockStructureAccessors(t *testing.T) {
	s := New("root")
	s.SetChildren("root", "ch1", "ch2")
	s.SetChildren("ch1", "leaf")
	s.SetTransformerData("visibility", "ch1", []byte(`{"hidden":false}`))
	s.SetBlockData("leaf", []byte(`{"display_name":"Leaf"}`))

	assert.Equal(t, []Key{"ch1", "ch2"}, s.Children("root"))
	assert.Nil(t, s.Children("ch2"))

	data, ok := s.TransformerData("visibility", "ch1")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"hidden":false}`), data)

	_, ok = s.TransformerData("visibility", "leaf")
	assert.False(t, ok)

	data, ok = s.BlockData("leaf")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"display_name":"Leaf"}`), data)

	_, ok = s.BlockData("root")
	assert.False(t, ok)
}

func TestBlocks(t *testing.T) {
	s := New("root")
	s.SetChildren("root", "b", "a")
	s.SetChildren("a", "c")

	assert.Equal(t, []Key{"a", "b", "c", "root"}, s.Blocks())
	assert.Equal(t, 4, s.Tables.Len())
}

func TestVersionSources(t *testing.T) {
	edited := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

	s := New("root")
	s.DataVersion = "published-42"
	s.EditedAt = edited

	assert.Equal(t, "published-42", s.DataVersion)
	assert.Equal(t, edited, s.EditedAt)
}

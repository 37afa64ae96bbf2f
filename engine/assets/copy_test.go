package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sprite struct {
	Name   string
	Frames []int
	Tags   map[string][]string
	Parent *sprite
	Extra  any
	hidden []int
}

func TestDeepCopy(t *testing.T) {
	src := sprite{
		Name:   "hero",
		Frames: []int{1, 2},
		Tags:   map[string][]string{"kind": {"player"}},
		Parent: &sprite{Name: "base", Frames: []int{7}},
		Extra:  []string{"a"},
		hidden: []int{5},
	}

	cp := deepCopy(src)
	require.Equal(t, src, cp)

	cp.Frames[0] = 42
	cp.Tags["kind"][0] = "enemy"
	cp.Parent.Frames[0] = 0
	cp.Extra.([]string)[0] = "b"

	assert.Equal(t, []int{1, 2}, src.Frames)
	assert.Equal(t, []string{"player"}, src.Tags["kind"])
	assert.Equal(t, []int{7}, src.Parent.Frames)
	assert.Equal(t, []string{"a"}, src.Extra)
	assert.Equal(t, []int{5}, cp.hidden)
}

func TestDeepCopyCycleAndNil(t *testing.T) {
	loop := &sprite{Name: "loop"}
	loop.Parent = loop

	cp := deepCopy(loop)
	assert.NotSame(t, loop, cp)
	assert.Same(t, cp, cp.Parent)

	assert.Nil(t, deepCopy[[]byte](nil))
	assert.Nil(t, deepCopy[any](nil))
	assert.Equal(t, 3, deepCopy(3))
}

func TestCatalogCopyPayloadOfSlice(t *testing.T) {
	c := NewCatalog[[]byte](LoaderFunc[[]byte](func(string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}), quiet())
	c.RegisterEntries(ManifestEntry{Name: "a", Path: "a.bin"})
	_, err := c.Load("a")
	require.NoError(t, err)

	cp, err := c.CopyPayload("a")
	require.NoError(t, err)
	cp[0] = 42

	original, err := c.Payload("a")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, original)
}

package loaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

func TestMaterialLoader(t *testing.T) {
	p := writeFile(t, t.TempDir(), "wood.amt", []byte(`
# wood material
name=wood
shader=Builtin.MaterialShader
diffuse_colour=1.0 0.5 0.25 1.0
shininess=8.0
diffuse_map_name=wood_diffuse
normal_map_name=wood_normal
autorelease=true
glossiness=3
`))

	m, err := (&MaterialLoader{Logger: core.DiscardLogger()}).Load(p)
	require.NoError(t, err)
	assert.Equal(t, MaterialConfig{
		Name:           "wood",
		ShaderName:     "Builtin.MaterialShader",
		AutoRelease:    true,
		DiffuseColour:  Colour{R: 1, G: 0.5, B: 0.25, A: 1},
		Shininess:      8,
		DiffuseMapName: "wood_diffuse",
		NormalMapName:  "wood_normal",
	}, m)
}

func TestMaterialLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	loader := &MaterialLoader{Logger: core.DiscardLogger()}

	testCases := map[string]string{
		"missing shader":     "name=wood\n",
		"colour arity":       "name=wood\nshader=s\ndiffuse_colour=1 1 1\n",
		"colour not a float": "name=wood\nshader=s\ndiffuse_colour=1 1 x 1\n",
		"colour out of range": "name=wood\nshader=s\ndiffuse_colour=1 1 2 1\n",
		"negative shininess": "name=wood\nshader=s\nshininess=-1\n",
		"bad autorelease":    "name=wood\nshader=s\nautorelease=maybe\n",
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, dir, "m.amt", []byte(content))
			m, err := loader.Load(p)
			assert.Error(t, err)
			assert.Equal(t, MaterialConfig{}, m)
		})
	}
}

package resource

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorforge/scenert/internal/core/serial"
)

func TestMaterialGraphRoundTrip(t *testing.T) {
	src := NewCache("", nil)
	reg := serial.NewRegistry()
	require.NoError(t, RegisterTypes(reg, src))

	mat := NewMaterial(src.Shader("basic.vert", "basic.frag"))
	mat.SetTexture("albedo", src.Texture("brick.png", true))
	mat.SetTexture("normal", src.Texture("brick_n.png", false))
	mat.SetFloat("roughness", 0.75)
	mat.SetVec3("tint", mgl64.Vec3{1, 0.5, 0.25})
	assert.Equal(t, []string{"albedo", "normal"}, mat.TextureNames())

	records, err := serial.NewGraphCodec(reg, nil).Serialize(mat)
	require.NoError(t, err)
	require.Len(t, records, 1, "descriptor resources are inline")
	assert.Equal(t, map[string]any{"type": ShaderTypeName, "vertex_path": "basic.vert", "fragment_path": "basic.frag"}, records[0]["shader"])

	dst := NewCache("", nil)
	dst.Texture("brick.png", true)
	reg2 := serial.NewRegistry()
	require.NoError(t, RegisterTypes(reg2, dst))
	objs, err := serial.NewGraphCodec(reg2, nil).Deserialize(records)
	require.NoError(t, err)

	got := objs[0].(*Material)
	assert.Equal(t, mat.UUID(), got.UUID())
	assert.Same(t, dst.Texture("brick.png", true), got.Textures["albedo"], "decoded descriptors come from the cache")
	assert.True(t, got.Textures["albedo"].Flip())
	assert.Equal(t, "brick_n.png", got.Textures["normal"].Path())
	assert.Equal(t, "basic.frag", got.Shader.FragmentPath())
	assert.Equal(t, 0.75, got.Floats["roughness"])
	assert.Equal(t, mgl64.Vec3{1, 0.5, 0.25}, got.Vec3s["tint"])
}

func TestDescriptorValidation(t *testing.T) {
	reg := serial.NewRegistry()
	require.NoError(t, RegisterTypes(reg, NewCache("", nil)))
	codec := serial.NewObjectCodec(reg)

	cases := []serial.Record{
		{"type": TextureTypeName},
		{"type": TextureTypeName, "path": 3},
		{"type": TextureTypeName, "path": "a.png", "flip": "yes"},
		{"type": ShaderTypeName, "vertex_path": "a.vert"},
		{"type": MeshTypeName, "mesh_file": ""},
		{"type": FontTypeName, "font_file_path": "a.ttf", "source": "web"},
	}
	for _, rec := range cases {
		_, err := codec.Decode(rec)
		assert.ErrorIs(t, err, ErrBadDescriptor, "%v", rec)
	}

	obj, err := codec.Decode(serial.Record{"type": FontTypeName, "font_file_path": "a.ttf", "source": "engine"})
	require.NoError(t, err)
	assert.Equal(t, SourceEngine, obj.(*Font).Source())
}

func TestDescriptorResourcesHaveNoAttrs(t *testing.T) {
	tex := NewCache("", nil).Texture("a.png", false)
	_, ok := tex.Attr("path")
	assert.False(t, ok)
	assert.ErrorIs(t, tex.SetAttr("path", serial.String("b.png")), serial.ErrUnknownAttribute)
}

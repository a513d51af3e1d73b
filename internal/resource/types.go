package resource

import (
	"errors"
	"fmt"

	"github.com/vectorforge/scenert/internal/core/serial"
)

const (
	TextureTypeName  = "Texture"
	ShaderTypeName   = "Shader"
	MeshTypeName     = "Mesh"
	FontTypeName     = "Font"
	MaterialTypeName = "Material"
)

// ErrBadDescriptor is returned when a descriptor is missing a field or has
// a field of the wrong type.
var ErrBadDescriptor = errors.New("bad resource descriptor")

// Source says where a font file lives.
type Source string

const (
	SourceGame   Source = "game"
	SourceEngine Source = "engine"
)

// Texture is an image resource. It is embedded in scene files by path and
// flip flag.
type Texture struct {
	serial.Base
	path     string
	flip     bool
	fullPath string
}

func (t *Texture) Path() string     { return t.path }
func (t *Texture) Flip() bool       { return t.flip }
func (t *Texture) FullPath() string { return t.fullPath }
func (t *Texture) TypeName() string { return TextureTypeName }

func (t *Texture) Descriptor() map[string]any {
	return map[string]any{"path": t.path, "flip": t.flip}
}

type Shader struct {
	serial.Base
	vertexPath   string
	fragmentPath string
}

func (s *Shader) VertexPath() string   { return s.vertexPath }
func (s *Shader) FragmentPath() string { return s.fragmentPath }
func (s *Shader) TypeName() string     { return ShaderTypeName }

func (s *Shader) Descriptor() map[string]any {
	return map[string]any{"vertex_path": s.vertexPath, "fragment_path": s.fragmentPath}
}

// Mesh names an imported mesh; vertex and index data live next to
// basePath.
type Mesh struct {
	serial.Base
	file     string
	basePath string
}

func (m *Mesh) File() string               { return m.file }
func (m *Mesh) VertexDataPath() string     { return m.basePath + ".vertex_data" }
func (m *Mesh) IndexDataPath() string      { return m.basePath + ".index_data" }
func (m *Mesh) TypeName() string           { return MeshTypeName }
func (m *Mesh) Descriptor() map[string]any { return map[string]any{"mesh_file": m.file} }

type Font struct {
	serial.Base
	path   string
	source Source
}

func (f *Font) Path() string     { return f.path }
func (f *Font) Source() Source   { return f.source }
func (f *Font) TypeName() string { return FontTypeName }

func (f *Font) Descriptor() map[string]any {
	return map[string]any{"font_file_path": f.path, "source": string(f.source)}
}

// Descriptor resources carry no declared attributes.

func (t *Texture) Attr(string) (serial.Value, bool) { return serial.Value{}, false }
func (s *Shader) Attr(string) (serial.Value, bool)  { return serial.Value{}, false }
func (m *Mesh) Attr(string) (serial.Value, bool)    { return serial.Value{}, false }
func (f *Font) Attr(string) (serial.Value, bool)    { return serial.Value{}, false }

func (t *Texture) SetAttr(name string, _ serial.Value) error {
	return serial.UnknownAttr(TextureTypeName, name)
}
func (s *Shader) SetAttr(name string, _ serial.Value) error {
	return serial.UnknownAttr(ShaderTypeName, name)
}
func (m *Mesh) SetAttr(name string, _ serial.Value) error {
	return serial.UnknownAttr(MeshTypeName, name)
}
func (f *Font) SetAttr(name string, _ serial.Value) error {
	return serial.UnknownAttr(FontTypeName, name)
}

// RegisterTypes adds the resource types to reg. Descriptor types load
// through c, so every scene decoded with reg shares c's instances.
func RegisterTypes(reg *serial.Registry, c *Cache) error {
	types := []*serial.TypeInfo{
		{
			Name: TextureTypeName,
			FromDescriptor: func(f map[string]any) (serial.Object, error) {
				p, err := stringField(f, "path", true)
				if err != nil {
					return nil, err
				}
				flip, err := boolField(f, "flip")
				if err != nil {
					return nil, err
				}
				return c.Texture(p, flip), nil
			},
		},
		{
			Name: ShaderTypeName,
			FromDescriptor: func(f map[string]any) (serial.Object, error) {
				v, err := stringField(f, "vertex_path", true)
				if err != nil {
					return nil, err
				}
				fr, err := stringField(f, "fragment_path", true)
				if err != nil {
					return nil, err
				}
				return c.Shader(v, fr), nil
			},
		},
		{
			Name: MeshTypeName,
			FromDescriptor: func(f map[string]any) (serial.Object, error) {
				name, err := stringField(f, "mesh_file", true)
				if err != nil {
					return nil, err
				}
				return c.Mesh(name), nil
			},
		},
		{
			Name: FontTypeName,
			FromDescriptor: func(f map[string]any) (serial.Object, error) {
				p, err := stringField(f, "font_file_path", true)
				if err != nil {
					return nil, err
				}
				src, err := stringField(f, "source", false)
				if err != nil {
					return nil, err
				}
				switch Source(src) {
				case "", SourceGame, SourceEngine:
				default:
					return nil, fmt.Errorf("%w: font source %q", ErrBadDescriptor, src)
				}
				return c.Font(p, Source(src)), nil
			},
		},
		MaterialType,
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func stringField(f map[string]any, key string, required bool) (string, error) {
	raw, ok := f[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("%w: missing %q", ErrBadDescriptor, key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", ErrBadDescriptor, key, raw)
	}
	if required && s == "" {
		return "", fmt.Errorf("%w: empty %q", ErrBadDescriptor, key)
	}
	return s, nil
}

func boolField(f map[string]any, key string) (bool, error) {
	raw, ok := f[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q is %T, want bool", ErrBadDescriptor, key, raw)
	}
	return b, nil
}

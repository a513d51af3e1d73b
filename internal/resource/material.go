package resource

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/serial"
)

// Material binds a shader to named textures and uniform values. Unlike
// the descriptor resources it is a plain graph object: renderers sharing a
// material reference one record.
type Material struct {
	serial.Base
	Shader   *Shader
	Textures map[string]*Texture
	Floats   map[string]float64
	Vec3s    map[string]mgl64.Vec3
}

var MaterialType = &serial.TypeInfo{
	Name:  MaterialTypeName,
	Attrs: []string{"shader", "textures", "floats", "vec3s"},
	New:   func() serial.Object { return &Material{} },
}

func NewMaterial(shader *Shader) *Material {
	return &Material{
		Base:     serial.NewBase(),
		Shader:   shader,
		Textures: make(map[string]*Texture),
		Floats:   make(map[string]float64),
		Vec3s:    make(map[string]mgl64.Vec3),
	}
}

func (m *Material) TypeName() string { return MaterialTypeName }

func (m *Material) SetTexture(name string, t *Texture) {
	if m.Textures == nil {
		m.Textures = make(map[string]*Texture)
	}
	m.Textures[name] = t
}

func (m *Material) SetFloat(name string, f float64) {
	if m.Floats == nil {
		m.Floats = make(map[string]float64)
	}
	m.Floats[name] = f
}

func (m *Material) SetVec3(name string, v mgl64.Vec3) {
	if m.Vec3s == nil {
		m.Vec3s = make(map[string]mgl64.Vec3)
	}
	m.Vec3s[name] = v
}

// TextureNames returns the bound texture slots in order.
func (m *Material) TextureNames() []string {
	names := make([]string, 0, len(m.Textures))
	for k := range m.Textures {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (m *Material) Attr(name string) (serial.Value, bool) {
	switch name {
	case "shader":
		return serial.Obj(m.Shader), true
	case "textures":
		out := make(map[string]serial.Value, len(m.Textures))
		for k, t := range m.Textures {
			out[k] = serial.Obj(t)
		}
		return serial.Map(out), true
	case "floats":
		return serial.FloatMap(m.Floats), true
	case "vec3s":
		out := make(map[string]serial.Value, len(m.Vec3s))
		for k, v := range m.Vec3s {
			out[k] = serial.Vector(v)
		}
		return serial.Map(out), true
	}
	return serial.Value{}, false
}

func (m *Material) SetAttr(name string, v serial.Value) error {
	switch name {
	case "shader":
		s, err := serial.As[*Shader](v)
		if err != nil {
			return err
		}
		m.Shader = s
	case "textures":
		items, err := v.Map()
		if err != nil {
			return err
		}
		m.Textures = make(map[string]*Texture, len(items))
		for k, it := range items {
			t, err := serial.As[*Texture](it)
			if err != nil {
				return fmt.Errorf("texture %q: %w", k, err)
			}
			m.Textures[k] = t
		}
	case "floats":
		f, err := serial.Floats(v)
		if err != nil {
			return err
		}
		m.Floats = f
	case "vec3s":
		items, err := v.Map()
		if err != nil {
			return err
		}
		m.Vec3s = make(map[string]mgl64.Vec3, len(items))
		for k, it := range items {
			vec, err := it.Vec3()
			if err != nil {
				return fmt.Errorf("vec3 %q: %w", k, err)
			}
			m.Vec3s[k] = vec
		}
	default:
		return serial.UnknownAttr(MaterialTypeName, name)
	}
	return nil
}

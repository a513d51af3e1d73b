package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/serial"
	"github.com/vectorforge/scenert/internal/resource"
)

// MeshRenderer draws a mesh with a material at its entity's world
// transform. Static renderers are not re-synced after Start.
type MeshRenderer struct {
	ecs.BaseBehavior
	Mesh     *resource.Mesh
	Material *resource.Material
	Static   bool

	model mgl64.Mat4
}

func NewMeshRenderer(mesh *resource.Mesh, mat *resource.Material, static bool) *MeshRenderer {
	return &MeshRenderer{
		BaseBehavior: ecs.NewBaseBehavior(),
		Mesh:         mesh,
		Material:     mat,
		Static:       static,
	}
}

func (r *MeshRenderer) TypeName() string { return MeshRendererTypeName }
func (r *MeshRenderer) Renderer() bool   { return true }

func (r *MeshRenderer) Start() error {
	r.MustBeAlive("Start")
	r.model = r.GameObject().WorldMatrix()
	return nil
}

// Model returns the model matrix to draw with. Static renderers keep the
// matrix captured at Start.
func (r *MeshRenderer) Model() mgl64.Mat4 {
	r.MustBeAlive("Model")
	if !r.Static {
		r.model = r.GameObject().WorldMatrix()
	}
	return r.model
}

// RenderKey groups renderers that can be batched together.
func (r *MeshRenderer) RenderKey() string {
	r.MustBeAlive("RenderKey")
	var mesh, mat string
	if r.Mesh != nil {
		mesh = r.Mesh.File()
	}
	if r.Material != nil {
		mat = r.Material.UUID()
	}
	return mesh + "|" + mat
}

func (r *MeshRenderer) Attr(name string) (serial.Value, bool) {
	r.MustBeAlive("Attr")
	switch name {
	case "mesh":
		return serial.Obj(r.Mesh), true
	case "material":
		return serial.Obj(r.Material), true
	case "static":
		return serial.Bool(r.Static), true
	}
	return r.BaseBehavior.Attr(name)
}

func (r *MeshRenderer) SetAttr(name string, v serial.Value) error {
	r.MustBeAlive("SetAttr")
	switch name {
	case "mesh":
		m, err := serial.As[*resource.Mesh](v)
		if err != nil {
			return err
		}
		r.Mesh = m
	case "material":
		m, err := serial.As[*resource.Material](v)
		if err != nil {
			return err
		}
		r.Material = m
	case "static":
		if v.IsNil() {
			r.Static = false
			return nil
		}
		b, err := v.Bool()
		if err != nil {
			return err
		}
		r.Static = b
	default:
		return r.BaseBehavior.SetAttr(name, v)
	}
	return nil
}

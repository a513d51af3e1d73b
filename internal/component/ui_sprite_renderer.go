package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/serial"
	"github.com/vectorforge/scenert/internal/resource"
)

// UISpriteRenderer draws its material over the entity's UIRect.
type UISpriteRenderer struct {
	ecs.BaseBehavior
	Material *resource.Material

	rect *UIRect
}

func NewUISpriteRenderer(mat *resource.Material) *UISpriteRenderer {
	return &UISpriteRenderer{BaseBehavior: ecs.NewBaseBehavior(), Material: mat}
}

func (s *UISpriteRenderer) TypeName() string { return UISpriteRendererTypeName }
func (s *UISpriteRenderer) UIRenderer() bool { return true }

func (s *UISpriteRenderer) Start() error {
	s.MustBeAlive("Start")
	r, err := ecs.Require[*UIRect](s, UIRectTypeName)
	if err != nil {
		return err
	}
	s.rect = r
	return nil
}

// Quad returns the corners of the sprite counter-clockwise from the
// bottom-left.
func (s *UISpriteRenderer) Quad() [4]mgl64.Vec2 {
	s.MustBeAlive("Quad")
	r := s.rect.ComputedRect()
	return [4]mgl64.Vec2{
		{r.Left, r.Bottom},
		{r.Right, r.Bottom},
		{r.Right, r.Top},
		{r.Left, r.Top},
	}
}

func (s *UISpriteRenderer) Attr(name string) (serial.Value, bool) {
	s.MustBeAlive("Attr")
	if name == "material" {
		return serial.Obj(s.Material), true
	}
	return s.BaseBehavior.Attr(name)
}

func (s *UISpriteRenderer) SetAttr(name string, v serial.Value) error {
	s.MustBeAlive("SetAttr")
	if name != "material" {
		return s.BaseBehavior.SetAttr(name, v)
	}
	m, err := serial.As[*resource.Material](v)
	if err != nil {
		return err
	}
	s.Material = m
	return nil
}

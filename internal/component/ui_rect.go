package component

import (
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/serial"
)

var uiRectAttrs = []string{
	"left_ratio", "right_ratio", "top_ratio", "bottom_ratio",
	"left_offset", "right_offset", "top_offset", "bottom_offset",
}

// UIRect places a rectangle inside the parent entity's UIRect, or the
// viewport when the parent has none. Ratios are fractions of the parent's
// size measured inward from each edge; offsets are added in pixels.
type UIRect struct {
	ecs.BaseBehavior
	LeftRatio, RightRatio, TopRatio, BottomRatio     float64
	LeftOffset, RightOffset, TopOffset, BottomOffset float64

	env *Env
}

func NewUIRect(env *Env) *UIRect {
	return &UIRect{BaseBehavior: ecs.NewBaseBehavior(), env: env}
}

func (r *UIRect) TypeName() string { return UIRectTypeName }

// ParentRect returns the rectangle r is laid out in.
func (r *UIRect) ParentRect() Rect {
	r.MustBeAlive("ParentRect")
	if p := r.GameObject().Parent(); p != nil {
		if pr, ok := ecs.BehaviorOf[*UIRect](p); ok {
			return pr.ComputedRect()
		}
	}
	return r.env.viewport()
}

func (r *UIRect) ComputedRect() Rect {
	r.MustBeAlive("ComputedRect")
	pr := r.ParentRect()
	w, h := pr.Width(), pr.Height()
	return Rect{
		Left:   pr.Left + w*r.LeftRatio + r.LeftOffset,
		Right:  pr.Right - w*r.RightRatio - r.RightOffset,
		Bottom: pr.Bottom + h*r.BottomRatio + r.BottomOffset,
		Top:    pr.Top - h*r.TopRatio - r.TopOffset,
	}
}

func (r *UIRect) field(name string) *float64 {
	switch name {
	case "left_ratio":
		return &r.LeftRatio
	case "right_ratio":
		return &r.RightRatio
	case "top_ratio":
		return &r.TopRatio
	case "bottom_ratio":
		return &r.BottomRatio
	case "left_offset":
		return &r.LeftOffset
	case "right_offset":
		return &r.RightOffset
	case "top_offset":
		return &r.TopOffset
	case "bottom_offset":
		return &r.BottomOffset
	}
	return nil
}

func (r *UIRect) Attr(name string) (serial.Value, bool) {
	r.MustBeAlive("Attr")
	if f := r.field(name); f != nil {
		return serial.Float(*f), true
	}
	return r.BaseBehavior.Attr(name)
}

// SetAttr treats nil as zero, so sparse records leave unset edges flush
// with the parent.
func (r *UIRect) SetAttr(name string, v serial.Value) error {
	r.MustBeAlive("SetAttr")
	f := r.field(name)
	if f == nil {
		return r.BaseBehavior.SetAttr(name, v)
	}
	if v.IsNil() {
		*f = 0
		return nil
	}
	x, err := v.Float()
	if err != nil {
		return err
	}
	*f = x
	return nil
}

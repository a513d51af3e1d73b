package component

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/serial"
)

// Spinner rotates its entity about Axis at Speed degrees per second.
type Spinner struct {
	ecs.BaseBehavior
	Axis  mgl64.Vec3
	Speed float64
}

func NewSpinner(axis mgl64.Vec3, speed float64) *Spinner {
	return &Spinner{BaseBehavior: ecs.NewBaseBehavior(), Axis: axis, Speed: speed}
}

func (s *Spinner) TypeName() string { return SpinnerTypeName }

func (s *Spinner) Update(dt time.Duration) {
	s.MustBeAlive("Update")
	if s.Speed == 0 {
		return
	}
	s.GameObject().RotateAround(s.Axis, s.Speed*dt.Seconds())
}

func (s *Spinner) Attr(name string) (serial.Value, bool) {
	s.MustBeAlive("Attr")
	switch name {
	case "axis":
		return serial.Vector(s.Axis), true
	case "speed":
		return serial.Float(s.Speed), true
	}
	return s.BaseBehavior.Attr(name)
}

func (s *Spinner) SetAttr(name string, v serial.Value) error {
	s.MustBeAlive("SetAttr")
	switch name {
	case "axis":
		a, err := v.Vec3()
		if err != nil {
			return err
		}
		s.Axis = a
	case "speed":
		f, err := v.Float()
		if err != nil {
			return err
		}
		s.Speed = f
	default:
		return s.BaseBehavior.SetAttr(name, v)
	}
	return nil
}

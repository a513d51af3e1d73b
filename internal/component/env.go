package component

import (
	"github.com/vectorforge/scenert/internal/scripting"
	"go.uber.org/zap"
)

// Rect is an axis-aligned screen rectangle with a bottom-left origin.
type Rect struct {
	Left, Right, Bottom, Top float64
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= min(r.Left, r.Right) && x <= max(r.Left, r.Right) &&
		y >= min(r.Bottom, r.Top) && y <= max(r.Bottom, r.Top)
}

// Pointer is the pointer state sampled by the input collaborator.
type Pointer struct {
	X, Y    float64
	Pressed bool
}

// Env carries the external collaborators behaviors consult. Any field may
// be nil; behaviors that need a missing one fail in Start.
type Env struct {
	Scripts  *scripting.Engine
	Viewport func() Rect
	Pointer  func() (Pointer, bool)
	Log      *zap.Logger
}

func (e *Env) viewport() Rect {
	if e == nil || e.Viewport == nil {
		return Rect{}
	}
	return e.Viewport()
}

func (e *Env) pointer() (Pointer, bool) {
	if e == nil || e.Pointer == nil {
		return Pointer{}, false
	}
	return e.Pointer()
}

func (e *Env) logger() *zap.Logger {
	if e == nil || e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

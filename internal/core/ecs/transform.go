package ecs

import (
	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisRight   = mgl64.Vec3{1, 0, 0}
	axisUp      = mgl64.Vec3{0, 1, 0}
	axisForward = mgl64.Vec3{0, 0, 1}
	unitScale   = mgl64.Vec3{1, 1, 1}
)

// Transform is the local TRS state of an entity. Every mutation goes
// through Entity so the local version is bumped.
type Transform struct {
	pos          mgl64.Vec3
	rot          mgl64.Quat
	scale        mgl64.Vec3
	localVersion uint64
}

func newTransform(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) Transform {
	return Transform{pos: pos, rot: CanonicalQuat(rot), scale: scale}
}

// localMatrix composes scale, then rotation, then translation.
func (t *Transform) localMatrix() mgl64.Mat4 {
	m := mgl64.Translate3D(t.pos[0], t.pos[1], t.pos[2])
	m = m.Mul4(t.rot.Mat4())
	return m.Mul4(mgl64.Scale3D(t.scale[0], t.scale[1], t.scale[2]))
}

// CanonicalQuat normalizes q and picks the representative with W >= 0.
// The zero quaternion maps to identity.
func CanonicalQuat(q mgl64.Quat) mgl64.Quat {
	if q.Len() == 0 {
		return mgl64.QuatIdent()
	}
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return q
}

// EulerToQuat converts XYZ Euler angles in degrees.
func EulerToQuat(deg mgl64.Vec3) mgl64.Quat {
	return CanonicalQuat(mgl64.AnglesToQuat(
		mgl64.DegToRad(deg[0]),
		mgl64.DegToRad(deg[1]),
		mgl64.DegToRad(deg[2]),
		mgl64.XYZ,
	))
}

func isZeroQuat(q mgl64.Quat) bool {
	return q.W == 0 && q.V == (mgl64.Vec3{})
}

// transformPoint applies m to a point.
func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func unitDirection(m mgl64.Mat4, axis, origin mgl64.Vec3) mgl64.Vec3 {
	d := transformPoint(m, axis).Sub(origin)
	if d.Len() == 0 {
		return d
	}
	return d.Normalize()
}

package serial

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind discriminates the arms of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindVector
	KindQuaternion
	KindMatrix
	KindList
	KindMap
	KindObject
	KindUnresolved
)

var kindNames = [...]string{
	KindNil:        "nil",
	KindString:     "string",
	KindInt:        "int",
	KindFloat:      "float",
	KindBool:       "bool",
	KindVector:     "vector",
	KindQuaternion: "quaternion",
	KindMatrix:     "matrix",
	KindList:       "list",
	KindMap:        "map",
	KindObject:     "object",
	KindUnresolved: "unresolved",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Ref is the placeholder produced while decoding a `_ref` record. It only
// lives inside a pending decode and is replaced before any attribute is
// assigned to a typed field.
type Ref struct {
	UUID string
	Type string
}

// Value is a closed tagged union over every attribute shape the codec
// understands. The zero Value is nil.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	nums []float64
	list []Value
	m    map[string]Value
	obj  Object
	ref  Ref
}

func Nil() Value                { return Value{} }
func String(s string) Value     { return Value{kind: KindString, s: s} }
func Int(i int64) Value         { return Value{kind: KindInt, i: i} }
func Float(f float64) Value     { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func List(vs ...Value) Value    { return Value{kind: KindList, list: vs} }
func Unresolved(r Ref) Value    { return Value{kind: KindUnresolved, ref: r} }
func Vector(v mgl64.Vec3) Value { return Value{kind: KindVector, nums: []float64{v[0], v[1], v[2]}} }

func Quaternion(q mgl64.Quat) Value {
	return Value{kind: KindQuaternion, nums: []float64{q.W, q.V[0], q.V[1], q.V[2]}}
}

func Matrix(m mgl64.Mat4) Value {
	nums := make([]float64, 16)
	copy(nums, m[:])
	return Value{kind: KindMatrix, nums: nums}
}

func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Obj wraps a serializable object. A nil object (including a typed nil
// pointer) becomes Nil.
func Obj(o Object) Value {
	if isNilObject(o) {
		return Nil()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) Str() (string, error) {
	if v.kind != KindString {
		return "", mismatch(KindString, v.kind)
	}
	return v.s, nil
}

func (v Value) Int() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	}
	return 0, mismatch(KindInt, v.kind)
}

// Float accepts int values too; files written by hand often drop the
// fractional part.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	return 0, mismatch(KindFloat, v.kind)
}

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v.kind)
	}
	return v.b, nil
}

func (v Value) Vec3() (mgl64.Vec3, error) {
	if v.kind != KindVector || len(v.nums) != 3 {
		return mgl64.Vec3{}, mismatch(KindVector, v.kind)
	}
	return mgl64.Vec3{v.nums[0], v.nums[1], v.nums[2]}, nil
}

func (v Value) Quat() (mgl64.Quat, error) {
	if v.kind != KindQuaternion || len(v.nums) != 4 {
		return mgl64.Quat{}, mismatch(KindQuaternion, v.kind)
	}
	return mgl64.Quat{W: v.nums[0], V: mgl64.Vec3{v.nums[1], v.nums[2], v.nums[3]}}, nil
}

func (v Value) Mat4() (mgl64.Mat4, error) {
	var m mgl64.Mat4
	if v.kind != KindMatrix || len(v.nums) != 16 {
		return m, mismatch(KindMatrix, v.kind)
	}
	copy(m[:], v.nums)
	return m, nil
}

// List returns the elements of a list value. Nil is treated as empty.
func (v Value) List() ([]Value, error) {
	switch v.kind {
	case KindList:
		return v.list, nil
	case KindNil:
		return nil, nil
	}
	return nil, mismatch(KindList, v.kind)
}

// Map returns the entries of a map value. Nil is treated as empty.
func (v Value) Map() (map[string]Value, error) {
	switch v.kind {
	case KindMap:
		return v.m, nil
	case KindNil:
		return nil, nil
	}
	return nil, mismatch(KindMap, v.kind)
}

// Object returns the wrapped object, or nil for a nil value.
func (v Value) Object() (Object, error) {
	switch v.kind {
	case KindObject:
		return v.obj, nil
	case KindNil:
		return nil, nil
	}
	return nil, mismatch(KindObject, v.kind)
}

func (v Value) Ref() (Ref, bool) {
	return v.ref, v.kind == KindUnresolved
}

// As extracts an object of a concrete type from v. Nil yields the zero T.
func As[T Object](v Value) (T, error) {
	var zero T
	o, err := v.Object()
	if err != nil || o == nil {
		return zero, err
	}
	t, ok := o.(T)
	if !ok {
		return zero, fmt.Errorf("%w: want %T, got %s", ErrTypeMismatch, zero, o.TypeName())
	}
	return t, nil
}

// Floats converts a map value into plain floats.
func Floats(v Value) (map[string]float64, error) {
	m, err := v.Map()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(m))
	for k, e := range m {
		f, err := e.Float()
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

// FloatMap is the inverse of Floats.
func FloatMap(m map[string]float64) Value {
	out := make(map[string]Value, len(m))
	for k, f := range m {
		out[k] = Float(f)
	}
	return Map(out)
}

func mismatch(want, got Kind) error {
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, got)
}

package serial

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUnregisteredTypeIsUnauthorized(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&TypeInfo{Name: "Foo", New: func() Object { return &node{} }})
	codec := NewObjectCodec(reg)

	_, err := codec.Decode(Record{"type": "Bar", "uuid": "x"})
	require.ErrorIs(t, err, ErrUnauthorizedType)
	var ue *UnauthorizedTypeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Bar", ue.Type)
}

func TestDecodeNestedUnregisteredTypeIsUnauthorized(t *testing.T) {
	codec := NewObjectCodec(testRegistry(texCache{}))
	_, err := codec.Decode(Record{
		"type": "Node",
		"uuid": "n1",
		"next": map[string]any{"type": "Shell", "uuid": "evil"},
	})
	assert.ErrorIs(t, err, ErrUnauthorizedType)
}

func TestEncodeEmitsDeclaredAttributes(t *testing.T) {
	cache := texCache{}
	codec := NewObjectCodec(testRegistry(cache))

	other := newNode("other")
	n := newNode("main")
	n.Count = 7
	n.Weight = 0.5
	n.Flag = true
	n.Pos = mgl64.Vec3{1, 2, 3}
	n.Next = other
	n.Items = []*node{other}
	n.Props = map[string]Value{"hp": Int(3), "label": String("x")}
	n.Skin = cache.load("hero.png")

	rec, err := codec.Encode(n)
	require.NoError(t, err)

	assert.Equal(t, "Node", rec.Type())
	assert.Equal(t, n.UUID(), rec.UUID())
	assert.Equal(t, map[string]any{"type": "string", "value": "main"}, rec["name"])
	assert.Equal(t, map[string]any{"type": "int", "value": int64(7)}, rec["count"])
	assert.Equal(t, map[string]any{"type": "float64", "value": 0.5}, rec["weight"])
	assert.Equal(t, map[string]any{"type": "bool", "value": true}, rec["flag"])
	assert.Equal(t, map[string]any{"type": "Vector", "value": []any{1.0, 2.0, 3.0}}, rec["pos"])
	assert.Equal(t, map[string]any{"type": "Node", "_ref": other.UUID()}, rec["next"])
	assert.Equal(t, map[string]any{"type": "List", "value": []any{
		map[string]any{"type": "Node", "_ref": other.UUID()},
	}}, rec["items"])
	assert.Equal(t, map[string]any{"type": "Map", "value": map[string]any{
		"hp":    map[string]any{"type": "int", "value": int64(3)},
		"label": map[string]any{"type": "string", "value": "x"},
	}}, rec["props"])
	assert.Equal(t, map[string]any{"type": "Tex", "path": "hero.png"}, rec["skin"], "descriptor objects are inline, without uuid")
}

func TestEncodeNilAndUnregistered(t *testing.T) {
	codec := NewObjectCodec(NewRegistry())
	_, err := codec.Encode(newNode("x"))
	assert.ErrorIs(t, err, ErrUnauthorizedType)

	v, err := codec.EncodeValue(Nil())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "nil", "value": nil}, v)

	_, err = codec.EncodeValue(Obj(newNode("x")))
	assert.ErrorIs(t, err, ErrUnauthorizedType)
}

func TestDecodeSingleRecord(t *testing.T) {
	cache := texCache{}
	codec := NewObjectCodec(testRegistry(cache))

	obj, err := codec.Decode(Record{
		"type":   "Node",
		"uuid":   "n1",
		"name":   map[string]any{"type": "String", "value": "legacy"},
		"count":  map[string]any{"type": "Integer", "value": 4.0},
		"weight": map[string]any{"type": "Float", "value": 2},
		"pos":    map[string]any{"type": "Vector", "value": []any{1, 2.5, json.Number("3")}},
		"items":  map[string]any{"type": "Array", "value": []any{}},
		"props":  map[string]any{"type": "Hash", "value": map[any]any{"k": map[string]any{"type": "bool", "value": false}}},
		"skin":   map[string]any{"type": "Tex", "path": "a.png"},
		"next":   map[string]any{"type": "NilClass"},
	})
	require.NoError(t, err)
	n := obj.(*node)
	assert.Equal(t, "n1", n.UUID())
	assert.Equal(t, "legacy", n.Name)
	assert.Equal(t, int64(4), n.Count)
	assert.Equal(t, 2.0, n.Weight)
	assert.Equal(t, mgl64.Vec3{1, 2.5, 3}, n.Pos)
	assert.Empty(t, n.Items)
	assert.Equal(t, map[string]Value{"k": Bool(false)}, n.Props)
	assert.Same(t, cache.load("a.png"), n.Skin)
	assert.Nil(t, n.Next)
	assert.Zero(t, n.awake, "single-record decode runs no hooks")
}

func TestDecodeErrors(t *testing.T) {
	codec := NewObjectCodec(testRegistry(texCache{}))
	cases := []struct {
		name string
		rec  Record
		want error
	}{
		{"ref needs a graph", Record{"type": "Node", "uuid": "a", "next": map[string]any{"type": "Node", "_ref": "b"}}, ErrUnresolvedReference},
		{"no type", Record{"uuid": "a"}, ErrMalformedRecord},
		{"no uuid", Record{"type": "Node"}, ErrMalformedRecord},
		{"untagged value", Record{"type": "Node", "uuid": "a", "name": "bare"}, ErrMalformedRecord},
		{"wrong primitive", Record{"type": "Node", "uuid": "a", "name": map[string]any{"type": "string", "value": 3}}, ErrTypeMismatch},
		{"fractional int", Record{"type": "Node", "uuid": "a", "count": map[string]any{"type": "int", "value": 1.5}}, ErrTypeMismatch},
		{"int past int64", Record{"type": "Node", "uuid": "a", "count": map[string]any{"type": "int", "value": 1e19}}, ErrTypeMismatch},
		{"infinite int", Record{"type": "Node", "uuid": "a", "count": map[string]any{"type": "int", "value": math.Inf(-1)}}, ErrTypeMismatch},
		{"short vector", Record{"type": "Node", "uuid": "a", "pos": map[string]any{"type": "Vector", "value": []any{1.0}}}, ErrTypeMismatch},
		{"attr kind", Record{"type": "Node", "uuid": "a", "flag": map[string]any{"type": "string", "value": "yes"}}, ErrTypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.rec)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestToInt64Range(t *testing.T) {
	for _, v := range []any{
		math.Inf(1),
		math.NaN(),
		9223372036854775808.0,
		-9223372036854777856.0,
		json.Number("1e300"),
		json.Number("9223372036854775808"),
		json.Number("big"),
	} {
		_, err := toInt64(v)
		assert.ErrorIs(t, err, ErrTypeMismatch, "%v", v)
	}

	for v, want := range map[any]int64{
		-9223372036854775808.0: math.MinInt64,
		1e18:                   1_000_000_000_000_000_000,
		json.Number("1e3"):     1000,
		json.Number("-42"):     -42,
	} {
		got, err := toInt64(v)
		require.NoError(t, err, "%v", v)
		assert.Equal(t, want, got)
	}
}

func TestDecodeAbstractType(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&TypeInfo{Name: "Shape"})
	_, err := NewObjectCodec(reg).Decode(Record{"type": "Shape", "uuid": "s"})
	assert.ErrorIs(t, err, ErrAbstractType)
}

func TestValueAccessors(t *testing.T) {
	f, err := Int(3).Float()
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	_, err = String("x").Int()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	items, err := Nil().List()
	require.NoError(t, err)
	assert.Nil(t, items)

	m := mgl64.Ident4()
	m[12] = 5
	got, err := Matrix(m).Mat4()
	require.NoError(t, err)
	assert.Equal(t, m, got)

	q := mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0})
	gq, err := Quaternion(q).Quat()
	require.NoError(t, err)
	assert.Equal(t, q, gq)

	floats, err := Floats(FloatMap(map[string]float64{"a": 1, "b": 2}))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, floats)

	var typed *node
	assert.True(t, Obj(typed).IsNil())
	_, err = As[*tex](Obj(newNode("n")))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, "quaternion", KindQuaternion.String())
}

package serial

import (
	"encoding/json"
	"fmt"
	"math"
)

// Record is one object in the portable format: `type`, `uuid`, and one
// tagged value per declared attribute. Nested tagged values are plain
// map[string]any so that YAML and JSON decoders produce them directly.
type Record map[string]any

const (
	keyType  = "type"
	keyUUID  = "uuid"
	keyRef   = "_ref"
	keyValue = "value"
)

// Primitive and structured type tags.
const (
	TagNil        = "nil"
	TagString     = "string"
	TagInt        = "int"
	TagFloat      = "float64"
	TagBool       = "bool"
	TagList       = "List"
	TagMap        = "Map"
	TagVector     = "Vector"
	TagQuaternion = "Quaternion"
	TagMatrix     = "Matrix"
)

// Type returns the record's type tag.
func (r Record) Type() string {
	s, _ := r[keyType].(string)
	return s
}

// UUID returns the record's uuid.
func (r Record) UUID() string {
	s, _ := r[keyUUID].(string)
	return s
}

// ObjectCodec converts single objects to and from records.
type ObjectCodec struct {
	reg *Registry
}

func NewObjectCodec(reg *Registry) *ObjectCodec {
	return &ObjectCodec{reg: reg}
}

func (c *ObjectCodec) Registry() *Registry { return c.reg }

// Encode emits the record of obj: its type tag, uuid and every declared
// attribute in declaration order (ancestors first).
func (c *ObjectCodec) Encode(obj Object) (Record, error) {
	if obj.UUID() == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingUUID, obj.TypeName())
	}
	t, ok := c.reg.Lookup(obj.TypeName())
	if !ok {
		return nil, &UnauthorizedTypeError{Type: obj.TypeName()}
	}
	rec := Record{keyType: t.Name, keyUUID: obj.UUID()}
	if d, ok := obj.(Descriptor); ok {
		if err := mergeDescriptor(rec, t.Name, d); err != nil {
			return nil, err
		}
	}
	for _, attr := range t.Attributes() {
		v, ok := obj.Attr(attr)
		if !ok {
			return nil, UnknownAttr(t.Name, attr)
		}
		tv, err := c.EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, attr, err)
		}
		rec[attr] = tv
	}
	return rec, nil
}

// EncodeValue produces the tagged form of one attribute value.
func (c *ObjectCodec) EncodeValue(v Value) (map[string]any, error) {
	switch v.kind {
	case KindNil:
		return map[string]any{keyType: TagNil, keyValue: nil}, nil
	case KindString:
		return map[string]any{keyType: TagString, keyValue: v.s}, nil
	case KindInt:
		return map[string]any{keyType: TagInt, keyValue: v.i}, nil
	case KindFloat:
		return map[string]any{keyType: TagFloat, keyValue: v.f}, nil
	case KindBool:
		return map[string]any{keyType: TagBool, keyValue: v.b}, nil
	case KindVector:
		return map[string]any{keyType: TagVector, keyValue: numsToAny(v.nums)}, nil
	case KindQuaternion:
		return map[string]any{keyType: TagQuaternion, keyValue: numsToAny(v.nums)}, nil
	case KindMatrix:
		return map[string]any{keyType: TagMatrix, keyValue: numsToAny(v.nums)}, nil
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			tv, err := c.EncodeValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = tv
		}
		return map[string]any{keyType: TagList, keyValue: out}, nil
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			tv, err := c.EncodeValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = tv
		}
		return map[string]any{keyType: TagMap, keyValue: out}, nil
	case KindObject:
		name := v.obj.TypeName()
		if !c.reg.Allowed(name) {
			return nil, &UnauthorizedTypeError{Type: name}
		}
		if d, ok := v.obj.(Descriptor); ok {
			out := map[string]any{keyType: name}
			if err := mergeDescriptor(out, name, d); err != nil {
				return nil, err
			}
			return out, nil
		}
		if v.obj.UUID() == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingUUID, name)
		}
		return map[string]any{keyType: name, keyRef: v.obj.UUID()}, nil
	case KindUnresolved:
		return map[string]any{keyType: v.ref.Type, keyRef: v.ref.UUID}, nil
	}
	return nil, fmt.Errorf("%w: cannot encode %s", ErrTypeMismatch, v.kind)
}

func mergeDescriptor(dst map[string]any, typeName string, d Descriptor) error {
	for k, f := range d.Descriptor() {
		if k == keyType || k == keyRef {
			return fmt.Errorf("%w: %s descriptor uses reserved key %q", ErrMalformedRecord, typeName, k)
		}
		dst[k] = f
	}
	return nil
}

// pendingObject holds an allocated instance together with its decoded,
// not yet assigned, attribute values.
type pendingObject struct {
	obj   Object
	info  *TypeInfo
	attrs map[string]Value
}

// decodeState collects every instance allocated during one decode so the
// caller can resolve and assign their attributes afterwards.
type decodeState struct {
	pending []*pendingObject
}

// Decode rebuilds a single self-contained record. Any `_ref` in it fails
// with ErrUnresolvedReference; use GraphCodec for linked records.
// Post-construction hooks are not run.
func (c *ObjectCodec) Decode(rec Record) (Object, error) {
	st := &decodeState{}
	obj, err := c.decodeRecord(rec, st, true)
	if err != nil {
		return nil, err
	}
	noRefs := func(r Ref) (Object, error) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnresolvedReference, r.UUID, r.Type)
	}
	for _, p := range st.pending {
		if err := p.assign(noRefs); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (c *ObjectCodec) decodeRecord(rec map[string]any, st *decodeState, requireUUID bool) (Object, error) {
	name, ok := rec[keyType].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing type tag", ErrMalformedRecord)
	}
	t, ok := c.reg.Lookup(name)
	if !ok {
		return nil, &UnauthorizedTypeError{Type: name}
	}
	if t.FromDescriptor != nil {
		fields := make(map[string]any, len(rec))
		for k, v := range rec {
			if k != keyType {
				fields[k] = v
			}
		}
		obj, err := t.FromDescriptor(fields)
		if err != nil {
			return nil, fmt.Errorf("%s descriptor: %w", name, err)
		}
		return obj, nil
	}
	if t.New == nil {
		return nil, fmt.Errorf("%w: %s", ErrAbstractType, name)
	}

	id, _ := rec[keyUUID].(string)
	if id == "" {
		if requireUUID {
			return nil, fmt.Errorf("%w: %s record has no uuid", ErrMalformedRecord, name)
		}
		id = NewBase().uuid
	}
	obj := t.New()
	obj.serialBase().uuid = id

	p := &pendingObject{obj: obj, info: t, attrs: make(map[string]Value)}
	for _, attr := range t.Attributes() {
		raw, present := rec[attr]
		if !present {
			continue
		}
		v, err := c.decodeValue(raw, st)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, attr, err)
		}
		p.attrs[attr] = v
	}
	st.pending = append(st.pending, p)
	return obj, nil
}

func (c *ObjectCodec) decodeValue(raw any, st *decodeState) (Value, error) {
	if raw == nil {
		return Nil(), nil
	}
	m, ok := asMap(raw)
	if !ok {
		return Value{}, fmt.Errorf("%w: tagged value must be a mapping, got %T", ErrMalformedRecord, raw)
	}
	tag, _ := m[keyType].(string)
	if ref, ok := m[keyRef]; ok {
		id, ok := ref.(string)
		if !ok || id == "" {
			return Value{}, fmt.Errorf("%w: bad _ref", ErrMalformedRecord)
		}
		return Unresolved(Ref{UUID: id, Type: tag}), nil
	}

	val := m[keyValue]
	switch tag {
	case TagNil, "NilClass":
		return Nil(), nil
	case TagString, "String":
		s, ok := val.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: string value is %T", ErrTypeMismatch, val)
		}
		return String(s), nil
	case TagInt, "Integer":
		i, err := toInt64(val)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case TagFloat, "float", "Float":
		f, err := toFloat64(val)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case TagBool:
		b, ok := val.(bool)
		if !ok {
			return Value{}, fmt.Errorf("%w: bool value is %T", ErrTypeMismatch, val)
		}
		return Bool(b), nil
	case TagVector:
		nums, err := toNums(val, 3)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindVector, nums: nums}, nil
	case TagQuaternion:
		nums, err := toNums(val, 4)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindQuaternion, nums: nums}, nil
	case TagMatrix:
		nums, err := toNums(val, 16)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindMatrix, nums: nums}, nil
	case TagList, "Array":
		items, ok := val.([]any)
		if !ok && val != nil {
			return Value{}, fmt.Errorf("%w: list value is %T", ErrTypeMismatch, val)
		}
		out := make([]Value, len(items))
		for i, item := range items {
			v, err := c.decodeValue(item, st)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return List(out...), nil
	case TagMap, "Hash":
		var entries map[string]any
		if val != nil {
			entries, ok = asMap(val)
			if !ok {
				return Value{}, fmt.Errorf("%w: map value is %T", ErrTypeMismatch, val)
			}
		}
		out := make(map[string]Value, len(entries))
		for k, item := range entries {
			v, err := c.decodeValue(item, st)
			if err != nil {
				return Value{}, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = v
		}
		return Map(out), nil
	}

	obj, err := c.decodeRecord(m, st, false)
	if err != nil {
		return Value{}, err
	}
	return Obj(obj), nil
}

// assign resolves placeholders through lookup and hands every decoded
// attribute to the object.
func (p *pendingObject) assign(lookup func(Ref) (Object, error)) error {
	for _, attr := range p.info.Attributes() {
		v, ok := p.attrs[attr]
		if !ok {
			continue
		}
		resolved, err := resolveValue(v, lookup)
		if err != nil {
			return fmt.Errorf("%s %s.%s: %w", p.obj.UUID(), p.info.Name, attr, err)
		}
		if err := p.obj.SetAttr(attr, resolved); err != nil {
			return fmt.Errorf("%s %s.%s: %w", p.obj.UUID(), p.info.Name, attr, err)
		}
	}
	return nil
}

func resolveValue(v Value, lookup func(Ref) (Object, error)) (Value, error) {
	switch v.kind {
	case KindUnresolved:
		obj, err := lookup(v.ref)
		if err != nil {
			return Value{}, err
		}
		return Obj(obj), nil
	case KindList:
		out := make([]Value, len(v.list))
		for i, e := range v.list {
			r, err := resolveValue(e, lookup)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return List(out...), nil
	case KindMap:
		out := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			r, err := resolveValue(e, lookup)
			if err != nil {
				return Value{}, err
			}
			out[k] = r
		}
		return Map(out), nil
	}
	return v, nil
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	}
	return nil, false
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrTypeMismatch, n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %v is not integral", ErrTypeMismatch, n)
		}
		// 2^63 is the first float64 past MaxInt64.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v overflows int64", ErrTypeMismatch, n)
		}
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, n)
		}
		return toInt64(f)
	}
	return 0, fmt.Errorf("%w: int value is %T", ErrTypeMismatch, v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("%w: float value is %T", ErrTypeMismatch, v)
}

func toNums(v any, n int) ([]float64, error) {
	var items []any
	switch s := v.(type) {
	case []any:
		items = s
	case []float64:
		if err := checkLen(len(s), n); err != nil {
			return nil, err
		}
		return append([]float64(nil), s...), nil
	default:
		return nil, fmt.Errorf("%w: numeric array is %T", ErrTypeMismatch, v)
	}
	if err := checkLen(len(items), n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, item := range items {
		f, err := toFloat64(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func checkLen(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: want %d numbers, got %d", ErrTypeMismatch, want, got)
	}
	return nil
}

func numsToAny(nums []float64) []any {
	out := make([]any, len(nums))
	for i, f := range nums {
		out[i] = f
	}
	return out
}

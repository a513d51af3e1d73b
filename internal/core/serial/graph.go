package serial

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// GraphCodec dumps and restores whole object graphs, resolving
// cross-references after every object exists.
type GraphCodec struct {
	codec *ObjectCodec
	log   *zap.Logger
}

func NewGraphCodec(reg *Registry, log *zap.Logger) *GraphCodec {
	if log == nil {
		log = zap.NewNop()
	}
	return &GraphCodec{codec: NewObjectCodec(reg), log: log}
}

func (g *GraphCodec) Codec() *ObjectCodec { return g.codec }

// Serialize walks every object reachable from root and returns one record
// per distinct object, root first, in discovery order. Descriptor objects
// are embedded where they are used and never walked.
func (g *GraphCodec) Serialize(root Object) ([]Record, error) {
	if isNilObject(root) {
		return nil, fmt.Errorf("serialize: nil root")
	}
	objs, err := g.Collect(root)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(objs))
	for _, o := range objs {
		rec, err := g.codec.Encode(o)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	g.log.Debug("graph serialized",
		zap.String("root", root.UUID()),
		zap.String("type", root.TypeName()),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// Collect returns the transitive closure of objects reachable from root.
func (g *GraphCodec) Collect(root Object) ([]Object, error) {
	w := walker{reg: g.codec.reg, seen: make(map[string]struct{})}
	if err := w.visit(root); err != nil {
		return nil, err
	}
	return w.order, nil
}

type walker struct {
	reg   *Registry
	seen  map[string]struct{}
	order []Object
}

func (w *walker) visit(o Object) error {
	id := o.UUID()
	if id == "" {
		return fmt.Errorf("%w: %s", ErrMissingUUID, o.TypeName())
	}
	if _, ok := w.seen[id]; ok {
		return nil
	}
	w.seen[id] = struct{}{}
	w.order = append(w.order, o)

	t, ok := w.reg.Lookup(o.TypeName())
	if !ok {
		return &UnauthorizedTypeError{Type: o.TypeName()}
	}
	for _, attr := range t.Attributes() {
		v, ok := o.Attr(attr)
		if !ok {
			return UnknownAttr(t.Name, attr)
		}
		if err := w.walk(v); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walk(v Value) error {
	switch v.kind {
	case KindObject:
		if _, leaf := v.obj.(Descriptor); leaf {
			return nil
		}
		return w.visit(v.obj)
	case KindList:
		for _, e := range v.list {
			if err := w.walk(e); err != nil {
				return err
			}
		}
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := w.walk(v.m[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Deserialize rebuilds the objects of records in three passes: decode
// everything (references become placeholders), resolve every placeholder
// against the decoded set, then run Awake hooks. Activators are activated, then started. Any
// failure aborts the whole load and rolls back every activated object. The returned slice follows record
// order.
func (g *GraphCodec) Deserialize(records []Record) ([]Object, error) {
	st := &decodeState{}
	objs := make([]Object, 0, len(records))
	index := make(map[string]Object, len(records))

	for i, rec := range records {
		obj, err := g.codec.decodeRecord(rec, st, true)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		id := rec.UUID()
		if id == "" {
			id = obj.UUID()
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("record %d: %w: %s", i, ErrDuplicateUUID, id)
		}
		index[id] = obj
		objs = append(objs, obj)
	}

	lookup := func(r Ref) (Object, error) {
		obj, ok := index[r.UUID]
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnresolvedReference, r.UUID, r.Type)
		}
		if r.Type != "" && obj.TypeName() != r.Type {
			return nil, fmt.Errorf("%w: %s is %s, referenced as %s", ErrTypeMismatch, r.UUID, obj.TypeName(), r.Type)
		}
		return obj, nil
	}
	for _, p := range st.pending {
		if err := p.assign(lookup); err != nil {
			return nil, err
		}
	}

	for _, p := range st.pending {
		if a, ok := p.obj.(Awakener); ok {
			if err := a.Awake(); err != nil {
				return nil, fmt.Errorf("awake %s %s: %w", p.info.Name, p.obj.UUID(), err)
			}
		}
	}
	var active []Activator
	rollback := func() {
		for i := len(active) - 1; i >= 0; i-- {
			active[i].Rollback()
		}
	}
	for _, p := range st.pending {
		if a, ok := p.obj.(Activator); ok {
			active = append(active, a)
			if err := a.Activate(); err != nil {
				rollback()
				return nil, fmt.Errorf("activate %s %s: %w", p.info.Name, p.obj.UUID(), err)
			}
		}
	}
	for _, p := range st.pending {
		if a, ok := p.obj.(Activator); ok {
			if err := a.Start(); err != nil {
				rollback()
				return nil, fmt.Errorf("start %s %s: %w", p.info.Name, p.obj.UUID(), err)
			}
		}
	}

	g.log.Debug("graph deserialized",
		zap.Int("records", len(records)),
		zap.Int("objects", len(st.pending)),
	)
	return objs, nil
}

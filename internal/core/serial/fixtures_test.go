package serial

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type node struct {
	Base
	Name   string
	Count  int64
	Weight float64
	Flag   bool
	Pos    mgl64.Vec3
	Next   *node
	Items  []*node
	Props  map[string]Value
	Skin   *tex

	awake       int
	sawNextName string
}

func newNode(name string) *node {
	return &node{Base: NewBase(), Name: name}
}

func (n *node) TypeName() string { return "Node" }

func (n *node) Attr(name string) (Value, bool) {
	switch name {
	case "name":
		return String(n.Name), true
	case "count":
		return Int(n.Count), true
	case "weight":
		return Float(n.Weight), true
	case "flag":
		return Bool(n.Flag), true
	case "pos":
		return Vector(n.Pos), true
	case "next":
		return Obj(n.Next), true
	case "items":
		vs := make([]Value, len(n.Items))
		for i, it := range n.Items {
			vs[i] = Obj(it)
		}
		return List(vs...), true
	case "props":
		return Map(n.Props), true
	case "skin":
		return Obj(n.Skin), true
	}
	return Value{}, false
}

func (n *node) SetAttr(name string, v Value) error {
	var err error
	switch name {
	case "name":
		n.Name, err = v.Str()
	case "count":
		n.Count, err = v.Int()
	case "weight":
		n.Weight, err = v.Float()
	case "flag":
		n.Flag, err = v.Bool()
	case "pos":
		n.Pos, err = v.Vec3()
	case "next":
		n.Next, err = As[*node](v)
	case "items":
		var items []Value
		items, err = v.List()
		n.Items = nil
		for _, it := range items {
			x, aerr := As[*node](it)
			if aerr != nil {
				return aerr
			}
			n.Items = append(n.Items, x)
		}
	case "props":
		n.Props, err = v.Map()
	case "skin":
		n.Skin, err = As[*tex](v)
	default:
		return UnknownAttr("Node", name)
	}
	return err
}

func (n *node) Awake() error {
	n.awake++
	if n.Next != nil {
		n.sawNextName = n.Next.Name
	}
	return nil
}

var nodeType = &TypeInfo{
	Name:  "Node",
	Attrs: []string{"name", "count", "weight", "flag", "pos", "next", "items", "props", "skin"},
	New:   func() Object { return &node{} },
}

// tex is embedded by descriptor and shared through texCache.
type tex struct {
	Base
	Path string
}

func (t *tex) TypeName() string                   { return "Tex" }
func (t *tex) Attr(string) (Value, bool)          { return Value{}, false }
func (t *tex) SetAttr(name string, _ Value) error { return UnknownAttr("Tex", name) }
func (t *tex) Descriptor() map[string]any         { return map[string]any{"path": t.Path} }

type texCache map[string]*tex

func (c texCache) load(path string) *tex {
	if t, ok := c[path]; ok {
		return t
	}
	t := &tex{Base: NewBase(), Path: path}
	c[path] = t
	return t
}

func (c texCache) typeInfo() *TypeInfo {
	return &TypeInfo{
		Name: "Tex",
		FromDescriptor: func(f map[string]any) (Object, error) {
			p, ok := f["path"].(string)
			if !ok {
				return nil, fmt.Errorf("tex: missing path")
			}
			return c.load(p), nil
		},
	}
}

func testRegistry(cache texCache) *Registry {
	reg := NewRegistry()
	reg.MustRegister(nodeType, cache.typeInfo())
	return reg
}

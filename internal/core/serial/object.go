package serial

import (
	"reflect"

	"github.com/google/uuid"
)

// Object is implemented by every type that can take part in a graph dump.
// Implementations must embed Base, which carries the object's UUID.
type Object interface {
	UUID() string
	TypeName() string
	// Attr returns the current value of a declared attribute.
	Attr(name string) (Value, bool)
	// SetAttr assigns a declared attribute. It is called by the decoder with
	// fully resolved values only.
	SetAttr(name string, v Value) error

	serialBase() *Base
}

// Base is embedded by serializable types.
type Base struct {
	uuid string
}

// NewBase returns a Base with a fresh UUID.
func NewBase() Base {
	return Base{uuid: uuid.NewString()}
}

func (b *Base) UUID() string      { return b.uuid }
func (b *Base) serialBase() *Base { return b }

// Descriptor is implemented by resource-like objects that are embedded
// inline by content instead of being referenced by UUID. The matching
// TypeInfo must provide FromDescriptor.
type Descriptor interface {
	Descriptor() map[string]any
}

// Awakener is called once all references of a decoded graph are resolved.
type Awakener interface {
	Awake() error
}

// Activator is implemented by objects that join a live system once a
// decoded graph is awake. Activate runs on every activator before Start
// runs on any. When either fails, Rollback runs on every activator whose
// Activate was called, latest first.
type Activator interface {
	Activate() error
	Start() error
	Rollback()
}

func isNilObject(o Object) bool {
	if o == nil {
		return true
	}
	rv := reflect.ValueOf(o)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

package serial

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorizedType    = errors.New("unauthorized type")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrDuplicateUUID       = errors.New("duplicate uuid")
	ErrDuplicateType       = errors.New("duplicate type registration")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrMissingUUID         = errors.New("object has no uuid")
	ErrAbstractType        = errors.New("type cannot be instantiated")
)

// UnauthorizedTypeError reports a type tag outside the allow-list.
type UnauthorizedTypeError struct {
	Type string
}

func (e *UnauthorizedTypeError) Error() string {
	return fmt.Sprintf("type %q is not allowed", e.Type)
}

func (e *UnauthorizedTypeError) Unwrap() error { return ErrUnauthorizedType }

// UnknownAttr is a convenience for SetAttr implementations.
func UnknownAttr(typeName, attr string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, typeName, attr)
}

package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrUseAfterDestroy is carried by the panic raised when an erased
	// entity or behavior is used.
	ErrUseAfterDestroy = errors.New("use after destroy")
	// ErrMissingCollaborator is returned by Start when a behavior needs a
	// sibling behavior that is not attached.
	ErrMissingCollaborator = errors.New("missing required collaborator")
	// ErrHierarchyCycle rejects parenting an entity under itself or one of
	// its descendants.
	ErrHierarchyCycle = errors.New("hierarchy cycle")
	// ErrForeignWorld rejects links between entities of different worlds.
	ErrForeignWorld = errors.New("entity belongs to another world")
)

// DestroyedError names the erased object that was touched.
type DestroyedError struct {
	Kind   string // "entity" or the behavior type name
	Name   string
	Method string
}

func (e *DestroyedError) Error() string {
	return fmt.Sprintf("this %s has been destroyed: %s (called %s)", e.Kind, e.Name, e.Method)
}

func (e *DestroyedError) Unwrap() error { return ErrUseAfterDestroy }

// MissingCollaboratorError reports which behavior required which sibling.
type MissingCollaboratorError struct {
	Behavior string
	Requires string
}

func (e *MissingCollaboratorError) Error() string {
	return fmt.Sprintf("%s requires a %s behavior on the same entity", e.Behavior, e.Requires)
}

func (e *MissingCollaboratorError) Unwrap() error { return ErrMissingCollaborator }

// Recover converts a use-after-destroy panic into an error at an API
// boundary. Other panics are re-raised.
//
//	func (s *Service) Do() (err error) {
//		defer ecs.Recover(&err)
//		...
//	}
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if de, ok := r.(*DestroyedError); ok {
		*err = de
		return
	}
	panic(r)
}

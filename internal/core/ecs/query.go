package ecs

// BehaviorOf returns the first behavior of type T on e that has not been
// destroyed. All three capability lists are searched.
func BehaviorOf[T Behavior](e *Entity) (T, bool) {
	e.alive("BehaviorOf")
	for _, b := range e.allBehaviors() {
		if b.behavior().destroyed {
			continue
		}
		if t, ok := b.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// BehaviorsOf returns every behavior of type T on e.
func BehaviorsOf[T Behavior](e *Entity) []T {
	e.alive("BehaviorsOf")
	var out []T
	for _, b := range e.allBehaviors() {
		if b.behavior().destroyed {
			continue
		}
		if t, ok := b.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Require looks up a sibling of type T for self. It is meant to be called
// from Start and returns a *MissingCollaboratorError naming both types
// when the sibling is absent.
func Require[T Behavior](self Behavior, requires string) (T, error) {
	e := self.behavior().GameObject()
	if e != nil {
		if t, ok := BehaviorOf[T](e); ok {
			return t, nil
		}
	}
	var zero T
	return zero, &MissingCollaboratorError{Behavior: self.TypeName(), Requires: requires}
}

// EachBehavior calls fn for every live behavior of type T in the world.
func EachBehavior[T Behavior](w *World, fn func(e *Entity, b T)) {
	for _, e := range w.Entities() {
		if e.destroyed || e.erased {
			continue
		}
		for _, b := range e.allBehaviors() {
			if b.behavior().destroyed {
				continue
			}
			if t, ok := b.(T); ok {
				fn(e, t)
			}
		}
	}
}

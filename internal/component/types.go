package component

import (
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/serial"
)

const (
	MeshRendererTypeName     = "MeshRenderer"
	UIRectTypeName           = "UIRect"
	UISpriteRendererTypeName = "UISpriteRenderer"
	UIClickboxTypeName       = "UIClickbox"
	SpinnerTypeName          = "Spinner"
	ScriptTypeName           = "Script"
)

// Types returns the serial types of every behavior in this package. Decoded
// behaviors are bound to env.
func Types(env *Env) []*serial.TypeInfo {
	return []*serial.TypeInfo{
		{
			Name:   MeshRendererTypeName,
			Parent: ecs.BehaviorType,
			Attrs:  []string{"mesh", "material", "static"},
			New:    func() serial.Object { return &MeshRenderer{} },
		},
		{
			Name:   UIRectTypeName,
			Parent: ecs.BehaviorType,
			Attrs:  uiRectAttrs,
			New:    func() serial.Object { return &UIRect{env: env} },
		},
		{
			Name:   UISpriteRendererTypeName,
			Parent: ecs.BehaviorType,
			Attrs:  []string{"material"},
			New:    func() serial.Object { return &UISpriteRenderer{} },
		},
		{
			Name:   UIClickboxTypeName,
			Parent: ecs.BehaviorType,
			New:    func() serial.Object { return &UIClickbox{env: env} },
		},
		{
			Name:   SpinnerTypeName,
			Parent: ecs.BehaviorType,
			Attrs:  []string{"axis", "speed"},
			New:    func() serial.Object { return &Spinner{} },
		},
		{
			Name:   ScriptTypeName,
			Parent: ecs.BehaviorType,
			Attrs:  []string{"function", "params"},
			New:    func() serial.Object { return &Script{env: env} },
		},
	}
}

// RegisterTypes adds every behavior type of this package to reg.
func RegisterTypes(reg *serial.Registry, env *Env) error {
	for _, t := range Types(env) {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

package component

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/serial"
	"github.com/vectorforge/scenert/internal/scripting"
	"go.uber.org/zap"
)

// ErrNoScriptEngine is returned by Script.Start when no Lua engine was
// provided.
var ErrNoScriptEngine = errors.New("no script engine")

// scriptErrLogEvery limits Lua error logging to the first failure and then
// every Nth one.
const scriptErrLogEvery = 100

// Script runs a global Lua function every update and applies the commands
// it returns to the entity.
type Script struct {
	ecs.BaseBehavior
	Function string
	Params   map[string]float64

	env     *Env
	elapsed time.Duration
	errs    int
}

func NewScript(env *Env, function string, params map[string]float64) *Script {
	if params == nil {
		params = make(map[string]float64)
	}
	return &Script{BaseBehavior: ecs.NewBaseBehavior(), Function: function, Params: params, env: env}
}

func (s *Script) TypeName() string { return ScriptTypeName }

func (s *Script) Start() error {
	s.MustBeAlive("Start")
	if s.env == nil || s.env.Scripts == nil {
		return ErrNoScriptEngine
	}
	if !s.env.Scripts.Has(s.Function) {
		return fmt.Errorf("script %q: lua function not found", s.Function)
	}
	if s.Params == nil {
		s.Params = make(map[string]float64)
	}
	return nil
}

// Errors returns how many updates failed in the Lua call.
func (s *Script) Errors() int { return s.errs }

func (s *Script) Update(dt time.Duration) {
	s.MustBeAlive("Update")
	e := s.GameObject()
	s.elapsed += dt
	pos, wp, sc := e.Pos(), e.WorldPosition(), e.Scale()
	cmds, err := s.env.Scripts.RunBehavior(s.Function, scripting.BehaviorContext{
		Entity:   e.Name(),
		UUID:     e.UUID(),
		DT:       dt.Seconds(),
		Elapsed:  s.elapsed.Seconds(),
		Pos:      pos,
		WorldPos: wp,
		Scale:    sc,
		Params:   s.Params,
	})
	if err != nil {
		s.errs++
		if s.errs == 1 || s.errs%scriptErrLogEvery == 0 {
			s.env.logger().Error("script failed",
				zap.String("func", s.Function),
				zap.String("entity", e.Name()),
				zap.Int("errors", s.errs),
				zap.Error(err),
			)
		}
		return
	}
	for _, c := range cmds {
		if !s.apply(e, c) {
			return
		}
	}
}

// apply runs one command and reports whether later commands may run.
func (s *Script) apply(e *ecs.Entity, c scripting.Command) bool {
	v := mgl64.Vec3{c.X, c.Y, c.Z}
	switch c.Type {
	case "move":
		e.SetPos(v)
	case "translate":
		e.Translate(v)
	case "rotate":
		e.RotateAround(v, c.Angle)
	case "scale":
		e.SetScale(v)
	case "set":
		s.Params[c.Key] = c.Value
	case "disable":
		s.SetEnabled(false)
	case "destroy":
		e.Destroy()
		return false
	default:
		s.env.logger().Warn("unknown script command",
			zap.String("func", s.Function),
			zap.String("type", c.Type),
		)
	}
	return true
}

func (s *Script) Attr(name string) (serial.Value, bool) {
	s.MustBeAlive("Attr")
	switch name {
	case "function":
		return serial.String(s.Function), true
	case "params":
		return serial.FloatMap(s.Params), true
	}
	return s.BaseBehavior.Attr(name)
}

func (s *Script) SetAttr(name string, v serial.Value) error {
	s.MustBeAlive("SetAttr")
	switch name {
	case "function":
		f, err := v.Str()
		if err != nil {
			return err
		}
		s.Function = f
	case "params":
		p, err := serial.Floats(v)
		if err != nil {
			return err
		}
		s.Params = p
	default:
		return s.BaseBehavior.SetAttr(name, v)
	}
	return nil
}

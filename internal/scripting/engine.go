package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM that drives Script behaviors.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	loaded []string
}

// NewEngine creates a Lua VM and loads every .lua file of each directory,
// in directory order and file name order within a directory. Missing
// directories are skipped.
func NewEngine(dirs []string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, dir := range dirs {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts %s: %w", dir, err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.loaded = append(e.loaded, path)
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Loaded returns the script files loaded at startup.
func (e *Engine) Loaded() []string { return e.loaded }

// Has reports whether a global Lua function with the given name exists.
func (e *Engine) Has(fn string) bool {
	_, ok := e.vm.GetGlobal(fn).(*lua.LFunction)
	return ok
}

// BehaviorContext is the per-update view a script function receives.
type BehaviorContext struct {
	Entity   string
	UUID     string
	DT       float64 // seconds
	Elapsed  float64 // seconds since the behavior started
	Pos      [3]float64
	WorldPos [3]float64
	Scale    [3]float64
	Params   map[string]float64
}

// Command is a single action returned by a script function.
type Command struct {
	Type  string // "move", "translate", "rotate", "scale", "set", "disable", "destroy"
	X     float64
	Y     float64
	Z     float64
	Angle float64 // degrees, for "rotate"
	Key   string  // param name, for "set"
	Value float64
}

// RunBehavior calls the global Lua function fn(ctx) and returns the
// commands it produced. A function returning nothing yields no commands.
func (e *Engine) RunBehavior(fn string, ctx BehaviorContext) ([]Command, error) {
	f := e.vm.GetGlobal(fn)
	if f == lua.LNil {
		return nil, fmt.Errorf("lua function %s not found", fn)
	}

	t := e.vm.NewTable()
	t.RawSetString("entity", lua.LString(ctx.Entity))
	t.RawSetString("uuid", lua.LString(ctx.UUID))
	t.RawSetString("dt", lua.LNumber(ctx.DT))
	t.RawSetString("elapsed", lua.LNumber(ctx.Elapsed))
	t.RawSetString("pos", e.vec(ctx.Pos))
	t.RawSetString("world_pos", e.vec(ctx.WorldPos))
	t.RawSetString("scale", e.vec(ctx.Scale))

	params := e.vm.NewTable()
	for k, v := range ctx.Params {
		params.RawSetString(k, lua.LNumber(v))
	}
	t.RawSetString("params", params)

	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua behavior error", zap.String("func", fn), zap.String("entity", ctx.Entity), zap.Error(err))
		return nil, fmt.Errorf("lua %s: %w", fn, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil, nil
	}

	var cmds []Command
	rt.ForEach(func(_, v lua.LValue) {
		if row, ok := v.(*lua.LTable); ok {
			cmds = append(cmds, Command{
				Type:  lStr(row, "type"),
				X:     lFloat(row, "x"),
				Y:     lFloat(row, "y"),
				Z:     lFloat(row, "z"),
				Angle: lFloat(row, "angle"),
				Key:   lStr(row, "key"),
				Value: lFloat(row, "value"),
			})
		}
	})
	return cmds, nil
}

func (e *Engine) vec(v [3]float64) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(v[0]))
	t.RawSetString("y", lua.LNumber(v[1]))
	t.RawSetString("z", lua.LNumber(v[2]))
	return t
}

// lFloat reads a numeric field from a Lua table.
func lFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

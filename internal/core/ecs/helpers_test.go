package ecs

import (
	"time"

	"github.com/vectorforge/scenert/internal/core/serial"
)

// tracker records its lifecycle calls.
type tracker struct {
	BaseBehavior
	Label string

	render  bool
	ui      bool
	onStart func(p *tracker) error
	onTick  func(p *tracker)
	journal *[]string

	starts   int
	updates  int
	destroys int
}

func newTracker(label string) *tracker {
	return &tracker{BaseBehavior: NewBaseBehavior(), Label: label}
}

func (p *tracker) TypeName() string { return "Tracker" }
func (p *tracker) Renderer() bool   { return p.render }
func (p *tracker) UIRenderer() bool { return p.ui }

func (p *tracker) Start() error {
	p.MustBeAlive("Start")
	p.starts++
	p.note("start")
	if p.onStart != nil {
		return p.onStart(p)
	}
	return nil
}

func (p *tracker) Update(time.Duration) {
	p.MustBeAlive("Update")
	p.updates++
	if p.onTick != nil {
		p.onTick(p)
	}
}

func (p *tracker) OnDestroy() {
	p.destroys++
	p.note("destroy")
}

func (p *tracker) note(what string) {
	if p.journal != nil {
		*p.journal = append(*p.journal, p.Label+":"+what)
	}
}

func (p *tracker) Attr(name string) (serial.Value, bool) {
	p.MustBeAlive("Attr")
	if name == "label" {
		return serial.String(p.Label), true
	}
	return p.BaseBehavior.Attr(name)
}

func (p *tracker) SetAttr(name string, v serial.Value) error {
	p.MustBeAlive("SetAttr")
	if name != "label" {
		return p.BaseBehavior.SetAttr(name, v)
	}
	s, err := v.Str()
	if err != nil {
		return err
	}
	p.Label = s
	return nil
}

var trackerType = &serial.TypeInfo{
	Name:   "Tracker",
	Parent: BehaviorType,
	Attrs:  []string{"label"},
	New:    func() serial.Object { return newTracker("") },
}

type anchor struct {
	BaseBehavior
}

func (a *anchor) TypeName() string { return "Anchor" }

// callErr runs fn and returns the use-after-destroy error it raised, if any.
func callErr(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}

func mustSpawn(w *World, spec EntitySpec) *Entity {
	e, err := w.Spawn(spec)
	if err != nil {
		panic(err)
	}
	return e
}

package component

import (
	"time"

	"github.com/vectorforge/scenert/internal/core/ecs"
)

// UIClickbox tracks the pointer against the entity's UIRect. The edge
// flags hold for the single update in which the transition happened.
type UIClickbox struct {
	ecs.BaseBehavior

	env     *Env
	rect    *UIRect
	inside  bool
	clicked bool
	entered bool
	exited  bool
}

func NewUIClickbox(env *Env) *UIClickbox {
	return &UIClickbox{BaseBehavior: ecs.NewBaseBehavior(), env: env}
}

func (c *UIClickbox) TypeName() string { return UIClickboxTypeName }

func (c *UIClickbox) Start() error {
	c.MustBeAlive("Start")
	r, err := ecs.Require[*UIRect](c, UIRectTypeName)
	if err != nil {
		return err
	}
	c.rect = r
	return nil
}

func (c *UIClickbox) Update(time.Duration) {
	c.MustBeAlive("Update")
	c.entered, c.exited, c.clicked = false, false, false
	p, ok := c.env.pointer()
	if !ok {
		return
	}
	if c.rect.ComputedRect().Contains(p.X, p.Y) {
		c.entered = !c.inside
		c.inside = true
		c.clicked = p.Pressed
		return
	}
	c.exited = c.inside
	c.inside = false
}

func (c *UIClickbox) MouseInside() bool {
	c.MustBeAlive("MouseInside")
	return c.inside
}

func (c *UIClickbox) Clicked() bool {
	c.MustBeAlive("Clicked")
	return c.clicked
}

func (c *UIClickbox) MouseEntered() bool {
	c.MustBeAlive("MouseEntered")
	return c.entered
}

func (c *UIClickbox) MouseExited() bool {
	c.MustBeAlive("MouseExited")
	return c.exited
}

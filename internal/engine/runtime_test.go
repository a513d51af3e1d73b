package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vectorforge/scenert/internal/component"
	"github.com/vectorforge/scenert/internal/core/ecs"
	"github.com/vectorforge/scenert/internal/core/event"
	"github.com/vectorforge/scenert/internal/core/serial"
	"github.com/vectorforge/scenert/internal/system"
)

const sceneYAML = `
- type: Entity
  uuid: root-1
  name: {type: string, value: Scene}
  children:
    type: List
    value:
      - {type: Entity, _ref: hud-1}
      - {type: Entity, _ref: rock-1}
- type: Entity
  uuid: rock-1
  name: {type: string, value: rock}
  pos: {type: Vector, value: [0.0, 0.0, -5.0]}
  behaviors:
    type: List
    value:
      - {type: MeshRenderer, _ref: mr-1}
      - {type: Spinner, _ref: sp-1}
- type: MeshRenderer
  uuid: mr-1
  mesh: {type: Mesh, mesh_file: rock.obj}
  material: {type: Material, _ref: mat-1}
- type: Spinner
  uuid: sp-1
  axis: {type: Vector, value: [0.0, 1.0, 0.0]}
  speed: {type: float64, value: 90.0}
- type: Material
  uuid: mat-1
  shader: {type: Shader, vertex_path: lit.vert, fragment_path: lit.frag}
  textures:
    type: Map
    value:
      albedo: {type: Texture, path: rock.png}
- type: Entity
  uuid: hud-1
  name: {type: string, value: hud}
  behaviors:
    type: List
    value:
      - {type: UIRect, _ref: rect-1}
- type: UIRect
  uuid: rect-1
  top_ratio: {type: float64, value: 0.5}
`

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(Options{
		ResourceRoot: "assets",
		Viewport:     func() component.Rect { return component.Rect{Right: 100, Top: 100} },
	})
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadSceneAndTick(t *testing.T) {
	rt := newRuntime(t)
	var spawned []string
	event.Subscribe(rt.Bus, func(e event.EntitySpawned) { spawned = append(spawned, e.Name) })

	roots, err := rt.LoadScene(writeFile(t, "main.yaml", sceneYAML))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "Scene", roots[0].Name())
	assert.Equal(t, 3, rt.World.Count())
	assert.Equal(t, roots[0], rt.Root("Scene"))
	assert.Nil(t, rt.Root("missing"))

	rock, ok := rt.World.FindByName("rock")
	require.True(t, ok)
	mr, ok := ecs.BehaviorOf[*component.MeshRenderer](rock)
	require.True(t, ok)
	assert.Same(t, rt.Resources.Mesh("rock.obj"), mr.Mesh)
	assert.Equal(t, "assets/rock.png", mr.Material.Textures["albedo"].FullPath())

	hud, _ := rt.World.FindByName("hud")
	rect, ok := ecs.BehaviorOf[*component.UIRect](hud)
	require.True(t, ok)
	assert.Equal(t, component.Rect{Right: 100, Top: 50}, rect.ComputedRect())

	runner := rt.Runner(nil)
	runner.Tick(time.Second)
	assert.ElementsMatch(t, []string{"Scene", "rock", "hud"}, spawned)
	assert.InDelta(t, 1, rock.Forward().X(), 1e-9)
}

func TestSaveSceneRoundTrip(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadScene(writeFile(t, "main.yaml", sceneYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	n, err := rt.SaveScene(rt.Root("Scene"), out)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	other := newRuntime(t)
	roots, err := other.LoadScene(out)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "root-1", roots[0].UUID())
	rock, ok := other.World.FindByName("rock")
	require.True(t, ok)
	spin, ok := ecs.BehaviorOf[*component.Spinner](rock)
	require.True(t, ok)
	assert.Equal(t, 90.0, spin.Speed)
}

func TestRestoreRejectsForeignType(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.Restore([]serial.Record{{"type": "Bar", "uuid": "x"}})
	var ut *serial.UnauthorizedTypeError
	require.ErrorAs(t, err, &ut)
	assert.Equal(t, "Bar", ut.Type)
	assert.Zero(t, rt.World.Count())
}

func TestLoadSceneFailureLeavesNoRoots(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadScene(writeFile(t, "broken.yaml", `
- type: Entity
  uuid: good-1
  name: {type: string, value: good}
- type: Entity
  uuid: bad-1
  name: {type: string, value: bad}
  behaviors:
    type: List
    value:
      - {type: UISpriteRenderer, _ref: sprite-1}
- type: UISpriteRenderer
  uuid: sprite-1
`))
	require.ErrorIs(t, err, ecs.ErrMissingCollaborator)

	rt.World.Sweep()
	_, ok := rt.World.FindByName("good")
	assert.False(t, ok)
	assert.Zero(t, rt.World.Count())
}

func TestAutosaveThroughRunner(t *testing.T) {
	rt := newRuntime(t)
	_, err := rt.LoadScene(writeFile(t, "main.yaml", sceneYAML))
	require.NoError(t, err)

	var saved []event.SceneSaved
	event.Subscribe(rt.Bus, func(e event.SceneSaved) { saved = append(saved, e) })
	path := filepath.Join(t.TempDir(), "autosave.yaml")
	auto := system.NewAutosaveSystem(rt.Graph, func() serial.Object { return rt.Root("Scene") },
		system.AutosaveConfig{Scene: "main", Path: path, IntervalTicks: 2}, rt.Bus, nil)

	runner := rt.Runner(auto)
	for range 3 {
		runner.Tick(16 * time.Millisecond)
	}
	assert.FileExists(t, path)
	assert.Equal(t, []event.SceneSaved{{Target: path, Records: 7}}, saved)
}

func TestLoadManifest(t *testing.T) {
	rt := newRuntime(t)
	n, err := rt.LoadManifest(writeFile(t, "resources.yaml", "textures:\n  - path: a.png\nmeshes:\n  - b.obj\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, rt.Resources.Len())
}

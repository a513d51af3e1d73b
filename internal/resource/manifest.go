package resource

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest lists resources to load before any scene references them.
type Manifest struct {
	Textures []TextureEntry `yaml:"textures"`
	Shaders  []ShaderEntry  `yaml:"shaders"`
	Meshes   []string       `yaml:"meshes"`
	Fonts    []FontEntry    `yaml:"fonts"`
}

type TextureEntry struct {
	Path string `yaml:"path"`
	Flip bool   `yaml:"flip"`
}

type ShaderEntry struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

type FontEntry struct {
	Path   string `yaml:"path"`
	Source Source `yaml:"source"`
}

// LoadManifest reads a resource manifest YAML file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse resource manifest: %w", err)
	}
	for i, t := range m.Textures {
		if t.Path == "" {
			return nil, fmt.Errorf("%w: textures[%d] has no path", ErrBadDescriptor, i)
		}
	}
	for i, s := range m.Shaders {
		if s.Vertex == "" || s.Fragment == "" {
			return nil, fmt.Errorf("%w: shaders[%d] needs vertex and fragment", ErrBadDescriptor, i)
		}
	}
	for i, f := range m.Fonts {
		if f.Path == "" {
			return nil, fmt.Errorf("%w: fonts[%d] has no path", ErrBadDescriptor, i)
		}
	}
	return &m, nil
}

// Preload loads every manifest entry into c and returns the number of
// entries.
func (m *Manifest) Preload(c *Cache) int {
	for _, t := range m.Textures {
		c.Texture(t.Path, t.Flip)
	}
	for _, s := range m.Shaders {
		c.Shader(s.Vertex, s.Fragment)
	}
	for _, name := range m.Meshes {
		c.Mesh(name)
	}
	for _, f := range m.Fonts {
		c.Font(f.Path, f.Source)
	}
	return len(m.Textures) + len(m.Shaders) + len(m.Meshes) + len(m.Fonts)
}

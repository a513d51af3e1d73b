package resource

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vectorforge/scenert/internal/core/serial"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Cache deduplicates resources by descriptor. Loading the same descriptor
// twice, whether from code or from a scene file, yields the same instance.
// Single-goroutine access only. Entries are bucketed by the xxhash of
// their descriptor, and a hit compares the full descriptor.
type Cache struct {
	root    string
	entries map[uint64][]cacheEntry
	n       int
	hits    int
	misses  int
	sum     func(string) uint64
	log     *zap.Logger
}

type cacheEntry struct {
	desc string
	obj  serial.Object
}

func NewCache(root string, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		root:    root,
		entries: make(map[uint64][]cacheEntry, 64),
		sum:     xxhash.Sum64String,
		log:     log,
	}
}

// Root is the directory resource paths are resolved against.
func (c *Cache) Root() string { return c.root }

func (c *Cache) Len() int { return c.n }

// Stats returns cache hits and misses since creation.
func (c *Cache) Stats() (hits, misses int) { return c.hits, c.misses }

// cleanPath normalizes a resource path so that equivalent spellings share
// one cache entry: NFC, forward slashes, no "." or ".." segments.
func cleanPath(p string) string {
	p = norm.NFC.String(p)
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// descriptor renders the type name and the descriptor fields in key
// order.
func descriptor(typeName string, fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(typeName)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprint(&b, fields[k])
	}
	return b.String()
}

func (c *Cache) lookup(typeName string, fields map[string]any, build func() serial.Object) serial.Object {
	desc := descriptor(typeName, fields)
	k := c.sum(desc)
	for _, e := range c.entries[k] {
		if e.desc == desc {
			c.hits++
			return e.obj
		}
	}
	c.misses++
	obj := build()
	c.entries[k] = append(c.entries[k], cacheEntry{desc: desc, obj: obj})
	c.n++
	c.log.Debug("resource loaded",
		zap.String("type", typeName),
		zap.Any("descriptor", fields),
	)
	return obj
}

func (c *Cache) Texture(p string, flip bool) *Texture {
	p = cleanPath(p)
	return c.lookup(TextureTypeName, map[string]any{"path": p, "flip": flip}, func() serial.Object {
		return &Texture{Base: serial.NewBase(), path: p, flip: flip, fullPath: c.resolve(p)}
	}).(*Texture)
}

func (c *Cache) Shader(vertex, fragment string) *Shader {
	vertex, fragment = cleanPath(vertex), cleanPath(fragment)
	return c.lookup(ShaderTypeName, map[string]any{"vertex_path": vertex, "fragment_path": fragment}, func() serial.Object {
		return &Shader{Base: serial.NewBase(), vertexPath: vertex, fragmentPath: fragment}
	}).(*Shader)
}

func (c *Cache) Mesh(name string) *Mesh {
	name = cleanPath(name)
	return c.lookup(MeshTypeName, map[string]any{"mesh_file": name}, func() serial.Object {
		return &Mesh{Base: serial.NewBase(), file: name, basePath: c.resolve(path.Join("_imported", name))}
	}).(*Mesh)
}

func (c *Cache) Font(p string, source Source) *Font {
	p = cleanPath(p)
	if source == "" {
		source = SourceGame
	}
	return c.lookup(FontTypeName, map[string]any{"font_file_path": p, "source": string(source)}, func() serial.Object {
		return &Font{Base: serial.NewBase(), path: p, source: source}
	}).(*Font)
}

func (c *Cache) resolve(p string) string {
	if c.root == "" {
		return p
	}
	return path.Join(c.root, p)
}

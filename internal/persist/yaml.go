package persist

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vectorforge/scenert/internal/core/serial"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// leadingKeys come first in every emitted mapping, in this order.
var leadingKeys = []string{"type", "uuid", "_ref", "value"}

// MarshalRecords renders records as a YAML sequence. Record keys are
// ordered type, uuid, then declared attributes in registry order, then
// any remaining keys sorted; nested mappings are sorted after the leading
// keys. Floats always carry a decimal point so they read back as floats.
func MarshalRecords(reg *serial.Registry, records []serial.Record) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rec := range records {
		var attrs []string
		if reg != nil {
			attrs, _ = reg.Attributes(rec.Type())
		}
		n, err := mappingNode(rec, attrs)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.UUID(), err)
		}
		seq.Content = append(seq.Content, n)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalRecords parses a YAML sequence of records.
func UnmarshalRecords(data []byte) ([]serial.Record, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out := make([]serial.Record, 0, len(raw))
	for i, m := range raw {
		if m == nil {
			return nil, fmt.Errorf("%w: entry %d is empty", serial.ErrMalformedRecord, i)
		}
		out = append(out, serial.Record(m))
	}
	return out, nil
}

// SaveFile serializes the graph reachable from root into path, creating
// parent directories. The file is written to a temporary sibling first
// and renamed into place.
func SaveFile(g *serial.GraphCodec, root serial.Object, path string) (int, error) {
	records, err := g.Serialize(root)
	if err != nil {
		return 0, fmt.Errorf("serialize %s: %w", path, err)
	}
	data, err := MarshalRecords(g.Codec().Registry(), records)
	if err != nil {
		return 0, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return 0, err
	}
	return len(records), nil
}

// LoadFile reads one graph file and reconstructs it.
func LoadFile(g *serial.GraphCodec, path string) ([]serial.Object, error) {
	return LoadFiles(g, path)
}

// LoadFiles reads several graph files and reconstructs them in a single
// pass, so records may reference objects defined in any of the files.
// Files are read and parsed concurrently; records keep file order.
func LoadFiles(g *serial.GraphCodec, paths ...string) ([]serial.Object, error) {
	parsed := make([][]serial.Record, len(paths))
	var eg errgroup.Group
	for i, p := range paths {
		eg.Go(func() error {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			recs, err := UnmarshalRecords(data)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			parsed[i] = recs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var all []serial.Record
	for _, recs := range parsed {
		all = append(all, recs...)
	}
	objs, err := g.Deserialize(all)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", strings.Join(paths, ", "), err)
	}
	return objs, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func mappingNode(m map[string]any, order []string) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	done := make(map[string]bool, len(m))
	add := func(k string) error {
		v, ok := m[k]
		if !ok || done[k] {
			return nil
		}
		done[k] = true
		vn, err := valueNode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		n.Content = append(n.Content, scalar("!!str", k), vn)
		return nil
	}
	for _, k := range leadingKeys {
		if err := add(k); err != nil {
			return nil, err
		}
	}
	for _, k := range order {
		if err := add(k); err != nil {
			return nil, err
		}
	}
	rest := make([]string, 0, len(m))
	for k := range m {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if err := add(k); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return scalar("!!str", x), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(x)), nil
	case int:
		return scalar("!!int", strconv.Itoa(x)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(x, 10)), nil
	case float64:
		return scalar("!!float", formatFloat(x)), nil
	case []float64:
		seq := flowSeq()
		for _, f := range x {
			seq.Content = append(seq.Content, scalar("!!float", formatFloat(f)))
		}
		return seq, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		if allNumbers(x) {
			seq.Style = yaml.FlowStyle
		}
		for i, it := range x {
			n, err := valueNode(it)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case serial.Record:
		return mappingNode(x, nil)
	case map[string]any:
		return mappingNode(x, nil)
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func flowSeq() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
}

func allNumbers(xs []any) bool {
	if len(xs) == 0 {
		return false
	}
	for _, x := range xs {
		switch x.(type) {
		case float64, int, int64:
		default:
			return false
		}
	}
	return true
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

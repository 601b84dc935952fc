package strategy

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-wikiform/pkg/schema"
)

// Overlay is a declarative strategy for one entity type.
type Overlay struct {
	Order          []string          `yaml:"order" json:"order"`
	Hidden         []string          `yaml:"hidden" json:"hidden"`
	HiddenOnCreate []string          `yaml:"hiddenOnCreate" json:"hiddenOnCreate"`
	Required       map[string]bool   `yaml:"required" json:"required"`
	Labels         map[string]string `yaml:"labels" json:"labels"`
	Descriptions   map[string]string `yaml:"descriptions" json:"descriptions"`
}

// Strategy converts the overlay into hooks.
func (o Overlay) Strategy(name string) Strategy {
	hidden := toSet(o.Hidden)
	hiddenOnCreate := toSet(o.HiddenOnCreate)
	order := append([]string(nil), o.Order...)

	s := Strategy{Name: name}
	if len(hidden) > 0 || len(hiddenOnCreate) > 0 {
		s.ShouldShowProperty = func(propertyID string, mode schema.Mode) bool {
			if _, ok := hidden[propertyID]; ok {
				return false
			}
			if _, ok := hiddenOnCreate[propertyID]; ok && mode == schema.ModeCreate {
				return false
			}
			return true
		}
	}
	if len(order) > 0 {
		s.FieldOrder = func() []string { return order }
	}
	if len(o.Required) > 0 {
		required := copyMap(o.Required)
		s.IsPropertyRequired = func(propertyID string) (bool, bool) {
			r, ok := required[propertyID]
			return r, ok
		}
	}
	if len(o.Labels) > 0 {
		labels := copyMap(o.Labels)
		s.FieldLabel = func(propertyID, _ string) (string, bool) {
			l, ok := labels[propertyID]
			return l, ok
		}
	}
	if len(o.Descriptions) > 0 {
		descriptions := copyMap(o.Descriptions)
		s.FieldDescription = func(propertyID, _ string) (string, bool) {
			d, ok := descriptions[propertyID]
			return d, ok
		}
	}
	return s
}

// ParseOverlays decodes a document mapping entity-type keys to overlays.
// JSON documents are accepted as well.
func ParseOverlays(data []byte) (map[string]Overlay, error) {
	var doc map[string]Overlay
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("strategy: decode overlay: %w", err)
	}
	return doc, nil
}

// LoadOverlays reads every .yaml, .yml and .json file under dir in fsys.
// Files are applied in lexical order, so later files win for the same key
// and field.
func LoadOverlays(fsys fs.FS, dir string) (map[string][]Overlay, error) {
	if dir == "" {
		dir = "."
	}
	var files []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml", ".json":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("strategy: walk %s: %w", dir, err)
	}
	sort.Strings(files)

	out := make(map[string][]Overlay)
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("strategy: read %s: %w", name, err)
		}
		doc, err := ParseOverlays(data)
		if err != nil {
			return nil, fmt.Errorf("strategy: %s: %w", name, err)
		}
		for key, overlay := range doc {
			out[key] = append(out[key], overlay)
		}
	}
	return out, nil
}

// ApplyOverlays chains every overlay after the strategies already registered
// for its key.
func (r *Registry) ApplyOverlays(overlays map[string][]Overlay) {
	keys := make([]string, 0, len(overlays))
	for key := range overlays {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, o := range overlays[key] {
			r.Extend(key, o.Strategy(key+"-overlay"))
		}
	}
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

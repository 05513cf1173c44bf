// Package catalog maps outfit and background display names to the values the
// pipelines consume: garment image URLs or setting descriptions.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Kind groups catalog entries for listing.
type Kind string

const (
	KindTop        Kind = "top"
	KindBottom     Kind = "bottom"
	KindBackground Kind = "background"
)

// Entry is one named catalog value.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Kind  Kind   `json:"kind" yaml:"kind"`
	Value string `json:"value" yaml:"value"`
}

var builtin = []Entry{
	{"Blue T-Shirt", KindTop, "https://i.postimg.cc/Xqs7H0wD/blue_tshirt.png"},
	{"White Polo", KindTop, "https://i.postimg.cc/wx2vTDSp/white_polo.png"},
	{"Black Hoodie", KindTop, "https://i.postimg.cc/59g0N8ZW/black_hoodie.png"},
	{"Formal Shirt", KindTop, "https://i.postimg.cc/Wz5bWPM7/formal_shirt.png"},
	{"Khaki Shorts", KindBottom, "https://i.postimg.cc/hjHHKZKB/khaki_shorts.png"},
	{"Black Jeans", KindBottom, "https://i.postimg.cc/wvSS949K/black_jeans.png"},
	{"Navy Chinos", KindBottom, "https://i.postimg.cc/4drrX2XT/navy_chinos.png"},
	{"Running Shorts", KindBottom, "https://i.postimg.cc/bJG7cfcx/running_shorts.png"},
	{"Urban Cafe", KindBackground, "Urban cafe outdoor with modern city background"},
	{"Office", KindBackground, "Modern office interior with office chairs nearby"},
	{"Gym", KindBackground, "Gym or outdoor fitness setting"},
	{"Studio", KindBackground, "Clean professional studio with neutral background"},
}

// Catalog is safe for concurrent reads after construction.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
	folded  map[string]string
}

// New returns the built-in catalog.
func New() *Catalog {
	c := &Catalog{
		entries: make(map[string]Entry, len(builtin)),
		folded:  make(map[string]string, len(builtin)),
	}
	for _, e := range builtin {
		c.put(e)
	}
	return c
}

// Load returns the built-in catalog merged with the YAML file at path. An
// empty path yields the built-ins alone.
func Load(path string) (*Catalog, error) {
	c := New()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	if err := c.Merge(raw); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

type overrideFile struct {
	Entries []Entry `yaml:"entries"`
}

// Merge adds or replaces entries from a YAML document of the form
//
//	entries:
//	  - name: Red Dress
//	    kind: top
//	    value: https://example.com/red_dress.png
func (c *Catalog) Merge(doc []byte) error {
	var file overrideFile
	if err := yaml.Unmarshal(doc, &file); err != nil {
		return fmt.Errorf("parse overrides: %w", err)
	}
	for i, e := range file.Entries {
		e.Name = strings.TrimSpace(e.Name)
		e.Value = strings.TrimSpace(e.Value)
		if e.Name == "" || e.Value == "" {
			return fmt.Errorf("entry %d: name and value are required", i)
		}
		switch e.Kind {
		case KindTop, KindBottom, KindBackground:
		case "":
			e.Kind = KindTop
		default:
			return fmt.Errorf("entry %d: unknown kind %q", i, e.Kind)
		}
		c.mu.Lock()
		c.put(e)
		c.mu.Unlock()
	}
	return nil
}

func (c *Catalog) put(e Entry) {
	c.entries[e.Name] = e
	c.folded[foldKey(e.Name)] = e.Name
}

// Lookup returns the catalog value for name. Unknown names are returned
// unchanged so callers may pass a description or URL directly.
func (c *Catalog) Lookup(name string) string {
	v, _ := c.Resolve(name)
	return v
}

// Resolve is Lookup that also reports whether name was found.
func (c *Catalog) Resolve(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[name]; ok {
		return e.Value, true
	}
	if canonical, ok := c.folded[foldKey(name)]; ok {
		return c.entries[canonical].Value, true
	}
	return name, false
}

// Entries lists the catalog sorted by kind, then name.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return kindOrder(out[i].Kind) < kindOrder(out[j].Kind)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// foldKey builds a fresh Caser per call; a Caser is not safe for concurrent use.
func foldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func kindOrder(k Kind) int {
	switch k {
	case KindTop:
		return 0
	case KindBottom:
		return 1
	default:
		return 2
	}
}

// IsAsset reports whether value can be sent to a provider as an image
// reference.
func IsAsset(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "data:")
}

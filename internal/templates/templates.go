package templates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
)

//go:embed comic_templates.toml
var builtinTable []byte

const (
	// DefaultCategory is used when no valid category is supplied.
	DefaultCategory = "生活日常"
	// DefaultSubCategory pairs with DefaultCategory.
	DefaultSubCategory = "居家日常"
)

// Entry holds the default descriptive text for one sub-category.
type Entry struct {
	Name         string `toml:"name" json:"name"`
	SubTopic     string `toml:"sub_topic" json:"sub_topic"`
	FunnyExample string `toml:"funny_example" json:"funny_example"`
	DefaultTitle string `toml:"default_title" json:"default_title"`
	DefaultTopic string `toml:"default_topic" json:"default_topic"`
}

// Category is an ordered group of sub-category entries.
type Category struct {
	Name string  `toml:"name" json:"name"`
	Subs []Entry `toml:"sub" json:"subs"`
}

type document struct {
	Categories []Category `toml:"category"`
}

// Table is the read-only category → sub-category lookup.
type Table struct {
	categories []Category
	index      map[string]map[string]int
	catIndex   map[string]int
}

// Builtin parses the table embedded in the binary.
func Builtin() (*Table, error) {
	return Parse(builtinTable)
}

// Load reads a table from path, or returns the built-in table when path is empty.
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template table: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Parse decodes a TOML table and checks it for duplicates and blank fields.
func Parse(data []byte) (*Table, error) {
	var doc document
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse template table: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("template table has no categories")
	}

	table := &Table{
		categories: make([]Category, 0, len(doc.Categories)),
		index:      make(map[string]map[string]int, len(doc.Categories)),
		catIndex:   make(map[string]int, len(doc.Categories)),
	}
	for _, cat := range doc.Categories {
		cat.Name = Normalize(cat.Name)
		if cat.Name == "" {
			return nil, errors.New("template table: category with empty name")
		}
		if _, dup := table.catIndex[cat.Name]; dup {
			return nil, fmt.Errorf("template table: duplicate category %q", cat.Name)
		}
		if len(cat.Subs) == 0 {
			return nil, fmt.Errorf("template table: category %q has no sub-categories", cat.Name)
		}
		subs := make(map[string]int, len(cat.Subs))
		for i := range cat.Subs {
			entry := normalizeEntry(cat.Subs[i])
			if entry.Name == "" {
				return nil, fmt.Errorf("template table: %s has a sub-category with empty name", cat.Name)
			}
			if _, dup := subs[entry.Name]; dup {
				return nil, fmt.Errorf("template table: duplicate sub-category %s/%s", cat.Name, entry.Name)
			}
			if entry.SubTopic == "" || entry.FunnyExample == "" || entry.DefaultTitle == "" || entry.DefaultTopic == "" {
				return nil, fmt.Errorf("template table: %s/%s has blank fields", cat.Name, entry.Name)
			}
			cat.Subs[i] = entry
			subs[entry.Name] = i
		}
		table.catIndex[cat.Name] = len(table.categories)
		table.index[cat.Name] = subs
		table.categories = append(table.categories, cat)
	}
	return table, nil
}

// Lookup returns the entry for (category, sub).
func (t *Table) Lookup(category, sub string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	category, sub = Normalize(category), Normalize(sub)
	subs, ok := t.index[category]
	if !ok {
		return Entry{}, false
	}
	i, ok := subs[sub]
	if !ok {
		return Entry{}, false
	}
	return t.categories[t.catIndex[category]].Subs[i], true
}

// HasCategory reports whether name is a top-level key of the table.
func (t *Table) HasCategory(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.catIndex[Normalize(name)]
	return ok
}

// DefaultPair returns the (category, sub-category) used when a publish names
// none: 生活日常/居家日常 when the table has it, otherwise the first pair declared.
func (t *Table) DefaultPair() (string, string) {
	if t == nil || len(t.categories) == 0 {
		return DefaultCategory, DefaultSubCategory
	}
	if _, ok := t.Lookup(DefaultCategory, DefaultSubCategory); ok {
		return DefaultCategory, DefaultSubCategory
	}
	first := t.categories[0]
	return first.Name, first.Subs[0].Name
}

// Categories returns a copy of the table in declaration order.
func (t *Table) Categories() []Category {
	if t == nil {
		return nil
	}
	out := make([]Category, len(t.categories))
	for i, cat := range t.categories {
		out[i] = Category{Name: cat.Name, Subs: append([]Entry(nil), cat.Subs...)}
	}
	return out
}

// Len returns the number of (category, sub-category) pairs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, cat := range t.categories {
		n += len(cat.Subs)
	}
	return n
}

// Normalize trims s and converts it to Unicode NFC so visually identical
// keys typed on different systems compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeEntry(e Entry) Entry {
	return Entry{
		Name:         Normalize(e.Name),
		SubTopic:     Normalize(e.SubTopic),
		FunnyExample: Normalize(e.FunnyExample),
		DefaultTitle: Normalize(e.DefaultTitle),
		DefaultTopic: Normalize(e.DefaultTopic),
	}
}

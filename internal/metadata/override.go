package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"comicpub/internal/templates"
)

// Override is the user-supplied metadata document. Every field is optional.
type Override struct {
	Title        string
	Topic        string
	Category     string
	SubCategory  string
	SubTopic     string
	FunnyExample string
	// Ignored lists keys whose values were not scalars and were dropped.
	Ignored []string
}

// overrideKeys lists accepted document keys. When both spellings of a field
// are present the camelCase one, listed first, wins.
var overrideKeys = []struct {
	key   string
	field func(*Override) *string
}{
	{"title", func(o *Override) *string { return &o.Title }},
	{"topic", func(o *Override) *string { return &o.Topic }},
	{"category", func(o *Override) *string { return &o.Category }},
	{"subCategory", func(o *Override) *string { return &o.SubCategory }},
	{"sub_category", func(o *Override) *string { return &o.SubCategory }},
	{"subTopic", func(o *Override) *string { return &o.SubTopic }},
	{"sub_topic", func(o *Override) *string { return &o.SubTopic }},
	{"funnyExample", func(o *Override) *string { return &o.FunnyExample }},
	{"funny_example", func(o *Override) *string { return &o.FunnyExample }},
}

// LoadOverride reads an override document. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON. A missing file returns an error
// matching fs.ErrNotExist.
func LoadOverride(path string) (*Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseOverride(data, true)
	default:
		return ParseOverride(data, false)
	}
}

// ParseOverride decodes an override document. Unknown keys are ignored;
// scalars keep the text as written, so "1.50" and "2024-05-01" survive
// unchanged. A known key holding a list or map is dropped and named in
// Override.Ignored; the rest of the document still applies.
func ParseOverride(data []byte, isYAML bool) (*Override, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	ov := &Override{}
	if len(bytes.TrimSpace(data)) == 0 {
		return ov, nil
	}

	var fields map[string]string
	var dropped []string
	var err error
	if isYAML {
		fields, dropped, err = yamlScalars(data)
	} else {
		fields, dropped, err = jsonScalars(data)
	}
	if err != nil {
		return nil, err
	}

	for _, k := range overrideKeys {
		text, ok := fields[k.key]
		if !ok {
			continue
		}
		if dst := k.field(ov); *dst == "" {
			*dst = templates.Normalize(text)
		}
	}
	for _, key := range dropped {
		if isOverrideKey(key) {
			ov.Ignored = append(ov.Ignored, key)
		}
	}
	sort.Strings(ov.Ignored)
	return ov, nil
}

func isOverrideKey(key string) bool {
	for _, k := range overrideKeys {
		if k.key == key {
			return true
		}
	}
	return false
}

// yamlScalars returns the text of every scalar value and the keys whose
// values are lists or maps.
func yamlScalars(data []byte) (map[string]string, []string, error) {
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, nil, fmt.Errorf("parse yaml override: %w", err)
	}
	fields := make(map[string]string, len(nodes))
	var dropped []string
	for key, node := range nodes {
		n := &node
		if n.Kind == yaml.AliasNode && n.Alias != nil {
			n = n.Alias
		}
		switch {
		case n.Kind != yaml.ScalarNode:
			dropped = append(dropped, key)
		case n.Tag == "!!null":
			fields[key] = ""
		default:
			fields[key] = n.Value
		}
	}
	return fields, dropped, nil
}

func jsonScalars(data []byte) (map[string]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, nil, fmt.Errorf("parse json override: %w", err)
	}
	if values == nil {
		return nil, nil, errors.New("parse json override: document is null")
	}
	fields := make(map[string]string, len(values))
	var dropped []string
	for key, value := range values {
		switch v := value.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = v
		case bool:
			fields[key] = strconv.FormatBool(v)
		case json.Number:
			fields[key] = v.String()
		default:
			dropped = append(dropped, key)
		}
	}
	return fields, dropped, nil
}

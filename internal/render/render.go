package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

//go:embed detail.html.tmpl
var detailHTML string

var detailTemplate = template.Must(template.New("detail").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(detailHTML))

// Page is everything the detail template shows. Image sources and the back
// link are relative to the page's own location.
type Page struct {
	ID         string
	Title      string
	Topic      string
	Category   string
	SubTopic   string
	Images     []string
	SiteName   string
	Footer     string
	BackLink   string
	CounterURL string
	AdsEnabled bool
	AdSlot     string
}

// BeaconURL returns the view-counter hit URL, or "" when no counter is set.
func (p Page) BeaconURL() string {
	base := strings.TrimRight(strings.TrimSpace(p.CounterURL), "/")
	if base == "" {
		return ""
	}
	return base + "/hit?id=" + url.QueryEscape(p.ID)
}

// Render produces the detail page. It has no side effects.
func Render(page Page) ([]byte, error) {
	if strings.TrimSpace(page.ID) == "" {
		return nil, errors.New("render: page id is empty")
	}
	if len(page.Images) == 0 {
		return nil, fmt.Errorf("render %s: no images", page.ID)
	}
	var buf bytes.Buffer
	if err := detailTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render %s: %w", page.ID, err)
	}
	return buf.Bytes(), nil
}

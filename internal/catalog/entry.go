package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// IDPrefix precedes the numeric part of every entry id.
	IDPrefix = "comic"
	// TimeLayout formats CreatedAt in local time.
	TimeLayout = "2006-01-02 15:04:05"
	idWidth    = 3
)

// Entry is one published comic. Field names on the wire follow the index
// format the site already consumes; rows written before a field existed
// simply leave it empty.
type Entry struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Topic            string   `json:"topic"`
	Category         string   `json:"category,omitempty"`
	SubCategory      string   `json:"sub_category,omitempty"`
	SubTopic         string   `json:"sub_topic,omitempty"`
	FunnyExample     string   `json:"funny_example,omitempty"`
	PrimaryImagePath string   `json:"img"`
	ImagePaths       []string `json:"imgs,omitempty"`
	ImageCount       int      `json:"img_count,omitempty"`
	HasAnimatedImage bool     `json:"has_gif"`
	DetailPagePath   string   `json:"html"`
	CreatedAt        string   `json:"create_time"`
}

// Catalog is the whole index document in insertion order.
type Catalog struct {
	Comics []Entry `json:"comics"`
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Comics)
}

// Find returns the entry with the given id.
func (c *Catalog) Find(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, entry := range c.Comics {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// NextNumber returns the number AllocateNextID would hand out for c
// without touching the document.
func (c *Catalog) NextNumber() (string, error) {
	if c == nil {
		return FormatNumber(1), nil
	}
	highest, err := maxNumber(c)
	if err != nil {
		return "", err
	}
	return FormatNumber(highest + 1), nil
}

// FormatNumber zero-pads n to at least three digits. Larger numbers grow
// rather than truncate: 7 → "007", 1000 → "1000".
func FormatNumber(n int) string {
	return fmt.Sprintf("%0*d", idWidth, n)
}

// FormatID builds a full entry id such as comic-008.
func FormatID(n int) string {
	return IDPrefix + "-" + FormatNumber(n)
}

// IDFromNumber prefixes an allocated numeric string.
func IDFromNumber(number string) string {
	return IDPrefix + "-" + number
}

// ParseID extracts the numeric suffix of an id shaped comic-<digits>.
func ParseID(id string) (int, error) {
	prefix, digits, ok := strings.Cut(strings.TrimSpace(id), "-")
	if !ok || prefix != IDPrefix || digits == "" {
		return 0, fmt.Errorf("id %q: want %s-<digits>", id, IDPrefix)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("id %q: suffix is not numeric", id)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", id, err)
	}
	return n, nil
}

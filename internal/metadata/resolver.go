package metadata

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"comicpub/internal/logging"
	"comicpub/internal/templates"
)

// Source names the layer that supplied a field.
type Source string

const (
	SourceOverride Source = "override"
	SourceTemplate Source = "template"
	SourceDefault  Source = "default"
)

// Generic values used when neither the override nor the template table has one.
const (
	GenericTopic        = "general/fun/light"
	GenericSubTopic     = "日常趣事"
	GenericFunnyExample = "一段轻松搞笑的四格小故事"
)

// Field names used as keys in Metadata.Sources.
const (
	FieldTitle        = "title"
	FieldTopic        = "topic"
	FieldCategory     = "category"
	FieldSubCategory  = "sub_category"
	FieldSubTopic     = "sub_topic"
	FieldFunnyExample = "funny_example"
)

// Metadata is a fully populated description of one comic.
type Metadata struct {
	Title        string
	Topic        string
	Category     string
	SubCategory  string
	SubTopic     string
	FunnyExample string
	Sources      map[string]Source
}

// GenericTitle returns the fallback title for an allocated number.
func GenericTitle(number string) string {
	return "Comic-" + number
}

// Resolver fills metadata from an override document, the template table and
// generic defaults, in that order.
type Resolver struct {
	table  *templates.Table
	logger *slog.Logger
}

// NewResolver returns a Resolver over table. A nil table resolves every field
// to the generic defaults.
func NewResolver(table *templates.Table, logger *slog.Logger) *Resolver {
	return &Resolver{table: table, logger: logging.NewComponentLogger(logger, "metadata")}
}

// Resolve never fails. A missing or unreadable override document is logged
// and resolution continues as if none had been given.
func (r *Resolver) Resolve(ctx context.Context, number, overridePath string) Metadata {
	logger := logging.WithContext(ctx, r.logger)
	var ov *Override
	if path := strings.TrimSpace(overridePath); path != "" {
		loaded, err := LoadOverride(path)
		switch {
		case err == nil:
			ov = loaded
			logger.Debug("override document loaded", logging.Path(path))
		case errors.Is(err, fs.ErrNotExist):
			logging.WarnWithContext(logger, "override document not found; using template defaults", "override_missing",
				logging.Path(path),
				logging.String(logging.FieldErrorHint, "check the --override path"),
				logging.String(logging.FieldImpact, "metadata comes from the default category"),
			)
		default:
			logging.WarnWithContext(logger, "override document unreadable; using template defaults", "override_invalid",
				logging.Path(path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the JSON/YAML syntax; all fields must be strings"),
				logging.String(logging.FieldImpact, "metadata comes from the default category"),
			)
		}
	}
	return r.ResolveOverride(ctx, number, ov)
}

// ResolveOverride applies the fallback chain to an already parsed override.
func (r *Resolver) ResolveOverride(ctx context.Context, number string, ov *Override) Metadata {
	logger := logging.WithContext(ctx, r.logger)
	if ov == nil {
		ov = &Override{}
	}
	if len(ov.Ignored) > 0 {
		logging.WarnWithContext(logger, "override fields ignored; values must be plain text", "override_field_ignored",
			logging.String("fields", strings.Join(ov.Ignored, ",")),
			logging.String(logging.FieldErrorHint, "write these fields as quoted strings"),
			logging.String(logging.FieldImpact, "the ignored fields fall back to template or generic text"),
		)
	}
	md := Metadata{Sources: make(map[string]Source, 6)}

	md.Category, md.SubCategory = r.pickCategory(logger, ov, md.Sources)

	entry, found := r.table.Lookup(md.Category, md.SubCategory)
	if !found {
		logging.WarnWithContext(logger, "no template for category pair; using generic text", "template_miss",
			logging.String(FieldCategory, md.Category),
			logging.String(FieldSubCategory, md.SubCategory),
			logging.String(logging.FieldErrorHint, "run `comicpub templates list` for valid pairs"),
			logging.String(logging.FieldImpact, "sub-topic and joke premise use generic placeholders"),
		)
	}
	templateValue := func(value string) candidate {
		if !found {
			return candidate{}
		}
		return candidate{value, SourceTemplate}
	}

	md.Title = md.pick(FieldTitle,
		candidate{ov.Title, SourceOverride},
		templateValue(entry.DefaultTitle),
		candidate{GenericTitle(number), SourceDefault},
	)
	md.Topic = md.pick(FieldTopic,
		candidate{ov.Topic, SourceOverride},
		templateValue(entry.DefaultTopic),
		candidate{GenericTopic, SourceDefault},
	)
	md.SubTopic = md.pick(FieldSubTopic,
		candidate{ov.SubTopic, SourceOverride},
		templateValue(entry.SubTopic),
		candidate{GenericSubTopic, SourceDefault},
	)
	md.FunnyExample = md.pick(FieldFunnyExample,
		candidate{ov.FunnyExample, SourceOverride},
		templateValue(entry.FunnyExample),
		candidate{GenericFunnyExample, SourceDefault},
	)

	logger.Info("metadata resolved",
		logging.String("title", md.Title),
		logging.String(FieldCategory, md.Category),
		logging.String(FieldSubCategory, md.SubCategory),
		logging.String("title_source", string(md.Sources[FieldTitle])),
	)
	return md
}

// pickCategory keeps the override's category only when the table knows it.
// An unknown category discards the override's sub-category too. A missing
// sub-category takes the fixed default, which may not exist under the chosen
// category; the template lookup then misses and generic text is used.
func (r *Resolver) pickCategory(logger *slog.Logger, ov *Override, sources map[string]Source) (string, string) {
	defCat, defSub := r.table.DefaultPair()

	category := templates.Normalize(ov.Category)
	if category == "" || !r.table.HasCategory(category) {
		if category != "" {
			logging.WarnWithContext(logger, "unknown category in override; using default pair", "category_unknown",
				logging.String(FieldCategory, category),
				logging.String("default", defCat+"/"+defSub),
				logging.String(logging.FieldErrorHint, "run `comicpub templates list` for valid categories"),
				logging.String(logging.FieldImpact, "comic is filed under the default category"),
			)
		}
		sources[FieldCategory] = SourceDefault
		sources[FieldSubCategory] = SourceDefault
		return defCat, defSub
	}
	sources[FieldCategory] = SourceOverride

	if sub := templates.Normalize(ov.SubCategory); sub != "" {
		sources[FieldSubCategory] = SourceOverride
		return category, sub
	}
	sources[FieldSubCategory] = SourceDefault
	if category == defCat {
		return category, defSub
	}
	return category, templates.DefaultSubCategory
}

type candidate struct {
	value  string
	source Source
}

// pick returns the first non-empty candidate and records where it came from.
func (m *Metadata) pick(field string, candidates ...candidate) string {
	for _, c := range candidates {
		if v := templates.Normalize(c.value); v != "" {
			m.Sources[field] = c.source
			return v
		}
	}
	return ""
}

// Package document defines the in-memory representation of a markdown
// document's metadata: a small set of fixed, typed core fields plus an
// open-ended map of namespaced extension sections.
//
// Independent pieces of code attach their own strongly typed data to a
// document through the extension map without the core schema knowing
// about them in advance. The codec partitions known from unknown keys on
// decode — core fields are extracted by name first, everything left over
// is folded into the extension map — and re-emits both without
// collision. Sections belonging to other namespaces are never lost or
// rewritten.
//
// Nothing here performs I/O or locking. A Record is a plain value; a
// host sharing one across goroutines must serialize mutation itself.
package document

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/calvinalkan/markmeta/pkg/frontmatter"
	"github.com/calvinalkan/markmeta/pkg/structval"
)

// Core field names as they appear in front matter.
const (
	FieldTitle    = "title"
	FieldAuthor   = "author"
	FieldCreated  = "created"
	FieldModified = "modified"
	FieldRevision = "revision"
	FieldTags     = "tags"
)

// coreFieldOrder is the stable emit order for core fields. Encoding
// never uses insertion order; schema stability keeps documents
// diff-friendly and byte-compatible with files that predate the
// extension system.
var coreFieldOrder = []string{
	FieldTitle,
	FieldAuthor,
	FieldCreated,
	FieldModified,
	FieldRevision,
	FieldTags,
}

// IsCoreField reports whether name is one of the fixed core field names.
// Core names never appear as extension namespaces: core extraction runs
// before the extension map is populated, so a colliding key is invisible
// through it.
func IsCoreField(name string) bool {
	return slices.Contains(coreFieldOrder, name)
}

// Record is a document's in-memory metadata.
//
// Title, Author, and Created are mandatory. Modified, Revision, and Tags
// are optional; their zero values are treated as absent and omitted from
// output. Extensions maps namespace keys to type-erased section values.
type Record struct {
	Title    string
	Author   string
	Created  time.Time
	Modified time.Time
	Revision int
	Tags     []string

	Extensions map[string]structval.Value
}

// Equal reports whether two records carry the same metadata. Extension
// sections compare by canonical structural equality, times by instant.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}

	if r.Title != o.Title || r.Author != o.Author || r.Revision != o.Revision {
		return false
	}

	if !r.Created.Equal(o.Created) || !r.Modified.Equal(o.Modified) {
		return false
	}

	if !slices.Equal(r.Tags, o.Tags) {
		return false
	}

	if len(r.Extensions) != len(o.Extensions) {
		return false
	}

	for key, val := range r.Extensions {
		other, ok := o.Extensions[key]
		if !ok || !val.Equal(other) {
			return false
		}
	}

	return true
}

// DecodeMapping builds a Record from an ordered front-matter mapping.
//
// Core fields are extracted and type-checked by name first; a missing
// mandatory field fails with *MissingFieldError, a present-but-malformed
// field with a shape mismatch. Every remaining key is then individually
// classified into a structval.Value and inserted into Extensions under
// its raw name.
func DecodeMapping(m *frontmatter.Mapping) (*Record, error) {
	rec := &Record{}

	var err error

	rec.Title, err = requiredString(m, FieldTitle)
	if err != nil {
		return nil, err
	}

	rec.Author, err = requiredString(m, FieldAuthor)
	if err != nil {
		return nil, err
	}

	rec.Created, err = requiredTime(m, FieldCreated)
	if err != nil {
		return nil, err
	}

	if v, ok := m.Get(FieldModified); ok {
		rec.Modified, err = timeField(FieldModified, v)
		if err != nil {
			return nil, err
		}
	}

	if v, ok := m.Get(FieldRevision); ok {
		rec.Revision, err = intField(FieldRevision, v)
		if err != nil {
			return nil, err
		}
	}

	if v, ok := m.Get(FieldTags); ok {
		rec.Tags, err = stringListField(FieldTags, v)
		if err != nil {
			return nil, err
		}
	}

	for _, key := range m.Keys() {
		if IsCoreField(key) {
			continue
		}

		raw, _ := m.Get(key)

		val, valErr := structval.FromTyped(raw)
		if valErr != nil {
			return nil, fmt.Errorf("decode extension %q: %w", key, valErr)
		}

		if rec.Extensions == nil {
			rec.Extensions = make(map[string]structval.Value)
		}

		rec.Extensions[key] = val
	}

	return rec, nil
}

// EncodeMapping emits the record as an ordered front-matter mapping:
// core fields in their fixed order, then extension entries at the same
// nesting level, keyed by namespace in sorted order. An empty extension
// map emits nothing extension-related, so documents without extensions
// are textually indistinguishable from documents predating them.
func (r *Record) EncodeMapping() (*frontmatter.Mapping, error) {
	if r.Title == "" {
		return nil, &MissingFieldError{Name: FieldTitle}
	}

	if r.Author == "" {
		return nil, &MissingFieldError{Name: FieldAuthor}
	}

	if r.Created.IsZero() {
		return nil, &MissingFieldError{Name: FieldCreated}
	}

	m := frontmatter.NewMapping()

	m.Set(FieldTitle, r.Title)
	m.Set(FieldAuthor, r.Author)
	m.Set(FieldCreated, r.Created.UTC())

	if !r.Modified.IsZero() {
		m.Set(FieldModified, r.Modified.UTC())
	}

	if r.Revision != 0 {
		m.Set(FieldRevision, r.Revision)
	}

	if len(r.Tags) > 0 {
		m.Set(FieldTags, r.Tags)
	}

	extKeys := make([]string, 0, len(r.Extensions))

	for key := range r.Extensions {
		// Core names never live in the extension map; a record mutated
		// by hand to violate that must not clobber a core field.
		if IsCoreField(key) {
			continue
		}

		extKeys = append(extKeys, key)
	}

	sort.Strings(extKeys)

	for _, key := range extKeys {
		plain, err := r.Extensions[key].Interface()
		if err != nil {
			return nil, fmt.Errorf("encode extension %q: %w", key, err)
		}

		m.Set(key, plain)
	}

	return m, nil
}

// Decode parses a full front-matter-delimited payload into a Record and
// the remaining body text.
func Decode(src []byte) (*Record, []byte, error) {
	m, body, err := frontmatter.Parse(src)
	if err != nil {
		return nil, nil, err
	}

	rec, err := DecodeMapping(m)
	if err != nil {
		return nil, nil, err
	}

	return rec, body, nil
}

// Encode serializes the record and body back into a front-matter
// delimited payload. Decode(Encode(r, body)) is a fixed point for any
// record satisfying the required-field invariants.
func Encode(r *Record, body []byte) ([]byte, error) {
	m, err := r.EncodeMapping()
	if err != nil {
		return nil, err
	}

	return frontmatter.Compose(m, body)
}

func requiredString(m *frontmatter.Mapping, name string) (string, error) {
	v, ok := m.Get(name)
	if !ok {
		return "", &MissingFieldError{Name: name}
	}

	s, ok := v.(string)
	if !ok {
		return "", fieldMismatch(name, "string", v)
	}

	if s == "" {
		return "", &MissingFieldError{Name: name}
	}

	return s, nil
}

func requiredTime(m *frontmatter.Mapping, name string) (time.Time, error) {
	v, ok := m.Get(name)
	if !ok {
		return time.Time{}, &MissingFieldError{Name: name}
	}

	return timeField(name, v)
}

// timeField accepts both shapes the YAML layer can hand us: an unquoted
// stamp resolved to time.Time, or a quoted RFC 3339 string.
func timeField(name string, v any) (time.Time, error) {
	switch typed := v.(type) {
	case time.Time:
		return typed, nil
	case string:
		t, err := time.Parse(time.RFC3339, typed)
		if err != nil {
			return time.Time{}, fieldMismatch(name, "RFC 3339 timestamp", v)
		}

		return t, nil
	default:
		return time.Time{}, fieldMismatch(name, "RFC 3339 timestamp", v)
	}
}

func intField(name string, v any) (int, error) {
	switch typed := v.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	default:
		return 0, fieldMismatch(name, "integer", v)
	}
}

func stringListField(name string, v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fieldMismatch(name, "list of strings", v)
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fieldMismatch(name, "list of strings", item)
		}

		out = append(out, s)
	}

	return out, nil
}

func fieldMismatch(name, expected string, got any) error {
	return fmt.Errorf("field %q: %w", name, &structval.TypeMismatchError{
		Expected: expected,
		Actual:   fmt.Sprintf("%T", got),
	})
}

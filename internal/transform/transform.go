// Package transform randomizes copies of template saved objects.
package transform

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// Options selects which fields Process rewrites.
type Options struct {
	// AppendID appends a fresh UUID to id and to every reference id.
	AppendID bool

	// ReplaceTitle rewrites attributes.title with a random phrase.
	ReplaceTitle bool

	// ReplaceTimestamp rewrites updated_at with the current UTC time.
	ReplaceTimestamp bool
}

// Transformer produces randomized copies of saved objects.
type Transformer struct {
	gen ingestor.DataGenerator
	now func() time.Time
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) {
		t.now = now
	}
}

// New creates a Transformer drawing random values from gen.
func New(gen ingestor.DataGenerator, opts ...Option) *Transformer {
	t := &Transformer{
		gen: gen,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Process returns a randomized deep copy of obj; obj itself is never modified.
// Keys are never added or removed. Only id, attributes.title,
// attributes.references[*].id, references[*].id and updated_at change, and
// only when present and enabled by opts.
func (t *Transformer) Process(obj ingestor.SavedObject, opts Options) ingestor.SavedObject {
	out := DeepCopy(obj)

	if opts.AppendID {
		if id, ok := out[ingestor.FieldID]; ok {
			out[ingestor.FieldID] = t.suffixed(id)
		}
	}

	if attrs, ok := out[ingestor.FieldAttributes].(map[string]any); ok {
		if _, ok := attrs[ingestor.FieldTitle]; ok && opts.ReplaceTitle {
			attrs[ingestor.FieldTitle] = t.gen.Phrase()
		}
		if refs, ok := attrs[ingestor.FieldReferences].([]any); ok && opts.AppendID {
			t.suffixReferences(refs)
		}
	}

	if refs, ok := out[ingestor.FieldReferences].([]any); ok && opts.AppendID {
		t.suffixReferences(refs)
	}

	if _, ok := out[ingestor.FieldUpdatedAt]; ok && opts.ReplaceTimestamp {
		out[ingestor.FieldUpdatedAt] = FormatTimestamp(t.now())
	}

	return out
}

// suffixReferences appends a distinct UUID to the id of every reference
// object in refs. Elements without an id, or that are not objects, are left alone.
func (t *Transformer) suffixReferences(refs []any) {
	for _, r := range refs {
		ref, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := ref[ingestor.FieldID]; ok {
			ref[ingestor.FieldID] = t.suffixed(id)
		}
	}
}

func (t *Transformer) suffixed(id any) string {
	return idString(id) + t.gen.UUID()
}

// idString renders an id value as text. Non-string ids use their JSON form.
func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	}
	b, err := json.Marshal(id)
	if err != nil {
		return fmt.Sprint(id)
	}
	return string(b)
}

// FormatTimestamp renders ts in UTC as 2006-01-02T15:04:05.000Z.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(ingestor.TimestampLayout)
}

// DeepCopy copies a decoded JSON object, recursing into nested objects and lists.
func DeepCopy(obj ingestor.SavedObject) ingestor.SavedObject {
	if obj == nil {
		return nil
	}
	return copyValue(obj).(map[string]any)
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = copyValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, inner := range val {
			s[i] = copyValue(inner)
		}
		return s
	default:
		// strings, json.Number, bool and nil are immutable
		return val
	}
}

// Package dataset implements the Dataset Engine: an in-memory, ordered
// list of records plus the search/aggregate/paginate pipeline and the
// delete/update/insert mutations, with per-dataset locking and
// named-search result caching.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is an ordered mapping from string keys to JSON-compatible values,
// matching the spec's data model: records within one dataset need not
// share a schema, and key order is preserved across decode/encode so that
// re-serialized records keep their original field order.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Get returns the value stored at key and whether it was present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set assigns key to value, appending key to the order if it is new.
func (r *Record) Set(key string, value any) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string { return r.keys }

// ToMap returns a plain map view suitable as an expression binding or for
// field projection. The returned top-level map is a fresh copy; nested
// lists and maps are shared with r, not copied.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Clone returns a deep-enough copy of r (field values are not themselves
// deep-copied, matching Go's usual "slices/maps are shared until
// reassigned" semantics; mutation always goes through Set).
func (r *Record) Clone() *Record {
	clone := &Record{
		keys:   append([]string{}, r.keys...),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		clone.values[k] = v
	}
	return clone
}

// Project returns a new Record containing only the named fields, in the
// order they were requested, implementing the `fields` projection of a
// SearchQuery.
func (r *Record) Project(fields []string) *Record {
	out := NewRecord()
	for _, f := range fields {
		if v, ok := r.values[f]; ok {
			out.Set(f, v)
		}
	}
	return out
}

// MarshalJSON emits the record as a JSON object with fields in insertion
// order, since encoding/json's map marshaling would otherwise sort keys
// alphabetically and lose the ordering the spec's data model promises.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into r, preserving the key order as
// they appear in the source document.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := decodeValue(raw)
		if err != nil {
			return err
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}
	return nil
}

// decodeValue decodes raw into plain Go values, normalizing
// json.Number into int64 or float64 depending on shape so that the
// expression engine sees the same numeric kinds a hand-written record
// literal would produce.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	default:
		return v
	}
}

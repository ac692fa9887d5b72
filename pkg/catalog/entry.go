package catalog

import (
	"encoding/json"
	"fmt"

	cerrors "github.com/matzehuels/curator/pkg/errors"
)

// Entry is a stored record together with the JSON keys its struct does
// not know. Saving an Entry writes those keys back unchanged.
type Entry struct {
	Record Record
	// Path is the backing file, empty for stores that are not file based.
	Path string

	raw    map[string]json.RawMessage
	loaded map[string]struct{}
}

// NewEntry wraps a record created in code.
func NewEntry(r Record) *Entry {
	return &Entry{Record: r}
}

// ID returns the record id.
func (e *Entry) ID() string { return e.Record.Common().ID }

// Kind returns the record kind.
func (e *Entry) Kind() Kind { return e.Record.Common().Type }

// Extra returns the raw value of key as loaded, unless the record struct
// decoded a value for it.
func (e *Entry) Extra(key string) (json.RawMessage, bool) {
	if _, known := e.loaded[key]; known {
		return nil, false
	}
	v, ok := e.raw[key]
	return v, ok
}

// Decode parses one record document. The "type" field selects the
// struct; an unknown type or a missing id is an error.
func Decode(data []byte) (*Entry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRecord, err, "decode record")
	}

	var kind Kind
	if t, ok := raw["type"]; ok {
		if err := json.Unmarshal(t, &kind); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRecord, err, "decode record type")
		}
	}
	rec := New(kind)
	if rec == nil {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRecord, "unknown record type %q", kind)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRecord, err, "decode %s record", kind)
	}
	if err := cerrors.ValidateRecordID(rec.Common().ID); err != nil {
		return nil, err
	}

	loaded, err := keys(rec)
	if err != nil {
		return nil, err
	}
	return &Entry{Record: rec, raw: raw, loaded: loaded}, nil
}

// MarshalJSON merges the record's fields over the preserved raw document.
// Known keys that were present at load time and are now empty are dropped;
// every other key is kept verbatim.
func (e *Entry) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Record)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.ID(), err)
	}
	if len(e.raw) == 0 {
		return data, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(e.raw)+len(fields))
	for k, v := range e.raw {
		if _, known := e.loaded[k]; !known {
			out[k] = v
		}
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// keys returns the top-level keys r currently marshals.
func keys(r Record) (map[string]struct{}, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(fields))
	for k := range fields {
		set[k] = struct{}{}
	}
	return set, nil
}

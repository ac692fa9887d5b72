package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadJSON decodes a single JSON value from r into v.
//
// ReadJSON returns an error if the JSON is malformed or if r holds more
// than one value. ReadJSON does not close r.
func ReadJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: trailing data after JSON value")
	}
	return nil
}

// ImportJSON reads the JSON file at path into v.
//
// The error wraps the underlying cause with the file path, so
// errors.Is(err, fs.ErrNotExist) still reports a missing file.
func ImportJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := ReadJSON(f, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

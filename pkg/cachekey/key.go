// Package cachekey derives deterministic result-cache keys from task inputs.
package cachekey

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// ErrUnserializable is returned when an input has no canonical JSON form.
var ErrUnserializable = errors.New("cache key input cannot be serialized")

// Prefix namespaces every key produced by this package.
const Prefix = "ai"

// Field is one named input of a task.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for building a Field.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Key returns "ai:<task>:<digest>" where digest is the first 128 bits of a
// SHA-256 over the canonical JSON encoding of fields.
//
// Fields are encoded as an ordered array of [name, value] pairs, so values
// are length-delimited and adjacent fields cannot run into each other. Maps
// are encoded with sorted keys, so insertion order never changes the key.
func Key(task models.Task, fields ...Field) (string, error) {
	canonical, err := Canonical(fields...)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%s:%s", Prefix, task, hex.EncodeToString(sum[:16])), nil
}

// Canonical returns the exact bytes that Key hashes.
func Canonical(fields ...Field) ([]byte, error) {
	pairs := make([][2]any, len(fields))
	for i, f := range fields {
		pairs[i] = [2]any{f.Name, f.Value}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

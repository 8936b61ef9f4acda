// Package optional provides JSON-aware field wrappers for partial updates.
//
// A Value distinguishes three states of a JSON object member: absent (Set is
// false), explicit null (Set and Null are true) and present (Set is true and
// Null is false). The empty string is a present value.
package optional

import (
	"encoding/json"
)

type Value[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a present Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, Value: v}
}

// Null returns an explicitly null Value.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked by encoding/json when the member exists.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if string(data) == "null" {
		var zero T
		v.Null = true
		v.Value = zero
		return nil
	}
	v.Null = false
	return json.Unmarshal(data, &v.Value)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

// Present reports whether the member was sent with a non-null value.
func (v Value[T]) Present() bool {
	return v.Set && !v.Null
}

// Get returns the held value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.Value, v.Present()
}

// Apply overwrites dst when the value is present. Null leaves dst untouched
// because dst cannot represent absence.
func (v Value[T]) Apply(dst *T) {
	if v.Present() {
		*dst = v.Value
	}
}

// ApplyPtr overwrites a nullable destination. An explicit null clears it.
func (v Value[T]) ApplyPtr(dst **T) {
	if !v.Set {
		return
	}
	if v.Null {
		*dst = nil
		return
	}
	val := v.Value
	*dst = &val
}

// Package dict implements the typed key/value map used for translator
// options, extended-attribute payloads and management-op argument
// transport.
package dict

import (
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("dict: key not found")

// Value is a single dict entry: a length-prefixed byte payload plus the
// locked/static flag that controls whether the holder must copy on free.
type Value struct {
	Bytes  []byte
	Static bool // points into memory the dict does not own
	Locked bool // holder must copy before releasing the dict
}

// Len returns the payload length.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Bytes)
}

// Copy returns a Value with its own backing array, clearing Static/Locked.
func (v *Value) Copy() *Value {
	b := make([]byte, len(v.Bytes))
	copy(b, v.Bytes)
	return &Value{Bytes: b}
}

// NewStringValue wraps a string as a dict Value.
func NewStringValue(s string) *Value {
	return &Value{Bytes: []byte(s)}
}

// NewUint32Value wraps a uint32 as a 4-byte big-endian dict Value.
func NewUint32Value(v uint32) *Value {
	return &Value{Bytes: []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}}
}

// Str returns the value's bytes as a string.
func (v *Value) Str() string {
	if v == nil {
		return ""
	}
	return string(v.Bytes)
}

// Dict is an open-addressed key/value map, ref-counted, with deterministic
// iteration order over its members for wire encoding.
type Dict struct {
	entries  map[string]*Value
	members  []string
	refcount int32
	isLocked bool
}

// New returns an empty, ref-count-1 dict.
func New() *Dict {
	return &Dict{entries: make(map[string]*Value), refcount: 1}
}

// Ref increments the reference count and returns d, per invariant (iii):
// acquire-before-share.
func (d *Dict) Ref() *Dict {
	atomic.AddInt32(&d.refcount, 1)
	return d
}

// Unref decrements the reference count, freeing the dict's storage when it
// reaches zero. Calling Unref more times than Ref was called on the same
// acquisition is a programmer error and panics, the same treatment every
// other unmatched acquire/release contract in this codebase gets.
func (d *Dict) Unref() {
	n := atomic.AddInt32(&d.refcount, -1)
	if n < 0 {
		panic("dict: unref without matching ref")
	}
	if n == 0 {
		d.entries = nil
		d.members = nil
	}
}

// RefCount reports the current reference count.
func (d *Dict) RefCount() int32 {
	return atomic.LoadInt32(&d.refcount)
}

// SetStatic marks the dict as locked: the first caller that frees it must
// copy rather than mutate in place.
func (d *Dict) SetStatic() { d.isLocked = true }

// IsStatic reports the locked flag.
func (d *Dict) IsStatic() bool { return d.isLocked }

// Set inserts or overwrites key with value.
func (d *Dict) Set(key string, value *Value) {
	if _, exists := d.entries[key]; !exists {
		d.members = append(d.members, key)
	}
	d.entries[key] = value
}

// SetString is a convenience wrapper around Set/NewStringValue.
func (d *Dict) SetString(key, value string) {
	d.Set(key, NewStringValue(value))
}

// Get returns the value for key, or ErrNotFound.
func (d *Dict) Get(key string) (*Value, error) {
	v, ok := d.entries[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "key %q", key)
	}
	return v, nil
}

// GetString returns the string form of key, defaulting to def when absent.
func (d *Dict) GetString(key, def string) string {
	v, err := d.Get(key)
	if err != nil {
		return def
	}
	return v.Str()
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.entries[key]
	return ok
}

// Delete removes key, if present.
func (d *Dict) Delete(key string) {
	if _, ok := d.entries[key]; !ok {
		return
	}
	delete(d.entries, key)
	for i, m := range d.members {
		if m == key {
			d.members = append(d.members[:i], d.members[i+1:]...)
			break
		}
	}
}

// Keys returns the dict's keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.members))
	copy(out, d.members)
	return out
}

// SortedKeys returns the dict's keys in lexical order, used by the checksum
// and wire-encode paths where deterministic output matters more than
// insertion order.
func (d *Dict) SortedKeys() []string {
	out := d.Keys()
	sort.Strings(out)
	return out
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.entries)
}

// ForEach iterates entries in insertion order. Returning an error from fn
// stops iteration and propagates the error.
func (d *Dict) ForEach(fn func(key string, v *Value) error) error {
	for _, k := range d.members {
		if err := fn(k, d.entries[k]); err != nil {
			return err
		}
	}
	return nil
}

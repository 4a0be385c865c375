// Package params implements the key/value parameter string format used on
// the host framework's parameter interface.
//
// A parameter string is a sequence of key=value pairs separated by
// semicolons, e.g. "tty_mode=tty_hco;volume_boost=on". Keys are opaque
// tokens; values run to the next unquoted semicolon, and may be wrapped in
// double quotes to carry literal semicolons. A duplicate key keeps the last
// value. Serialization preserves first-insertion key order so that output is
// deterministic.
package params

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed indicates a parameter string that does not follow the
// key=value;key=value layout.
var ErrMalformed = errors.New("malformed parameter string")

// Params is an ordered set of string key/value parameters.
type Params struct {
	keys   []string
	values map[string]string
}

// New returns an empty parameter set.
func New() *Params {
	return &Params{values: make(map[string]string)}
}

// Parse decodes a parameter string. Empty input yields an empty set.
// Stray separators are tolerated; a pair without '=' is an error. A value may
// be wrapped in double quotes, which lets it carry literal semicolons; the
// quotes are stripped. An unterminated quote is an error.
func Parse(s string) (*Params, error) {
	p := New()
	for i := 0; i <= len(s); {
		end, ok := pairEnd(s, i)
		if !ok {
			return nil, ErrMalformed
		}
		pair := s[i:end]
		i = end + 1
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, ErrMalformed
		}
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		p.Set(key, value)
	}
	return p, nil
}

// pairEnd returns the index of the separator terminating the pair starting at
// i (len(s) for the last pair). Separators inside double quotes do not
// terminate; an unclosed quote reports failure.
func pairEnd(s string, i int) (int, bool) {
	quoted := false
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				return j, true
			}
		}
	}
	return len(s), !quoted
}

// Set stores a value, keeping the key's original position when it already
// exists.
func (p *Params) Set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for a key and whether the key is present.
func (p *Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetInt returns the value for a key parsed as a decimal integer.
func (p *Params) GetInt(key string) (int, bool, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, true, err
	}
	return n, true, nil
}

// GetFloat returns the value for a key parsed as a float.
func (p *Params) GetFloat(key string) (float64, bool, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, true, err
	}
	return f, true, nil
}

// Del removes a key if present.
func (p *Params) Del(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored keys.
func (p *Params) Len() int {
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// String serializes the set back into key=value;key=value form. Values
// containing a separator are quoted.
func (p *Params) String() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		v := p.values[k]
		if strings.ContainsRune(v, ';') {
			b.WriteByte('"')
			b.WriteString(v)
			b.WriteByte('"')
		} else {
			b.WriteString(v)
		}
	}
	return b.String()
}

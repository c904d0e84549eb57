package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidPayload is returned when the form data is not a non-empty JSON object
var ErrInvalidPayload = errors.New("invalid form payload")

// Payload is a submitted form object. Key order is the order the browser sent.
type Payload struct {
	raw string
}

// Field is one top-level entry of a payload
type Field struct {
	Key   string
	Value gjson.Result
}

// Text renders the value for humans: arrays are joined with ", "
func (f Field) Text() string {
	return ValueText(f.Value)
}

// ValueText renders a JSON value as plain text
func ValueText(v gjson.Result) string {
	if v.IsArray() {
		var parts []string
		for _, el := range v.Array() {
			parts = append(parts, ValueText(el))
		}
		return strings.Join(parts, ", ")
	}
	if v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// ParsePayload validates raw as a non-empty JSON object
func ParsePayload(raw string) (*Payload, error) {
	if !gjson.Valid(raw) {
		return nil, ErrInvalidPayload
	}
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return nil, ErrInvalidPayload
	}

	empty := true
	res.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	if empty {
		return nil, ErrInvalidPayload
	}

	return &Payload{raw: raw}, nil
}

// Raw returns the JSON text
func (p *Payload) Raw() string {
	return p.raw
}

// Fields returns the top-level entries in document order
func (p *Payload) Fields() []Field {
	var fields []Field
	gjson.Parse(p.raw).ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, Field{Key: key.String(), Value: value})
		return true
	})
	return fields
}

// Lookup returns the value of a top-level key. A repeated key yields its last
// value, as a decoded object would.
func (p *Payload) Lookup(key string) (gjson.Result, bool) {
	var (
		found gjson.Result
		ok    bool
	)
	gjson.Parse(p.raw).ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found, ok = v, true
		}
		return true
	})
	return found, ok
}

// Has reports whether key is present
func (p *Payload) Has(key string) bool {
	_, ok := p.Lookup(key)
	return ok
}

// String returns the value of key as text, or "" when absent
func (p *Payload) String(key string) string {
	v, ok := p.Lookup(key)
	if !ok {
		return ""
	}
	return ValueText(v)
}

// Truthy reports whether key holds a non-empty value: a non-empty string other
// than "0", a non-zero number, true, or a non-empty array or object.
func (p *Payload) Truthy(key string) bool {
	v, ok := p.Lookup(key)
	if !ok {
		return false
	}

	switch v.Type {
	case gjson.String:
		return v.Str != "" && v.Str != "0"
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	default:
		return false
	}
}

// Without returns a copy of the payload with every occurrence of key removed
func (p *Payload) Without(key string) (*Payload, error) {
	out := p
	for out.Has(key) {
		raw, err := sjson.Delete(out.raw, escapePath(key))
		if err == nil && raw == out.raw {
			err = errors.New("key not addressable")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to remove %q: %w", key, err)
		}
		out = &Payload{raw: raw}
	}
	return out, nil
}

// Sanitize returns a copy where fn was applied to every string value at any
// depth. Repeated keys collapse to their last value at the first position.
func (p *Payload) Sanitize(fn func(string) string) (*Payload, error) {
	raw, err := sanitizeValue(gjson.Parse(p.raw), fn)
	if err != nil {
		return nil, fmt.Errorf("failed to sanitize payload: %w", err)
	}
	return &Payload{raw: raw}, nil
}

func sanitizeValue(v gjson.Result, fn func(string) string) (string, error) {
	switch {
	case v.Type == gjson.String:
		return rawString(fn(v.Str))
	case v.IsObject():
		return sanitizeObject(v, fn)
	case v.IsArray():
		out := "[]"
		for i, el := range v.Array() {
			raw, err := sanitizeValue(el, fn)
			if err != nil {
				return "", err
			}
			if out, err = sjson.SetRaw(out, strconv.Itoa(i), raw); err != nil {
				return "", err
			}
		}
		return out, nil
	default:
		return v.Raw, nil
	}
}

func sanitizeObject(v gjson.Result, fn func(string) string) (string, error) {
	out := "{}"
	var emptyKey string // paths cannot address "", so it is spliced in afterwards
	var err error
	v.ForEach(func(k, el gjson.Result) bool {
		var raw string
		if raw, err = sanitizeValue(el, fn); err != nil {
			return false
		}
		if k.String() == "" {
			emptyKey = raw
			return true
		}
		out, err = sjson.SetRaw(out, escapePath(k.String()), raw)
		return err == nil
	})
	if err != nil {
		return "", err
	}

	switch {
	case emptyKey == "":
		return out, nil
	case out == "{}":
		return `{"":` + emptyKey + `}`, nil
	default:
		return `{"":` + emptyKey + `,` + out[1:], nil
	}
}

// rawString returns s as a JSON string literal
func rawString(s string) (string, error) {
	arr, err := sjson.Set("[]", "0", s)
	if err != nil {
		return "", err
	}
	return gjson.Get(arr, "0").Raw, nil
}

// escapePath makes an object key safe to use as a gjson/sjson path
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`.*?#|@!=<>%:\~`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

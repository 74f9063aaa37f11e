package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Scalar holds any JSON scalar as its string form. Exports write ids and
// flags as numbers in some dumps and as strings in others.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	case 't':
		*s = "1"
	case 'f':
		*s = "0"
	case '{', '[':
		return fmt.Errorf("domain: expected scalar, got %s", snippet(b))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = Scalar(n.String())
	}
	return nil
}

func (s Scalar) String() string { return strings.TrimSpace(string(s)) }

// Int parses the scalar as an integer; floats are truncated, junk is 0.
func (s Scalar) Int() int {
	v := s.String()
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

func (s Scalar) Bool() bool {
	switch strings.ToLower(s.String()) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// FieldItem is one item of a serialized entity field.
type FieldItem struct {
	Value        Scalar `json:"value"`
	Format       string `json:"format,omitempty"`
	TargetID     Scalar `json:"target_id,omitempty"`
	H5PContentID Scalar `json:"h5p_content_id,omitempty"`
}

// Field is the list form every entity field is exported in.
type Field []FieldItem

// Present reports whether the field carries at least one item.
func (f Field) Present() bool { return len(f) > 0 }

func (f Field) First() FieldItem {
	if len(f) == 0 {
		return FieldItem{}
	}
	return f[0]
}

func (f Field) String() string { return f.First().Value.String() }

// Value is the first item's value exactly as exported, untrimmed.
func (f Field) Value() string { return string(f.First().Value) }
func (f Field) Int() int       { return f.First().Value.Int() }
func (f Field) Bool() bool     { return f.First().Value.Bool() }

// RichText is a value/format pair copied as a unit.
type RichText struct {
	Value  string
	Format string
}

// Text returns the rich-text pair, ok=false when the field is absent.
func (f Field) Text() (RichText, bool) {
	if !f.Present() {
		return RichText{}, false
	}
	it := f.First()
	return RichText{Value: string(it.Value), Format: it.Format}, true
}

// eachMember walks a JSON object in document order. A JSON array is
// accepted as an empty object, which is how empty maps get exported.
func eachMember(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
	case json.Delim('['):
		var rest []json.RawMessage
		if err := json.Unmarshal(data, &rest); err != nil {
			return err
		}
		if len(rest) != 0 {
			return fmt.Errorf("domain: expected object, got non-empty array")
		}
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("domain: expected object, got %v", tok)
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("domain: expected object key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("domain: member %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// firstMember returns the value of the first member of an entity dump,
// which is keyed by the entity's archive-local id.
func firstMember(data []byte) (json.RawMessage, error) {
	var first json.RawMessage
	found := false
	err := eachMember(data, func(_ string, raw json.RawMessage) error {
		if !found {
			first = raw
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("domain: empty entity document")
	}
	return first, nil
}

func snippet(b []byte) string {
	s := string(b)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

package params

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the primitive part of a parameter's semantic type
type Kind string

const (
	String    Kind = "string"
	Bool      Kind = "bool"
	Int       Kind = "int"
	Float     Kind = "float"
	File      Kind = "file"
	OutputDir Kind = "output-directory"
)

var kinds = map[Kind]bool{
	String:    true,
	Bool:      true,
	Int:       true,
	Float:     true,
	File:      true,
	OutputDir: true,
}

// Type is the semantic type tag of a declared parameter,
// i.e., one of the primitive kinds, possibly wrapped as optional.
type Type struct {
	Kind     Kind
	Optional bool
}

// Required returns the non-optional type of kind k
func Required(k Kind) Type {
	return Type{Kind: k}
}

// Optional returns kind k wrapped as optional
func Optional(k Kind) Type {
	return Type{Kind: k, Optional: true}
}

// Valid reports whether the kind belongs to the closed set of declared kinds
func (t Type) Valid() bool {
	return kinds[t.Kind]
}

// String renders the type tag, e.g., "int" or "optional<int>"
func (t Type) String() string {
	if t.Optional {
		return fmt.Sprintf("optional<%v>", t.Kind)
	}
	return string(t.Kind)
}

// ParseType is the inverse of Type.String
func ParseType(s string) (Type, error) {
	t := Type{}
	if strings.HasPrefix(s, "optional<") && strings.HasSuffix(s, ">") {
		t.Optional = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "optional<"), ">")
	}
	t.Kind = Kind(s)
	if !t.Valid() {
		return Type{}, fmt.Errorf("unknown parameter type %q", s)
	}
	return t, nil
}

// MarshalJSON encodes the type as its string tag
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a string tag
func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes the type as its string tag
func (t Type) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

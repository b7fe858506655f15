package params

import (
	"fmt"
)

// Descriptor documents one input of the pipeline:
// its type, optional default, UI section and help text.
//
// An empty SectionTitle continues the section of the previous descriptor.
type Descriptor struct {
	Name         string      `json:"name" yaml:"name"`
	Type         Type        `json:"type" yaml:"type"`
	Default      interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	SectionTitle string      `json:"section_title,omitempty" yaml:"section_title,omitempty"`
	Description  string      `json:"description" yaml:"description"`
}

// Required reports whether a run must supply a non-null value,
// i.e., the type is not optional and there is no default to fall back on.
func (d Descriptor) Required() bool {
	return !d.Type.Optional && d.Default == nil
}

// Registry is the read-only, ordered set of declared parameters.
// Declaration order drives UI grouping and flag emission order.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// NewRegistry builds a registry from descriptors in declaration order.
// Names must be unique and types must belong to the closed type set;
// defaults are coerced to the declared type.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		order:  make([]string, 0, len(descriptors)),
		byName: make(map[string]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("parameter at position %d has no name", len(r.order))
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("parameter %q declared twice", d.Name)
		}
		if !d.Type.Valid() {
			return nil, fmt.Errorf("parameter %q has unknown type %q", d.Name, d.Type.Kind)
		}
		if d.Default != nil {
			v, err := coerce(d.Type.Kind, d.Default)
			if err != nil {
				return nil, &InvalidValueError{Name: d.Name, Type: d.Type, Err: err}
			}
			d.Default = v
		}
		r.order = append(r.order, d.Name)
		r.byName[d.Name] = d
	}
	return r, nil
}

// MustRegistry is NewRegistry for static declarations; it panics on error
func MustRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the descriptor declared under name
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, &UnknownParameterError{Name: name}
	}
	return d, nil
}

// All returns every descriptor in declaration order
func (r *Registry) All() []Descriptor {
	all := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.byName[name])
	}
	return all
}

// Names returns the declared names in declaration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len ..
func (r *Registry) Len() int { return len(r.order) }

// Defaults returns the declared default of every parameter that has one
func (r *Registry) Defaults() map[string]interface{} {
	defaults := make(map[string]interface{})
	for _, name := range r.order {
		if d := r.byName[name]; d.Default != nil {
			defaults[name] = d.Default
		}
	}
	return defaults
}

// Section is a UI grouping of consecutive parameters
type Section struct {
	Title      string   `json:"title" yaml:"title"`
	Parameters []string `json:"parameters" yaml:"parameters"`
}

// Sections groups parameters by section title.
// A descriptor with no title joins the section before it;
// leading untitled descriptors form a section with an empty title.
func (r *Registry) Sections() []Section {
	sections := []Section{}
	for _, name := range r.order {
		d := r.byName[name]
		if d.SectionTitle != "" || len(sections) == 0 {
			sections = append(sections, Section{Title: d.SectionTitle})
		}
		last := &sections[len(sections)-1]
		last.Parameters = append(last.Parameters, name)
	}
	return sections
}

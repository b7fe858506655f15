package params

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// RunConfig is the set of concrete values for every declared parameter
// in one invocation. A nil value means "not set" and emits no flag.
type RunConfig struct {
	registry *Registry
	values   map[string]interface{}
}

// Bind validates supplied values against the registry and returns the run configuration.
//
// Undeclared names fail with UnknownParameterError.
// Absent names fall back to their declared default; an explicit nil is kept as nil.
// Values are coerced to the declared kind, e.g., "100" -> 100 for an int parameter.
// Every required parameter must end up non-nil, otherwise MissingValueError.
func (r *Registry) Bind(supplied map[string]interface{}) (*RunConfig, error) {
	for name := range supplied {
		if _, ok := r.byName[name]; !ok {
			return nil, &UnknownParameterError{Name: name}
		}
	}
	conf := &RunConfig{
		registry: r,
		values:   make(map[string]interface{}, len(r.order)),
	}
	for _, name := range r.order {
		d := r.byName[name]
		v, present := supplied[name]
		if !present {
			v = d.Default
		}
		if v != nil {
			coerced, err := coerce(d.Type.Kind, v)
			if err != nil {
				return nil, &InvalidValueError{Name: name, Type: d.Type, Err: err}
			}
			v = coerced
		}
		if v == nil && d.Required() {
			return nil, &MissingValueError{Name: name}
		}
		conf.values[name] = v
	}
	return conf, nil
}

// Registry returns the registry the configuration was bound against
func (c *RunConfig) Registry() *Registry { return c.registry }

// Value returns the bound value of name; ok is false for undeclared names
func (c *RunConfig) Value(name string) (v interface{}, ok bool) {
	v, ok = c.values[name]
	return v, ok
}

// Values returns a copy of the bound values
func (c *RunConfig) Values() map[string]interface{} {
	return maps.Clone(c.values)
}

// Flags derives the CLI tokens of every parameter, in declaration order
func (c *RunConfig) Flags() []string {
	flags := []string{}
	for _, name := range c.registry.order {
		flags = append(flags, Flag(name, c.values[name])...)
	}
	return flags
}

// Flag derives the flag-group of one parameter value:
//   nil        -> no tokens
//   true       -> "--name"
//   false      -> no tokens
//   any other  -> "--name", value
func Flag(name string, value interface{}) []string {
	flag := "--" + name
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return []string{flag}
		}
		return nil
	case *bool:
		if v != nil && *v {
			return []string{flag}
		}
		return nil
	default:
		return []string{flag, Stringify(v)}
	}
}

// Stringify renders a scalar value the way it is written on the command line
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case float64:
		return cast.ToString(v)
	case float32:
		return cast.ToString(v)
	case fmt.Stringer:
		return v.String()
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return s
	}
}

// coerce converts v to the canonical go type of kind k:
// string, bool, int64 or float64.
func coerce(k Kind, v interface{}) (interface{}, error) {
	switch k {
	case Bool:
		return cast.ToBoolE(v)
	case Int:
		return coerceInt(v)
	case Float:
		return cast.ToFloat64E(v)
	case String, File, OutputDir:
		// file and directory handles may arrive as {"path": "..."};
		// a handle without a path is unset
		switch handle := v.(type) {
		case map[string]interface{}:
			v = handle["path"]
		case map[interface{}]interface{}:
			v = handle["path"]
		}
		if v == nil {
			return nil, nil
		}
		return cast.ToStringE(v)
	}
	return nil, fmt.Errorf("unknown kind %q", k)
}

// coerceInt accepts integral numbers within int64 range and decimal strings
func coerceInt(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("%v overflows int64", n)
		}
	case uint:
		if uint64(n) > math.MaxInt64 {
			return nil, fmt.Errorf("%v overflows int64", n)
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a decimal integer", n)
		}
		return i, nil
	}
	return cast.ToInt64E(v)
}

func floatToInt(f float64) (interface{}, error) {
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not an integer", f)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

// DecodeValues parses a run configuration document, keyed by parameter name.
// format is "json" or "yaml".
func DecodeValues(data []byte, format string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse run configuration json: %v", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse run configuration yaml: %v", err)
		}
	default:
		return nil, fmt.Errorf("unsupported run configuration format %q", format)
	}
	return values, nil
}

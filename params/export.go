package params

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"
)

// Declaration is the parameter declaration surface handed to the platform UI/API
type Declaration struct {
	Pipeline   string       `json:"pipeline" yaml:"pipeline"`
	Parameters []Descriptor `json:"parameters" yaml:"parameters"`
	Sections   []Section    `json:"sections" yaml:"sections"`
}

// Declaration returns the declaration surface of the registry
func (r *Registry) Declaration(pipeline string) Declaration {
	return Declaration{
		Pipeline:   pipeline,
		Parameters: r.All(),
		Sections:   r.Sections(),
	}
}

// Export writes the declaration surface to w as "json" or "yaml"
func (r *Registry) Export(w io.Writer, pipeline, format string) error {
	decl := r.Declaration(pipeline)
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "   ")
		return enc.Encode(decl)
	case "yaml", "yml":
		b, err := yaml.Marshal(decl)
		if err != nil {
			return fmt.Errorf("failed to marshal declaration to yaml: %v", err)
		}
		_, err = w.Write(b)
		return err
	}
	return fmt.Errorf("unsupported export format %q", format)
}

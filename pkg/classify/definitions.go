// Package classify assigns candidate records to keyword-defined classes,
// applying blacklist exclusion ahead of any class assignment.
package classify

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
)

var (
	// ErrInvalidClassDefinition reports a malformed class-definitions document
	// (empty keyword set, duplicate class, unexpected structure).
	ErrInvalidClassDefinition = errors.New("invalid class definition")

	// ErrMissingField reports a searched field absent from the candidate table
	// schema. This is a configuration error, unlike a record that merely has
	// no value for a field.
	ErrMissingField = errors.New("field missing from candidate table")
)

// DefaultFields is the full searchable field set, used for classes without an
// explicit field restriction and for blacklist evaluation.
var DefaultFields = []string{
	models.ColExperimentTitle,
	models.ColSampleName,
	models.ColSampleAttribute,
	models.ColStudyTitle,
	models.ColStudyAbstract,
	models.ColSampleDescription,
}

// ClassDefinition is one named output class: its keyword set and the fields
// it searches.
type ClassDefinition struct {
	Name     string
	Keywords *keyword.Set
	Fields   []string
}

// classSpec is the explicit YAML shape of a class value.
type classSpec struct {
	Keywords []string `yaml:"keywords"`
	Fields   []string `yaml:"fields"`
}

// ParseDefinitions reads the class-definitions document. Two value shapes are
// accepted per class: a bare keyword list (the historical JSON shape), or a
// mapping with keywords and an optional fields restriction:
//
//	tumor: [tumor, carcinoma]
//	normal:
//	  keywords: [normal]
//	  fields: [sample_attribute]
//
// Class order in the document is preserved; it governs evaluation order and
// output ordering.
func ParseDefinitions(r io.Reader) ([]ClassDefinition, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassDefinition, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, fmt.Errorf("%w: expected a single mapping document", ErrInvalidClassDefinition)
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document root must map class names to keywords", ErrInvalidClassDefinition)
	}

	seen := make(map[string]bool)
	var defs []ClassDefinition
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		name := keyNode.Value
		if name == "" {
			return nil, fmt.Errorf("%w: class with empty name", ErrInvalidClassDefinition)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate class %q", ErrInvalidClassDefinition, name)
		}
		seen[name] = true

		def, err := parseClassValue(name, valNode)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no classes defined", ErrInvalidClassDefinition)
	}
	return defs, nil
}

func parseClassValue(name string, node *yaml.Node) (ClassDefinition, error) {
	var spec classSpec
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&spec.Keywords); err != nil {
			return ClassDefinition{}, fmt.Errorf("%w: class %q: %v", ErrInvalidClassDefinition, name, err)
		}
	case yaml.MappingNode:
		if err := node.Decode(&spec); err != nil {
			return ClassDefinition{}, fmt.Errorf("%w: class %q: %v", ErrInvalidClassDefinition, name, err)
		}
	default:
		return ClassDefinition{}, fmt.Errorf("%w: class %q must be a keyword list or a mapping", ErrInvalidClassDefinition, name)
	}

	if len(spec.Keywords) == 0 {
		return ClassDefinition{}, fmt.Errorf("%w: class %q has an empty keyword set", ErrInvalidClassDefinition, name)
	}

	set, err := keyword.NewSet(name, spec.Keywords)
	if err != nil {
		return ClassDefinition{}, fmt.Errorf("%w: class %q: %v", ErrInvalidClassDefinition, name, err)
	}

	fields := spec.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	return ClassDefinition{Name: name, Keywords: set, Fields: fields}, nil
}

// LoadDefinitions reads class definitions from a file.
func LoadDefinitions(path string) ([]ClassDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class definitions %s: %w", path, err)
	}
	defer f.Close()

	defs, err := ParseDefinitions(f)
	if err != nil {
		return nil, fmt.Errorf("class definitions %s: %w", path, err)
	}
	return defs, nil
}

// validateFields checks every referenced field against the candidate table
// schema before any record is evaluated.
func validateFields(defs []ClassDefinition, table *models.Table) error {
	for _, field := range DefaultFields {
		if _, ok := table.ColumnIndex(field); !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	for _, def := range defs {
		for _, field := range def.Fields {
			if _, ok := table.ColumnIndex(field); !ok {
				return fmt.Errorf("%w: class %q searches %s", ErrMissingField, def.Name, field)
			}
		}
	}
	return nil
}

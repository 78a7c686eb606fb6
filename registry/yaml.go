/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/suparena/entityrecord/storagemodels"
	"gopkg.in/yaml.v3"
)

type schemaDocument struct {
	Schemas []schemaSpec `yaml:"schemas"`
}

type schemaSpec struct {
	Name          string             `yaml:"name"`
	Attributes    []attributeSpec    `yaml:"attributes"`
	Relationships []relationshipSpec `yaml:"relationships"`
}

type attributeSpec struct {
	Name    string             `yaml:"name"`
	Kind    storagemodels.Kind `yaml:"kind"`
	Default any                `yaml:"default"`
}

type relationshipSpec struct {
	Name    string `yaml:"name"`
	Target  string `yaml:"target"`
	ToMany  bool   `yaml:"toMany"`
	Inverse string `yaml:"inverse"`
}

// ParseSchemas decodes a YAML schema document:
//
//	schemas:
//	  - name: Pokemon
//	    attributes:
//	      - {name: name, kind: string}
//	      - {name: level, kind: integer, default: 1}
//	    relationships:
//	      - {name: type, target: Type}
func ParseSchemas(r io.Reader) ([]*storagemodels.Schema, error) {
	var doc schemaDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode schema document: %w", err)
	}

	schemas := make([]*storagemodels.Schema, 0, len(doc.Schemas))
	for _, spec := range doc.Schemas {
		s := &storagemodels.Schema{Name: spec.Name}
		for _, a := range spec.Attributes {
			def, err := storagemodels.FromAny(a.Default)
			if err != nil {
				return nil, fmt.Errorf("schema %s attribute %s: %w", spec.Name, a.Name, err)
			}
			s.Attributes = append(s.Attributes, storagemodels.AttributeDef{Name: a.Name, Kind: a.Kind, Default: def})
		}
		for _, rel := range spec.Relationships {
			s.Relationships = append(s.Relationships, storagemodels.RelationshipDef{
				Name:    rel.Name,
				Target:  rel.Target,
				ToMany:  rel.ToMany,
				Inverse: rel.Inverse,
			})
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// LoadYAML parses a schema document, registers every schema and checks the
// relationship graph.
func (r *SchemaRegistry) LoadYAML(reader io.Reader) error {
	schemas, err := ParseSchemas(reader)
	if err != nil {
		return err
	}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return r.Check()
}

// LoadFile is LoadYAML over a file path.
func (r *SchemaRegistry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()
	return r.LoadYAML(f)
}

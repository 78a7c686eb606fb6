/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/storagemodels"
)

// SchemaRegistry maps entity type names to their schemas. It is safe for
// concurrent use and is normally populated once during initialization.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]*storagemodels.Schema
}

// New creates an empty SchemaRegistry.
func New() *SchemaRegistry {
	return &SchemaRegistry{
		schemas: make(map[string]*storagemodels.Schema),
	}
}

// Register validates and adds a schema. Registering the same type name twice
// is an error to prevent accidental overrides.
func (r *SchemaRegistry) Register(schema *storagemodels.Schema) error {
	if schema == nil {
		return errors.NewValidationError("schema", "schema is nil")
	}
	if err := schema.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("schema registry: type %q already registered", schema.Name)
	}
	r.schemas[schema.Name] = schema
	return nil
}

// MustRegister is like Register but panics on error.
func (r *SchemaRegistry) MustRegister(schemas ...*storagemodels.Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get returns the schema registered for entityType.
func (r *SchemaRegistry) Get(entityType string) (*storagemodels.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[entityType]
	if !ok {
		return nil, errors.NewNoSchemaError(entityType)
	}
	return s, nil
}

// Names returns the registered type names in sorted order.
func (r *SchemaRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check verifies that every relationship targets a registered type and that
// derived relationships name a to-one inverse pointing back.
func (r *SchemaRegistry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.schemas {
		for _, rel := range s.Relationships {
			target, ok := r.schemas[rel.Target]
			if !ok {
				return fmt.Errorf("schema registry: %s.%s targets unknown type %q", s.Name, rel.Name, rel.Target)
			}
			if rel.Inverse == "" {
				continue
			}
			inv, ok := target.Relationship(rel.Inverse)
			if !ok || inv.ToMany || inv.Target != s.Name {
				return fmt.Errorf("schema registry: %s.%s inverse %s.%s must be a to-one relationship to %s",
					s.Name, rel.Name, rel.Target, rel.Inverse, s.Name)
			}
		}
	}
	return nil
}

var defaultRegistry = New()

// Default returns the process-wide registry used by RegisterSchema and GetSchema.
func Default() *SchemaRegistry {
	return defaultRegistry
}

// RegisterSchema registers a schema with the default registry.
func RegisterSchema(schema *storagemodels.Schema) error {
	return defaultRegistry.Register(schema)
}

// GetSchema returns a schema from the default registry.
func GetSchema(entityType string) (*storagemodels.Schema, error) {
	return defaultRegistry.Get(entityType)
}

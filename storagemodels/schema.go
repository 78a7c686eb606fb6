/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"

	"github.com/suparena/entityrecord/errors"
)

// AttributeDef declares one typed attribute of a schema.
type AttributeDef struct {
	Name    string
	Kind    Kind
	Default Value
}

// RelationshipDef declares a relationship to entities of Target type.
type RelationshipDef struct {
	Name   string
	Target string
	ToMany bool
	// Inverse names the to-one relationship on Target that points back at
	// this entity. When set, the relationship is derived rather than stored.
	Inverse string
}

// Schema is the fixed attribute and relationship layout of an entity type.
type Schema struct {
	Name          string
	Attributes    []AttributeDef
	Relationships []RelationshipDef
}

// Attribute looks up an attribute definition by name.
func (s *Schema) Attribute(name string) (AttributeDef, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeDef{}, false
}

// Relationship looks up a relationship definition by name.
func (s *Schema) Relationship(name string) (RelationshipDef, bool) {
	for _, r := range s.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	return RelationshipDef{}, false
}

// Defaults returns the default value of every attribute that has one.
func (s *Schema) Defaults() map[string]Value {
	out := make(map[string]Value, len(s.Attributes))
	for _, a := range s.Attributes {
		if !a.Default.IsNull() {
			out[a.Name] = a.Default
		}
	}
	return out
}

// Validate checks that names are unique and defaults match their kinds.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.NewValidationError("name", "schema name is required")
	}
	seen := make(map[string]struct{}, len(s.Attributes)+len(s.Relationships))
	for i, a := range s.Attributes {
		if _, dup := seen[a.Name]; dup || a.Name == "" {
			return errors.NewValidationError(a.Name, fmt.Sprintf("duplicate or empty field name in schema %s", s.Name))
		}
		seen[a.Name] = struct{}{}
		if a.Kind == KindNull || a.Kind == KindRef {
			return errors.NewValidationError(a.Name, fmt.Sprintf("attribute kind %s is not storable", a.Kind))
		}
		def, err := Coerce(a.Kind, a.Default)
		if err != nil {
			return errors.NewValidationError(a.Name, err.Error())
		}
		s.Attributes[i].Default = def
	}
	for _, r := range s.Relationships {
		if _, dup := seen[r.Name]; dup || r.Name == "" {
			return errors.NewValidationError(r.Name, fmt.Sprintf("duplicate or empty field name in schema %s", s.Name))
		}
		seen[r.Name] = struct{}{}
		if r.Target == "" {
			return errors.NewValidationError(r.Name, "relationship target is required")
		}
		if r.Inverse != "" && !r.ToMany {
			return errors.NewValidationError(r.Name, "only to-many relationships can be derived from an inverse")
		}
	}
	return nil
}

// Assign type-checks v for the named field and returns the value to store.
// Attributes coerce to their declared kind; to-one relationships accept a
// reference to their target type or null.
func (s *Schema) Assign(name string, v Value) (Value, error) {
	if a, ok := s.Attribute(name); ok {
		return Coerce(a.Kind, v)
	}
	if r, ok := s.Relationship(name); ok {
		if r.ToMany {
			return Value{}, errors.NewAmbiguousPathError(s.Name, name)
		}
		if v.IsNull() {
			return v, nil
		}
		ref, isRef := v.Ref()
		if !isRef {
			return Value{}, errors.NewTypeMismatchError("assign", KindRef.String(), v.Kind().String())
		}
		if ref.Type != r.Target {
			return Value{}, errors.NewTypeMismatchError("assign", r.Target, ref.Type)
		}
		return v, nil
	}
	return Value{}, errors.NewUnknownFieldError(s.Name, name)
}

// Apply type-checks every assignment in values against the schema and
// returns the coerced set. No partial result is returned on failure.
func (s *Schema) Apply(values map[string]Value) (map[string]Value, error) {
	out := make(map[string]Value, len(values))
	for name, v := range values {
		coerced, err := s.Assign(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = coerced
	}
	return out, nil
}

// Put writes already type-checked assignments onto e, routing relationship
// names to the entity's references.
func (s *Schema) Put(e *Entity, values map[string]Value) {
	for name, v := range values {
		if _, ok := s.Relationship(name); ok {
			if ref, isRef := v.Ref(); isRef {
				e.Link(name, ref)
			} else {
				e.Link(name)
			}
			continue
		}
		e.Set(name, v)
	}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"strings"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/storagemodels"
)

// Resolver is the part of a store needed to walk field paths.
type Resolver interface {
	Schema(entityType string) (*storagemodels.Schema, error)
	ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error)
}

// CheckPath resolves a dotted path against the schemas alone and returns the
// kind of value it yields. A path ending on a to-one relationship yields
// KindRef. Paths through to-many relationships are ambiguous.
func CheckPath(r Resolver, entityType, path string) (storagemodels.Kind, error) {
	if path == "" {
		return storagemodels.KindNull, errors.NewUnknownFieldError(entityType, path)
	}
	return checkSegments(r, entityType, strings.Split(path, "."))
}

func checkSegments(r Resolver, entityType string, segments []string) (storagemodels.Kind, error) {
	current := entityType
	for i, seg := range segments {
		schema, err := r.Schema(current)
		if err != nil {
			return storagemodels.KindNull, err
		}
		last := i == len(segments)-1

		if attr, ok := schema.Attribute(seg); ok {
			if !last {
				return storagemodels.KindNull, errors.NewUnknownFieldError(schema.Name, attr.Name+"."+segments[i+1])
			}
			return attr.Kind, nil
		}

		rel, ok := schema.Relationship(seg)
		if !ok {
			return storagemodels.KindNull, errors.NewUnknownFieldError(schema.Name, seg)
		}
		if rel.ToMany {
			return storagemodels.KindNull, errors.NewAmbiguousPathError(schema.Name, seg)
		}
		if last {
			return storagemodels.KindRef, nil
		}
		current = rel.Target
	}
	return storagemodels.KindNull, errors.NewUnknownFieldError(entityType, strings.Join(segments, "."))
}

// ResolvePath reads the value at a dotted path of e, following to-one
// relationships one hop at a time. An unset relationship along the way
// yields null once the rest of the path has been checked on the schema.
func ResolvePath(ctx context.Context, r Resolver, e *storagemodels.Entity, path string) (storagemodels.Value, error) {
	if path == "" {
		return storagemodels.NullValue(), errors.NewUnknownFieldError(e.Type, path)
	}
	segments := strings.Split(path, ".")
	current := e
	for i, seg := range segments {
		schema, err := r.Schema(current.Type)
		if err != nil {
			return storagemodels.NullValue(), err
		}
		last := i == len(segments)-1

		if attr, ok := schema.Attribute(seg); ok {
			if !last {
				return storagemodels.NullValue(), errors.NewUnknownFieldError(schema.Name, attr.Name+"."+segments[i+1])
			}
			return current.Get(seg), nil
		}

		rel, ok := schema.Relationship(seg)
		if !ok {
			return storagemodels.NullValue(), errors.NewUnknownFieldError(schema.Name, seg)
		}
		if rel.ToMany {
			return storagemodels.NullValue(), errors.NewAmbiguousPathError(schema.Name, seg)
		}

		refs := current.Related(seg)
		if last {
			if len(refs) == 0 {
				return storagemodels.NullValue(), nil
			}
			return storagemodels.RefValue(refs[0]), nil
		}
		if len(refs) == 0 {
			if _, err := checkSegments(r, rel.Target, segments[i+1:]); err != nil {
				return storagemodels.NullValue(), err
			}
			return storagemodels.NullValue(), nil
		}

		targets, err := r.ResolveRelationship(ctx, current, seg)
		if err != nil {
			return storagemodels.NullValue(), err
		}
		if len(targets) == 0 {
			// dangling reference
			if _, err := checkSegments(r, rel.Target, segments[i+1:]); err != nil {
				return storagemodels.NullValue(), err
			}
			return storagemodels.NullValue(), nil
		}
		current = targets[0]
	}
	return storagemodels.NullValue(), errors.NewUnknownFieldError(e.Type, path)
}

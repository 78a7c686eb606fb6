/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/storagemodels"
)

// Lookup fetches one entity by reference.
type Lookup func(ctx context.Context, ref storagemodels.EntityRef) (*storagemodels.Entity, error)

// ResolveWith implements ResolveRelationship on top of a store's Scan and a
// point lookup. Stored references are loaded one by one; dangling references
// resolve to nothing. Derived (inverse) relationships scan the target type
// for entities whose to-one inverse points at e.
func ResolveWith(ctx context.Context, store EntityStore, lookup Lookup, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error) {
	schema, err := store.Schema(e.Type)
	if err != nil {
		return nil, err
	}
	rel, ok := schema.Relationship(name)
	if !ok {
		return nil, errors.NewUnknownFieldError(e.Type, name)
	}

	if rel.Inverse != "" {
		candidates, err := store.Scan(ctx, rel.Target)
		if err != nil {
			return nil, err
		}
		self := e.Ref()
		var out []*storagemodels.Entity
		for _, c := range candidates {
			for _, r := range c.Related(rel.Inverse) {
				if r == self {
					out = append(out, c)
					break
				}
			}
		}
		return out, nil
	}

	refs := e.Related(name)
	out := make([]*storagemodels.Entity, 0, len(refs))
	for _, ref := range refs {
		target, err := lookup(ctx, ref)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, nil
}

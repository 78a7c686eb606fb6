/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"strings"

	"github.com/suparena/entityrecord/storagemodels"
)

// UpsertState is a step of FindFirstOrCreate.
type UpsertState int

const (
	UpsertSearching UpsertState = iota
	UpsertFound
	UpsertCreating
	UpsertCreated
)

func (s UpsertState) String() string {
	switch s {
	case UpsertSearching:
		return "searching"
	case UpsertFound:
		return "found"
	case UpsertCreating:
		return "creating"
	case UpsertCreated:
		return "created"
	}
	return "unknown"
}

// FindFirstOrCreate returns the first entity matching where, or inserts one
// when none exists. The new entity gets schema defaults, then values, then
// the equalities of where that name a field of entityType directly, so the
// created entity satisfies the predicate whenever it is a conjunction of
// such equalities. The boolean reports whether the entity was created.
//
// The search and the insert run under the exclusive lock, so concurrent
// calls with the same predicate create at most one entity.
func (x *Executor) FindFirstOrCreate(ctx context.Context, entityType string, where Node, values map[string]storagemodels.Value) (*storagemodels.Entity, bool, error) {
	if err := Validate(x.store, entityType, where); err != nil {
		return nil, false, err
	}
	seed, err := x.seedValues(entityType, where, values)
	if err != nil {
		return nil, false, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.logger.Debug("upsert", "entityType", entityType, "state", UpsertSearching)
	found, err := x.findFirst(ctx, entityType, where)
	if err != nil {
		return nil, false, err
	}
	if found != nil {
		x.logger.Debug("upsert", "entityType", entityType, "state", UpsertFound, "id", found.ID)
		return found, false, nil
	}

	x.logger.Debug("upsert", "entityType", entityType, "state", UpsertCreating)
	created, err := x.store.Insert(ctx, entityType, seed)
	if err != nil {
		return nil, false, x.abort(ctx, "insert", err)
	}
	if err := x.commit(ctx); err != nil {
		return nil, false, err
	}

	x.logger.Debug("upsert", "entityType", entityType, "state", UpsertCreated, "id", created.ID)
	return created, true, nil
}

// FindFirstOrCreateWithAttribute is FindFirstOrCreate with an equality
// predicate on one field.
func (x *Executor) FindFirstOrCreateWithAttribute(ctx context.Context, entityType, field string, v storagemodels.Value, values map[string]storagemodels.Value) (*storagemodels.Entity, bool, error) {
	return x.FindFirstOrCreate(ctx, entityType, Eq(field, v), values)
}

// seedValues merges values with the direct equalities of where and checks
// the result against the schema.
func (x *Executor) seedValues(entityType string, where Node, values map[string]storagemodels.Value) (map[string]storagemodels.Value, error) {
	schema, err := x.store.Schema(entityType)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]storagemodels.Value, len(values))
	for k, v := range values {
		merged[k] = v
	}
	for _, c := range equalityLeaves(where) {
		merged[c.Path] = c.Value
	}
	return schema.Apply(merged)
}

// equalityLeaves collects equality comparisons on single-segment paths
// reachable from n through AND nodes only.
func equalityLeaves(n Node) []Comparison {
	switch tn := deref(n).(type) {
	case Comparison:
		if tn.Op == OpEqual && !strings.Contains(tn.Path, ".") {
			return []Comparison{tn}
		}
	case AndNode:
		var out []Comparison
		for _, child := range tn.Children {
			out = append(out, equalityLeaves(child)...)
		}
		return out
	}
	return nil
}

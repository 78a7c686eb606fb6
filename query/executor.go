/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"sync"

	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/logging"
	"github.com/suparena/entityrecord/storagemodels"
)

// Executor runs queries and bulk mutations against one store. Reads share
// the store's confinement lock and mutations hold it exclusively until their
// changes are committed or rolled back. Every Executor over the same store
// uses the same lock.
type Executor struct {
	mu     *sync.RWMutex
	store  datastore.EntityStore
	logger logging.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for mutation and failure records.
func WithLogger(l logging.Logger) Option {
	return func(x *Executor) {
		if l != nil {
			x.logger = l
		}
	}
}

// NewExecutor binds an Executor to store.
func NewExecutor(store datastore.EntityStore, opts ...Option) *Executor {
	x := &Executor{
		mu:     lockFor(store),
		store:  store,
		logger: logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Store returns the underlying store.
func (x *Executor) Store() datastore.EntityStore {
	return x.store
}

// CheckPath resolves path on the schema of entityType and returns its kind.
func (x *Executor) CheckPath(entityType, path string) (storagemodels.Kind, error) {
	return CheckPath(x.store, entityType, path)
}

// FindAll returns every entity of entityType matching where, ordered by sort.
// No match yields an empty slice.
func (x *Executor) FindAll(ctx context.Context, entityType string, where Node, sort ...SortKey) ([]*storagemodels.Entity, error) {
	if err := ValidateSort(x.store, entityType, sort); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	r := newCachingResolver(x.store)
	matches, err := x.filter(ctx, r, entityType, where, 0)
	if err != nil {
		return nil, err
	}
	return Order(ctx, r, matches, sort...)
}

// FindAllWithAttribute is FindAll with an equality predicate on one path.
func (x *Executor) FindAllWithAttribute(ctx context.Context, entityType, path string, v storagemodels.Value, sort ...SortKey) ([]*storagemodels.Entity, error) {
	return x.FindAll(ctx, entityType, Eq(path, v), sort...)
}

// FindFirst returns the first match in store scan order, or nil.
func (x *Executor) FindFirst(ctx context.Context, entityType string, where Node) (*storagemodels.Entity, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.findFirst(ctx, entityType, where)
}

func (x *Executor) findFirst(ctx context.Context, entityType string, where Node) (*storagemodels.Entity, error) {
	matches, err := x.filter(ctx, newCachingResolver(x.store), entityType, where, 1)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

// Count returns the number of entities matching where.
func (x *Executor) Count(ctx context.Context, entityType string, where Node) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	matches, err := x.filter(ctx, newCachingResolver(x.store), entityType, where, 0)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// Project returns, for every entity matching where, the values at paths in
// order. The whole projection is read under one snapshot.
func (x *Executor) Project(ctx context.Context, entityType string, where Node, paths ...string) ([][]storagemodels.Value, error) {
	for _, p := range paths {
		if _, err := CheckPath(x.store, entityType, p); err != nil {
			return nil, err
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	r := newCachingResolver(x.store)
	matches, err := x.filter(ctx, r, entityType, where, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]storagemodels.Value, len(matches))
	for i, e := range matches {
		row := make([]storagemodels.Value, len(paths))
		for j, p := range paths {
			if row[j], err = ResolvePath(ctx, r, e, p); err != nil {
				return nil, err
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// DeleteAll removes every entity matching where and returns how many were
// removed. It never cascades; the store decides what happens to references
// held by other entities.
func (x *Executor) DeleteAll(ctx context.Context, entityType string, where Node) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	matches, err := x.filter(ctx, newCachingResolver(x.store), entityType, where, 0)
	if err != nil {
		return 0, err
	}
	for _, e := range matches {
		if err := x.store.Remove(ctx, e.Ref()); err != nil {
			return 0, x.abort(ctx, "remove", err)
		}
	}
	if err := x.commit(ctx); err != nil {
		return 0, err
	}

	x.logger.Debug("deleted entities", "entityType", entityType, "count", len(matches))
	return len(matches), nil
}

// UpdateAll assigns values to every entity matching where and returns the
// number of entities affected. Values are type-checked against the schema
// before anything is written, so a mismatch leaves the store untouched.
func (x *Executor) UpdateAll(ctx context.Context, entityType string, where Node, values map[string]storagemodels.Value) (int, error) {
	if len(values) == 0 {
		return 0, errors.NewValidationError("values", "no updates provided")
	}
	schema, err := x.store.Schema(entityType)
	if err != nil {
		return 0, err
	}
	checked, err := schema.Apply(values)
	if err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	matches, err := x.filter(ctx, newCachingResolver(x.store), entityType, where, 0)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	refs := make([]storagemodels.EntityRef, len(matches))
	for i, e := range matches {
		refs[i] = e.Ref()
	}

	affected := len(refs)
	if bulk, ok := x.store.(datastore.BulkUpdater); ok {
		if affected, err = bulk.BulkUpdate(ctx, entityType, refs, checked); err != nil {
			return 0, x.abort(ctx, "update", err)
		}
	} else {
		for _, ref := range refs {
			if err := x.store.Update(ctx, ref, checked); err != nil {
				return 0, x.abort(ctx, "update", err)
			}
		}
	}
	if err := x.commit(ctx); err != nil {
		return 0, err
	}

	x.logger.Debug("updated entities", "entityType", entityType, "count", affected)
	return affected, nil
}

// filter scans entityType and keeps entities matching where. A limit of
// zero keeps every match.
func (x *Executor) filter(ctx context.Context, r Resolver, entityType string, where Node, limit int) ([]*storagemodels.Entity, error) {
	if err := Validate(r, entityType, where); err != nil {
		return nil, err
	}
	all, err := x.store.Scan(ctx, entityType)
	if err != nil {
		return nil, storeError("scan", err)
	}

	matches := make([]*storagemodels.Entity, 0, len(all))
	for _, e := range all {
		ok, err := Evaluate(ctx, r, where, e)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		matches = append(matches, e)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}

func (x *Executor) commit(ctx context.Context) error {
	if err := x.store.Commit(ctx); err != nil {
		x.logger.Warn("commit failed", "error", err)
		return x.abort(ctx, "commit", err)
	}
	return nil
}

// abort discards the uncommitted work of a failed mutation so a later
// commit cannot publish it, and classifies err.
func (x *Executor) abort(ctx context.Context, op string, err error) error {
	if rbErr := x.store.Rollback(ctx); rbErr != nil {
		x.logger.Warn("rollback failed", "op", op, "error", rbErr)
	}
	return storeError(op, err)
}

// storeError reports a store error as a store failure unless the store
// already classified it as a query error.
func storeError(op string, err error) error {
	switch {
	case errors.IsNoSchema(err), errors.IsUnknownField(err), errors.IsAmbiguousPath(err),
		errors.IsTypeMismatch(err), errors.IsValidationError(err):
		return err
	}
	return errors.NewStoreFailureError(op, err)
}

// cachingResolver memoizes relationship lookups for the duration of one
// operation, which runs against a single snapshot.
type cachingResolver struct {
	store datastore.EntityStore
	cache map[relKey][]*storagemodels.Entity
}

type relKey struct {
	ref  storagemodels.EntityRef
	name string
}

func newCachingResolver(store datastore.EntityStore) *cachingResolver {
	return &cachingResolver{
		store: store,
		cache: make(map[relKey][]*storagemodels.Entity),
	}
}

func (c *cachingResolver) Schema(entityType string) (*storagemodels.Schema, error) {
	return c.store.Schema(entityType)
}

func (c *cachingResolver) ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error) {
	key := relKey{ref: e.Ref(), name: name}
	if targets, ok := c.cache[key]; ok {
		return targets, nil
	}
	targets, err := c.store.ResolveRelationship(ctx, e, name)
	if err != nil {
		return nil, storeError("resolve", err)
	}
	c.cache[key] = targets
	return targets, nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entityrecord/storagemodels"
)

// EntityStore is the storage collaborator the query core runs against.
// One store holds collections of several entity types so that relationships
// between them can be resolved.
type EntityStore interface {
	// Schema returns the schema of an entity type.
	Schema(entityType string) (*storagemodels.Schema, error)

	// Scan returns every entity of a type in store order. The result is a
	// snapshot that stays consistent for the duration of the call.
	Scan(ctx context.Context, entityType string) ([]*storagemodels.Entity, error)

	// Insert creates an entity from type-checked values and assigns its identity.
	Insert(ctx context.Context, entityType string, values map[string]storagemodels.Value) (*storagemodels.Entity, error)

	// Remove deletes an entity. References held by other entities are
	// nullified according to the store's own policy.
	Remove(ctx context.Context, ref storagemodels.EntityRef) error

	// Update applies type-checked values to one entity.
	Update(ctx context.Context, ref storagemodels.EntityRef, values map[string]storagemodels.Value) error

	// ResolveRelationship returns the entities a relationship of e points to.
	ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error)

	// Commit makes pending mutations visible to subsequent scans.
	Commit(ctx context.Context) error

	// Rollback discards pending mutations that have not been committed.
	// Stores whose writes are durable on return cannot undo them and
	// return nil.
	Rollback(ctx context.Context) error
}

// BulkUpdater is implemented by stores that can apply one set of values to
// many entities atomically.
type BulkUpdater interface {
	BulkUpdate(ctx context.Context, entityType string, refs []storagemodels.EntityRef, values map[string]storagemodels.Value) (int, error)
}

/*
Package datastore defines the storage interface the query core consumes.

The main interface is EntityStore, a handle on one logical store holding
collections of several entity types:

	type EntityStore interface {
	    Schema(entityType string) (*storagemodels.Schema, error)
	    Scan(ctx context.Context, entityType string) ([]*storagemodels.Entity, error)
	    Insert(ctx context.Context, entityType string, values map[string]storagemodels.Value) (*storagemodels.Entity, error)
	    Remove(ctx context.Context, ref storagemodels.EntityRef) error
	    Update(ctx context.Context, ref storagemodels.EntityRef, values map[string]storagemodels.Value) error
	    ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error)
	    Commit(ctx context.Context) error
	    Rollback(ctx context.Context) error
	}

Stores that can apply an update to many entities at once also implement
BulkUpdater; the query core falls back to per-entity Update otherwise.

Implementations:
  - mock: In-memory store for tests and local tooling
  - ddb: DynamoDB single-table implementation
  - sqlite: SQLite implementation with transactional commits
*/
package datastore

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/logging"
	"github.com/suparena/entityrecord/registry"
	"github.com/suparena/entityrecord/storagemodels"
	_ "modernc.org/sqlite"
)

var (
	_ datastore.EntityStore = (*DataStore)(nil)
	_ datastore.BulkUpdater = (*DataStore)(nil)
)

// op is one queued mutation.
type op func(ctx context.Context, tx *sql.Tx) error

// DataStore is a SQLite-backed entity store.
type DataStore struct {
	db      *sql.DB
	schemas *registry.SchemaRegistry
	logger  logging.Logger

	mu       sync.Mutex
	pending  []op
	inserted map[string]bool
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(d *DataStore) {
		if l != nil {
			d.logger = l
		}
	}
}

// Open opens or creates the database at path. ":memory:" keeps the data in
// process for the lifetime of the store.
func Open(path string, schemas *registry.SchemaRegistry, opts ...Option) (*DataStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	d := &DataStore{
		db:       db,
		schemas:  schemas,
		logger:   logging.NoOpLogger{},
		inserted: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			entity_type TEXT NOT NULL,
			attributes TEXT NOT NULL,
			relationships TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS entities_by_type ON entities(entity_type, seq);
	`)
	if err != nil {
		return fmt.Errorf("init sqlite schema: %w", err)
	}
	return nil
}

// Close closes the database. Uncommitted mutations are discarded.
func (d *DataStore) Close() error {
	return d.db.Close()
}

// Schema returns the schema of an entity type.
func (d *DataStore) Schema(entityType string) (*storagemodels.Schema, error) {
	return d.schemas.Get(entityType)
}

// Scan returns the committed entities of a type in insertion order.
func (d *DataStore) Scan(ctx context.Context, entityType string) ([]*storagemodels.Entity, error) {
	schema, err := d.schemas.Get(entityType)
	if err != nil {
		return nil, err
	}
	entities, err := scanType(ctx, d.db, schema)
	if err != nil {
		return nil, errors.NewStoreFailureError("scan", err)
	}
	return entities, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanType(ctx context.Context, q queryer, schema *storagemodels.Schema) ([]*storagemodels.Entity, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, attributes, relationships FROM entities WHERE entity_type = ? ORDER BY seq`,
		schema.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []*storagemodels.Entity
	for rows.Next() {
		var id, attrs, rels string
		if err := rows.Scan(&id, &attrs, &rels); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		e, err := decodeEntity(schema, id, attrs, rels)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadOne(ctx context.Context, q queryer, schema *storagemodels.Schema, id string) (*storagemodels.Entity, error) {
	var attrs, rels string
	err := q.QueryRowContext(ctx,
		`SELECT attributes, relationships FROM entities WHERE id = ? AND entity_type = ?`,
		id, schema.Name,
	).Scan(&attrs, &rels)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(schema.Name, id)
	}
	if err != nil {
		return nil, errors.NewStoreFailureError("get", err)
	}
	return decodeEntity(schema, id, attrs, rels)
}

// Insert queues a new entity with schema defaults overlaid by values.
func (d *DataStore) Insert(ctx context.Context, entityType string, values map[string]storagemodels.Value) (*storagemodels.Entity, error) {
	schema, err := d.schemas.Get(entityType)
	if err != nil {
		return nil, err
	}
	checked, err := schema.Apply(values)
	if err != nil {
		return nil, err
	}

	e := storagemodels.NewEntity(entityType, uuid.NewString())
	schema.Put(e, schema.Defaults())
	schema.Put(e, checked)

	attrs, rels, err := encodeEntity(e)
	if err != nil {
		return nil, errors.NewStoreFailureError("insert", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inserted[e.ID] = true
	d.pending = append(d.pending, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entities (id, entity_type, attributes, relationships) VALUES (?, ?, ?, ?)`,
			e.ID, e.Type, attrs, rels,
		)
		return err
	})
	return e.Clone(), nil
}

// Remove queues the deletion of an entity and the removal of every stored
// reference to it.
func (d *DataStore) Remove(ctx context.Context, ref storagemodels.EntityRef) error {
	schema, err := d.schemas.Get(ref.Type)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.inserted[ref.ID] {
		if _, err := loadOne(ctx, d.db, schema, ref.ID); err != nil {
			return err
		}
	}
	d.pending = append(d.pending, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, ref.ID); err != nil {
			return err
		}
		return d.nullify(ctx, tx, ref)
	})
	return nil
}

// nullify drops ref from the stored relationships of every entity type that
// can point at its type.
func (d *DataStore) nullify(ctx context.Context, tx *sql.Tx, ref storagemodels.EntityRef) error {
	for _, name := range d.schemas.Names() {
		schema, err := d.schemas.Get(name)
		if err != nil {
			return err
		}
		holds := false
		for _, rel := range schema.Relationships {
			if rel.Target == ref.Type && rel.Inverse == "" {
				holds = true
			}
		}
		if !holds {
			continue
		}

		entities, err := scanType(ctx, tx, schema)
		if err != nil {
			return err
		}
		for _, e := range entities {
			if !e.Unlink(ref) {
				continue
			}
			if err := writeEntity(ctx, tx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update queues new values for one entity.
func (d *DataStore) Update(ctx context.Context, ref storagemodels.EntityRef, values map[string]storagemodels.Value) error {
	_, err := d.BulkUpdate(ctx, ref.Type, []storagemodels.EntityRef{ref}, values)
	return err
}

// BulkUpdate queues values for every referenced committed entity. Nothing is
// queued unless every reference exists.
func (d *DataStore) BulkUpdate(ctx context.Context, entityType string, refs []storagemodels.EntityRef, values map[string]storagemodels.Value) (int, error) {
	schema, err := d.schemas.Get(entityType)
	if err != nil {
		return 0, err
	}
	checked, err := schema.Apply(values)
	if err != nil {
		return 0, err
	}

	for _, ref := range refs {
		if _, err := loadOne(ctx, d.db, schema, ref.ID); err != nil {
			return 0, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, func(ctx context.Context, tx *sql.Tx) error {
		for _, ref := range refs {
			// Reload inside the transaction so earlier queued changes survive.
			current, err := loadOne(ctx, tx, schema, ref.ID)
			if err != nil {
				return err
			}
			schema.Put(current, checked)
			if err := writeEntity(ctx, tx, current); err != nil {
				return err
			}
		}
		return nil
	})
	return len(refs), nil
}

func writeEntity(ctx context.Context, tx *sql.Tx, e *storagemodels.Entity) error {
	attrs, rels, err := encodeEntity(e)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE entities SET attributes = ?, relationships = ? WHERE id = ?`,
		attrs, rels, e.ID,
	)
	return err
}

// ResolveRelationship returns the committed entities a relationship points to.
func (d *DataStore) ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error) {
	return datastore.ResolveWith(ctx, d, d.lookup, e, name)
}

func (d *DataStore) lookup(ctx context.Context, ref storagemodels.EntityRef) (*storagemodels.Entity, error) {
	schema, err := d.schemas.Get(ref.Type)
	if err != nil {
		return nil, err
	}
	return loadOne(ctx, d.db, schema, ref.ID)
}

// Rollback discards the queued mutations.
func (d *DataStore) Rollback(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
	d.inserted = make(map[string]bool)
	return nil
}

// Commit applies the queued mutations in one transaction. On failure the
// transaction is rolled back and the queue is discarded.
func (d *DataStore) Commit(ctx context.Context) error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.inserted = make(map[string]bool)
	d.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreFailureError("commit", err)
	}
	for _, apply := range pending {
		if err := apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return errors.NewStoreFailureError("commit", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreFailureError("commit", err)
	}

	d.logger.Debug("committed sqlite mutations", "count", len(pending))
	return nil
}

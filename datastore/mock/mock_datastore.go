/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.EntityStore for testing
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/registry"
	"github.com/suparena/entityrecord/storagemodels"
)

var (
	_ datastore.EntityStore = (*DataStore)(nil)
	_ datastore.BulkUpdater = (*DataStore)(nil)
)

// state is one version of the store contents.
type state struct {
	entities map[string]*storagemodels.Entity
	order    map[string][]string
}

func newState() *state {
	return &state{
		entities: make(map[string]*storagemodels.Entity),
		order:    make(map[string][]string),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, e := range s.entities {
		c.entities[id] = e.Clone()
	}
	for t, ids := range s.order {
		c.order[t] = append([]string(nil), ids...)
	}
	return c
}

// DataStore is an in-memory entity store. Mutations go to a working copy and
// become visible to Scan only after Commit.
type DataStore struct {
	mu        sync.RWMutex
	schemas   *registry.SchemaRegistry
	committed *state
	working   *state
	commits   int
	rollbacks int

	scanError   error
	insertError error
	removeError error
	updateError error
	commitError error
}

// New creates a new in-memory DataStore over the given schemas
func New(schemas *registry.SchemaRegistry) *DataStore {
	return &DataStore{
		schemas:   schemas,
		committed: newState(),
		working:   newState(),
	}
}

// WithScanError makes Scan operations return an error
func (m *DataStore) WithScanError(err error) *DataStore {
	m.scanError = err
	return m
}

// WithInsertError makes Insert operations return an error
func (m *DataStore) WithInsertError(err error) *DataStore {
	m.insertError = err
	return m
}

// WithRemoveError makes Remove operations return an error
func (m *DataStore) WithRemoveError(err error) *DataStore {
	m.removeError = err
	return m
}

// WithUpdateError makes Update and BulkUpdate operations return an error
func (m *DataStore) WithUpdateError(err error) *DataStore {
	m.updateError = err
	return m
}

// WithCommitError makes Commit operations return an error
func (m *DataStore) WithCommitError(err error) *DataStore {
	m.commitError = err
	return m
}

// Schema returns the schema of an entity type
func (m *DataStore) Schema(entityType string) (*storagemodels.Schema, error) {
	return m.schemas.Get(entityType)
}

// Scan returns copies of the committed entities of a type in insertion order
func (m *DataStore) Scan(ctx context.Context, entityType string) ([]*storagemodels.Entity, error) {
	if m.scanError != nil {
		return nil, errors.NewStoreFailureError("scan", m.scanError)
	}
	if _, err := m.schemas.Get(entityType); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.committed.order[entityType]
	results := make([]*storagemodels.Entity, 0, len(ids))
	for _, id := range ids {
		results = append(results, m.committed.entities[id].Clone())
	}
	return results, nil
}

// Insert creates an entity with schema defaults overlaid by values
func (m *DataStore) Insert(ctx context.Context, entityType string, values map[string]storagemodels.Value) (*storagemodels.Entity, error) {
	if m.insertError != nil {
		return nil, errors.NewStoreFailureError("insert", m.insertError)
	}
	schema, err := m.schemas.Get(entityType)
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

	m.mu.Lock()
	defer m.mu.Unlock()

	m.working.entities[e.ID] = e
	m.working.order[entityType] = append(m.working.order[entityType], e.ID)
	return e.Clone(), nil
}

// Remove deletes an entity and drops every reference other entities hold to it
func (m *DataStore) Remove(ctx context.Context, ref storagemodels.EntityRef) error {
	if m.removeError != nil {
		return errors.NewStoreFailureError("remove", m.removeError)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.working.entities[ref.ID]; !exists {
		return errors.NewNotFoundError(ref.Type, ref.ID)
	}
	delete(m.working.entities, ref.ID)

	ids := m.working.order[ref.Type]
	for i, id := range ids {
		if id == ref.ID {
			m.working.order[ref.Type] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	for _, e := range m.working.entities {
		e.Unlink(ref)
	}
	return nil
}

// Update applies values to one entity
func (m *DataStore) Update(ctx context.Context, ref storagemodels.EntityRef, values map[string]storagemodels.Value) error {
	_, err := m.BulkUpdate(ctx, ref.Type, []storagemodels.EntityRef{ref}, values)
	return err
}

// BulkUpdate applies values to every referenced entity or to none of them
func (m *DataStore) BulkUpdate(ctx context.Context, entityType string, refs []storagemodels.EntityRef, values map[string]storagemodels.Value) (int, error) {
	if m.updateError != nil {
		return 0, errors.NewStoreFailureError("update", m.updateError)
	}
	schema, err := m.schemas.Get(entityType)
	if err != nil {
		return 0, err
	}
	checked, err := schema.Apply(values)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	targets := make([]*storagemodels.Entity, 0, len(refs))
	for _, ref := range refs {
		e, exists := m.working.entities[ref.ID]
		if !exists || e.Type != entityType {
			return 0, errors.NewNotFoundError(entityType, ref.ID)
		}
		targets = append(targets, e)
	}
	for _, e := range targets {
		schema.Put(e, checked)
	}
	return len(targets), nil
}

// ResolveRelationship returns the committed entities a relationship points to
func (m *DataStore) ResolveRelationship(ctx context.Context, e *storagemodels.Entity, name string) ([]*storagemodels.Entity, error) {
	return datastore.ResolveWith(ctx, m, m.lookup, e, name)
}

func (m *DataStore) lookup(ctx context.Context, ref storagemodels.EntityRef) (*storagemodels.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.committed.entities[ref.ID]
	if !exists {
		return nil, errors.NewNotFoundError(ref.Type, ref.ID)
	}
	return e.Clone(), nil
}

// Commit publishes the working copy
func (m *DataStore) Commit(ctx context.Context) error {
	if m.commitError != nil {
		return errors.NewStoreFailureError("commit", m.commitError)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.committed = m.working.clone()
	m.commits++
	return nil
}

// Rollback discards the working copy and restarts from the committed state
func (m *DataStore) Rollback(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.working = m.committed.clone()
	m.rollbacks++
	return nil
}

// Helper methods for testing

// Commits returns how many times Commit succeeded
func (m *DataStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

// Rollbacks returns how many times Rollback was called
func (m *DataStore) Rollbacks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rollbacks
}

// Count returns the number of committed entities of a type
func (m *DataStore) Count(entityType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.committed.order[entityType])
}

// Clear removes all data
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = newState()
	m.working = newState()
}

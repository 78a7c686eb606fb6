/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package fixtures seeds an entity store from a YAML document.
package fixtures

import (
	"context"
	"fmt"
	"io"

	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/storagemodels"
	"gopkg.in/yaml.v3"
)

// Document is the YAML layout accepted by Load:
//
//	entities:
//	  - type: Type
//	    key: fire
//	    values: {id: 1, name: Fire}
//	  - type: Pokemon
//	    key: charizard
//	    values: {id: 6, name: Charizard, level: 36}
//	    links: {type: fire}
//
// Links name the key of an entity declared earlier in the document.
type Document struct {
	Entities []Record `yaml:"entities"`
}

// Record is one entity to insert.
type Record struct {
	Type   string            `yaml:"type"`
	Key    string            `yaml:"key"`
	Values map[string]any    `yaml:"values"`
	Links  map[string]string `yaml:"links"`
}

// Parse decodes a fixture document.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode fixture document: %w", err)
	}
	return &doc, nil
}

// Load inserts every record of the document into store in order, commits
// once, and returns the inserted entities by key.
func Load(ctx context.Context, store datastore.EntityStore, r io.Reader) (map[string]*storagemodels.Entity, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, store, doc)
}

// Apply inserts a parsed document. See Load. On failure nothing from the
// document is committed.
func Apply(ctx context.Context, store datastore.EntityStore, doc *Document) (map[string]*storagemodels.Entity, error) {
	byKey, err := insertAll(ctx, store, doc)
	if err == nil {
		err = store.Commit(ctx)
	}
	if err != nil {
		_ = store.Rollback(ctx)
		return nil, err
	}
	return byKey, nil
}

func insertAll(ctx context.Context, store datastore.EntityStore, doc *Document) (map[string]*storagemodels.Entity, error) {
	byKey := make(map[string]*storagemodels.Entity, len(doc.Entities))
	for i, rec := range doc.Entities {
		values := make(map[string]storagemodels.Value, len(rec.Values)+len(rec.Links))
		for name, raw := range rec.Values {
			v, err := storagemodels.FromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("entity %d (%s) field %s: %w", i, rec.Type, name, err)
			}
			values[name] = v
		}
		for name, key := range rec.Links {
			target, ok := byKey[key]
			if !ok {
				return nil, fmt.Errorf("entity %d (%s) links %s to unknown key %q", i, rec.Type, name, key)
			}
			values[name] = storagemodels.RefValue(target.Ref())
		}

		e, err := store.Insert(ctx, rec.Type, values)
		if err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, rec.Type, err)
		}
		if rec.Key != "" {
			byKey[rec.Key] = e
		}
	}
	return byKey, nil
}

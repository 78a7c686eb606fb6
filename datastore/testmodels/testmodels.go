/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels provides the Pokemon and Type schemas and a seeded
// fixture shared by the package tests.
package testmodels

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/datastore/fixtures"
	"github.com/suparena/entityrecord/registry"
	"github.com/suparena/entityrecord/storagemodels"
)

//go:embed schema.yaml
var SchemaYAML []byte

//go:embed pokemon.yaml
var PokemonYAML []byte

// Schemas returns a fresh registry holding the Type and Pokemon schemas.
func Schemas() *registry.SchemaRegistry {
	r := registry.New()
	if err := r.LoadYAML(bytes.NewReader(SchemaYAML)); err != nil {
		panic(err)
	}
	return r
}

// Fixture holds the seeded entities.
type Fixture struct {
	Fire  *storagemodels.Entity
	Water *storagemodels.Entity

	Charmender *storagemodels.Entity
	Charmeleon *storagemodels.Entity
	Charizard  *storagemodels.Entity
	Blastoise  *storagemodels.Entity
}

// Seed inserts two types and four pokemon (fire levels 1, 16, 36 and water
// level 36) and commits.
func Seed(ctx context.Context, store datastore.EntityStore) (*Fixture, error) {
	byKey, err := fixtures.Load(ctx, store, bytes.NewReader(PokemonYAML))
	if err != nil {
		return nil, err
	}
	return &Fixture{
		Fire:       byKey["fire"],
		Water:      byKey["water"],
		Charmender: byKey["charmender"],
		Charmeleon: byKey["charmeleon"],
		Charizard:  byKey["charizard"],
		Blastoise:  byKey["blastoise"],
	}, nil
}

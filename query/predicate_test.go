/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityrecord/datastore/mock"
	"github.com/suparena/entityrecord/datastore/testmodels"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/query"
	sm "github.com/suparena/entityrecord/storagemodels"
)

func seeded(t *testing.T) (*query.Executor, *mock.DataStore, *testmodels.Fixture) {
	t.Helper()
	store := mock.New(testmodels.Schemas())
	fx, err := testmodels.Seed(context.Background(), store)
	require.NoError(t, err)
	return query.NewExecutor(store), store, fx
}

func names(entities []*sm.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		s, _ := e.Get("name").Str()
		out[i] = s
	}
	return out
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	x, _, fx := seeded(t)
	caught := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		where query.Node
		want  []string
	}{
		{"nil matches all", nil, []string{"Charmender", "Charmeleon", "Charizard", "Blastoise"}},
		{"greater than", query.Gt("level", sm.IntValue(6)), []string{"Charmeleon", "Charizard", "Blastoise"}},
		{"nothing above max", query.Gt("level", sm.IntValue(36)), []string{}},
		{"real literal on integer field", query.Ge("level", sm.RealValue(16)), []string{"Charmeleon", "Charizard", "Blastoise"}},
		{"integer literal on real field", query.Gt("height", sm.IntValue(1)), []string{"Charmeleon", "Charizard", "Blastoise"}},
		{"reference identity", query.Eq("type", sm.RefValue(fx.Fire.Ref())), []string{"Charmender", "Charmeleon", "Charizard"}},
		{"relationship hop", query.Eq("type.name", sm.StringValue("Water")), []string{"Blastoise"}},
		{"boolean", query.Eq("shiny", sm.BoolValue(true)), []string{"Charizard"}},
		{"timestamp", query.Gt("caughtAt", sm.TimeValue(caught)), []string{"Charizard", "Blastoise"}},
		{"not", query.Not(query.Eq("type.name", sm.StringValue("Fire"))), []string{"Blastoise"}},
		{"or", query.Or(query.Lt("level", sm.IntValue(5)), query.Eq("name", sm.StringValue("Blastoise"))), []string{"Charmender", "Blastoise"}},
		{"and", query.And(query.Eq("level", sm.IntValue(36)), query.Ne("type", sm.RefValue(fx.Water.Ref()))), []string{"Charizard"}},
		{"empty and", query.And(), []string{"Charmender", "Charmeleon", "Charizard", "Blastoise"}},
		{"empty or", query.Or(), []string{}},
		{"string ordering", query.Lt("name", sm.StringValue("Charm")), []string{"Blastoise", "Charizard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.FindAll(ctx, "Pokemon", tt.where)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}
}

func TestEvaluateNodesByAddress(t *testing.T) {
	ctx := context.Background()
	x, _, _ := seeded(t)

	fire := &query.Comparison{Path: "type.name", Op: query.OpEqual, Value: sm.StringValue("Fire")}
	tests := []struct {
		name  string
		where query.Node
		want  []string
	}{
		{"comparison", fire, []string{"Charmender", "Charmeleon", "Charizard"}},
		{"and", &query.AndNode{Children: []query.Node{fire, query.Gt("level", sm.IntValue(10))}}, []string{"Charmeleon", "Charizard"}},
		{"or", &query.OrNode{Children: []query.Node{query.Eq("shiny", sm.BoolValue(true)), query.Eq("name", sm.StringValue("Blastoise"))}}, []string{"Charizard", "Blastoise"}},
		{"not", &query.NotNode{Child: fire}, []string{"Blastoise"}},
		{"nested", query.And(&query.NotNode{Child: &query.OrNode{}}), []string{"Charmender", "Charmeleon", "Charizard", "Blastoise"}},
		{"nil pointer", (*query.AndNode)(nil), []string{"Charmender", "Charmeleon", "Charizard", "Blastoise"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.FindAll(ctx, "Pokemon", tt.where)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}

	t.Run("validated", func(t *testing.T) {
		bad := &query.NotNode{Child: &query.Comparison{Path: "weight", Op: query.OpEqual, Value: sm.IntValue(1)}}
		_, err := x.FindAll(ctx, "Pokemon", &query.AndNode{Children: []query.Node{bad}})
		assert.True(t, errors.IsUnknownField(err))

		_, err = query.NewExecutor(mock.New(testmodels.Schemas())).Count(ctx, "Pokemon", bad)
		assert.True(t, errors.IsUnknownField(err))
	})
}

func TestEvaluateErrors(t *testing.T) {
	ctx := context.Background()
	x, _, fx := seeded(t)
	empty := query.NewExecutor(mock.New(testmodels.Schemas()))

	tests := []struct {
		name  string
		where query.Node
		is    func(error) bool
	}{
		{"unknown field", query.Eq("weight", sm.IntValue(1)), errors.IsUnknownField},
		{"path through attribute", query.Eq("name.first", sm.StringValue("C")), errors.IsUnknownField},
		{"unknown field on related type", query.Eq("type.color", sm.StringValue("red")), errors.IsUnknownField},
		{"to-many hop", query.Eq("type.pokemons", sm.NullValue()), errors.IsAmbiguousPath},
		{"string against integer", query.Eq("level", sm.StringValue("high")), errors.IsTypeMismatch},
		{"ordering against null", query.Lt("level", sm.NullValue()), errors.IsTypeMismatch},
		{"ordering references", query.Gt("type", sm.RefValue(fx.Fire.Ref())), errors.IsTypeMismatch},
		{"boolean against string", query.Eq("shiny", sm.StringValue("yes")), errors.IsTypeMismatch},
		{"nested under or", query.Or(query.Gt("level", sm.IntValue(1)), query.Eq("weight", sm.IntValue(1))), errors.IsUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x.FindAll(ctx, "Pokemon", tt.where)
			require.Error(t, err)
			assert.True(t, tt.is(err), "unexpected error %v", err)

			// Same outcome without any entity to evaluate.
			_, err = empty.Count(ctx, "Pokemon", tt.where)
			require.Error(t, err)
			assert.True(t, tt.is(err), "unexpected error on empty store %v", err)
		})
	}

	t.Run("unknown entity type", func(t *testing.T) {
		_, err := x.FindAll(ctx, "Trainer", nil)
		assert.ErrorIs(t, err, errors.ErrNoSchema)
	})
}

func TestEvaluateUnsetRelationship(t *testing.T) {
	ctx := context.Background()
	x, store, _ := seeded(t)

	_, err := store.Insert(ctx, "Pokemon", map[string]sm.Value{"name": sm.StringValue("Pikachu")})
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx))

	got, err := x.FindAll(ctx, "Pokemon", query.Eq("type", sm.NullValue()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pikachu"}, names(got))

	got, err = x.FindAll(ctx, "Pokemon", query.Eq("type.name", sm.NullValue()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pikachu"}, names(got))

	got, err = x.FindAll(ctx, "Pokemon", query.Ne("type.name", sm.StringValue("Fire")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Blastoise", "Pikachu"}, names(got))

	// Ordering comparisons never match a missing value.
	n, err := x.Count(ctx, "Pokemon", query.Lt("type.id", sm.IntValue(100)))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = x.FindAll(ctx, "Pokemon", query.Eq("type.color", sm.NullValue()))
	assert.True(t, errors.IsUnknownField(err))
}

func TestParseOperator(t *testing.T) {
	for _, op := range []query.Operator{query.OpEqual, query.OpNotEqual, query.OpLessThan, query.OpLessOrEqual, query.OpGreaterThan, query.OpGreaterOrEqual} {
		parsed, err := query.ParseOperator(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}
	_, err := query.ParseOperator("~=")
	assert.True(t, errors.IsValidationError(err))
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package aggregate_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityrecord/aggregate"
	"github.com/suparena/entityrecord/datastore/mock"
	"github.com/suparena/entityrecord/datastore/testmodels"
	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/query"
	sm "github.com/suparena/entityrecord/storagemodels"
)

func newEngine(t *testing.T, seed bool) *aggregate.Engine {
	t.Helper()
	store := mock.New(testmodels.Schemas())
	if seed {
		_, err := testmodels.Seed(context.Background(), store)
		require.NoError(t, err)
	}
	return aggregate.NewEngine(query.NewExecutor(store))
}

func TestSum(t *testing.T) {
	ctx := context.Background()
	g := newEngine(t, true)

	sums, err := g.Sum(ctx, "Pokemon", nil, "level")
	require.NoError(t, err)
	assert.Equal(t, []sm.Value{sm.IntValue(89)}, sums)

	sums, err = g.Sum(ctx, "Pokemon", nil, "level", "id")
	require.NoError(t, err)
	assert.Equal(t, []sm.Value{sm.IntValue(89), sm.IntValue(24)}, sums)

	sums, err = g.Sum(ctx, "Pokemon", query.Eq("type.name", sm.StringValue("Fire")), "level")
	require.NoError(t, err)
	assert.Equal(t, []sm.Value{sm.IntValue(53)}, sums)

	sums, err = g.Sum(ctx, "Pokemon", nil, "height")
	require.NoError(t, err)
	f, ok := sums[0].Float()
	require.True(t, ok)
	assert.InDelta(t, 5.0, f, 1e-9)

	t.Run("empty selection", func(t *testing.T) {
		sums, err := g.Sum(ctx, "Pokemon", query.Gt("level", sm.IntValue(99)), "level")
		require.NoError(t, err)
		assert.Equal(t, []sm.Value{sm.IntValue(0)}, sums)

		sums, err = newEngine(t, false).Sum(ctx, "Pokemon", nil, "level")
		require.NoError(t, err)
		assert.Equal(t, []sm.Value{sm.IntValue(0)}, sums)
	})
}

func TestMinMaxAvg(t *testing.T) {
	ctx := context.Background()
	g := newEngine(t, true)

	v, err := g.Min(ctx, "Pokemon", "level", query.Ge("level", sm.IntValue(6)))
	require.NoError(t, err)
	assert.Equal(t, sm.IntValue(16), v)

	v, err = g.Max(ctx, "Pokemon", "level", query.Lt("level", sm.IntValue(5)))
	require.NoError(t, err)
	assert.Equal(t, sm.IntValue(1), v)

	v, err = g.Max(ctx, "Pokemon", "height", nil)
	require.NoError(t, err)
	assert.Equal(t, sm.RealValue(1.7), v)

	avg, err := g.Avg(ctx, "Pokemon", "level", nil)
	require.NoError(t, err)
	assert.InDelta(t, 22.25, avg, 1e-9)

	avg, err = g.Avg(ctx, "Pokemon", "level", query.Ge("level", sm.IntValue(6)))
	require.NoError(t, err)
	assert.InDelta(t, 88.0/3.0, avg, 1e-9)

	avg, err = g.Avg(ctx, "Pokemon", "level", query.Eq("type.name", sm.StringValue("Fire")))
	require.NoError(t, err)
	assert.InDelta(t, 53.0/3.0, avg, 1e-9)

	t.Run("empty selection", func(t *testing.T) {
		none := query.Gt("level", sm.IntValue(99))

		_, err := g.Min(ctx, "Pokemon", "level", none)
		assert.True(t, errors.IsEmptyAggregate(err))
		_, err = g.Max(ctx, "Pokemon", "level", none)
		assert.True(t, errors.IsEmptyAggregate(err))
		_, err = g.Avg(ctx, "Pokemon", "level", none)
		assert.True(t, errors.IsEmptyAggregate(err))
	})
}

func TestCountField(t *testing.T) {
	ctx := context.Background()
	g := newEngine(t, true)

	n, err := g.CountField(ctx, "Pokemon", "name", query.Gt("level", sm.IntValue(6)))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = g.CountField(ctx, "Pokemon", "type", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	n, err = g.CountField(ctx, "Pokemon", "level", query.Gt("level", sm.IntValue(36)))
	require.NoError(t, err)
	assert.Zero(t, n)
}

// byGroup indexes rows by their group tuple.
func byGroup(rows []aggregate.Row) map[string]aggregate.Row {
	out := make(map[string]aggregate.Row, len(rows))
	for _, row := range rows {
		out[tupleKey(row.Group...)] = row
	}
	return out
}

func tupleKey(values ...sm.Value) string {
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = v.Key()
	}
	return strings.Join(keys, "|")
}

func TestGroupBy(t *testing.T) {
	ctx := context.Background()
	store := mock.New(testmodels.Schemas())
	fx, err := testmodels.Seed(ctx, store)
	require.NoError(t, err)
	g := aggregate.NewEngine(query.NewExecutor(store))

	rows, err := g.GroupBy(ctx, "Pokemon", aggregate.Sum, "level", nil, "type.name", "type.id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	groups := byGroup(rows)
	fire, ok := groups[tupleKey(sm.StringValue("Fire"), sm.IntValue(1))]
	require.True(t, ok)
	assert.Equal(t, []sm.Value{sm.IntValue(53)}, fire.Values)
	water, ok := groups[tupleKey(sm.StringValue("Water"), sm.IntValue(2))]
	require.True(t, ok)
	assert.Equal(t, []sm.Value{sm.IntValue(36)}, water.Values)

	rows, err = g.GroupBy(ctx, "Pokemon", aggregate.Max, "level", nil, "type.name")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, sm.IntValue(36), row.Values[0])
	}

	t.Run("several fields over the same groups", func(t *testing.T) {
		rows, err := g.Aggregate(ctx, "Pokemon", aggregate.Request{
			Fields: []aggregate.FieldFunc{
				{Path: "level", Func: aggregate.Min},
				{Path: "level", Func: aggregate.Avg},
				{Path: "id", Func: aggregate.Count},
			},
			GroupBy: []string{"type"},
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		groups := byGroup(rows)

		fire, ok := groups[tupleKey(sm.RefValue(fx.Fire.Ref()))]
		require.True(t, ok)
		assert.Equal(t, sm.IntValue(1), fire.Values[0])
		f, _ := fire.Values[1].Float()
		assert.InDelta(t, 53.0/3.0, f, 1e-9)
		assert.Equal(t, sm.IntValue(3), fire.Values[2])

		water, ok := groups[tupleKey(sm.RefValue(fx.Water.Ref()))]
		require.True(t, ok)
		assert.Equal(t, sm.IntValue(36), water.Values[0])
		assert.Equal(t, sm.IntValue(1), water.Values[2])
	})

	t.Run("filtered", func(t *testing.T) {
		rows, err := g.GroupBy(ctx, "Pokemon", aggregate.Sum, "level", query.Gt("level", sm.IntValue(20)), "type.name")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		groups := byGroup(rows)
		assert.Equal(t, []sm.Value{sm.IntValue(36)}, groups[tupleKey(sm.StringValue("Fire"))].Values)
		assert.Equal(t, []sm.Value{sm.IntValue(36)}, groups[tupleKey(sm.StringValue("Water"))].Values)
	})

	t.Run("large ids form separate groups", func(t *testing.T) {
		store := mock.New(testmodels.Schemas())
		const big = int64(1) << 53
		for _, id := range []int64{big, big + 1, big + 1} {
			_, err := store.Insert(ctx, "Pokemon", map[string]sm.Value{"id": sm.IntValue(id), "level": sm.IntValue(2)})
			require.NoError(t, err)
		}
		require.NoError(t, store.Commit(ctx))

		rows, err := aggregate.NewEngine(query.NewExecutor(store)).GroupBy(ctx, "Pokemon", aggregate.Sum, "level", nil, "id")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		groups := byGroup(rows)
		assert.Equal(t, []sm.Value{sm.IntValue(2)}, groups[tupleKey(sm.IntValue(big))].Values)
		assert.Equal(t, []sm.Value{sm.IntValue(4)}, groups[tupleKey(sm.IntValue(big+1))].Values)
	})

	t.Run("empty selection has no groups", func(t *testing.T) {
		rows, err := g.GroupBy(ctx, "Pokemon", aggregate.Min, "level", query.Gt("level", sm.IntValue(99)), "type.name")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestSumOverflow(t *testing.T) {
	ctx := context.Background()
	store := mock.New(testmodels.Schemas())
	for _, level := range []int64{math.MaxInt64 - 1, 10, 5} {
		_, err := store.Insert(ctx, "Pokemon", map[string]sm.Value{"level": sm.IntValue(level)})
		require.NoError(t, err)
	}
	require.NoError(t, store.Commit(ctx))
	g := aggregate.NewEngine(query.NewExecutor(store))

	sums, err := g.Sum(ctx, "Pokemon", nil, "level")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, sm.KindReal, sums[0].Kind())
	f, _ := sums[0].Float()
	assert.InDelta(t, float64(math.MaxInt64)+14, f, 1e4)

	avg, err := g.Avg(ctx, "Pokemon", "level", nil)
	require.NoError(t, err)
	assert.Greater(t, avg, 0.0)
	assert.InDelta(t, (float64(math.MaxInt64)+14)/3, avg, 1e4)

	sums, err = g.Sum(ctx, "Pokemon", query.Lt("level", sm.IntValue(100)), "level")
	require.NoError(t, err)
	assert.Equal(t, []sm.Value{sm.IntValue(15)}, sums)
}

func TestAggregateErrors(t *testing.T) {
	ctx := context.Background()

	for _, seed := range []bool{true, false} {
		g := newEngine(t, seed)

		_, err := g.Sum(ctx, "Pokemon", nil, "name")
		assert.True(t, errors.IsTypeMismatch(err))

		_, err = g.Avg(ctx, "Pokemon", "caughtAt", nil)
		assert.True(t, errors.IsTypeMismatch(err))

		_, err = g.Max(ctx, "Pokemon", "weight", nil)
		assert.True(t, errors.IsUnknownField(err))

		_, err = g.GroupBy(ctx, "Pokemon", aggregate.Sum, "level", nil, "type.color")
		assert.True(t, errors.IsUnknownField(err))

		_, err = g.Sum(ctx, "Type", nil, "pokemons.level")
		assert.True(t, errors.IsAmbiguousPath(err))

		_, err = g.Sum(ctx, "Pokemon", query.Eq("level", sm.StringValue("x")), "level")
		assert.True(t, errors.IsTypeMismatch(err))

		_, err = g.Aggregate(ctx, "Pokemon", aggregate.Request{})
		assert.True(t, errors.IsValidationError(err))
	}
}

func TestParseFunc(t *testing.T) {
	for _, fn := range []aggregate.Func{aggregate.Sum, aggregate.Min, aggregate.Max, aggregate.Avg, aggregate.Count} {
		parsed, err := aggregate.ParseFunc(fn.String())
		require.NoError(t, err)
		assert.Equal(t, fn, parsed)
	}
	_, err := aggregate.ParseFunc("median")
	assert.True(t, errors.IsValidationError(err))
}

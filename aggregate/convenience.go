/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package aggregate

import (
	"context"

	"github.com/suparena/entityrecord/query"
	"github.com/suparena/entityrecord/storagemodels"
)

// Sum returns one sum per path, in order.
func (g *Engine) Sum(ctx context.Context, entityType string, where query.Node, paths ...string) ([]storagemodels.Value, error) {
	fields := make([]FieldFunc, len(paths))
	for i, p := range paths {
		fields[i] = FieldFunc{Path: p, Func: Sum}
	}
	rows, err := g.Aggregate(ctx, entityType, Request{Fields: fields, Where: where})
	if err != nil {
		return nil, err
	}
	return rows[0].Values, nil
}

// Min returns the smallest value at path.
func (g *Engine) Min(ctx context.Context, entityType, path string, where query.Node) (storagemodels.Value, error) {
	return g.single(ctx, entityType, FieldFunc{Path: path, Func: Min}, where)
}

// Max returns the largest value at path.
func (g *Engine) Max(ctx context.Context, entityType, path string, where query.Node) (storagemodels.Value, error) {
	return g.single(ctx, entityType, FieldFunc{Path: path, Func: Max}, where)
}

// Avg returns the mean of the values at path as a real.
func (g *Engine) Avg(ctx context.Context, entityType, path string, where query.Node) (float64, error) {
	v, err := g.single(ctx, entityType, FieldFunc{Path: path, Func: Avg}, where)
	if err != nil {
		return 0, err
	}
	f, _ := v.Float()
	return f, nil
}

// CountField returns how many selected entities have a non-null value at path.
func (g *Engine) CountField(ctx context.Context, entityType, path string, where query.Node) (int64, error) {
	v, err := g.single(ctx, entityType, FieldFunc{Path: path, Func: Count}, where)
	if err != nil {
		return 0, err
	}
	n, _ := v.Int()
	return n, nil
}

// GroupBy computes fn over path for each distinct tuple of groupBy values.
func (g *Engine) GroupBy(ctx context.Context, entityType string, fn Func, path string, where query.Node, groupBy ...string) ([]Row, error) {
	return g.Aggregate(ctx, entityType, Request{
		Fields:  []FieldFunc{{Path: path, Func: fn}},
		Where:   where,
		GroupBy: groupBy,
	})
}

func (g *Engine) single(ctx context.Context, entityType string, f FieldFunc, where query.Node) (storagemodels.Value, error) {
	rows, err := g.Aggregate(ctx, entityType, Request{Fields: []FieldFunc{f}, Where: where})
	if err != nil {
		return storagemodels.NullValue(), err
	}
	return rows[0].Values[0], nil
}

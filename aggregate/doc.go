/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package aggregate computes sum, min, max, average and count over the
// entities a query selects, optionally grouped by one or more field paths.
//
//	engine := aggregate.NewEngine(query.NewExecutor(store))
//	rows, err := engine.Aggregate(ctx, "Pokemon", aggregate.Request{
//		Fields:  []aggregate.FieldFunc{{Path: "level", Func: aggregate.Sum}},
//		GroupBy: []string{"type.name"},
//	})
package aggregate

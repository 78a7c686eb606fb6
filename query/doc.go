/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package query filters, orders and mutates entities of a datastore.EntityStore.
//
// Predicates are trees of Comparison, AndNode, OrNode and NotNode values built
// with Eq, Gt, And and friends. Field paths are dotted: "level" reads an
// attribute, "type.name" follows the to-one relationship "type" first.
//
// An Executor wraps one store and serializes access to it: reads share a lock,
// DeleteAll, UpdateAll and FindFirstOrCreate hold it exclusively and commit
// before returning.
//
//	x := query.NewExecutor(store)
//	strong, err := x.FindAll(ctx, "Pokemon",
//		query.And(query.Eq("type.name", storagemodels.StringValue("Fire")),
//			query.Ge("level", storagemodels.IntValue(16))),
//		query.Desc("level"))
package query

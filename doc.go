/*
Package entityrecord provides a query and aggregation layer over entity stores,
offering predicate filtering, sorting, bulk mutation, aggregation and
find-or-create on top of any datastore.EntityStore backend.

Entities are typed by schemas registered in a registry.SchemaRegistry. Field
paths such as "level" or "type.name" are checked against those schemas, so a
misspelled field fails with errors.ErrUnknownField even when no entity exists.

Key Features:
  - Predicate trees with AND/OR/NOT over dotted field paths
  - Stable multi-key sorting
  - DeleteAll and UpdateAll with commit before return
  - Sum, min, max, average and count with optional grouping
  - Find-or-create with at most one insert under concurrent callers
  - Blocking and completion-callback forms of every operation
  - In-memory, DynamoDB and SQLite stores

Basic Usage:

	schemas := registry.New()
	_ = schemas.LoadFile("schema.yaml")
	store := mock.New(schemas)

	records, _ := entityrecord.New(store)
	defer records.Close()

	fire, _ := records.FindAll(ctx, "Pokemon",
		query.Eq("type.name", storagemodels.StringValue("Fire")),
		query.Desc("level"))

	sums, _ := records.Sum(ctx, "Pokemon", nil, "level")

	records.CountAsync(ctx, "Pokemon", nil, func(n int, err error) {
		// called exactly once
	})
*/
package entityrecord

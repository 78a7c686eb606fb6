/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"slices"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/storagemodels"
)

// SortKey orders entities by the value at Path.
type SortKey struct {
	Path      string
	Ascending bool
}

// Asc sorts by path in ascending order.
func Asc(path string) SortKey { return SortKey{Path: path, Ascending: true} }

// Desc sorts by path in descending order.
func Desc(path string) SortKey { return SortKey{Path: path, Ascending: false} }

type sortRow struct {
	entity *storagemodels.Entity
	keys   []storagemodels.Value
}

// Order returns entities sorted lexicographically by keys. The sort is
// stable. Null sorts before every other value in ascending order. Any path
// or comparison failure fails the whole call and no ordering is returned.
func Order(ctx context.Context, r Resolver, entities []*storagemodels.Entity, keys ...SortKey) ([]*storagemodels.Entity, error) {
	out := make([]*storagemodels.Entity, len(entities))
	if len(keys) == 0 {
		copy(out, entities)
		return out, nil
	}

	rows := make([]sortRow, len(entities))
	for i, e := range entities {
		rows[i] = sortRow{entity: e, keys: make([]storagemodels.Value, len(keys))}
		for k, key := range keys {
			v, err := ResolvePath(ctx, r, e, key.Path)
			if err != nil {
				return nil, err
			}
			rows[i].keys[k] = v
		}
	}

	// Every non-null value of a key must be comparable with every other,
	// so the comparator below cannot fail.
	for k, key := range keys {
		var first storagemodels.Value
		for _, row := range rows {
			v := row.keys[k]
			if v.IsNull() {
				continue
			}
			if first.IsNull() {
				if v.Kind() == storagemodels.KindRef {
					return nil, errors.NewTypeMismatchError("sort by "+key.Path, v.Kind().String(), "")
				}
				first = v
				continue
			}
			if _, err := storagemodels.Compare(first, v); err != nil {
				return nil, err
			}
		}
	}

	slices.SortStableFunc(rows, func(a, b sortRow) int {
		for k, key := range keys {
			c := compareNullsFirst(a.keys[k], b.keys[k])
			if c == 0 {
				continue
			}
			if !key.Ascending {
				return -c
			}
			return c
		}
		return 0
	})

	for i, row := range rows {
		out[i] = row.entity
	}
	return out, nil
}

func compareNullsFirst(a, b storagemodels.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	c, _ := storagemodels.Compare(a, b)
	return c
}

// ValidateSort checks every sort path against the schema of entityType.
func ValidateSort(r Resolver, entityType string, keys []SortKey) error {
	for _, key := range keys {
		kind, err := CheckPath(r, entityType, key.Path)
		if err != nil {
			return err
		}
		if kind == storagemodels.KindRef {
			return errors.NewTypeMismatchError("sort by "+key.Path, kind.String(), "")
		}
	}
	return nil
}

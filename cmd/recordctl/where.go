/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/entityrecord/query"
	"github.com/suparena/entityrecord/storagemodels"
)

// Longer operators come first so ">=" is not read as ">".
var operators = []string{">=", "<=", "!=", "==", "=", ">", "<"}

// parseWhere ANDs together expressions such as "level>5" or "type.name=Fire".
// No expressions yields a nil predicate, which matches everything.
func parseWhere(exprs []string) (query.Node, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	nodes := make([]query.Node, 0, len(exprs))
	for _, expr := range exprs {
		n, err := parseComparison(expr)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return query.And(nodes...), nil
}

func parseComparison(expr string) (query.Node, error) {
	for i := 0; i < len(expr); i++ {
		for _, tok := range operators {
			if !strings.HasPrefix(expr[i:], tok) {
				continue
			}
			path := strings.TrimSpace(expr[:i])
			if path == "" {
				return nil, fmt.Errorf("missing path in %q", expr)
			}
			op, err := query.ParseOperator(tok)
			if err != nil {
				return nil, err
			}
			return query.Compare(path, op, parseLiteral(strings.TrimSpace(expr[i+len(tok):]))), nil
		}
	}
	return nil, fmt.Errorf("no operator in %q", expr)
}

// parseLiteral infers a value from its text. Quoted text is always a string.
func parseLiteral(s string) storagemodels.Value {
	if unq, err := strconv.Unquote(s); err == nil {
		return storagemodels.StringValue(unq)
	}
	switch s {
	case "null":
		return storagemodels.NullValue()
	case "true":
		return storagemodels.BoolValue(true)
	case "false":
		return storagemodels.BoolValue(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return storagemodels.IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return storagemodels.RealValue(f)
	}
	if strings.Contains(s, "T") {
		if dt, err := strfmt.ParseDateTime(s); err == nil {
			return storagemodels.TimeValue(time.Time(dt))
		}
	}
	return storagemodels.StringValue(s)
}

// parseSort reads "name" as ascending and "-level" as descending.
func parseSort(specs []string) []query.SortKey {
	keys := make([]query.SortKey, 0, len(specs))
	for _, s := range specs {
		if path, desc := strings.CutPrefix(s, "-"); desc {
			keys = append(keys, query.Desc(path))
		} else {
			keys = append(keys, query.Asc(strings.TrimPrefix(s, "+")))
		}
	}
	return keys
}

// parseAssignments reads "field=value" pairs for update.
func parseAssignments(pairs []string) (map[string]storagemodels.Value, error) {
	values := make(map[string]storagemodels.Value, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want field=value", p)
		}
		values[name] = parseLiteral(strings.TrimSpace(raw))
	}
	return values, nil
}

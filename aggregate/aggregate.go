/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package aggregate

import (
	"context"
	"strings"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/query"
	"github.com/suparena/entityrecord/storagemodels"
)

// Func is an aggregate function.
type Func int

const (
	Sum Func = iota
	Min
	Max
	Avg
	Count
)

func (f Func) String() string {
	switch f {
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case Avg:
		return "average"
	case Count:
		return "count"
	}
	return "unknown"
}

// ParseFunc parses a function name as returned by String. "avg" is accepted
// for Avg.
func ParseFunc(s string) (Func, error) {
	switch strings.ToLower(s) {
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "avg", "average":
		return Avg, nil
	case "count":
		return Count, nil
	}
	return Sum, errors.NewValidationError("function", "unknown aggregate function "+s)
}

// FieldFunc applies Func to the values at Path.
type FieldFunc struct {
	Path string
	Func Func
}

// Request describes one aggregation. Every field is computed independently
// over the same selection.
type Request struct {
	Fields  []FieldFunc
	Where   query.Node
	GroupBy []string
}

// Row is one result row: the group-by values, in GroupBy order, followed by
// one value per requested field.
type Row struct {
	Group  []storagemodels.Value
	Values []storagemodels.Value
}

// Engine computes aggregates over the entities an Executor selects.
type Engine struct {
	x *query.Executor
}

// NewEngine returns an Engine reading through x.
func NewEngine(x *query.Executor) *Engine {
	return &Engine{x: x}
}

// Aggregate evaluates req over entities of entityType. Without GroupBy the
// result holds exactly one row. With GroupBy there is one row per distinct
// tuple of group values, in the order the tuples are first seen, and an
// empty selection yields no rows.
//
// Sum and Count over no values are zero. Min, Max and Avg over no values
// fail with EmptyAggregate. Null values are skipped by every function.
func (g *Engine) Aggregate(ctx context.Context, entityType string, req Request) ([]Row, error) {
	if len(req.Fields) == 0 {
		return nil, errors.NewValidationError("fields", "no aggregate fields requested")
	}
	for _, p := range req.GroupBy {
		if _, err := g.x.CheckPath(entityType, p); err != nil {
			return nil, err
		}
	}
	for _, f := range req.Fields {
		kind, err := g.x.CheckPath(entityType, f.Path)
		if err != nil {
			return nil, err
		}
		if f.Func != Count && !kind.IsNumeric() {
			return nil, errors.NewTypeMismatchError(f.Func.String(), kind.String(), "")
		}
	}

	paths := make([]string, 0, len(req.GroupBy)+len(req.Fields))
	paths = append(paths, req.GroupBy...)
	for _, f := range req.Fields {
		paths = append(paths, f.Path)
	}
	rows, err := g.x.Project(ctx, entityType, req.Where, paths...)
	if err != nil {
		return nil, err
	}

	type group struct {
		values []storagemodels.Value
		accs   []*accumulator
	}
	newGroup := func(values []storagemodels.Value) *group {
		gr := &group{values: values, accs: make([]*accumulator, len(req.Fields))}
		for i, f := range req.Fields {
			gr.accs[i] = &accumulator{fn: f.Func}
		}
		return gr
	}

	var groups []*group
	index := make(map[string]*group)
	if len(req.GroupBy) == 0 {
		groups = append(groups, newGroup(nil))
	}

	n := len(req.GroupBy)
	for _, row := range rows {
		var gr *group
		if n == 0 {
			gr = groups[0]
		} else {
			key := groupKey(row[:n])
			if gr = index[key]; gr == nil {
				gr = newGroup(row[:n:n])
				index[key] = gr
				groups = append(groups, gr)
			}
		}
		for i, acc := range gr.accs {
			acc.add(row[n+i])
		}
	}

	out := make([]Row, len(groups))
	for i, gr := range groups {
		values := make([]storagemodels.Value, len(gr.accs))
		for j, acc := range gr.accs {
			v, err := acc.result()
			if err != nil {
				return nil, errors.NewEmptyAggregateError(req.Fields[j].Func.String(), req.Fields[j].Path)
			}
			values[j] = v
		}
		out[i] = Row{Group: gr.values, Values: values}
	}
	return out, nil
}

func groupKey(values []storagemodels.Value) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(v.Key())
	}
	return b.String()
}

// accumulator folds the non-null values of one field.
type accumulator struct {
	fn    Func
	count int64

	sumInt  int64
	sumReal float64
	real    bool

	best storagemodels.Value
}

func (a *accumulator) add(v storagemodels.Value) {
	if v.IsNull() {
		return
	}
	a.count++

	switch a.fn {
	case Sum, Avg:
		if i, ok := v.Int(); ok && !a.real {
			if sum := a.sumInt + i; (i >= 0) == (sum >= a.sumInt) {
				a.sumInt = sum
				return
			}
			// int64 overflow: continue the sum as a real.
		}
		if !a.real {
			a.real = true
			a.sumReal = float64(a.sumInt)
		}
		f, _ := v.Float()
		a.sumReal += f
	case Min, Max:
		if a.best.IsNull() {
			a.best = v
			return
		}
		c, _ := storagemodels.Compare(v, a.best)
		if (a.fn == Min && c < 0) || (a.fn == Max && c > 0) {
			a.best = v
		}
	}
}

func (a *accumulator) result() (storagemodels.Value, error) {
	switch a.fn {
	case Count:
		return storagemodels.IntValue(a.count), nil
	case Sum:
		if a.real {
			return storagemodels.RealValue(a.sumReal), nil
		}
		return storagemodels.IntValue(a.sumInt), nil
	}

	if a.count == 0 {
		return storagemodels.NullValue(), errors.ErrEmptyAggregate
	}
	if a.fn == Avg {
		total := a.sumReal
		if !a.real {
			total = float64(a.sumInt)
		}
		return storagemodels.RealValue(total / float64(a.count)), nil
	}
	return a.best, nil
}

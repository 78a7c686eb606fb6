/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityrecord

import (
	"context"

	"github.com/suparena/entityrecord/aggregate"
	"github.com/suparena/entityrecord/datastore"
	"github.com/suparena/entityrecord/dispatch"
	"github.com/suparena/entityrecord/logging"
	"github.com/suparena/entityrecord/query"
	"github.com/suparena/entityrecord/storagemodels"
)

// Records is the schema-agnostic facade over one store. Every operation has
// a blocking form and an Async form that reports to a completion function
// exactly once, after the operation's changes are committed.
type Records struct {
	exec  *query.Executor
	agg   *aggregate.Engine
	disp  *dispatch.Dispatcher
	ownsD bool
}

// UpsertResult is the outcome of FindFirstOrCreate.
type UpsertResult struct {
	Entity  *storagemodels.Entity
	Created bool
}

// Option configures Records.
type Option func(*options)

type options struct {
	logger     logging.Logger
	dispatcher *dispatch.Dispatcher
}

// WithLogger sets the logger shared by the executor and dispatcher.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDispatcher runs operations through d instead of an inline dispatcher.
// The caller keeps ownership of d.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}

// New creates the facade for store.
func New(store datastore.EntityStore, opts ...Option) (*Records, error) {
	o := options{logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Records{disp: o.dispatcher}
	if r.disp == nil {
		d, err := dispatch.New(dispatch.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		r.disp = d
		r.ownsD = true
	}
	r.exec = query.NewExecutor(store, query.WithLogger(o.logger))
	r.agg = aggregate.NewEngine(r.exec)
	return r, nil
}

// Store returns the underlying store.
func (r *Records) Store() datastore.EntityStore { return r.exec.Store() }

// Executor returns the query executor bound to the store.
func (r *Records) Executor() *query.Executor { return r.exec }

// Close waits for submitted operations and releases a dispatcher created by New.
func (r *Records) Close() {
	if r.ownsD {
		r.disp.Close()
	}
}

// FindAll returns the entities of entityType matching where, ordered by sort.
func (r *Records) FindAll(ctx context.Context, entityType string, where query.Node, sort ...query.SortKey) ([]*storagemodels.Entity, error) {
	return dispatch.Do(ctx, r.disp, "findAll", func(ctx context.Context) ([]*storagemodels.Entity, error) {
		return r.exec.FindAll(ctx, entityType, where, sort...)
	})
}

// FindAllAsync is the completion form of FindAll.
func (r *Records) FindAllAsync(ctx context.Context, entityType string, where query.Node, done dispatch.Completion[[]*storagemodels.Entity], sort ...query.SortKey) {
	dispatch.Submit(ctx, r.disp, "findAll", func(ctx context.Context) ([]*storagemodels.Entity, error) {
		return r.exec.FindAll(ctx, entityType, where, sort...)
	}, done)
}

// FindAllWithAttribute returns the entities whose value at path equals v.
func (r *Records) FindAllWithAttribute(ctx context.Context, entityType, path string, v storagemodels.Value, sort ...query.SortKey) ([]*storagemodels.Entity, error) {
	return r.FindAll(ctx, entityType, query.Eq(path, v), sort...)
}

// FindAllWithAttributeAsync is the completion form of FindAllWithAttribute.
func (r *Records) FindAllWithAttributeAsync(ctx context.Context, entityType, path string, v storagemodels.Value, done dispatch.Completion[[]*storagemodels.Entity], sort ...query.SortKey) {
	r.FindAllAsync(ctx, entityType, query.Eq(path, v), done, sort...)
}

// FindFirst returns the first entity matching where, or nil.
func (r *Records) FindFirst(ctx context.Context, entityType string, where query.Node) (*storagemodels.Entity, error) {
	return dispatch.Do(ctx, r.disp, "findFirst", func(ctx context.Context) (*storagemodels.Entity, error) {
		return r.exec.FindFirst(ctx, entityType, where)
	})
}

// FindFirstAsync is the completion form of FindFirst.
func (r *Records) FindFirstAsync(ctx context.Context, entityType string, where query.Node, done dispatch.Completion[*storagemodels.Entity]) {
	dispatch.Submit(ctx, r.disp, "findFirst", func(ctx context.Context) (*storagemodels.Entity, error) {
		return r.exec.FindFirst(ctx, entityType, where)
	}, done)
}

// FindFirstOrCreate returns the first match of where or creates one.
func (r *Records) FindFirstOrCreate(ctx context.Context, entityType string, where query.Node, values map[string]storagemodels.Value) (UpsertResult, error) {
	return dispatch.Do(ctx, r.disp, "findFirstOrCreate", r.upsert(entityType, where, values))
}

// FindFirstOrCreateAsync is the completion form of FindFirstOrCreate.
func (r *Records) FindFirstOrCreateAsync(ctx context.Context, entityType string, where query.Node, values map[string]storagemodels.Value, done dispatch.Completion[UpsertResult]) {
	dispatch.Submit(ctx, r.disp, "findFirstOrCreate", r.upsert(entityType, where, values), done)
}

// FindFirstOrCreateWithAttribute finds or creates the entity whose field equals v.
func (r *Records) FindFirstOrCreateWithAttribute(ctx context.Context, entityType, field string, v storagemodels.Value) (UpsertResult, error) {
	return r.FindFirstOrCreate(ctx, entityType, query.Eq(field, v), nil)
}

// FindFirstOrCreateWithAttributeAsync is the completion form of FindFirstOrCreateWithAttribute.
func (r *Records) FindFirstOrCreateWithAttributeAsync(ctx context.Context, entityType, field string, v storagemodels.Value, done dispatch.Completion[UpsertResult]) {
	r.FindFirstOrCreateAsync(ctx, entityType, query.Eq(field, v), nil, done)
}

func (r *Records) upsert(entityType string, where query.Node, values map[string]storagemodels.Value) func(context.Context) (UpsertResult, error) {
	return func(ctx context.Context) (UpsertResult, error) {
		e, created, err := r.exec.FindFirstOrCreate(ctx, entityType, where, values)
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{Entity: e, Created: created}, nil
	}
}

// Count returns the number of entities matching where.
func (r *Records) Count(ctx context.Context, entityType string, where query.Node) (int, error) {
	return dispatch.Do(ctx, r.disp, "count", func(ctx context.Context) (int, error) {
		return r.exec.Count(ctx, entityType, where)
	})
}

// CountAsync is the completion form of Count.
func (r *Records) CountAsync(ctx context.Context, entityType string, where query.Node, done dispatch.Completion[int]) {
	dispatch.Submit(ctx, r.disp, "count", func(ctx context.Context) (int, error) {
		return r.exec.Count(ctx, entityType, where)
	}, done)
}

// DeleteAll removes the entities matching where and returns how many.
func (r *Records) DeleteAll(ctx context.Context, entityType string, where query.Node) (int, error) {
	return dispatch.Do(ctx, r.disp, "deleteAll", func(ctx context.Context) (int, error) {
		return r.exec.DeleteAll(ctx, entityType, where)
	})
}

// DeleteAllAsync is the completion form of DeleteAll.
func (r *Records) DeleteAllAsync(ctx context.Context, entityType string, where query.Node, done dispatch.Completion[int]) {
	dispatch.Submit(ctx, r.disp, "deleteAll", func(ctx context.Context) (int, error) {
		return r.exec.DeleteAll(ctx, entityType, where)
	}, done)
}

// UpdateAll assigns values to the entities matching where and returns how many.
func (r *Records) UpdateAll(ctx context.Context, entityType string, where query.Node, values map[string]storagemodels.Value) (int, error) {
	return dispatch.Do(ctx, r.disp, "updateAll", func(ctx context.Context) (int, error) {
		return r.exec.UpdateAll(ctx, entityType, where, values)
	})
}

// UpdateAllAsync is the completion form of UpdateAll.
func (r *Records) UpdateAllAsync(ctx context.Context, entityType string, where query.Node, values map[string]storagemodels.Value, done dispatch.Completion[int]) {
	dispatch.Submit(ctx, r.disp, "updateAll", func(ctx context.Context) (int, error) {
		return r.exec.UpdateAll(ctx, entityType, where, values)
	}, done)
}

// Aggregate evaluates an aggregation request.
func (r *Records) Aggregate(ctx context.Context, entityType string, req aggregate.Request) ([]aggregate.Row, error) {
	return dispatch.Do(ctx, r.disp, "aggregate", func(ctx context.Context) ([]aggregate.Row, error) {
		return r.agg.Aggregate(ctx, entityType, req)
	})
}

// AggregateAsync is the completion form of Aggregate.
func (r *Records) AggregateAsync(ctx context.Context, entityType string, req aggregate.Request, done dispatch.Completion[[]aggregate.Row]) {
	dispatch.Submit(ctx, r.disp, "aggregate", func(ctx context.Context) ([]aggregate.Row, error) {
		return r.agg.Aggregate(ctx, entityType, req)
	}, done)
}

// Sum returns one sum per path.
func (r *Records) Sum(ctx context.Context, entityType string, where query.Node, paths ...string) ([]storagemodels.Value, error) {
	return dispatch.Do(ctx, r.disp, "sum", func(ctx context.Context) ([]storagemodels.Value, error) {
		return r.agg.Sum(ctx, entityType, where, paths...)
	})
}

// SumAsync is the completion form of Sum.
func (r *Records) SumAsync(ctx context.Context, entityType string, where query.Node, done dispatch.Completion[[]storagemodels.Value], paths ...string) {
	dispatch.Submit(ctx, r.disp, "sum", func(ctx context.Context) ([]storagemodels.Value, error) {
		return r.agg.Sum(ctx, entityType, where, paths...)
	}, done)
}

// Min returns the smallest value at path.
func (r *Records) Min(ctx context.Context, entityType, path string, where query.Node) (storagemodels.Value, error) {
	return dispatch.Do(ctx, r.disp, "min", func(ctx context.Context) (storagemodels.Value, error) {
		return r.agg.Min(ctx, entityType, path, where)
	})
}

// MinAsync is the completion form of Min.
func (r *Records) MinAsync(ctx context.Context, entityType, path string, where query.Node, done dispatch.Completion[storagemodels.Value]) {
	dispatch.Submit(ctx, r.disp, "min", func(ctx context.Context) (storagemodels.Value, error) {
		return r.agg.Min(ctx, entityType, path, where)
	}, done)
}

// Max returns the largest value at path.
func (r *Records) Max(ctx context.Context, entityType, path string, where query.Node) (storagemodels.Value, error) {
	return dispatch.Do(ctx, r.disp, "max", func(ctx context.Context) (storagemodels.Value, error) {
		return r.agg.Max(ctx, entityType, path, where)
	})
}

// MaxAsync is the completion form of Max.
func (r *Records) MaxAsync(ctx context.Context, entityType, path string, where query.Node, done dispatch.Completion[storagemodels.Value]) {
	dispatch.Submit(ctx, r.disp, "max", func(ctx context.Context) (storagemodels.Value, error) {
		return r.agg.Max(ctx, entityType, path, where)
	}, done)
}

// Avg returns the mean of the values at path.
func (r *Records) Avg(ctx context.Context, entityType, path string, where query.Node) (float64, error) {
	return dispatch.Do(ctx, r.disp, "avg", func(ctx context.Context) (float64, error) {
		return r.agg.Avg(ctx, entityType, path, where)
	})
}

// AvgAsync is the completion form of Avg.
func (r *Records) AvgAsync(ctx context.Context, entityType, path string, where query.Node, done dispatch.Completion[float64]) {
	dispatch.Submit(ctx, r.disp, "avg", func(ctx context.Context) (float64, error) {
		return r.agg.Avg(ctx, entityType, path, where)
	}, done)
}

// CountField returns how many matches have a value at path.
func (r *Records) CountField(ctx context.Context, entityType, path string, where query.Node) (int64, error) {
	return dispatch.Do(ctx, r.disp, "countField", func(ctx context.Context) (int64, error) {
		return r.agg.CountField(ctx, entityType, path, where)
	})
}

// CountFieldAsync is the completion form of CountField.
func (r *Records) CountFieldAsync(ctx context.Context, entityType, path string, where query.Node, done dispatch.Completion[int64]) {
	dispatch.Submit(ctx, r.disp, "countField", func(ctx context.Context) (int64, error) {
		return r.agg.CountField(ctx, entityType, path, where)
	}, done)
}

// GroupBy computes fn over path per distinct tuple of groupBy values.
func (r *Records) GroupBy(ctx context.Context, entityType string, fn aggregate.Func, path string, where query.Node, groupBy ...string) ([]aggregate.Row, error) {
	return dispatch.Do(ctx, r.disp, "groupBy", func(ctx context.Context) ([]aggregate.Row, error) {
		return r.agg.GroupBy(ctx, entityType, fn, path, where, groupBy...)
	})
}

// GroupByAsync is the completion form of GroupBy.
func (r *Records) GroupByAsync(ctx context.Context, entityType string, fn aggregate.Func, path string, where query.Node, done dispatch.Completion[[]aggregate.Row], groupBy ...string) {
	dispatch.Submit(ctx, r.disp, "groupBy", func(ctx context.Context) ([]aggregate.Row, error) {
		return r.agg.GroupBy(ctx, entityType, fn, path, where, groupBy...)
	}, done)
}

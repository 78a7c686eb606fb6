/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dispatch_test

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/entityrecord/dispatch"
	"github.com/suparena/entityrecord/errors"
)

func TestDo(t *testing.T) {
	ctx := context.Background()
	metrics := dispatch.NewMetrics(prometheus.NewRegistry())
	d, err := dispatch.New(dispatch.WithMetrics(metrics))
	require.NoError(t, err)
	defer d.Close()

	n, err := dispatch.Do(ctx, d, "count", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	failure := errors.NewStoreFailureError("scan", stderrors.New("offline"))
	_, err = dispatch.Do(ctx, d, "count", func(context.Context) (int, error) { return 0, failure })
	assert.True(t, errors.IsStoreFailure(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues("count", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OperationsTotal.WithLabelValues("count", "error")))
}

func TestSubmitInline(t *testing.T) {
	ctx := context.Background()
	d, err := dispatch.New()
	require.NoError(t, err)
	defer d.Close()

	var calls int
	var got string
	dispatch.Submit(ctx, d, "find", func(context.Context) (string, error) {
		return "Charizard", nil
	}, func(s string, err error) {
		require.NoError(t, err)
		calls++
		got = s
	})
	// Inline completion has already run when Submit returns.
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Charizard", got)

	var gotErr error
	dispatch.Submit(ctx, d, "find", func(context.Context) (string, error) {
		return "", errors.ErrUnknownField
	}, func(_ string, err error) {
		gotErr = err
	})
	assert.ErrorIs(t, gotErr, errors.ErrUnknownField)

	// A nil completion is allowed.
	dispatch.Submit[int](ctx, d, "noop", func(context.Context) (int, error) { return 0, nil }, nil)
}

func TestSubmitPooled(t *testing.T) {
	ctx := context.Background()
	d, err := dispatch.New(dispatch.WithPoolSize(4))
	require.NoError(t, err)

	const total = 50
	var completions atomic.Int64
	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		dispatch.Submit(ctx, d, "sum", func(context.Context) (int, error) {
			return i, nil
		}, func(int, error) {
			completions.Add(1)
			wg.Done()
		})
	}
	wg.Wait()
	d.Close()
	assert.EqualValues(t, total, completions.Load())
}

func TestSubmitPanic(t *testing.T) {
	ctx := context.Background()
	for _, size := range []int{0, 2} {
		d, err := dispatch.New(dispatch.WithPoolSize(size))
		require.NoError(t, err)

		done := make(chan error, 2)
		dispatch.Submit(ctx, d, "update", func(context.Context) (int, error) {
			panic("boom")
		}, func(_ int, err error) {
			done <- err
		})
		d.Close()

		require.Len(t, done, 1)
		assert.ErrorContains(t, <-done, "boom")
	}
}

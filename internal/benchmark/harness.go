// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package benchmark measures how long definitions take to render.
package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	ExecutionTimeout = 5 * time.Minute
	StandardRuntime  = time.Minute
	MinimumRuntime   = 10 * time.Second
	MinIterations    = 100

	ten         = 10
	hundred     = ten * ten
	thousand    = ten * hundred
	tenThousand = ten * thousand
)

// TimerManager is the subset of *testing.B a case uses to exclude setup
// from its measurement.
type TimerManager interface {
	ResetTimer()
	StartTimer()
	StopTimer()
}

type BenchCase func(context.Context, TimerManager, int) error
type BenchFunction func(*testing.B)

func WrapCase(bench BenchCase) BenchFunction {
	name := getName(bench)
	return func(b *testing.B) {
		ctx := context.Background()
		b.ResetTimer()
		err := bench(ctx, b, b.N)
		require.NoError(b, err, "case='%s'", name)
	}
}

// AllCases returns every render case with runtime as its minimum runtime.
// A zero runtime selects StandardRuntime.
func AllCases(runtime time.Duration) []*CaseDefinition {
	if runtime <= 0 {
		runtime = StandardRuntime
	}

	return []*CaseDefinition{
		{
			Bench:   CanaryIncCase,
			Count:   hundred,
			Runtime: runtime,
		},
		{
			Bench:   RenderFieldFilter,
			Count:   tenThousand,
			Runtime: runtime,
		},
		{
			Bench:   RenderCompoundFilter,
			Count:   tenThousand,
			Runtime: runtime,
		},
		{
			Bench:   RenderJSONFilter,
			Count:   tenThousand,
			Runtime: runtime,
		},
		{
			Bench:   RenderExpressionFilter,
			Count:   tenThousand,
			Runtime: runtime,
		},
		{
			Bench:   RenderCombinedUpdate,
			Count:   tenThousand,
			Runtime: runtime,
		},
		{
			Bench:   RenderStagePipeline,
			Count:   thousand,
			Runtime: runtime,
		},
		{
			Bench:   RenderOptimizedPipeline,
			Count:   thousand,
			Runtime: runtime,
		},
	}
}

// nopTimer is the TimerManager used outside of testing.B.
type nopTimer struct{}

func (nopTimer) ResetTimer() {}
func (nopTimer) StartTimer() {}
func (nopTimer) StopTimer()  {}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package view

import (
	"context"

	"github.com/ikmak/mongo-go-builders/builders"
	"github.com/ikmak/mongo-go-builders/internal/logger"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pipeline returns p prefixed with a $match stage for the implicit filter.
// Unless disabled through Options.SetOptimize, the result is wrapped with
// builders.Optimize so that a leading $match of p merges with the implicit
// one.
func Pipeline[T, TOut any](fc *FilteredCollection[T], p builders.PipelineDefinition[T, TOut]) builders.PipelineDefinition[T, TOut] {
	full := builders.Prepend[T, T, TOut](builders.MatchStage(fc.filter), p)
	if fc.optimize {
		full = builders.Optimize[T, TOut](full)
	}
	return full
}

// RenderAggregate renders the pipeline Aggregate sends for p.
func RenderAggregate[T, TOut any](fc *FilteredCollection[T], p builders.PipelineDefinition[T, TOut]) (builders.RenderedPipeline, error) {
	rendered, err := builders.RenderPipeline[T, TOut](Pipeline(fc, p), fc.registry)
	if err != nil {
		return builders.RenderedPipeline{}, errors.Wrap(err, "cannot render aggregate pipeline")
	}

	if fc.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentPipeline) {
		kvs := logger.KeyValues{}
		kvs.Add(logger.KeyCollection, fc.collectionName())
		kvs.Add(logger.KeyCommandName, "aggregate")
		kvs.Add(logger.KeyStageCount, len(rendered.Documents))
		if out := serializer.TypeOf[TOut](); out != serializer.TypeOf[T]() {
			kvs.Add(logger.KeyOutputType, out.String())
		}
		kvs.Add(logger.KeyPipeline, fc.logger.FormatDocuments(rendered.Documents))
		fc.logger.Print(logger.LevelDebug, logger.ComponentPipeline, "rendered pipeline", kvs...)
	}
	return rendered, nil
}

// Aggregate runs p over the documents of the view.
func Aggregate[T, TOut any](ctx context.Context, fc *FilteredCollection[T], p builders.PipelineDefinition[T, TOut],
	opts ...*options.AggregateOptions) (*mongo.Cursor, error) {

	rendered, err := RenderAggregate(fc, p)
	if err != nil {
		return nil, err
	}
	return fc.coll.Aggregate(ctx, mongo.Pipeline(rendered.Documents), opts...)
}

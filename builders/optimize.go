// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"github.com/ikmak/mongo-go-builders/internal/docutil"
	"github.com/ikmak/mongo-go-builders/serializer"
	"go.mongodb.org/mongo-driver/bson"
)

type optimizingPipeline[TIn, TOut any] struct {
	inner PipelineDefinition[TIn, TOut]
}

// Optimize wraps p so that, after rendering, two leading $match stages are
// collapsed into one. Only the first two documents are considered.
func Optimize[TIn, TOut any](p PipelineDefinition[TIn, TOut]) PipelineDefinition[TIn, TOut] {
	if o, ok := p.(optimizingPipeline[TIn, TOut]); ok {
		return o
	}
	return optimizingPipeline[TIn, TOut]{inner: p}
}

func (p optimizingPipeline[TIn, TOut]) Render(in serializer.Serializer, r serializer.Registry) (RenderedPipeline, error) {
	rendered, err := p.inner.Render(in, r)
	if err != nil {
		return RenderedPipeline{}, err
	}
	rendered.Documents = collapseLeadingMatches(rendered.Documents)
	return rendered, nil
}

func (optimizingPipeline[TIn, TOut]) isPipeline(*TIn, *TOut) {}

func collapseLeadingMatches(docs []bson.D) []bson.D {
	if len(docs) < 2 {
		return docs
	}
	first, ok := matchBody(docs[0])
	if !ok {
		return docs
	}
	second, ok := matchBody(docs[1])
	if !ok {
		return docs
	}

	out := make([]bson.D, 0, len(docs)-1)
	out = append(out, bson.D{{Key: "$match", Value: docutil.MergeAnd(first, second)}})
	return append(out, docs[2:]...)
}

func matchBody(doc bson.D) (bson.D, bool) {
	if len(doc) != 1 || doc[0].Key != "$match" {
		return nil, false
	}
	return docutil.AsDocument(doc[0].Value)
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// RenderedPipeline is the list of stage documents sent to the server and
// the serializer of the documents the pipeline outputs.
type RenderedPipeline struct {
	Documents        []bson.D
	OutputSerializer serializer.Serializer
}

// PipelineDefinition is an aggregation pipeline consuming documents of type
// TIn and producing documents of type TOut.
type PipelineDefinition[TIn, TOut any] interface {
	Render(in serializer.Serializer, r serializer.Registry) (RenderedPipeline, error)
	isPipeline(*TIn, *TOut)
}

// RenderPipeline renders p against the serializer registered for TIn.
func RenderPipeline[TIn, TOut any](p PipelineDefinition[TIn, TOut], r serializer.Registry) (RenderedPipeline, error) {
	in, err := serializer.For[TIn](r)
	if err != nil {
		return RenderedPipeline{}, err
	}
	return p.Render(in, r)
}

// resolveOutput picks the pipeline's output serializer: the pinned one, then
// the last stage's when it describes TOut, then the registry's.
func resolveOutput[TOut any](pinned, current serializer.Serializer, r serializer.Registry) (serializer.Serializer, error) {
	if pinned != nil {
		return pinned, nil
	}
	if current != nil && current.ValueType() == serializer.TypeOf[TOut]() {
		return current, nil
	}
	return serializer.For[TOut](r)
}

// StagePipeline is a pipeline built from an ordered list of stages. Its
// methods return new pipelines and never modify the receiver.
type StagePipeline[TIn, TOut any] struct {
	stages []StageDefinition
	output serializer.Serializer
}

// NewPipeline returns an empty pipeline over T.
func NewPipeline[T any]() *StagePipeline[T, T] {
	return &StagePipeline[T, T]{}
}

// PipelineFromStages assembles a pipeline from untyped stages. The first
// stage must consume TIn, each stage must consume what its predecessor
// produces and the last stage must produce TOut; otherwise a
// *StageSequenceError is returned. An empty list requires TIn == TOut.
func PipelineFromStages[TIn, TOut any](stages ...StageDefinition) (*StagePipeline[TIn, TOut], error) {
	expected := serializer.TypeOf[TIn]()
	for i, s := range stages {
		if s.InputType() != expected {
			return nil, &StageSequenceError{Index: i, Expected: expected, Actual: s.InputType()}
		}
		expected = s.OutputType()
	}
	if out := serializer.TypeOf[TOut](); expected != out {
		return nil, &StageSequenceError{Index: len(stages) - 1, Output: true, Expected: out, Actual: expected}
	}
	return &StagePipeline[TIn, TOut]{stages: append([]StageDefinition(nil), stages...)}, nil
}

// Append returns a pipeline that runs p followed by stage.
func Append[TIn, TMid, TOut any](p *StagePipeline[TIn, TMid], stage Stage[TMid, TOut]) *StagePipeline[TIn, TOut] {
	stages := make([]StageDefinition, 0, len(p.stages)+1)
	stages = append(stages, p.stages...)
	return &StagePipeline[TIn, TOut]{stages: append(stages, stage)}
}

func (p *StagePipeline[TIn, TOut]) with(stage Stage[TOut, TOut]) *StagePipeline[TIn, TOut] {
	next := Append(p, stage)
	next.output = p.output
	return next
}

// Match appends a $match stage.
func (p *StagePipeline[TIn, TOut]) Match(filter FilterDefinition[TOut]) *StagePipeline[TIn, TOut] {
	return p.with(MatchStage(filter))
}

// Sort appends a $sort stage.
func (p *StagePipeline[TIn, TOut]) Sort(sort SortDefinition[TOut]) *StagePipeline[TIn, TOut] {
	return p.with(SortStage(sort))
}

// Skip appends a $skip stage.
func (p *StagePipeline[TIn, TOut]) Skip(n int64) *StagePipeline[TIn, TOut] {
	return p.with(SkipStage[TOut](n))
}

// Limit appends a $limit stage.
func (p *StagePipeline[TIn, TOut]) Limit(n int64) *StagePipeline[TIn, TOut] {
	return p.with(LimitStage[TOut](n))
}

// Sample appends a $sample stage.
func (p *StagePipeline[TIn, TOut]) Sample(size int64) *StagePipeline[TIn, TOut] {
	return p.with(SampleStage[TOut](size))
}

// WithOutputSerializer pins the serializer used for the pipeline's output
// documents.
func (p *StagePipeline[TIn, TOut]) WithOutputSerializer(s serializer.Serializer) *StagePipeline[TIn, TOut] {
	return &StagePipeline[TIn, TOut]{stages: p.stages, output: s}
}

// Stages returns a copy of the pipeline's stages.
func (p *StagePipeline[TIn, TOut]) Stages() []StageDefinition {
	return append([]StageDefinition(nil), p.stages...)
}

// Render renders every stage in order, threading each stage's output
// serializer into the next stage. Stages that render an empty document are
// dropped.
func (p *StagePipeline[TIn, TOut]) Render(in serializer.Serializer, r serializer.Registry) (RenderedPipeline, error) {
	current := in
	docs := make([]bson.D, 0, len(p.stages))
	for i, stage := range p.stages {
		rs, err := stage.RenderStage(current, r)
		if err != nil {
			return RenderedPipeline{}, errors.Wrapf(err, "cannot render stage %d (%s)", i, stage.OperatorName())
		}
		if len(rs.Document) > 0 {
			docs = append(docs, rs.Document)
		}
		current = rs.OutputSerializer
	}

	out, err := resolveOutput[TOut](p.output, current, r)
	if err != nil {
		return RenderedPipeline{}, err
	}
	return RenderedPipeline{Documents: docs, OutputSerializer: out}, nil
}

func (*StagePipeline[TIn, TOut]) isPipeline(*TIn, *TOut) {}

type documentPipeline[TIn, TOut any] struct {
	docs []bson.D
}

// PipelineFromDocuments uses docs as the pipeline. The output serializer is
// the registry's serializer for TOut.
func PipelineFromDocuments[TIn, TOut any](docs ...bson.D) PipelineDefinition[TIn, TOut] {
	copied := make([]bson.D, 0, len(docs))
	for _, d := range docs {
		copied = append(copied, copyDocument(d))
	}
	return documentPipeline[TIn, TOut]{docs: copied}
}

func (p documentPipeline[TIn, TOut]) Render(_ serializer.Serializer, r serializer.Registry) (RenderedPipeline, error) {
	docs := make([]bson.D, 0, len(p.docs))
	for _, d := range p.docs {
		if len(d) > 0 {
			docs = append(docs, copyDocument(d))
		}
	}
	out, err := serializer.For[TOut](r)
	if err != nil {
		return RenderedPipeline{}, err
	}
	return RenderedPipeline{Documents: docs, OutputSerializer: out}, nil
}

func (documentPipeline[TIn, TOut]) isPipeline(*TIn, *TOut) {}

type prependedPipeline[TIn, TMid, TOut any] struct {
	stage Stage[TIn, TMid]
	inner PipelineDefinition[TMid, TOut]
}

// Prepend returns a pipeline that runs stage before p.
func Prepend[TIn, TMid, TOut any](stage Stage[TIn, TMid], p PipelineDefinition[TMid, TOut]) PipelineDefinition[TIn, TOut] {
	return prependedPipeline[TIn, TMid, TOut]{stage: stage, inner: p}
}

func (p prependedPipeline[TIn, TMid, TOut]) Render(in serializer.Serializer, r serializer.Registry) (RenderedPipeline, error) {
	rs, err := p.stage.RenderStage(in, r)
	if err != nil {
		return RenderedPipeline{}, errors.Wrapf(err, "cannot render stage 0 (%s)", p.stage.OperatorName())
	}
	rest, err := p.inner.Render(rs.OutputSerializer, r)
	if err != nil {
		return RenderedPipeline{}, err
	}
	docs := make([]bson.D, 0, len(rest.Documents)+1)
	if len(rs.Document) > 0 {
		docs = append(docs, rs.Document)
	}
	docs = append(docs, rest.Documents...)
	return RenderedPipeline{Documents: docs, OutputSerializer: rest.OutputSerializer}, nil
}

func (prependedPipeline[TIn, TMid, TOut]) isPipeline(*TIn, *TOut) {}

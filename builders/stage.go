// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"reflect"

	"github.com/ikmak/mongo-go-builders/serializer"
	"go.mongodb.org/mongo-driver/bson"
)

// RenderedStage is a single aggregation stage document together with the
// serializer of the documents it outputs.
type RenderedStage struct {
	OperatorName     string
	Document         bson.D
	OutputSerializer serializer.Serializer
}

// StageDefinition is the untyped view of an aggregation stage.
type StageDefinition interface {
	// OperatorName is the stage operator, such as "$match". It is empty for
	// stages that render no document.
	OperatorName() string
	InputType() reflect.Type
	OutputType() reflect.Type
	// RenderStage renders the stage given the serializer of its input
	// documents.
	RenderStage(in serializer.Serializer, r serializer.Registry) (RenderedStage, error)
	isStage()
}

// Stage is an aggregation stage consuming documents of type TIn and producing
// documents of type TOut.
type Stage[TIn, TOut any] interface {
	StageDefinition
	isTypedStage(*TIn, *TOut)
}

type stageBase[TIn, TOut any] struct{}

func (stageBase[TIn, TOut]) InputType() reflect.Type  { return serializer.TypeOf[TIn]() }
func (stageBase[TIn, TOut]) OutputType() reflect.Type { return serializer.TypeOf[TOut]() }
func (stageBase[TIn, TOut]) isStage()                 {}
func (stageBase[TIn, TOut]) isTypedStage(*TIn, *TOut) {}

// outputSerializer returns in when the stage does not change the document
// shape and in describes TOut, otherwise the registry's serializer for TOut.
func (stageBase[TIn, TOut]) outputSerializer(in serializer.Serializer, r serializer.Registry, passthrough bool) (serializer.Serializer, error) {
	if passthrough && in != nil && in.ValueType() == serializer.TypeOf[TOut]() {
		return in, nil
	}
	return serializer.For[TOut](r)
}

// operatorStage renders {op: body}.
type operatorStage[TIn, TOut any] struct {
	stageBase[TIn, TOut]
	op string
	// passthrough stages reuse the input serializer as their output serializer.
	passthrough bool
	body        func(in serializer.Serializer, r serializer.Registry) (interface{}, error)
}

func (s operatorStage[TIn, TOut]) OperatorName() string { return s.op }

func (s operatorStage[TIn, TOut]) RenderStage(in serializer.Serializer, r serializer.Registry) (RenderedStage, error) {
	body, err := s.body(in, r)
	if err != nil {
		return RenderedStage{}, err
	}
	out, err := s.outputSerializer(in, r, s.passthrough)
	if err != nil {
		return RenderedStage{}, err
	}
	return RenderedStage{
		OperatorName:     s.op,
		Document:         bson.D{{Key: s.op, Value: body}},
		OutputSerializer: out,
	}, nil
}

func constant(v interface{}) func(serializer.Serializer, serializer.Registry) (interface{}, error) {
	return func(serializer.Serializer, serializer.Registry) (interface{}, error) { return v, nil }
}

type documentStage[TIn, TOut any] struct {
	stageBase[TIn, TOut]
	doc bson.D
}

func (s documentStage[TIn, TOut]) OperatorName() string { return operatorName(s.doc) }

func (s documentStage[TIn, TOut]) RenderStage(in serializer.Serializer, r serializer.Registry) (RenderedStage, error) {
	out, err := s.outputSerializer(in, r, false)
	if err != nil {
		return RenderedStage{}, err
	}
	return RenderedStage{OperatorName: s.OperatorName(), Document: copyDocument(s.doc), OutputSerializer: out}, nil
}

type jsonStage[TIn, TOut any] struct {
	stageBase[TIn, TOut]
	json string
}

// OperatorName parses the JSON; it is empty when the JSON is invalid.
func (s jsonStage[TIn, TOut]) OperatorName() string {
	doc, err := parseJSON(s.json)
	if err != nil {
		return ""
	}
	return operatorName(doc)
}

func (s jsonStage[TIn, TOut]) RenderStage(in serializer.Serializer, r serializer.Registry) (RenderedStage, error) {
	doc, err := parseJSON(s.json)
	if err != nil {
		return RenderedStage{}, err
	}
	out, err := s.outputSerializer(in, r, false)
	if err != nil {
		return RenderedStage{}, err
	}
	return RenderedStage{OperatorName: operatorName(doc), Document: doc, OutputSerializer: out}, nil
}

func operatorName(doc bson.D) string {
	if len(doc) == 0 {
		return ""
	}
	return doc[0].Key
}

// asStage reinterprets the documents without emitting a stage.
type asStage[TIn, TOut any] struct {
	stageBase[TIn, TOut]
	out serializer.Serializer
}

func (asStage[TIn, TOut]) OperatorName() string { return "" }

func (s asStage[TIn, TOut]) RenderStage(in serializer.Serializer, r serializer.Registry) (RenderedStage, error) {
	out := s.out
	if out == nil {
		var err error
		if out, err = s.outputSerializer(in, r, false); err != nil {
			return RenderedStage{}, err
		}
	}
	return RenderedStage{Document: bson.D{}, OutputSerializer: out}, nil
}

// StageFromDocument uses doc as a stage. The output serializer is the
// registry's serializer for TOut.
func StageFromDocument[TIn, TOut any](doc bson.D) Stage[TIn, TOut] {
	return documentStage[TIn, TOut]{doc: copyDocument(doc)}
}

// StageFromJSON uses an extended JSON document as a stage.
func StageFromJSON[TIn, TOut any](json string) Stage[TIn, TOut] {
	return jsonStage[TIn, TOut]{json: json}
}

// AsStage changes the document type of a pipeline without emitting a stage.
// A nil out uses the registry's serializer for TOut.
func AsStage[TIn, TOut any](out serializer.Serializer) Stage[TIn, TOut] {
	return asStage[TIn, TOut]{out: out}
}

// MatchStage filters documents.
func MatchStage[T any](filter FilterDefinition[T]) Stage[T, T] {
	return operatorStage[T, T]{op: "$match", passthrough: true, body: func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		return filter.Render(in, r)
	}}
}

// ProjectStage reshapes documents of type TIn into TOut.
func ProjectStage[TIn, TOut any](projection ProjectionDefinition[TIn]) Stage[TIn, TOut] {
	return operatorStage[TIn, TOut]{op: "$project", body: func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		return projection.Render(in, r)
	}}
}

// SortStage orders documents.
func SortStage[T any](sort SortDefinition[T]) Stage[T, T] {
	return operatorStage[T, T]{op: "$sort", passthrough: true, body: func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		return sort.Render(in, r)
	}}
}

// SkipStage skips n documents.
func SkipStage[T any](n int64) Stage[T, T] {
	return operatorStage[T, T]{op: "$skip", passthrough: true, body: constant(n)}
}

// LimitStage passes at most n documents.
func LimitStage[T any](n int64) Stage[T, T] {
	return operatorStage[T, T]{op: "$limit", passthrough: true, body: constant(n)}
}

// SampleStage randomly selects size documents.
func SampleStage[T any](size int64) Stage[T, T] {
	return operatorStage[T, T]{op: "$sample", passthrough: true, body: constant(bson.D{{Key: "size", Value: size}})}
}

// OutStage writes the documents to collection.
func OutStage[T any](collection string) Stage[T, T] {
	return operatorStage[T, T]{op: "$out", passthrough: true, body: constant(collection)}
}

// CountResult is the output document of CountStage.
type CountResult struct {
	Count int64 `bson:"count"`
}

// CountStage counts the input documents into a single CountResult.
func CountStage[T any]() Stage[T, CountResult] {
	return operatorStage[T, CountResult]{op: "$count", body: constant("count")}
}

// SortByCountResult is the output document of SortByCountStage.
type SortByCountResult[TID any] struct {
	ID    TID   `bson:"_id"`
	Count int64 `bson:"count"`
}

// SortByCountStage groups documents by field and sorts the groups by their
// size in descending order.
func SortByCountStage[TIn, TID any](field FieldDefinition[TIn]) Stage[TIn, SortByCountResult[TID]] {
	return operatorStage[TIn, SortByCountResult[TID]]{op: "$sortByCount", body: fieldPath(field)}
}

// GroupStage groups documents by id, an aggregation expression, and computes
// the accumulator fields.
func GroupStage[TIn, TOut any](id interface{}, fields ...bson.E) Stage[TIn, TOut] {
	body := bson.D{{Key: "_id", Value: id}}
	body = append(body, fields...)
	return operatorStage[TIn, TOut]{op: "$group", body: constant(body)}
}

// AddFieldsStage adds computed fields to each document.
func AddFieldsStage[TIn, TOut any](fields bson.D) Stage[TIn, TOut] {
	return operatorStage[TIn, TOut]{op: "$addFields", body: constant(copyDocument(fields))}
}

// ReplaceRootStage promotes the embedded document at field to the top level.
func ReplaceRootStage[TIn, TOut any](field FieldDefinition[TIn]) Stage[TIn, TOut] {
	path := fieldPath(field)
	return operatorStage[TIn, TOut]{op: "$replaceRoot", body: func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		p, err := path(in, r)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "newRoot", Value: p}}, nil
	}}
}

// UnwindStage outputs one document per element of the array field.
func UnwindStage[TIn, TOut any](field FieldDefinition[TIn], opts ...*UnwindOptions) Stage[TIn, TOut] {
	uo := MergeUnwindOptions(opts...)
	path := fieldPath(field)
	return operatorStage[TIn, TOut]{op: "$unwind", body: func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		p, err := path(in, r)
		if err != nil {
			return nil, err
		}
		if uo.IncludeArrayIndex == nil && uo.PreserveNullAndEmptyArrays == nil {
			return p, nil
		}
		body := bson.D{{Key: "path", Value: p}}
		if uo.IncludeArrayIndex != nil {
			body = append(body, bson.E{Key: "includeArrayIndex", Value: *uo.IncludeArrayIndex})
		}
		if uo.PreserveNullAndEmptyArrays != nil {
			body = append(body, bson.E{Key: "preserveNullAndEmptyArrays", Value: *uo.PreserveNullAndEmptyArrays})
		}
		return body, nil
	}}
}

// LookupStage joins documents of the from collection whose foreignField
// equals localField into the array field as of TOut.
func LookupStage[TIn, TForeign, TOut any](from string, localField FieldDefinition[TIn], foreignField FieldDefinition[TForeign], as FieldDefinition[TOut]) Stage[TIn, TOut] {
	return operatorStage[TIn, TOut]{op: "$lookup", body: func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		local, err := localField.Render(in, r)
		if err != nil {
			return nil, err
		}
		foreignSerializer, err := serializer.For[TForeign](r)
		if err != nil {
			return nil, err
		}
		foreign, err := foreignField.Render(foreignSerializer, r)
		if err != nil {
			return nil, err
		}
		outSerializer, err := serializer.For[TOut](r)
		if err != nil {
			return nil, err
		}
		asField, err := as.Render(outSerializer, r)
		if err != nil {
			return nil, err
		}
		return bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: local.FieldName},
			{Key: "foreignField", Value: foreign.FieldName},
			{Key: "as", Value: asField.FieldName},
		}, nil
	}}
}

// fieldPath renders field as an aggregation field path ("$name").
func fieldPath[T any](field FieldDefinition[T]) func(serializer.Serializer, serializer.Registry) (interface{}, error) {
	return func(in serializer.Serializer, r serializer.Registry) (interface{}, error) {
		rf, err := field.Render(in, r)
		if err != nil {
			return nil, err
		}
		return "$" + rf.FieldName, nil
	}
}

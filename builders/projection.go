// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"github.com/ikmak/mongo-go-builders/expr"
	"github.com/ikmak/mongo-go-builders/internal/docutil"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// ProjectionDefinition shapes the documents of type T returned by a query.
type ProjectionDefinition[T any] interface {
	Render(s serializer.Serializer, r serializer.Registry) (bson.D, error)
	isProjection(*T)
}

type documentProjection[T any] struct{ doc bson.D }

func (p documentProjection[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return copyDocument(p.doc), nil
}

func (documentProjection[T]) isProjection(*T) {}

type jsonProjection[T any] struct{ json string }

func (p jsonProjection[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return parseJSON(p.json)
}

func (jsonProjection[T]) isProjection(*T) {}

type expressionProjection[T any] struct {
	expression expr.Expr
	translator expr.Translator
}

func (p expressionProjection[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return p.translator.TranslateProjection(p.expression, s, r)
}

func (expressionProjection[T]) isProjection(*T) {}

type fieldProjection[T any] struct {
	field FieldDefinition[T]
	value interface{}
}

func (p fieldProjection[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := p.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: rf.FieldName, Value: p.value}}, nil
}

func (fieldProjection[T]) isProjection(*T) {}

type elemMatchProjection[T, TItem any] struct {
	field  FieldDefinition[T]
	filter FilterDefinition[TItem]
}

func (p elemMatchProjection[T, TItem]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := p.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	item, err := itemSerializer[TItem](rf, r)
	if err != nil {
		return nil, err
	}
	inner, err := p.filter.Render(item, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: rf.FieldName, Value: bson.D{{Key: "$elemMatch", Value: inner}}}}, nil
}

func (elemMatchProjection[T, TItem]) isProjection(*T) {}

type combinedProjection[T any] struct {
	projections []ProjectionDefinition[T]
}

func (p combinedProjection[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	out := bson.D{}
	for i, child := range p.projections {
		doc, err := child.Render(s, r)
		if err != nil {
			return nil, errors.Wrapf(err, "projection %d", i)
		}
		for _, e := range doc {
			out = docutil.Set(out, e.Key, e.Value)
		}
	}
	return out, nil
}

func (combinedProjection[T]) isProjection(*T) {}

type objectProjection[T any] struct{ object objectValue }

func (p objectProjection[T]) Render(_ serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return p.object.render(r)
}

func (objectProjection[T]) isProjection(*T) {}

// ProjectionFromDocument uses doc as the projection.
func ProjectionFromDocument[T any](doc bson.D) ProjectionDefinition[T] {
	return documentProjection[T]{doc: copyDocument(doc)}
}

// ProjectionFromJSON uses an extended JSON document as the projection.
func ProjectionFromJSON[T any](json string) ProjectionDefinition[T] {
	return jsonProjection[T]{json: json}
}

// ProjectionFromExpression translates a member or New expression into a
// projection. Member and New projections exclude _id unless it is named.
func ProjectionFromExpression[T any](e expr.Expr) ProjectionDefinition[T] {
	return expressionProjection[T]{expression: e, translator: expr.DefaultTranslator}
}

// ProjectionFromValue uses v, which must encode as a document, as the
// projection.
func ProjectionFromValue[T, V any](v V) ProjectionDefinition[T] {
	return objectProjection[T]{object: staticObject(v)}
}

// ProjectionFromDynamic uses v as the projection, looking its serializer up
// from its runtime type.
func ProjectionFromDynamic[T any](v interface{}) ProjectionDefinition[T] {
	return objectProjection[T]{object: dynamicObject(v)}
}

// ProjectElemMatch projects the first element of an array field matching
// filter.
func ProjectElemMatch[T, TItem any](field FieldDefinition[T], filter FilterDefinition[TItem]) ProjectionDefinition[T] {
	return elemMatchProjection[T, TItem]{field: field, filter: filter}
}

// ProjectionBuilder creates projections over T.
type ProjectionBuilder[T any] struct{}

// Projection returns a ProjectionBuilder for T.
func Projection[T any]() ProjectionBuilder[T] { return ProjectionBuilder[T]{} }

// Document uses doc as the projection.
func (ProjectionBuilder[T]) Document(doc bson.D) ProjectionDefinition[T] {
	return ProjectionFromDocument[T](doc)
}

// JSON uses an extended JSON document as the projection.
func (ProjectionBuilder[T]) JSON(json string) ProjectionDefinition[T] {
	return ProjectionFromJSON[T](json)
}

// Expression translates a member or New expression.
func (ProjectionBuilder[T]) Expression(e expr.Expr) ProjectionDefinition[T] {
	return ProjectionFromExpression[T](e)
}

// Include includes field.
func (ProjectionBuilder[T]) Include(field FieldDefinition[T]) ProjectionDefinition[T] {
	return fieldProjection[T]{field: field, value: int32(1)}
}

// Exclude excludes field.
func (ProjectionBuilder[T]) Exclude(field FieldDefinition[T]) ProjectionDefinition[T] {
	return fieldProjection[T]{field: field, value: int32(0)}
}

// Slice projects limit elements of an array field. A negative limit counts
// from the end of the array.
func (ProjectionBuilder[T]) Slice(field FieldDefinition[T], limit int) ProjectionDefinition[T] {
	return fieldProjection[T]{field: field, value: bson.D{{Key: "$slice", Value: int32(limit)}}}
}

// SliceSkip projects limit elements of an array field after skipping skip.
func (ProjectionBuilder[T]) SliceSkip(field FieldDefinition[T], skip, limit int) ProjectionDefinition[T] {
	return fieldProjection[T]{field: field, value: bson.D{{Key: "$slice", Value: bson.A{int32(skip), int32(limit)}}}}
}

// MetaTextScore projects the text search score into field.
func (ProjectionBuilder[T]) MetaTextScore(field string) ProjectionDefinition[T] {
	return documentProjection[T]{doc: bson.D{{Key: field, Value: bson.D{{Key: "$meta", Value: "textScore"}}}}}
}

// Combine merges projections. When two projections name the same field the
// later one wins.
func (ProjectionBuilder[T]) Combine(projections ...ProjectionDefinition[T]) ProjectionDefinition[T] {
	return combinedProjection[T]{projections: append([]ProjectionDefinition[T](nil), projections...)}
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"github.com/ikmak/mongo-go-builders/internal/docutil"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// SortDefinition orders documents of type T.
type SortDefinition[T any] interface {
	Render(s serializer.Serializer, r serializer.Registry) (bson.D, error)
	isSort(*T)
}

type documentSort[T any] struct{ doc bson.D }

func (d documentSort[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return copyDocument(d.doc), nil
}

func (documentSort[T]) isSort(*T) {}

type jsonSort[T any] struct{ json string }

func (j jsonSort[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return parseJSON(j.json)
}

func (jsonSort[T]) isSort(*T) {}

type fieldSort[T any] struct {
	field FieldDefinition[T]
	value interface{}
}

func (fs fieldSort[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := fs.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: rf.FieldName, Value: fs.value}}, nil
}

func (fieldSort[T]) isSort(*T) {}

type combinedSort[T any] struct {
	sorts []SortDefinition[T]
}

func (c combinedSort[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	out := bson.D{}
	for i, child := range c.sorts {
		doc, err := child.Render(s, r)
		if err != nil {
			return nil, errors.Wrapf(err, "sort %d", i)
		}
		for _, e := range doc {
			out = docutil.Set(out, e.Key, e.Value)
		}
	}
	return out, nil
}

func (combinedSort[T]) isSort(*T) {}

type objectSort[T any] struct{ object objectValue }

func (o objectSort[T]) Render(_ serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return o.object.render(r)
}

func (objectSort[T]) isSort(*T) {}

// SortFromDocument uses doc as the sort.
func SortFromDocument[T any](doc bson.D) SortDefinition[T] {
	return documentSort[T]{doc: copyDocument(doc)}
}

// SortFromJSON uses an extended JSON document as the sort.
func SortFromJSON[T any](json string) SortDefinition[T] {
	return jsonSort[T]{json: json}
}

// SortFromValue uses v, which must encode as a document, as the sort.
func SortFromValue[T, V any](v V) SortDefinition[T] {
	return objectSort[T]{object: staticObject(v)}
}

// SortFromDynamic uses v as the sort, looking its serializer up from its
// runtime type.
func SortFromDynamic[T any](v interface{}) SortDefinition[T] {
	return objectSort[T]{object: dynamicObject(v)}
}

// SortBuilder creates sorts over T.
type SortBuilder[T any] struct{}

// Sort returns a SortBuilder for T.
func Sort[T any]() SortBuilder[T] { return SortBuilder[T]{} }

// Document uses doc as the sort.
func (SortBuilder[T]) Document(doc bson.D) SortDefinition[T] { return SortFromDocument[T](doc) }

// JSON uses an extended JSON document as the sort.
func (SortBuilder[T]) JSON(json string) SortDefinition[T] { return SortFromJSON[T](json) }

// Ascending sorts by field in ascending order.
func (SortBuilder[T]) Ascending(field FieldDefinition[T]) SortDefinition[T] {
	return fieldSort[T]{field: field, value: int32(1)}
}

// Descending sorts by field in descending order.
func (SortBuilder[T]) Descending(field FieldDefinition[T]) SortDefinition[T] {
	return fieldSort[T]{field: field, value: int32(-1)}
}

// MetaTextScore sorts by the text search score projected into field.
func (SortBuilder[T]) MetaTextScore(field string) SortDefinition[T] {
	return documentSort[T]{doc: bson.D{{Key: field, Value: bson.D{{Key: "$meta", Value: "textScore"}}}}}
}

// Combine concatenates sorts into one document. When a field appears more
// than once the later occurrence wins.
func (SortBuilder[T]) Combine(sorts ...SortDefinition[T]) SortDefinition[T] {
	flat := make([]SortDefinition[T], 0, len(sorts))
	for _, s := range sorts {
		flat = appendSort(flat, s)
	}
	return combinedSort[T]{sorts: flat}
}

// ThenBy appends next to sort. Chains of ThenBy render as one flat document.
func ThenBy[T any](sort, next SortDefinition[T]) SortDefinition[T] {
	flat := appendSort[T](nil, sort)
	return combinedSort[T]{sorts: appendSort(flat, next)}
}

// ThenByAscending appends an ascending key on field to sort.
func ThenByAscending[T any](sort SortDefinition[T], field FieldDefinition[T]) SortDefinition[T] {
	return ThenBy(sort, Sort[T]().Ascending(field))
}

// ThenByDescending appends a descending key on field to sort.
func ThenByDescending[T any](sort SortDefinition[T], field FieldDefinition[T]) SortDefinition[T] {
	return ThenBy(sort, Sort[T]().Descending(field))
}

func appendSort[T any](flat []SortDefinition[T], s SortDefinition[T]) []SortDefinition[T] {
	if c, ok := s.(combinedSort[T]); ok {
		return append(flat, c.sorts...)
	}
	return append(flat, s)
}

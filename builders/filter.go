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
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterDefinition is a query predicate over documents of type T.
type FilterDefinition[T any] interface {
	Render(s serializer.Serializer, r serializer.Registry) (bson.D, error)
	isFilter(*T)
}

type documentFilter[T any] struct{ doc bson.D }

func (f documentFilter[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return copyDocument(f.doc), nil
}

func (documentFilter[T]) isFilter(*T) {}

type jsonFilter[T any] struct{ json string }

func (f jsonFilter[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return parseJSON(f.json)
}

func (jsonFilter[T]) isFilter(*T) {}

type expressionFilter[T any] struct {
	expression expr.Expr
	translator expr.Translator
}

func (f expressionFilter[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return f.translator.TranslatePredicate(f.expression, s, r)
}

func (expressionFilter[T]) isFilter(*T) {}

type combinedFilter[T any] struct {
	op      string
	filters []FilterDefinition[T]
}

func (f combinedFilter[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rendered := make([]bson.D, 0, len(f.filters))
	for i, child := range f.filters {
		doc, err := child.Render(s, r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s clause %d", f.op, i)
		}
		rendered = append(rendered, doc)
	}
	if f.op == "$or" {
		return docutil.Or(rendered...), nil
	}
	return docutil.And(rendered...), nil
}

func (combinedFilter[T]) isFilter(*T) {}

type notFilter[T any] struct{ filter FilterDefinition[T] }

func (f notFilter[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	doc, err := f.filter.Render(s, r)
	if err != nil {
		return nil, err
	}
	return docutil.Not(doc), nil
}

func (notFilter[T]) isFilter(*T) {}

type fieldFilter[T any] struct {
	field FieldDefinition[T]
	// op is empty for implicit equality.
	op    string
	value interface{}
	mode  valueMode
}

func (f fieldFilter[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := f.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	v, err := encodeFieldValue(rf, r, f.value, f.mode)
	if err != nil {
		return nil, err
	}
	if f.op == "" {
		return bson.D{{Key: rf.FieldName, Value: v}}, nil
	}
	return bson.D{{Key: rf.FieldName, Value: bson.D{{Key: f.op, Value: v}}}}, nil
}

func (fieldFilter[T]) isFilter(*T) {}

type elemMatchFilter[T, TItem any] struct {
	field  FieldDefinition[T]
	filter FilterDefinition[TItem]
}

func (f elemMatchFilter[T, TItem]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := f.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	item, err := itemSerializer[TItem](rf, r)
	if err != nil {
		return nil, err
	}
	inner, err := f.filter.Render(item, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: rf.FieldName, Value: bson.D{{Key: "$elemMatch", Value: inner}}}}, nil
}

func (elemMatchFilter[T, TItem]) isFilter(*T) {}

// itemSerializer returns the element serializer of an array field, falling
// back to the registry's serializer for TItem.
func itemSerializer[TItem any](rf RenderedField, r serializer.Registry) (serializer.Serializer, error) {
	if as, ok := rf.FieldSerializer.(serializer.ArraySerializer); ok {
		if item := as.ItemSerializer(); item != nil && item.ValueType() == serializer.TypeOf[TItem]() {
			return item, nil
		}
	}
	return serializer.For[TItem](r)
}

type objectFilter[T any] struct{ object objectValue }

func (f objectFilter[T]) Render(_ serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return f.object.render(r)
}

func (objectFilter[T]) isFilter(*T) {}

// FilterFromDocument uses doc as the filter.
func FilterFromDocument[T any](doc bson.D) FilterDefinition[T] {
	return documentFilter[T]{doc: copyDocument(doc)}
}

// FilterFromJSON uses an extended JSON document as the filter. The JSON is
// parsed each time the filter is rendered.
func FilterFromJSON[T any](json string) FilterDefinition[T] {
	return jsonFilter[T]{json: json}
}

// FilterFromExpression translates a boolean expression over T with the
// default translator.
func FilterFromExpression[T any](e expr.Expr) FilterDefinition[T] {
	return FilterFromExpressionWith[T](e, expr.DefaultTranslator)
}

// FilterFromExpressionWith translates a boolean expression over T with t.
func FilterFromExpressionWith[T any](e expr.Expr, t expr.Translator) FilterDefinition[T] {
	return expressionFilter[T]{expression: e, translator: t}
}

// FilterFromValue uses v, which must encode as a document, as the filter.
// The serializer is the one registered for V.
func FilterFromValue[T, V any](v V) FilterDefinition[T] {
	return objectFilter[T]{object: staticObject(v)}
}

// FilterFromDynamic uses v, which must encode as a document, as the filter.
// The serializer is looked up from v's runtime type when rendering.
func FilterFromDynamic[T any](v interface{}) FilterDefinition[T] {
	return objectFilter[T]{object: dynamicObject(v)}
}

// ElemMatch matches documents whose array field contains an element
// satisfying filter.
func ElemMatch[T, TItem any](field FieldDefinition[T], filter FilterDefinition[TItem]) FilterDefinition[T] {
	return elemMatchFilter[T, TItem]{field: field, filter: filter}
}

// FilterBuilder creates filters over T.
type FilterBuilder[T any] struct{}

// Filter returns a FilterBuilder for T.
func Filter[T any]() FilterBuilder[T] { return FilterBuilder[T]{} }

// Empty matches every document.
func (FilterBuilder[T]) Empty() FilterDefinition[T] {
	return documentFilter[T]{doc: bson.D{}}
}

// Document uses doc as the filter.
func (FilterBuilder[T]) Document(doc bson.D) FilterDefinition[T] { return FilterFromDocument[T](doc) }

// JSON uses an extended JSON document as the filter.
func (FilterBuilder[T]) JSON(json string) FilterDefinition[T] { return FilterFromJSON[T](json) }

// Where translates a boolean expression.
func (FilterBuilder[T]) Where(e expr.Expr) FilterDefinition[T] { return FilterFromExpression[T](e) }

func (FilterBuilder[T]) op(field FieldDefinition[T], op string, v interface{}, mode valueMode) FilterDefinition[T] {
	return fieldFilter[T]{field: field, op: op, value: v, mode: mode}
}

// Eq matches documents where field equals v.
func (b FilterBuilder[T]) Eq(field FieldDefinition[T], v interface{}) FilterDefinition[T] {
	return b.op(field, "", v, valueSingle)
}

// Ne matches documents where field does not equal v.
func (b FilterBuilder[T]) Ne(field FieldDefinition[T], v interface{}) FilterDefinition[T] {
	return b.op(field, "$ne", v, valueSingle)
}

// Gt matches documents where field is greater than v.
func (b FilterBuilder[T]) Gt(field FieldDefinition[T], v interface{}) FilterDefinition[T] {
	return b.op(field, "$gt", v, valueSingle)
}

// Gte matches documents where field is greater than or equal to v.
func (b FilterBuilder[T]) Gte(field FieldDefinition[T], v interface{}) FilterDefinition[T] {
	return b.op(field, "$gte", v, valueSingle)
}

// Lt matches documents where field is less than v.
func (b FilterBuilder[T]) Lt(field FieldDefinition[T], v interface{}) FilterDefinition[T] {
	return b.op(field, "$lt", v, valueSingle)
}

// Lte matches documents where field is less than or equal to v.
func (b FilterBuilder[T]) Lte(field FieldDefinition[T], v interface{}) FilterDefinition[T] {
	return b.op(field, "$lte", v, valueSingle)
}

// In matches documents where field equals any element of values, which must
// be a slice.
func (b FilterBuilder[T]) In(field FieldDefinition[T], values interface{}) FilterDefinition[T] {
	return b.op(field, "$in", values, valueItems)
}

// Nin matches documents where field equals no element of values.
func (b FilterBuilder[T]) Nin(field FieldDefinition[T], values interface{}) FilterDefinition[T] {
	return b.op(field, "$nin", values, valueItems)
}

// All matches documents whose array field contains every element of values.
func (b FilterBuilder[T]) All(field FieldDefinition[T], values interface{}) FilterDefinition[T] {
	return b.op(field, "$all", values, valueItems)
}

// Exists matches documents that contain (or lack) field.
func (b FilterBuilder[T]) Exists(field FieldDefinition[T], exists bool) FilterDefinition[T] {
	return b.op(field, "$exists", exists, valueRaw)
}

// Type matches documents where field has the BSON type t.
func (b FilterBuilder[T]) Type(field FieldDefinition[T], t bsontype.Type) FilterDefinition[T] {
	return b.op(field, "$type", int32(t), valueRaw)
}

// Size matches documents whose array field has exactly n elements.
func (b FilterBuilder[T]) Size(field FieldDefinition[T], n int) FilterDefinition[T] {
	return b.op(field, "$size", int32(n), valueRaw)
}

// Regex matches documents where field matches the regular expression.
func (b FilterBuilder[T]) Regex(field FieldDefinition[T], pattern, options string) FilterDefinition[T] {
	return b.op(field, "", primitive.Regex{Pattern: pattern, Options: options}, valueRaw)
}

// Text performs a $text search. An empty language uses the index default.
func (FilterBuilder[T]) Text(search, language string) FilterDefinition[T] {
	body := bson.D{{Key: "$search", Value: search}}
	if language != "" {
		body = append(body, bson.E{Key: "$language", Value: language})
	}
	return documentFilter[T]{doc: bson.D{{Key: "$text", Value: body}}}
}

// JavaScript matches documents satisfying a server side $where function.
func (FilterBuilder[T]) JavaScript(code string) FilterDefinition[T] {
	return documentFilter[T]{doc: bson.D{{Key: "$where", Value: primitive.JavaScript(code)}}}
}

// And matches documents satisfying every filter.
func (FilterBuilder[T]) And(filters ...FilterDefinition[T]) FilterDefinition[T] {
	return combinedFilter[T]{op: "$and", filters: append([]FilterDefinition[T](nil), filters...)}
}

// Or matches documents satisfying at least one filter.
func (FilterBuilder[T]) Or(filters ...FilterDefinition[T]) FilterDefinition[T] {
	return combinedFilter[T]{op: "$or", filters: append([]FilterDefinition[T](nil), filters...)}
}

// Not matches documents that do not satisfy filter.
func (FilterBuilder[T]) Not(filter FilterDefinition[T]) FilterDefinition[T] {
	return notFilter[T]{filter: filter}
}

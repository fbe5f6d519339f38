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

// UpdateDefinition modifies documents of type T.
type UpdateDefinition[T any] interface {
	Render(s serializer.Serializer, r serializer.Registry) (bson.D, error)
	isUpdate(*T)
}

type documentUpdate[T any] struct{ doc bson.D }

func (u documentUpdate[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return copyDocument(u.doc), nil
}

func (documentUpdate[T]) isUpdate(*T) {}

type jsonUpdate[T any] struct{ json string }

func (u jsonUpdate[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return parseJSON(u.json)
}

func (jsonUpdate[T]) isUpdate(*T) {}

type fieldUpdate[T any] struct {
	op    string
	field FieldDefinition[T]
	value interface{}
	mode  valueMode
	// each wraps the encoded items in {$each: [...]}.
	each bool
}

func (u fieldUpdate[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := u.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	v, err := encodeFieldValue(rf, r, u.value, u.mode)
	if err != nil {
		return nil, err
	}
	if u.each {
		v = bson.D{{Key: "$each", Value: v}}
	}
	return bson.D{{Key: u.op, Value: bson.D{{Key: rf.FieldName, Value: v}}}}, nil
}

func (fieldUpdate[T]) isUpdate(*T) {}

type pullFilterUpdate[T, TItem any] struct {
	field  FieldDefinition[T]
	filter FilterDefinition[TItem]
}

func (u pullFilterUpdate[T, TItem]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := u.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	item, err := itemSerializer[TItem](rf, r)
	if err != nil {
		return nil, err
	}
	cond, err := u.filter.Render(item, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: "$pull", Value: bson.D{{Key: rf.FieldName, Value: cond}}}}, nil
}

func (pullFilterUpdate[T, TItem]) isUpdate(*T) {}

type combinedUpdate[T any] struct {
	updates []UpdateDefinition[T]
}

func (u combinedUpdate[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	out := bson.D{}
	for i, child := range u.updates {
		doc, err := child.Render(s, r)
		if err != nil {
			return nil, errors.Wrapf(err, "update %d", i)
		}
		for _, e := range doc {
			out = mergeOperator(out, e)
		}
	}
	return out, nil
}

func (combinedUpdate[T]) isUpdate(*T) {}

// mergeOperator folds the fields of an update operator into out. Operators
// keep their first position; within an operator the later field wins.
func mergeOperator(out bson.D, e bson.E) bson.D {
	body, isDoc := docutil.AsDocument(e.Value)
	for i := range out {
		if out[i].Key != e.Key {
			continue
		}
		prev, ok := docutil.AsDocument(out[i].Value)
		if !ok || !isDoc {
			out[i].Value = e.Value
			return out
		}
		merged := copyDocument(prev)
		for _, field := range body {
			merged = docutil.Set(merged, field.Key, field.Value)
		}
		out[i].Value = merged
		return out
	}
	return append(out, e)
}

type objectUpdate[T any] struct{ object objectValue }

func (u objectUpdate[T]) Render(_ serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return u.object.render(r)
}

func (objectUpdate[T]) isUpdate(*T) {}

// UpdateFromDocument uses doc as the update.
func UpdateFromDocument[T any](doc bson.D) UpdateDefinition[T] {
	return documentUpdate[T]{doc: copyDocument(doc)}
}

// UpdateFromJSON uses an extended JSON document as the update.
func UpdateFromJSON[T any](json string) UpdateDefinition[T] {
	return jsonUpdate[T]{json: json}
}

// UpdateFromValue uses v, which must encode as a document, as the update.
func UpdateFromValue[T, V any](v V) UpdateDefinition[T] {
	return objectUpdate[T]{object: staticObject(v)}
}

// UpdateFromDynamic uses v as the update, looking its serializer up from its
// runtime type.
func UpdateFromDynamic[T any](v interface{}) UpdateDefinition[T] {
	return objectUpdate[T]{object: dynamicObject(v)}
}

// PullFilter removes every element of an array field matching filter.
func PullFilter[T, TItem any](field FieldDefinition[T], filter FilterDefinition[TItem]) UpdateDefinition[T] {
	return pullFilterUpdate[T, TItem]{field: field, filter: filter}
}

// UpdateBuilder creates updates over T.
type UpdateBuilder[T any] struct{}

// Update returns an UpdateBuilder for T.
func Update[T any]() UpdateBuilder[T] { return UpdateBuilder[T]{} }

// Document uses doc as the update.
func (UpdateBuilder[T]) Document(doc bson.D) UpdateDefinition[T] { return UpdateFromDocument[T](doc) }

// JSON uses an extended JSON document as the update.
func (UpdateBuilder[T]) JSON(json string) UpdateDefinition[T] { return UpdateFromJSON[T](json) }

func (UpdateBuilder[T]) op(op string, field FieldDefinition[T], v interface{}, mode valueMode) UpdateDefinition[T] {
	return fieldUpdate[T]{op: op, field: field, value: v, mode: mode}
}

// Set sets field to v.
func (b UpdateBuilder[T]) Set(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$set", field, v, valueSingle)
}

// SetOnInsert sets field to v when an upsert inserts a document.
func (b UpdateBuilder[T]) SetOnInsert(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$setOnInsert", field, v, valueSingle)
}

// Unset removes field.
func (b UpdateBuilder[T]) Unset(field FieldDefinition[T]) UpdateDefinition[T] {
	return b.op("$unset", field, "", valueRaw)
}

// Inc increments field by v.
func (b UpdateBuilder[T]) Inc(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$inc", field, v, valueSingle)
}

// Mul multiplies field by v.
func (b UpdateBuilder[T]) Mul(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$mul", field, v, valueSingle)
}

// Min sets field to v if v is less than the current value.
func (b UpdateBuilder[T]) Min(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$min", field, v, valueSingle)
}

// Max sets field to v if v is greater than the current value.
func (b UpdateBuilder[T]) Max(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$max", field, v, valueSingle)
}

// Rename renames field to newName.
func (b UpdateBuilder[T]) Rename(field FieldDefinition[T], newName string) UpdateDefinition[T] {
	return b.op("$rename", field, newName, valueRaw)
}

// CurrentDate sets field to the current date.
func (b UpdateBuilder[T]) CurrentDate(field FieldDefinition[T]) UpdateDefinition[T] {
	return b.op("$currentDate", field, true, valueRaw)
}

// CurrentTimestamp sets field to the current timestamp.
func (b UpdateBuilder[T]) CurrentTimestamp(field FieldDefinition[T]) UpdateDefinition[T] {
	return b.op("$currentDate", field, bson.D{{Key: "$type", Value: "timestamp"}}, valueRaw)
}

// Push appends v to an array field.
func (b UpdateBuilder[T]) Push(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$push", field, v, valueSingle)
}

// PushEach appends every element of values to an array field.
func (UpdateBuilder[T]) PushEach(field FieldDefinition[T], values interface{}) UpdateDefinition[T] {
	return fieldUpdate[T]{op: "$push", field: field, value: values, mode: valueItems, each: true}
}

// AddToSet adds v to an array field unless it is already present.
func (b UpdateBuilder[T]) AddToSet(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$addToSet", field, v, valueSingle)
}

// AddToSetEach adds every element of values to an array field unless it is
// already present.
func (UpdateBuilder[T]) AddToSetEach(field FieldDefinition[T], values interface{}) UpdateDefinition[T] {
	return fieldUpdate[T]{op: "$addToSet", field: field, value: values, mode: valueItems, each: true}
}

// Pull removes every occurrence of v from an array field.
func (b UpdateBuilder[T]) Pull(field FieldDefinition[T], v interface{}) UpdateDefinition[T] {
	return b.op("$pull", field, v, valueSingle)
}

// PullAll removes every occurrence of each element of values from an array
// field.
func (b UpdateBuilder[T]) PullAll(field FieldDefinition[T], values interface{}) UpdateDefinition[T] {
	return b.op("$pullAll", field, values, valueItems)
}

// PopFirst removes the first element of an array field.
func (b UpdateBuilder[T]) PopFirst(field FieldDefinition[T]) UpdateDefinition[T] {
	return b.op("$pop", field, int32(-1), valueRaw)
}

// PopLast removes the last element of an array field.
func (b UpdateBuilder[T]) PopLast(field FieldDefinition[T]) UpdateDefinition[T] {
	return b.op("$pop", field, int32(1), valueRaw)
}

// Combine merges updates. Fields under the same operator are merged and the
// later value for a field wins.
func (UpdateBuilder[T]) Combine(updates ...UpdateDefinition[T]) UpdateDefinition[T] {
	return combinedUpdate[T]{updates: append([]UpdateDefinition[T](nil), updates...)}
}

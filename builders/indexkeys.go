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

// IndexKeysDefinition describes the keys of an index over documents of
// type T.
type IndexKeysDefinition[T any] interface {
	Render(s serializer.Serializer, r serializer.Registry) (bson.D, error)
	isIndexKeys(*T)
}

type documentIndexKeys[T any] struct{ doc bson.D }

func (k documentIndexKeys[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return copyDocument(k.doc), nil
}

func (documentIndexKeys[T]) isIndexKeys(*T) {}

type jsonIndexKeys[T any] struct{ json string }

func (k jsonIndexKeys[T]) Render(serializer.Serializer, serializer.Registry) (bson.D, error) {
	return parseJSON(k.json)
}

func (jsonIndexKeys[T]) isIndexKeys(*T) {}

type fieldIndexKeys[T any] struct {
	field FieldDefinition[T]
	value interface{}
}

func (k fieldIndexKeys[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := k.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: rf.FieldName, Value: k.value}}, nil
}

func (fieldIndexKeys[T]) isIndexKeys(*T) {}

type combinedIndexKeys[T any] struct {
	keys []IndexKeysDefinition[T]
}

func (k combinedIndexKeys[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	out := bson.D{}
	for _, child := range k.keys {
		doc, err := child.Render(s, r)
		if err != nil {
			return nil, err
		}
		for _, e := range doc {
			if _, dup := docutil.Lookup(out, e.Key); dup {
				return nil, &DuplicateIndexKeyError{Field: e.Key}
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (combinedIndexKeys[T]) isIndexKeys(*T) {}

type objectIndexKeys[T any] struct{ object objectValue }

func (k objectIndexKeys[T]) Render(_ serializer.Serializer, r serializer.Registry) (bson.D, error) {
	return k.object.render(r)
}

func (objectIndexKeys[T]) isIndexKeys(*T) {}

// IndexKeysFromDocument uses doc as the index keys.
func IndexKeysFromDocument[T any](doc bson.D) IndexKeysDefinition[T] {
	return documentIndexKeys[T]{doc: copyDocument(doc)}
}

// IndexKeysFromJSON uses an extended JSON document as the index keys.
func IndexKeysFromJSON[T any](json string) IndexKeysDefinition[T] {
	return jsonIndexKeys[T]{json: json}
}

// IndexKeysFromValue uses v, which must encode as a document, as the index
// keys.
func IndexKeysFromValue[T, V any](v V) IndexKeysDefinition[T] {
	return objectIndexKeys[T]{object: staticObject(v)}
}

// IndexKeysFromDynamic uses v as the index keys, looking its serializer up
// from its runtime type.
func IndexKeysFromDynamic[T any](v interface{}) IndexKeysDefinition[T] {
	return objectIndexKeys[T]{object: dynamicObject(v)}
}

// IndexKeysBuilder creates index keys over T.
type IndexKeysBuilder[T any] struct{}

// IndexKeys returns an IndexKeysBuilder for T.
func IndexKeys[T any]() IndexKeysBuilder[T] { return IndexKeysBuilder[T]{} }

// Document uses doc as the index keys.
func (IndexKeysBuilder[T]) Document(doc bson.D) IndexKeysDefinition[T] {
	return IndexKeysFromDocument[T](doc)
}

// JSON uses an extended JSON document as the index keys.
func (IndexKeysBuilder[T]) JSON(json string) IndexKeysDefinition[T] {
	return IndexKeysFromJSON[T](json)
}

func (IndexKeysBuilder[T]) key(field FieldDefinition[T], v interface{}) IndexKeysDefinition[T] {
	return fieldIndexKeys[T]{field: field, value: v}
}

// Ascending creates an ascending key on field.
func (b IndexKeysBuilder[T]) Ascending(field FieldDefinition[T]) IndexKeysDefinition[T] {
	return b.key(field, int32(1))
}

// Descending creates a descending key on field.
func (b IndexKeysBuilder[T]) Descending(field FieldDefinition[T]) IndexKeysDefinition[T] {
	return b.key(field, int32(-1))
}

// Text creates a text key on field.
func (b IndexKeysBuilder[T]) Text(field FieldDefinition[T]) IndexKeysDefinition[T] {
	return b.key(field, "text")
}

// Hashed creates a hashed key on field.
func (b IndexKeysBuilder[T]) Hashed(field FieldDefinition[T]) IndexKeysDefinition[T] {
	return b.key(field, "hashed")
}

// Geo2D creates a 2d key on field.
func (b IndexKeysBuilder[T]) Geo2D(field FieldDefinition[T]) IndexKeysDefinition[T] {
	return b.key(field, "2d")
}

// Geo2DSphere creates a 2dsphere key on field.
func (b IndexKeysBuilder[T]) Geo2DSphere(field FieldDefinition[T]) IndexKeysDefinition[T] {
	return b.key(field, "2dsphere")
}

// Wildcard creates a wildcard key. A nil field indexes every field, otherwise
// every subfield of field.
func (IndexKeysBuilder[T]) Wildcard(field FieldDefinition[T]) IndexKeysDefinition[T] {
	if field == nil {
		return documentIndexKeys[T]{doc: bson.D{{Key: "$**", Value: int32(1)}}}
	}
	return wildcardIndexKeys[T]{field: field}
}

type wildcardIndexKeys[T any] struct{ field FieldDefinition[T] }

func (k wildcardIndexKeys[T]) Render(s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	rf, err := k.field.Render(s, r)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: rf.FieldName + ".$**", Value: int32(1)}}, nil
}

func (wildcardIndexKeys[T]) isIndexKeys(*T) {}

// Combine concatenates index keys. Naming the same field twice fails with a
// *DuplicateIndexKeyError when rendered.
func (IndexKeysBuilder[T]) Combine(keys ...IndexKeysDefinition[T]) IndexKeysDefinition[T] {
	return combinedIndexKeys[T]{keys: append([]IndexKeysDefinition[T](nil), keys...)}
}

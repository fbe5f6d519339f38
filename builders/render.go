// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"reflect"

	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DocumentRenderer is implemented by every definition that renders to a
// single document: filters, projections, sorts, updates and index keys.
type DocumentRenderer interface {
	Render(s serializer.Serializer, r serializer.Registry) (bson.D, error)
}

// RenderDocument renders d against the serializer registered for T.
func RenderDocument[T any](d DocumentRenderer, r serializer.Registry) (bson.D, error) {
	s, err := serializer.For[T](r)
	if err != nil {
		return nil, err
	}
	return d.Render(s, r)
}

func parseJSON(json string) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(json), false, &doc); err != nil {
		return nil, errors.Wrap(err, "cannot parse JSON definition")
	}
	return doc, nil
}

func copyDocument(d bson.D) bson.D {
	if d == nil {
		return bson.D{}
	}
	return append(bson.D(nil), d...)
}

// valueMode selects how the value of a field operator is encoded.
type valueMode int

const (
	// valueSingle encodes the value with the field's serializer.
	valueSingle valueMode = iota
	// valueItems encodes every element of a slice value with the field's
	// serializer.
	valueItems
	// valueRaw leaves the value untouched.
	valueRaw
)

func encodeFieldValue(rf RenderedField, r serializer.Registry, v interface{}, mode valueMode) (interface{}, error) {
	switch mode {
	case valueRaw:
		return v, nil
	case valueItems:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, errors.Errorf("field %s: expected a slice of values, got %T", rf.FieldName, v)
		}
		items := make(bson.A, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := rf.SerializeValue(r, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
	return rf.SerializeValue(r, v)
}

// objectValue wraps an arbitrary Go value that must encode as a document.
type objectValue struct {
	value interface{}
	// typ is nil for dynamic wrappers, whose serializer is looked up from the
	// runtime type of value.
	typ reflect.Type
}

func (ov objectValue) render(r serializer.Registry) (bson.D, error) {
	typ := ov.typ
	if typ == nil {
		if ov.value == nil {
			return bson.D{}, nil
		}
		typ = reflect.TypeOf(ov.value)
	}
	s, err := r.Serializer(typ)
	if err != nil {
		return nil, err
	}
	rv, err := s.Serialize(ov.value)
	if err != nil {
		return nil, err
	}
	if rv.Type != bsontype.EmbeddedDocument {
		return nil, &serializer.NotDocumentError{Type: typ, BSONType: rv.Type.String()}
	}
	var doc bson.D
	if err := bson.Unmarshal(rv.Value, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func staticObject[V any](v V) objectValue {
	return objectValue{value: v, typ: serializer.TypeOf[V]()}
}

func dynamicObject(v interface{}) objectValue {
	return objectValue{value: v}
}

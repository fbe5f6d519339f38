// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"github.com/ikmak/mongo-go-builders/serializer"
	"go.mongodb.org/mongo-driver/bson"
)

// RenderedField is a field resolved against a source serializer.
type RenderedField struct {
	FieldName string
	// FieldSerializer is nil when the field could not be resolved through
	// member serialization info.
	FieldSerializer serializer.Serializer
}

// SerializeValue encodes v as a value of the field.
func (rf RenderedField) SerializeValue(r serializer.Registry, v interface{}) (bson.RawValue, error) {
	return serializer.SerializeFor(rf.FieldSerializer, r, v)
}

// FieldDefinition is a reference to a field of T.
type FieldDefinition[T any] interface {
	Render(s serializer.Serializer, r serializer.Registry) (RenderedField, error)
	isField(*T)
}

type stringField[T any] struct {
	name string
}

// Field references a field of T by its dotted element name. Segments matching
// members of T are translated to their element names; unknown segments are
// used as written.
func Field[T any](name string) FieldDefinition[T] {
	return stringField[T]{name: name}
}

func (sf stringField[T]) Render(s serializer.Serializer, _ serializer.Registry) (RenderedField, error) {
	name, fs := serializer.ResolveFieldName(s, sf.name)
	return RenderedField{FieldName: name, FieldSerializer: fs}, nil
}

func (stringField[T]) isField(*T) {}

type memberField[T any] struct {
	members []string
}

// Member references a field of T by the chain of Go struct members that
// reaches it, for example Member[Person]("Address", "City"). Every member
// must be described by its enclosing serializer.
func Member[T any](members ...string) FieldDefinition[T] {
	return memberField[T]{members: append([]string(nil), members...)}
}

func (mf memberField[T]) Render(s serializer.Serializer, _ serializer.Registry) (RenderedField, error) {
	name, fs, err := serializer.ResolveMemberPath(s, mf.members...)
	if err != nil {
		return RenderedField{}, err
	}
	return RenderedField{FieldName: name, FieldSerializer: fs}, nil
}

func (memberField[T]) isField(*T) {}

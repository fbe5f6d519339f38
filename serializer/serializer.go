// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package serializer maps Go types to serializers that describe how values of
// those types appear on the wire. Serializers are consumed by the builders
// package to translate typed field references into element names and to
// encode filter values.
package serializer

import (
	"math"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Serializer converts values of a single Go type into BSON values.
type Serializer interface {
	// ValueType is the Go type this serializer was constructed for.
	ValueType() reflect.Type
	// Serialize encodes val. A nil val encodes as BSON null.
	Serialize(val interface{}) (bson.RawValue, error)
}

// MemberInfo is the wire name and serializer of a single document member.
type MemberInfo struct {
	ElementName string
	Serializer  Serializer
}

// DocumentSerializer is implemented by serializers whose values encode as
// embedded documents and which can describe their members.
type DocumentSerializer interface {
	Serializer
	// MemberSerializationInfo looks up a member either by its Go field name or
	// by its element name.
	MemberSerializationInfo(name string) (MemberInfo, bool)
}

// ArraySerializer is implemented by serializers whose values encode as BSON
// arrays.
type ArraySerializer interface {
	Serializer
	ItemSerializer() Serializer
}

// Registry looks up serializers by Go type.
type Registry interface {
	Serializer(t reflect.Type) (Serializer, error)
	// Codecs returns the codec registry used for dynamic encoding.
	Codecs() *bsoncodec.Registry
}

// TypeOf returns the reflect.Type for T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// For is a convenience wrapper that looks up the serializer for T.
func For[T any](r Registry) (Serializer, error) {
	return r.Serializer(TypeOf[T]())
}

// SerializeDynamic encodes val using its runtime type.
func SerializeDynamic(r Registry, val interface{}) (bson.RawValue, error) {
	if val == nil {
		return bson.RawValue{Type: bsontype.Null}, nil
	}
	if rv, ok := val.(bson.RawValue); ok {
		return rv, nil
	}
	s, err := r.Serializer(reflect.TypeOf(val))
	if err != nil {
		return bson.RawValue{}, err
	}
	return s.Serialize(val)
}

func marshalValue(codecs *bsoncodec.Registry, t reflect.Type, val interface{}) (bson.RawValue, error) {
	if val == nil {
		return bson.RawValue{Type: bsontype.Null}, nil
	}
	if rv, ok := val.(bson.RawValue); ok {
		return rv, nil
	}
	val = convertNumeric(t, val)
	typ, data, err := bson.MarshalValueWithRegistry(codecs, val)
	if err != nil {
		return bson.RawValue{}, err
	}
	return bson.RawValue{Type: typ, Value: data}, nil
}

// convertNumeric converts numeric values to the serializer's numeric type so
// that Eq(Member("Age"), 18) encodes as the declared width of Age.
func convertNumeric(t reflect.Type, val interface{}) interface{} {
	if t == nil || !isNumericKind(t.Kind()) {
		return val
	}
	rv := reflect.ValueOf(val)
	if rv.Type() == t || !isNumericKind(rv.Kind()) {
		return val
	}
	if !fitsNumeric(rv, t) {
		return val
	}
	converted := rv.Convert(t)
	if converted.Convert(rv.Type()).Interface() != val {
		// lossy, keep the caller's value
		return val
	}
	return converted.Interface()
}

// fitsNumeric reports whether rv lies within the range of t. Conversions
// that wrap or truncate out-of-range values round-trip on some platforms,
// so the range is checked before converting.
func fitsNumeric(rv reflect.Value, t reflect.Type) bool {
	switch {
	case rv.CanInt():
		n := rv.Int()
		switch {
		case isUnsignedKind(t.Kind()):
			return n >= 0 && !reflect.Zero(t).OverflowUint(uint64(n))
		case isFloatKind(t.Kind()):
			return true
		default:
			return !reflect.Zero(t).OverflowInt(n)
		}
	case rv.CanUint():
		n := rv.Uint()
		switch {
		case isUnsignedKind(t.Kind()):
			return !reflect.Zero(t).OverflowUint(n)
		case isFloatKind(t.Kind()):
			return true
		default:
			return n <= math.MaxInt64 && !reflect.Zero(t).OverflowInt(int64(n))
		}
	default:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return isFloatKind(t.Kind())
		}
		switch {
		case isFloatKind(t.Kind()):
			return !reflect.Zero(t).OverflowFloat(f)
		case f != math.Trunc(f):
			return false
		case isUnsignedKind(t.Kind()):
			return f >= 0 && f < math.Exp2(float64(t.Bits()))
		default:
			limit := math.Exp2(float64(t.Bits() - 1))
			return f >= -limit && f < limit
		}
	}
}

func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// SerializeFor encodes val with the serializer of a field. A nil fs falls
// back to SerializeDynamic. A value compared against an array field that is
// not itself assignable to the array type is encoded with the item
// serializer, so Eq("tags", "go") encodes "go" as a string element.
func SerializeFor(fs Serializer, r Registry, val interface{}) (bson.RawValue, error) {
	if fs == nil {
		return SerializeDynamic(r, val)
	}
	if as, ok := fs.(ArraySerializer); ok && val != nil {
		if _, isRaw := val.(bson.RawValue); !isRaw && !reflect.TypeOf(val).AssignableTo(fs.ValueType()) {
			if item := as.ItemSerializer(); item != nil {
				return item.Serialize(val)
			}
		}
	}
	return fs.Serialize(val)
}

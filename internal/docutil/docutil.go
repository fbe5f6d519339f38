// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package docutil contains helpers for combining rendered query documents.
package docutil

import (
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsOperator reports whether key is a query or update operator.
func IsOperator(key string) bool {
	return strings.HasPrefix(key, "$")
}

// AsDocument returns v as a bson.D if v is a document value. bson.M values
// are converted in the map's iteration order, so callers should only rely on
// the result for single-key maps.
func AsDocument(v interface{}) (bson.D, bool) {
	switch t := v.(type) {
	case bson.D:
		return t, true
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(t, &d); err != nil {
			return nil, false
		}
		return d, true
	case bson.RawValue:
		if t.Type != bsontype.EmbeddedDocument {
			return nil, false
		}
		return AsDocument(bson.Raw(t.Value))
	case bson.M:
		d := make(bson.D, 0, len(t))
		for k, val := range t {
			d = append(d, bson.E{Key: k, Value: val})
		}
		return d, true
	}
	return nil, false
}

// ToDocument converts any value that marshals to a BSON document into a
// bson.D.
func ToDocument(v interface{}) (bson.D, error) {
	if v == nil {
		return bson.D{}, nil
	}
	if d, ok := AsDocument(v); ok {
		return d, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot convert %T to a document", v)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "cannot convert %T to a document", v)
	}
	return d, nil
}

// And combines filters with $and. Empty filters are skipped, nested $and
// clauses are flattened and a single remaining filter is returned unchanged.
func And(filters ...bson.D) bson.D {
	return combine("$and", filters, false)
}

// Or combines filters with $or. An empty filter matches every document, so
// its presence makes the whole disjunction empty.
func Or(filters ...bson.D) bson.D {
	return combine("$or", filters, true)
}

func combine(op string, filters []bson.D, emptyAbsorbs bool) bson.D {
	clauses := make(bson.A, 0, len(filters))
	for _, f := range filters {
		if len(f) == 0 {
			if emptyAbsorbs {
				return bson.D{}
			}
			continue
		}
		if len(f) == 1 && f[0].Key == op {
			if nested, ok := asArray(f[0].Value); ok {
				clauses = append(clauses, nested...)
				continue
			}
		}
		clauses = append(clauses, f)
	}

	switch len(clauses) {
	case 0:
		return bson.D{}
	case 1:
		if d, ok := AsDocument(clauses[0]); ok {
			return d
		}
	}
	return bson.D{{Key: op, Value: clauses}}
}

// MergeAnd combines two filters that must both match. When the filters share
// no top-level keys and contain no top-level operators their elements are
// merged into a single document, otherwise they are wrapped in $and.
func MergeAnd(a, b bson.D) bson.D {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	keys := make(map[string]bool, len(a))
	for _, e := range a {
		if IsOperator(e.Key) {
			return And(a, b)
		}
		keys[e.Key] = true
	}
	for _, e := range b {
		if IsOperator(e.Key) || keys[e.Key] {
			return And(a, b)
		}
	}
	merged := make(bson.D, 0, len(a)+len(b))
	merged = append(merged, a...)
	return append(merged, b...)
}

// Not negates a filter.
func Not(filter bson.D) bson.D {
	if len(filter) != 1 {
		return bson.D{{Key: "$nor", Value: bson.A{filter}}}
	}

	elem := filter[0]
	switch elem.Key {
	case "$or":
		if clauses, ok := asArray(elem.Value); ok {
			return bson.D{{Key: "$nor", Value: clauses}}
		}
	case "$nor":
		if clauses, ok := asArray(elem.Value); ok {
			return Or(toDocuments(clauses)...)
		}
	}
	if IsOperator(elem.Key) {
		return bson.D{{Key: "$nor", Value: bson.A{filter}}}
	}

	if isRegex(elem.Value) {
		return bson.D{{Key: elem.Key, Value: bson.D{{Key: "$not", Value: elem.Value}}}}
	}
	ops, ok := AsDocument(elem.Value)
	if !ok || len(ops) == 0 || !IsOperator(ops[0].Key) {
		return bson.D{{Key: elem.Key, Value: bson.D{{Key: "$ne", Value: elem.Value}}}}
	}
	if len(ops) == 1 {
		op := ops[0]
		switch op.Key {
		case "$in":
			return bson.D{{Key: elem.Key, Value: bson.D{{Key: "$nin", Value: op.Value}}}}
		case "$nin":
			return bson.D{{Key: elem.Key, Value: bson.D{{Key: "$in", Value: op.Value}}}}
		case "$ne":
			return bson.D{{Key: elem.Key, Value: bson.D{{Key: "$eq", Value: op.Value}}}}
		case "$not":
			return bson.D{{Key: elem.Key, Value: op.Value}}
		}
	}
	return bson.D{{Key: elem.Key, Value: bson.D{{Key: "$not", Value: ops}}}}
}

// Set replaces the value of key in d or appends it. The replaced element
// moves to the end of the document.
func Set(d bson.D, key string, value interface{}) bson.D {
	d = Remove(d, key)
	return append(d, bson.E{Key: key, Value: value})
}

// Remove returns d without key.
func Remove(d bson.D, key string) bson.D {
	for i, e := range d {
		if e.Key == key {
			out := make(bson.D, 0, len(d)-1)
			out = append(out, d[:i]...)
			return append(out, d[i+1:]...)
		}
	}
	return d
}

// Lookup returns the value stored under key.
func Lookup(d bson.D, key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func asArray(v interface{}) (bson.A, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []bson.D:
		out := make(bson.A, 0, len(t))
		for _, d := range t {
			out = append(out, d)
		}
		return out, true
	case []interface{}:
		return bson.A(t), true
	case bson.RawValue:
		if t.Type != bsontype.Array {
			return nil, false
		}
		values, err := bson.Raw(t.Value).Values()
		if err != nil {
			return nil, false
		}
		out := make(bson.A, 0, len(values))
		for _, rv := range values {
			out = append(out, rv)
		}
		return out, true
	}
	return nil, false
}

func toDocuments(a bson.A) []bson.D {
	out := make([]bson.D, 0, len(a))
	for _, v := range a {
		if d, ok := AsDocument(v); ok {
			out = append(out, d)
		}
	}
	return out
}

func isRegex(v interface{}) bool {
	switch t := v.(type) {
	case primitive.Regex:
		return true
	case bson.RawValue:
		return t.Type == bsontype.Regex
	}
	return false
}

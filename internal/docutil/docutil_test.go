// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package docutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func d(key string, v interface{}) bson.D { return bson.D{{Key: key, Value: v}} }

func TestAndOr(t *testing.T) {
	t.Parallel()

	a := d("a", 1)
	b := d("b", 2)
	c := d("c", 3)

	testCases := []struct {
		name     string
		got      bson.D
		expected bson.D
	}{
		{"and of nothing", And(), bson.D{}},
		{"and skips empty", And(bson.D{}, a), a},
		{"and of two", And(a, b), d("$and", bson.A{a, b})},
		{"and flattens", And(d("$and", bson.A{a, b}), c), d("$and", bson.A{a, b, c})},
		{"and flattens []bson.D", And(d("$and", []bson.D{a}), b), d("$and", bson.A{a, b})},
		{"or of two", Or(a, b), d("$or", bson.A{a, b})},
		{"or absorbed by empty", Or(a, bson.D{}), bson.D{}},
		{"or flattens", Or(a, d("$or", bson.A{b, c})), d("$or", bson.A{a, b, c})},
		{"or keeps nested and", Or(a, d("$and", bson.A{b, c})), d("$or", bson.A{a, d("$and", bson.A{b, c})})},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, tc.got)
		})
	}
}

func TestMergeAnd(t *testing.T) {
	t.Parallel()

	a := d("a", 1)
	b := d("b", 2)

	assert.Equal(t, bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, MergeAnd(a, b))
	assert.Equal(t, d("$and", bson.A{a, d("a", 2)}), MergeAnd(a, d("a", 2)))
	assert.Equal(t, d("$and", bson.A{d("$or", bson.A{a}), b}), MergeAnd(d("$or", bson.A{a}), b))
	assert.Equal(t, a, MergeAnd(bson.D{}, a))
	assert.Equal(t, b, MergeAnd(b, nil))
}

func TestNot(t *testing.T) {
	t.Parallel()

	re := primitive.Regex{Pattern: "^a"}

	testCases := []struct {
		name     string
		filter   bson.D
		expected bson.D
	}{
		{"equality", d("a", 1), d("a", d("$ne", 1))},
		{"in", d("a", d("$in", bson.A{1})), d("a", d("$nin", bson.A{1}))},
		{"nin", d("a", d("$nin", bson.A{1})), d("a", d("$in", bson.A{1}))},
		{"ne", d("a", d("$ne", 1)), d("a", d("$eq", 1))},
		{"double negation", d("a", d("$not", d("$gt", 1))), d("a", d("$gt", 1))},
		{"operator", d("a", d("$gt", 1)), d("a", d("$not", d("$gt", 1)))},
		{"regex", d("a", re), d("a", d("$not", re))},
		{"or", d("$or", bson.A{d("a", 1), d("b", 2)}), d("$nor", bson.A{d("a", 1), d("b", 2)})},
		{"nor", d("$nor", bson.A{d("a", 1), d("b", 2)}), d("$or", bson.A{d("a", 1), d("b", 2)})},
		{"nor of one", d("$nor", bson.A{d("a", 1)}), d("a", 1)},
		{"multiple fields", bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}},
			d("$nor", bson.A{bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}}})},
		{"top-level operator", d("$text", d("$search", "x")), d("$nor", bson.A{d("$text", d("$search", "x"))})},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, Not(tc.filter))
		})
	}
}

func TestSetRemoveLookup(t *testing.T) {
	t.Parallel()

	doc := bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}}

	doc = Set(doc, "a", 3)
	assert.Equal(t, bson.D{{Key: "b", Value: 2}, {Key: "a", Value: 3}}, doc)

	doc = Set(doc, "c", 4)
	v, ok := Lookup(doc, "c")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	doc = Remove(doc, "b")
	_, ok = Lookup(doc, "b")
	assert.False(t, ok)
	assert.Equal(t, bson.D{{Key: "a", Value: 3}, {Key: "c", Value: 4}}, doc)
	assert.Equal(t, doc, Remove(doc, "missing"))
}

func TestToDocument(t *testing.T) {
	t.Parallel()

	type point struct {
		X int32 `bson:"x"`
		Y int32 `bson:"y"`
	}

	got, err := ToDocument(point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "x", Value: int32(1)}, {Key: "y", Value: int32(2)}}, got)

	got, err = ToDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, got)

	raw, err := bson.Marshal(bson.D{{Key: "k", Value: "v"}})
	require.NoError(t, err)
	got, ok := AsDocument(bson.Raw(raw))
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "k", Value: "v"}}, got)

	_, err = ToDocument(42)
	assert.Error(t, err)

	assert.True(t, IsOperator("$set"))
	assert.False(t, IsOperator("set"))
}

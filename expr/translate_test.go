// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type line struct {
	SKU string `bson:"sku"`
	Qty int32  `bson:"qty"`
}

type order struct {
	Customer string   `bson:"customer"`
	Total    int32    `bson:"total"`
	Paid     bool     `bson:"paid"`
	Tags     []string `bson:"tags"`
	Lines    []line   `bson:"lines"`
}

func orderSerializer(t *testing.T) (serializer.Serializer, serializer.Registry) {
	t.Helper()

	r := serializer.NewRegistry(nil)
	s, err := serializer.For[order](r)
	require.NoError(t, err)
	return s, r
}

func requireJSON(t *testing.T, expected string, actual bson.D) {
	t.Helper()

	var want bson.D
	require.NoError(t, bson.UnmarshalExtJSON([]byte(expected), false, &want))
	wantJSON, err := bson.MarshalExtJSON(want, true, false)
	require.NoError(t, err)
	gotJSON, err := bson.MarshalExtJSON(actual, true, false)
	require.NoError(t, err)
	if diff := cmp.Diff(string(wantJSON), string(gotJSON)); diff != "" {
		t.Fatalf("translated document mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslatePredicate(t *testing.T) {
	t.Parallel()

	total := Field("Total")

	testCases := []struct {
		name     string
		expr     Expr
		expected string
	}{
		{"equal", Eq(Field("Customer"), Const("ada")), `{"customer": "ada"}`},
		{"not equal", Ne(total, Const(0)), `{"total": {"$ne": 0}}`},
		{"greater", Gt(total, Const(10)), `{"total": {"$gt": 10}}`},
		{"mirrored", Lt(Const(10), total), `{"total": {"$gt": 10}}`},
		{"mirrored gte", Gte(Const(5), total), `{"total": {"$lte": 5}}`},
		{"bool member", Field("Paid"), `{"paid": true}`},
		{"not bool member", Not(Field("Paid")), `{"paid": {"$ne": true}}`},
		{
			"and",
			And(Gt(total, Const(1)), Eq(Field("Paid"), Const(true))),
			`{"$and": [{"total": {"$gt": 1}}, {"paid": true}]}`,
		},
		{
			"and flattens",
			And(Gt(total, Const(1)), Lt(total, Const(9)), Field("Paid")),
			`{"$and": [{"total": {"$gt": 1}}, {"total": {"$lt": 9}}, {"paid": true}]}`,
		},
		{
			"or",
			Or(Eq(Field("Customer"), Const("a")), Eq(Field("Customer"), Const("b"))),
			`{"$or": [{"customer": "a"}, {"customer": "b"}]}`,
		},
		{
			"not or",
			Not(Or(Eq(Field("Customer"), Const("a")), Field("Paid"))),
			`{"$nor": [{"customer": "a"}, {"paid": true}]}`,
		},
		{"in", In(Field("Total"), []int{1, 2}), `{"total": {"$in": [1, 2]}}`},
		{"not in", Not(In(Field("Total"), []int{1})), `{"total": {"$nin": [1]}}`},
		{
			"any",
			Any(Field("Lines"), Gt(Field("Qty"), Const(2))),
			`{"lines": {"$elemMatch": {"qty": {"$gt": 2}}}}`,
		},
		{"true constant", Const(true), `{}`},
		{"empty and", And(), `{}`},
		{"false constant", Const(false), `{"$expr": false}`},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, r := orderSerializer(t)
			doc, err := DefaultTranslator.TranslatePredicate(tc.expr, s, r)
			require.NoError(t, err)
			requireJSON(t, tc.expected, doc)
		})
	}
}

func TestTranslateStringMethods(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		expr    Expr
		pattern string
	}{
		{"contains", Contains(Field("Customer"), Const("a.b")), `a\.b`},
		{"starts with", StartsWith(Field("Customer"), "ad"), "^ad"},
		{"ends with", EndsWith(Field("Customer"), "a+"), `a\+$`},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, r := orderSerializer(t)
			doc, err := DefaultTranslator.TranslatePredicate(tc.expr, s, r)
			require.NoError(t, err)
			assert.Equal(t, bson.D{{Key: "customer", Value: primitive.Regex{Pattern: tc.pattern}}}, doc)
		})
	}
}

func TestTranslateProjection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expr     Expr
		expected string
	}{
		{"member", Field("Customer"), `{"customer": 1, "_id": 0}`},
		{
			"renamed member",
			New(Named("who", Field("Customer")), Named("total", Field("Total"))),
			`{"who": "$customer", "total": 1, "_id": 0}`,
		},
		{
			"arithmetic",
			New(Named("double", Multiply(Field("Total"), Const(2)))),
			`{"double": {"$multiply": ["$total", {"$literal": 2}]}, "_id": 0}`,
		},
		{
			"comparison and boolean",
			New(Named("big", And(Gt(Field("Total"), Const(9)), Not(Field("Paid"))))),
			`{"big": {"$and": [{"$gt": ["$total", {"$literal": 9}]}, {"$not": ["$paid"]}]}, "_id": 0}`,
		},
		{
			"explicit id",
			New(Named("_id", Field("Customer"))),
			`{"_id": "$customer"}`,
		},
		{
			"later name wins",
			New(Named("x", Field("Total")), Named("y", Field("Paid")), Named("x", Field("Customer"))),
			`{"y": "$paid", "x": "$customer", "_id": 0}`,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, r := orderSerializer(t)
			doc, err := DefaultTranslator.TranslateProjection(tc.expr, s, r)
			require.NoError(t, err)
			requireJSON(t, tc.expected, doc)
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		projection bool
		expr       Expr
		kind       Kind
	}{
		{"arithmetic predicate", false, Add(Field("Total"), Const(1)), KindAdd},
		{"two members", false, Eq(Field("Total"), Field("Total")), KindEqual},
		{"non-bool member", false, Field("Customer"), KindMember},
		{"non-bool constant", false, Const(1), KindConstant},
		{"any on scalar", false, Any(Field("Customer"), Const(true)), KindCall},
		{"contains non-string", false, Contains(Field("Customer"), Const(1)), KindConstant},
		{"nil", false, nil, "<nil>"},
		{"typed nil member", false, (*MemberExpr)(nil), "<nil>"},
		{"typed nil comparison", false, (*BinaryExpr)(nil), "<nil>"},
		{"typed nil not", false, Not((*CallExpr)(nil)), "<nil>"},
		{"comparison with nil member", false, Gt((*MemberExpr)(nil), Const(1)), "<nil>"},
		{"comparison with nil constant", false, Eq(Field("Total"), (*ConstantExpr)(nil)), "<nil>"},
		{"starts with nil member", false, StartsWith(nil, "a"), "<nil>"},
		{"regex with nil argument", false, &CallExpr{Method: MethodStartsWith, Target: Field("Customer"), Args: []Expr{nil}}, "<nil>"},
		{"contains with typed nil argument", false, Contains(Field("Customer"), (*ConstantExpr)(nil)), "<nil>"},
		{"projection of typed nil", true, (*MemberExpr)(nil), "<nil>"},
		{"projection with nil field", true, New(Named("x", (*MemberExpr)(nil))), "<nil>"},
		{"projection with nil operand", true, New(Named("x", Add(Field("Total"), nil))), "<nil>"},
		{"projection of comparison", true, Gt(Field("Total"), Const(1)), KindGreater},
		{"projection of call", true, New(Named("x", StartsWith(Field("Customer"), "a"))), KindCall},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, r := orderSerializer(t)
			var err error
			if tc.projection {
				_, err = DefaultTranslator.TranslateProjection(tc.expr, s, r)
			} else {
				_, err = DefaultTranslator.TranslatePredicate(tc.expr, s, r)
			}
			var uee *UnsupportedExpressionError
			require.True(t, errors.As(err, &uee), "expected UnsupportedExpressionError, got %v", err)
			assert.Equal(t, tc.kind, uee.Kind)
		})
	}
}

func TestTranslateUnknownMember(t *testing.T) {
	t.Parallel()

	s, r := orderSerializer(t)
	_, err := DefaultTranslator.TranslatePredicate(Eq(Field("Missing"), Const(1)), s, r)
	var fnse *serializer.FieldNotSerializableError
	require.True(t, errors.As(err, &fnse), "expected FieldNotSerializableError, got %v", err)
	assert.Equal(t, "Missing", fnse.Member)
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"testing"

	"github.com/ikmak/mongo-go-builders/expr"
)

func TestProjectionRender(t *testing.T) {
	t.Parallel()

	p := Projection[Person]()
	name := Member[Person]("Name")

	testCases := []struct {
		name       string
		projection ProjectionDefinition[Person]
		expected   string
	}{
		{"include", p.Include(name), `{"name": 1}`},
		{"exclude", p.Exclude(Member[Person]("ID")), `{"_id": 0}`},
		{"slice", p.Slice(Member[Person]("Tags"), -2), `{"tags": {"$slice": -2}}`},
		{"slice skip", p.SliceSkip(Member[Person]("Tags"), 1, 2), `{"tags": {"$slice": [1, 2]}}`},
		{"text score", p.MetaTextScore("score"), `{"score": {"$meta": "textScore"}}`},
		{
			"elem match",
			ProjectElemMatch[Person, Pet](Member[Person]("Pets"), Filter[Pet]().Gt(Member[Pet]("Age"), 3)),
			`{"pets": {"$elemMatch": {"age": {"$gt": 3}}}}`,
		},
		{
			"combine",
			p.Combine(p.Include(name), p.Exclude(Member[Person]("ID")), p.Include(Member[Person]("Age"))),
			`{"name": 1, "_id": 0, "age": 1}`,
		},
		{
			"combine last write wins",
			p.Combine(p.Include(name), p.Exclude(name)),
			`{"name": 0}`,
		},
		{
			"combine moves overwritten field to the end",
			p.Combine(p.Include(name), p.Include(Member[Person]("Age")), p.Exclude(Field[Person]("name"))),
			`{"age": 1, "name": 0}`,
		},
		{"member expression", p.Expression(expr.Field("Name")), `{"name": 1, "_id": 0}`},
		{
			"new expression",
			p.Expression(expr.New(
				expr.Named("name", expr.Field("Name")),
				expr.Named("city", expr.Field("Address", "City")),
			)),
			`{"name": 1, "city": "$addr.city", "_id": 0}`,
		},
		{
			"new expression with arithmetic",
			p.Expression(expr.New(
				expr.Named("_id", expr.Field("ID")),
				expr.Named("next", expr.Add(expr.Field("Age"), expr.Const(1))),
			)),
			`{"_id": 1, "next": {"$add": ["$age", {"$literal": 1}]}}`,
		},
		{"json", p.JSON(`{"a": 1}`), `{"a": 1}`},
		{"dynamic", ProjectionFromDynamic[Person](map[string]int32{"name": 1}), `{"name": 1}`},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			requireDoc(t, tc.expected, render[Person](t, tc.projection))
		})
	}
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortRender(t *testing.T) {
	t.Parallel()

	s := Sort[Person]()
	name := Member[Person]("Name")
	age := Member[Person]("Age")

	testCases := []struct {
		name     string
		sort     SortDefinition[Person]
		expected string
	}{
		{"ascending", s.Ascending(name), `{"name": 1}`},
		{"descending", s.Descending(Member[Person]("Address", "City")), `{"addr.city": -1}`},
		{"text score", s.MetaTextScore("score"), `{"score": {"$meta": "textScore"}}`},
		{
			"then by",
			ThenByDescending(ThenByAscending(s.Ascending(name), age), Field[Person]("score")),
			`{"name": 1, "age": 1, "score": -1}`,
		},
		{
			"combine later duplicate wins",
			s.Combine(s.Ascending(name), s.Descending(age), s.Descending(name)),
			`{"age": -1, "name": -1}`,
		},
		{"json", s.JSON(`{"a": -1}`), `{"a": -1}`},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			requireDoc(t, tc.expected, render[Person](t, tc.sort))
		})
	}
}

func TestThenByFlattens(t *testing.T) {
	t.Parallel()

	s := Sort[Person]()
	chained := ThenBy(ThenBy(s.Ascending(Field[Person]("a")), s.Ascending(Field[Person]("b"))), s.Descending(Field[Person]("c")))

	combined, ok := chained.(combinedSort[Person])
	require.True(t, ok)
	assert.Len(t, combined.sorts, 3)
	for _, child := range combined.sorts {
		_, nested := child.(combinedSort[Person])
		assert.False(t, nested)
	}
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Address struct {
	City string `bson:"city"`
	Zip  string `bson:"zip"`
}

type Pet struct {
	Name string `bson:"name"`
	Kind string `bson:"kind"`
	Age  int32  `bson:"age"`
}

type Person struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Age     int32              `bson:"age"`
	Score   float64            `bson:"score"`
	Active  bool               `bson:"active"`
	Address Address            `bson:"addr"`
	Tags    []string           `bson:"tags"`
	Pets    []Pet              `bson:"pets"`
}

type PersonSummary struct {
	Name string `bson:"name"`
	City string `bson:"city"`
}

type CityCount struct {
	City  string `bson:"_id"`
	Total int64  `bson:"total"`
}

func newRegistry() *serializer.CodecRegistry {
	return serializer.NewRegistry(nil)
}

// canonical renders v as canonical extended JSON so that numeric widths are
// part of the comparison.
func canonical(t *testing.T, v interface{}) string {
	t.Helper()

	data, err := bson.MarshalExtJSON(v, true, false)
	require.NoError(t, err)
	return string(data)
}

// requireDoc compares a rendered document with an extended JSON document.
func requireDoc(t *testing.T, expected string, actual bson.D) {
	t.Helper()

	var want bson.D
	require.NoError(t, bson.UnmarshalExtJSON([]byte(expected), false, &want), "invalid expected JSON")
	if diff := cmp.Diff(canonical(t, want), canonical(t, actual)); diff != "" {
		t.Fatalf("rendered document mismatch (-want +got):\n%s", diff)
	}
}

// requirePipeline compares rendered stage documents with an extended JSON
// array.
func requirePipeline(t *testing.T, expected string, actual []bson.D) {
	t.Helper()

	stages := make(bson.A, 0, len(actual))
	for _, d := range actual {
		stages = append(stages, d)
	}
	requireDoc(t, `{"pipeline": `+expected+`}`, bson.D{{Key: "pipeline", Value: stages}})
}

func render[T any](t *testing.T, d DocumentRenderer) bson.D {
	t.Helper()

	doc, err := RenderDocument[T](d, newRegistry())
	require.NoError(t, err)
	return doc
}

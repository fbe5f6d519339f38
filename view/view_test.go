// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package view

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ikmak/mongo-go-builders/internal/mqltest"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Person struct {
	Name   string   `bson:"name"`
	Age    int32    `bson:"age"`
	Active bool     `bson:"active"`
	City   string   `bson:"city"`
	Tags   []string `bson:"tags"`
}

type call struct {
	command  string
	filter   interface{}
	argument interface{}
}

// fakeCollection evaluates filters against in-memory documents and records
// every call.
type fakeCollection struct {
	mu    sync.Mutex
	docs  []bson.D
	calls []call
}

var _ Collection = (*fakeCollection)(nil)

func newFakeCollection(t *testing.T, people ...Person) *fakeCollection {
	t.Helper()

	fc := &fakeCollection{}
	for _, p := range people {
		doc, err := mqltest.Normalize(p)
		require.NoError(t, err)
		fc.docs = append(fc.docs, doc)
	}
	return fc
}

func (fc *fakeCollection) record(command string, filter, argument interface{}) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.calls = append(fc.calls, call{command: command, filter: filter, argument: argument})
}

func (fc *fakeCollection) last() call {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.calls) == 0 {
		return call{}
	}
	return fc.calls[len(fc.calls)-1]
}

func (fc *fakeCollection) selected(filter interface{}) ([]bson.D, error) {
	f, err := mqltest.Normalize(filter)
	if err != nil {
		return nil, err
	}
	return mqltest.Filter(fc.docs, f)
}

func documents(docs []bson.D) []interface{} {
	out := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}
	return out
}

func (fc *fakeCollection) first(filter interface{}) *mongo.SingleResult {
	docs, err := fc.selected(filter)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	if len(docs) == 0 {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(docs[0], nil, nil)
}

func (fc *fakeCollection) Name() string { return "people" }

func (fc *fakeCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	fc.record("find", filter, nil)
	docs, err := fc.selected(filter)
	if err != nil {
		return nil, err
	}
	return mongo.NewCursorFromDocuments(documents(docs), nil, nil)
}

func (fc *fakeCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	fc.record("findOne", filter, nil)
	return fc.first(filter)
}

func (fc *fakeCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	fc.record("countDocuments", filter, nil)
	docs, err := fc.selected(filter)
	return int64(len(docs)), err
}

func (fc *fakeCollection) Distinct(_ context.Context, fieldName string, filter interface{}, _ ...*options.DistinctOptions) ([]interface{}, error) {
	fc.record("distinct", filter, fieldName)
	return nil, nil
}

func (fc *fakeCollection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	fc.record("deleteOne", filter, nil)
	return &mongo.DeleteResult{}, nil
}

func (fc *fakeCollection) DeleteMany(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	fc.record("deleteMany", filter, nil)
	docs, err := fc.selected(filter)
	return &mongo.DeleteResult{DeletedCount: int64(len(docs))}, err
}

func (fc *fakeCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	fc.record("updateOne", filter, update)
	return &mongo.UpdateResult{}, nil
}

func (fc *fakeCollection) UpdateMany(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	fc.record("updateMany", filter, update)
	return &mongo.UpdateResult{}, nil
}

func (fc *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}, _ ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	fc.record("replaceOne", filter, replacement)
	return &mongo.UpdateResult{}, nil
}

func (fc *fakeCollection) FindOneAndDelete(_ context.Context, filter interface{}, _ ...*options.FindOneAndDeleteOptions) *mongo.SingleResult {
	fc.record("findOneAndDelete", filter, nil)
	return fc.first(filter)
}

func (fc *fakeCollection) FindOneAndReplace(_ context.Context, filter interface{}, replacement interface{}, _ ...*options.FindOneAndReplaceOptions) *mongo.SingleResult {
	fc.record("findOneAndReplace", filter, replacement)
	return fc.first(filter)
}

func (fc *fakeCollection) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{}, _ ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	fc.record("findOneAndUpdate", filter, update)
	return fc.first(filter)
}

func (fc *fakeCollection) Aggregate(_ context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	fc.record("aggregate", nil, pipeline)
	return mongo.NewCursorFromDocuments(nil, nil, nil)
}

func (fc *fakeCollection) BulkWrite(_ context.Context, models []mongo.WriteModel, _ ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	fc.record("bulkWrite", nil, models)
	return &mongo.BulkWriteResult{}, nil
}

func (fc *fakeCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	fc.record("insertOne", nil, document)
	return &mongo.InsertOneResult{}, nil
}

func (fc *fakeCollection) InsertMany(_ context.Context, documents []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	fc.record("insertMany", nil, documents)
	return &mongo.InsertManyResult{}, nil
}

type fakeIndexes struct {
	model mongo.IndexModel
}

func (fi *fakeIndexes) CreateOne(_ context.Context, model mongo.IndexModel, _ ...*options.CreateIndexesOptions) (string, error) {
	fi.model = model
	return "name_1", nil
}

// requireFilter compares a filter sent to the collection with an extended
// JSON document.
func requireFilter(t *testing.T, expected string, actual interface{}) {
	t.Helper()

	var want bson.D
	require.NoError(t, bson.UnmarshalExtJSON([]byte(expected), false, &want))
	wantJSON, err := bson.MarshalExtJSON(want, true, false)
	require.NoError(t, err)
	gotJSON, err := bson.MarshalExtJSON(actual, true, false)
	require.NoError(t, err)
	if diff := cmp.Diff(string(wantJSON), string(gotJSON)); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

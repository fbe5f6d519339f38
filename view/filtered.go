// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package view

import (
	"context"

	"github.com/ikmak/mongo-go-builders/builders"
	"github.com/ikmak/mongo-go-builders/internal/docutil"
	"github.com/ikmak/mongo-go-builders/internal/logger"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FilteredCollection is a view of the documents of type T in a collection
// that match an implicit filter. Every filter-bearing operation sends the
// implicit filter ANDed with the caller's filter, implicit filter first.
// A FilteredCollection is safe for concurrent use.
type FilteredCollection[T any] struct {
	coll     Collection
	filter   builders.FilterDefinition[T]
	registry serializer.Registry
	logger   *logger.Logger
	optimize bool
}

// New returns a view of coll restricted to the documents matching filter.
// A nil coll yields a view whose Render methods work but whose operations
// must not be called.
func New[T any](coll Collection, filter builders.FilterDefinition[T], opts ...*Options) *FilteredCollection[T] {
	o := MergeOptions(opts...)

	fc := &FilteredCollection[T]{
		coll:     coll,
		filter:   filter,
		registry: o.Registry,
		logger:   o.Logger,
		optimize: true,
	}
	if fc.filter == nil {
		fc.filter = builders.Filter[T]().Empty()
	}
	if fc.registry == nil {
		fc.registry = serializer.Default()
	}
	if o.Optimize != nil {
		fc.optimize = *o.Optimize
	}
	return fc
}

// Collection returns the underlying collection. It is nil for a view that
// only renders.
func (fc *FilteredCollection[T]) Collection() Collection { return fc.coll }

func (fc *FilteredCollection[T]) collectionName() string {
	if fc.coll == nil {
		return ""
	}
	return fc.coll.Name()
}

// Filter returns the implicit filter.
func (fc *FilteredCollection[T]) Filter() builders.FilterDefinition[T] { return fc.filter }

// Registry returns the registry used to render definitions.
func (fc *FilteredCollection[T]) Registry() serializer.Registry { return fc.registry }

// Where returns a view whose implicit filter is fc's implicit filter ANDed
// with filter.
func (fc *FilteredCollection[T]) Where(filter builders.FilterDefinition[T]) *FilteredCollection[T] {
	narrowed := *fc
	narrowed.filter = builders.Filter[T]().And(fc.filter, filter)
	return &narrowed
}

// RenderFilter renders the filter sent to the server for filter.
func (fc *FilteredCollection[T]) RenderFilter(filter builders.FilterDefinition[T]) (bson.D, error) {
	return fc.renderFilter("filter", filter)
}

func (fc *FilteredCollection[T]) renderFilter(command string, filter builders.FilterDefinition[T]) (bson.D, error) {
	combined := fc.filter
	if filter != nil {
		combined = builders.Filter[T]().And(fc.filter, filter)
	}
	doc, err := builders.RenderDocument[T](combined, fc.registry)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot render %s filter", command)
	}

	if fc.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentView) {
		fc.logger.Print(logger.LevelDebug, logger.ComponentView, "rendered filter",
			logger.KeyCollection, fc.collectionName(),
			logger.KeyCommandName, command,
			logger.KeyFilter, fc.logger.FormatDocument(doc))
	}
	return doc, nil
}

func (fc *FilteredCollection[T]) renderUpdate(command string, update builders.UpdateDefinition[T]) (bson.D, error) {
	doc, err := builders.RenderDocument[T](update, fc.registry)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot render %s update", command)
	}

	if fc.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentView) {
		fc.logger.Print(logger.LevelDebug, logger.ComponentView, "rendered update",
			logger.KeyCollection, fc.collectionName(),
			logger.KeyCommandName, command,
			logger.KeyCommand, fc.logger.FormatDocument(doc))
	}
	return doc, nil
}

func errorResult(err error) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
}

// Find executes a find command over the view.
func (fc *FilteredCollection[T]) Find(ctx context.Context, filter builders.FilterDefinition[T],
	opts ...*options.FindOptions) (*mongo.Cursor, error) {

	f, err := fc.renderFilter("find", filter)
	if err != nil {
		return nil, err
	}
	return fc.coll.Find(ctx, f, opts...)
}

// FindOne returns up to one document of the view that matches filter.
func (fc *FilteredCollection[T]) FindOne(ctx context.Context, filter builders.FilterDefinition[T],
	opts ...*options.FindOneOptions) *mongo.SingleResult {

	f, err := fc.renderFilter("find", filter)
	if err != nil {
		return errorResult(err)
	}
	return fc.coll.FindOne(ctx, f, opts...)
}

// CountDocuments counts the documents of the view that match filter.
func (fc *FilteredCollection[T]) CountDocuments(ctx context.Context, filter builders.FilterDefinition[T],
	opts ...*options.CountOptions) (int64, error) {

	f, err := fc.renderFilter("count", filter)
	if err != nil {
		return 0, err
	}
	return fc.coll.CountDocuments(ctx, f, opts...)
}

// EstimatedDocumentCount always fails with ErrEstimatedCountNotSupported.
func (fc *FilteredCollection[T]) EstimatedDocumentCount(context.Context,
	...*options.EstimatedDocumentCountOptions) (int64, error) {

	return 0, ErrEstimatedCountNotSupported
}

// Distinct finds the distinct values of field among the documents of the
// view that match filter.
func (fc *FilteredCollection[T]) Distinct(ctx context.Context, field builders.FieldDefinition[T],
	filter builders.FilterDefinition[T], opts ...*options.DistinctOptions) ([]interface{}, error) {

	s, err := serializer.For[T](fc.registry)
	if err != nil {
		return nil, err
	}
	rf, err := field.Render(s, fc.registry)
	if err != nil {
		return nil, errors.Wrap(err, "cannot render distinct field")
	}
	f, err := fc.renderFilter("distinct", filter)
	if err != nil {
		return nil, err
	}
	return fc.coll.Distinct(ctx, rf.FieldName, f, opts...)
}

// DeleteOne deletes up to one document of the view that matches filter.
func (fc *FilteredCollection[T]) DeleteOne(ctx context.Context, filter builders.FilterDefinition[T],
	opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {

	f, err := fc.renderFilter("delete", filter)
	if err != nil {
		return nil, err
	}
	return fc.coll.DeleteOne(ctx, f, opts...)
}

// DeleteMany deletes the documents of the view that match filter.
func (fc *FilteredCollection[T]) DeleteMany(ctx context.Context, filter builders.FilterDefinition[T],
	opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {

	f, err := fc.renderFilter("delete", filter)
	if err != nil {
		return nil, err
	}
	return fc.coll.DeleteMany(ctx, f, opts...)
}

// UpdateOne updates up to one document of the view that matches filter.
func (fc *FilteredCollection[T]) UpdateOne(ctx context.Context, filter builders.FilterDefinition[T],
	update builders.UpdateDefinition[T], opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {

	f, err := fc.renderFilter("update", filter)
	if err != nil {
		return nil, err
	}
	u, err := fc.renderUpdate("update", update)
	if err != nil {
		return nil, err
	}
	return fc.coll.UpdateOne(ctx, f, u, opts...)
}

// UpdateMany updates the documents of the view that match filter.
func (fc *FilteredCollection[T]) UpdateMany(ctx context.Context, filter builders.FilterDefinition[T],
	update builders.UpdateDefinition[T], opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {

	f, err := fc.renderFilter("update", filter)
	if err != nil {
		return nil, err
	}
	u, err := fc.renderUpdate("update", update)
	if err != nil {
		return nil, err
	}
	return fc.coll.UpdateMany(ctx, f, u, opts...)
}

// ReplaceOne replaces up to one document of the view that matches filter.
func (fc *FilteredCollection[T]) ReplaceOne(ctx context.Context, filter builders.FilterDefinition[T],
	replacement T, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {

	f, err := fc.renderFilter("update", filter)
	if err != nil {
		return nil, err
	}
	return fc.coll.ReplaceOne(ctx, f, replacement, opts...)
}

// FindOneAndDelete deletes up to one document of the view that matches
// filter and returns it.
func (fc *FilteredCollection[T]) FindOneAndDelete(ctx context.Context, filter builders.FilterDefinition[T],
	opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult {

	f, err := fc.renderFilter("findAndModify", filter)
	if err != nil {
		return errorResult(err)
	}
	return fc.coll.FindOneAndDelete(ctx, f, opts...)
}

// FindOneAndReplace replaces up to one document of the view that matches
// filter and returns it.
func (fc *FilteredCollection[T]) FindOneAndReplace(ctx context.Context, filter builders.FilterDefinition[T],
	replacement T, opts ...*options.FindOneAndReplaceOptions) *mongo.SingleResult {

	f, err := fc.renderFilter("findAndModify", filter)
	if err != nil {
		return errorResult(err)
	}
	return fc.coll.FindOneAndReplace(ctx, f, replacement, opts...)
}

// FindOneAndUpdate updates up to one document of the view that matches
// filter and returns it.
func (fc *FilteredCollection[T]) FindOneAndUpdate(ctx context.Context, filter builders.FilterDefinition[T],
	update builders.UpdateDefinition[T], opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {

	f, err := fc.renderFilter("findAndModify", filter)
	if err != nil {
		return errorResult(err)
	}
	u, err := fc.renderUpdate("findAndModify", update)
	if err != nil {
		return errorResult(err)
	}
	return fc.coll.FindOneAndUpdate(ctx, f, u, opts...)
}

// InsertOne inserts document. Inserts are not checked against the view's
// filter.
func (fc *FilteredCollection[T]) InsertOne(ctx context.Context, document T,
	opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {

	return fc.coll.InsertOne(ctx, document, opts...)
}

// InsertMany inserts documents. Inserts are not checked against the view's
// filter.
func (fc *FilteredCollection[T]) InsertMany(ctx context.Context, documents []T,
	opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {

	docs := make([]interface{}, 0, len(documents))
	for _, d := range documents {
		docs = append(docs, d)
	}
	return fc.coll.InsertMany(ctx, docs, opts...)
}

// BulkWrite executes models after adding the implicit filter to every
// delete, replace and update model. Insert models pass through.
func (fc *FilteredCollection[T]) BulkWrite(ctx context.Context, models []mongo.WriteModel,
	opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {

	rewritten := make([]mongo.WriteModel, 0, len(models))
	for i, m := range models {
		wm, err := fc.rewriteModel(m)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot rewrite write model %d", i)
		}
		rewritten = append(rewritten, wm)
	}
	return fc.coll.BulkWrite(ctx, rewritten, opts...)
}

func (fc *FilteredCollection[T]) rewriteModel(m mongo.WriteModel) (mongo.WriteModel, error) {
	switch wm := m.(type) {
	case *mongo.InsertOneModel:
		return wm, nil
	case *mongo.DeleteOneModel:
		f, err := fc.combineRaw("delete", wm.Filter)
		if err != nil {
			return nil, err
		}
		c := *wm
		c.Filter = f
		return &c, nil
	case *mongo.DeleteManyModel:
		f, err := fc.combineRaw("delete", wm.Filter)
		if err != nil {
			return nil, err
		}
		c := *wm
		c.Filter = f
		return &c, nil
	case *mongo.ReplaceOneModel:
		f, err := fc.combineRaw("update", wm.Filter)
		if err != nil {
			return nil, err
		}
		c := *wm
		c.Filter = f
		return &c, nil
	case *mongo.UpdateOneModel:
		f, err := fc.combineRaw("update", wm.Filter)
		if err != nil {
			return nil, err
		}
		c := *wm
		c.Filter = f
		return &c, nil
	case *mongo.UpdateManyModel:
		f, err := fc.combineRaw("update", wm.Filter)
		if err != nil {
			return nil, err
		}
		c := *wm
		c.Filter = f
		return &c, nil
	}
	return nil, errors.Errorf("unsupported write model type %T", m)
}

// combineRaw combines the implicit filter with an untyped filter taken from a
// write model.
func (fc *FilteredCollection[T]) combineRaw(command string, filter interface{}) (bson.D, error) {
	doc, err := docutil.ToDocument(filter)
	if err != nil {
		return nil, err
	}
	return fc.renderFilter(command, builders.FilterFromDocument[T](doc))
}

// CreateIndex creates an index with keys through indexes, typically
// coll.Indexes() of the underlying *mongo.Collection.
func (fc *FilteredCollection[T]) CreateIndex(ctx context.Context, indexes IndexCreator,
	keys builders.IndexKeysDefinition[T], opts *options.IndexOptions) (string, error) {

	doc, err := builders.RenderDocument[T](keys, fc.registry)
	if err != nil {
		return "", errors.Wrap(err, "cannot render index keys")
	}
	if fc.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentView) {
		fc.logger.Print(logger.LevelDebug, logger.ComponentView, "rendered index keys",
			logger.KeyCollection, fc.collectionName(),
			logger.KeyCommandName, "createIndexes",
			logger.KeyCommand, fc.logger.FormatDocument(doc))
	}
	return indexes.CreateOne(ctx, mongo.IndexModel{Keys: doc, Options: opts})
}

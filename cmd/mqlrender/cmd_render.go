// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"context"

	"github.com/ikmak/mongo-go-builders/builders"
	"github.com/ikmak/mongo-go-builders/view"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func filterCmd(a *app) *cobra.Command {
	var limit int64

	c := &cobra.Command{
		Use:   "filter [json]",
		Short: "Render a filter ANDed with the configured view filter",
		Long: "Render a filter ANDed with the configured view filter. With --run, " +
			"the documents it selects are printed instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter builders.FilterDefinition[bson.D]
			if len(args) == 1 {
				filter = builders.FilterFromJSON[bson.D](args[0])
			}

			if !a.run {
				doc, err := a.offlineView().RenderFilter(filter)
				if err != nil {
					return err
				}
				return writeDocument(cmd.OutOrStdout(), doc, a.cfg.Pretty)
			}

			return a.execute(cmd, func(ctx context.Context, fc *view.FilteredCollection[bson.D]) (*mongo.Cursor, error) {
				opts := options.Find()
				if limit > 0 {
					opts.SetLimit(limit)
				}
				return fc.Find(ctx, filter, opts)
			})
		},
	}
	c.Flags().Int64Var(&limit, "limit", 20, "maximum number of documents printed with --run")
	return c
}

func pipelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline <json>",
		Short: "Render an aggregation pipeline behind the configured view filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parsePipeline(args[0])
			if err != nil {
				return err
			}
			p := builders.PipelineFromDocuments[bson.D, bson.D](stages...)

			if !a.run {
				rendered, err := view.RenderAggregate(a.offlineView(), p)
				if err != nil {
					return err
				}
				return writeDocuments(cmd.OutOrStdout(), rendered.Documents, a.cfg.Pretty)
			}

			return a.execute(cmd, func(ctx context.Context, fc *view.FilteredCollection[bson.D]) (*mongo.Cursor, error) {
				return view.Aggregate(ctx, fc, p)
			})
		},
	}
}

// execute connects, runs query and prints every document of its cursor.
func (a *app) execute(cmd *cobra.Command, query func(context.Context, *view.FilteredCollection[bson.D]) (*mongo.Cursor, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	client, fc, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	cursor, err := query(ctx, fc)
	if err != nil {
		return err
	}
	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}
	return writeDocuments(cmd.OutOrStdout(), docs, a.cfg.Pretty)
}

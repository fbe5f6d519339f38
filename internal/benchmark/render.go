// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package benchmark

import (
	"context"
	"time"

	"github.com/ikmak/mongo-go-builders/builders"
	"github.com/ikmak/mongo-go-builders/expr"
	"github.com/ikmak/mongo-go-builders/serializer"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type customer struct {
	Name    string `bson:"name"`
	Country string `bson:"country"`
	Tier    int32  `bson:"tier"`
}

type lineItem struct {
	SKU      string  `bson:"sku"`
	Quantity int32   `bson:"qty"`
	Price    float64 `bson:"price"`
}

type order struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Status   string             `bson:"status"`
	Total    float64            `bson:"total"`
	Placed   time.Time          `bson:"placed"`
	Customer customer           `bson:"customer"`
	Items    []lineItem         `bson:"items"`
	Tags     []string           `bson:"tags"`
}

type countryTotal struct {
	Country string  `bson:"_id"`
	Total   float64 `bson:"total"`
}

var (
	status  = builders.Member[order]("Status")
	total   = builders.Member[order]("Total")
	country = builders.Member[order]("Customer", "Country")
	tier    = builders.Member[order]("Customer", "Tier")
	tags    = builders.Member[order]("Tags")
)

func renderDocuments(ctx context.Context, tm TimerManager, iters int, d builders.DocumentRenderer) error {
	r := serializer.NewRegistry(nil)
	s, err := serializer.For[order](r)
	if err != nil {
		return err
	}

	tm.ResetTimer()
	for i := 0; i < iters; i++ {
		if i%thousand == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		doc, err := d.Render(s, r)
		if err != nil {
			return err
		}
		if len(doc) == 0 {
			return errors.New("rendered an empty document")
		}
	}
	return nil
}

func renderPipeline(ctx context.Context, tm TimerManager, iters int, p builders.PipelineDefinition[order, countryTotal]) error {
	r := serializer.NewRegistry(nil)

	tm.ResetTimer()
	for i := 0; i < iters; i++ {
		if i%hundred == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		rendered, err := builders.RenderPipeline[order, countryTotal](p, r)
		if err != nil {
			return err
		}
		if len(rendered.Documents) == 0 {
			return errors.New("rendered an empty pipeline")
		}
	}
	return nil
}

// RenderFieldFilter renders a single field comparison.
func RenderFieldFilter(ctx context.Context, tm TimerManager, iters int) error {
	return renderDocuments(ctx, tm, iters, builders.Filter[order]().Gte(total, 100))
}

// RenderCompoundFilter renders a nested conjunction of field operators.
func RenderCompoundFilter(ctx context.Context, tm TimerManager, iters int) error {
	f := builders.Filter[order]()
	filter := f.And(
		f.Eq(status, "shipped"),
		f.Or(f.Gt(total, 250.5), f.Lte(tier, 1)),
		f.In(country, []string{"FR", "DE", "NO"}),
		f.Not(f.All(tags, []string{"gift", "fragile"})),
		builders.ElemMatch[order, lineItem](
			builders.Member[order]("Items"),
			builders.Filter[lineItem]().Gte(builders.Member[lineItem]("Quantity"), 2),
		),
	)
	return renderDocuments(ctx, tm, iters, filter)
}

// RenderJSONFilter renders a filter parsed from extended JSON on every call.
func RenderJSONFilter(ctx context.Context, tm TimerManager, iters int) error {
	filter := builders.FilterFromJSON[order](`{"status": "open", "total": {"$gt": {"$numberDouble": "10.5"}}, "customer.tier": {"$in": [1, 2]}}`)
	return renderDocuments(ctx, tm, iters, filter)
}

// RenderExpressionFilter translates a predicate expression.
func RenderExpressionFilter(ctx context.Context, tm TimerManager, iters int) error {
	filter := builders.FilterFromExpression[order](expr.And(
		expr.Eq(expr.Field("Status"), expr.Const("open")),
		expr.Gt(expr.Field("Total"), expr.Const(10.0)),
		expr.StartsWith(expr.Field("Customer", "Name"), "A"),
	))
	return renderDocuments(ctx, tm, iters, filter)
}

// RenderCombinedUpdate renders a combination of update operators.
func RenderCombinedUpdate(ctx context.Context, tm TimerManager, iters int) error {
	u := builders.Update[order]()
	update := u.Combine(
		u.Set(status, "shipped"),
		u.Inc(total, 5),
		u.AddToSetEach(tags, []string{"express", "tracked"}),
		u.CurrentDate(builders.Field[order]("updated")),
	)
	return renderDocuments(ctx, tm, iters, update)
}

func groupByCountry() builders.PipelineDefinition[order, countryTotal] {
	f := builders.Filter[order]()
	p := builders.NewPipeline[order]().
		Match(f.Eq(status, "shipped")).
		Match(f.Gte(total, 20)).
		Sort(builders.Sort[order]().Descending(total)).
		Limit(500)
	return builders.Append(p, builders.GroupStage[order, countryTotal](
		"$customer.country",
		bson.E{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total"}}},
	))
}

// RenderStagePipeline renders a typed pipeline of five stages.
func RenderStagePipeline(ctx context.Context, tm TimerManager, iters int) error {
	return renderPipeline(ctx, tm, iters, groupByCountry())
}

// RenderOptimizedPipeline renders the same pipeline through the $match
// merging decorator.
func RenderOptimizedPipeline(ctx context.Context, tm TimerManager, iters int) error {
	return renderPipeline(ctx, tm, iters, builders.Optimize[order, countryTotal](groupByCountry()))
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package builders provides typed definitions of fields, filters,
// projections, sorts, updates, index keys, aggregation stages and pipelines
// over a document type T.
//
// Definitions are immutable values. Building one does no work: each
// definition is rendered into bson.D documents only when Render is called
// with the serializer of the source type and a serializer.Registry. Rendering
// is a pure function of its inputs and is safe for concurrent use.
//
// A typical use looks like
//
//	f := builders.Filter[Person]()
//	filter := f.And(
//	    f.Eq(builders.Member[Person]("Name"), "Ada"),
//	    f.Gte(builders.Field[Person]("age"), 18),
//	)
//	doc, err := builders.RenderDocument[Person](filter, serializer.Default())
//
// and for aggregation pipelines
//
//	p := builders.NewPipeline[Person]().Match(filter)
//	counted := builders.Append(p, builders.CountStage[Person]())
//	rendered, err := builders.RenderPipeline[Person, builders.CountResult](counted, serializer.Default())
package builders

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"testing"

	"github.com/ikmak/mongo-go-builders/internal/mqltest"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func normalize(t *testing.T, v interface{}) bson.D {
	t.Helper()

	doc, err := mqltest.Normalize(v)
	require.NoError(t, err)
	return doc
}

func matches(t *testing.T, doc, filter bson.D) bool {
	t.Helper()

	ok, err := mqltest.Matches(doc, filter)
	require.NoError(t, err)
	return ok
}

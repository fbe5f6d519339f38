// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
	"go.mongodb.org/mongo-driver/bson"
)

// marshalDocuments renders docs as a relaxed extended JSON array.
func marshalDocuments(docs []bson.D) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot marshal document %d", i)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeJSON(w io.Writer, data []byte, indent bool) error {
	if indent {
		data = pretty.Pretty(data)
	} else {
		data = append(pretty.Ugly(data), '\n')
	}
	_, err := w.Write(data)
	return err
}

func writeDocument(w io.Writer, doc bson.D, indent bool) error {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return errors.Wrap(err, "cannot marshal document")
	}
	return writeJSON(w, data, indent)
}

func writeDocuments(w io.Writer, docs []bson.D, indent bool) error {
	data, err := marshalDocuments(docs)
	if err != nil {
		return err
	}
	return writeJSON(w, data, indent)
}

// parsePipeline parses an extended JSON array of stage documents.
func parsePipeline(json string) ([]bson.D, error) {
	var wrapper struct {
		Pipeline []bson.D `bson:"pipeline"`
	}
	if err := bson.UnmarshalExtJSON([]byte(`{"pipeline":`+json+`}`), false, &wrapper); err != nil {
		return nil, errors.Wrap(err, "cannot parse pipeline")
	}
	return wrapper.Pipeline, nil
}

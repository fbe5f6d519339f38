// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package serializer

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// ErrNilType is returned when nil is passed to Registry.Serializer.
var ErrNilType = errors.New("cannot look up a serializer for <nil>")

// NoSerializerError is returned when no serializer can be built for a type.
type NoSerializerError struct {
	Type reflect.Type
	Err  error
}

func (nse *NoSerializerError) Error() string {
	return "no serializer registered for " + nse.Type.String()
}

// Unwrap returns the underlying codec lookup error.
func (nse *NoSerializerError) Unwrap() error { return nse.Err }

// FieldNotSerializableError is returned when a member access cannot be
// translated into an element name.
type FieldNotSerializableError struct {
	Member string
	Type   reflect.Type
	Reason string
}

func (fnse *FieldNotSerializableError) Error() string {
	typ := "<unknown>"
	if fnse.Type != nil {
		typ = fnse.Type.String()
	}
	return fmt.Sprintf("field %q of %s is not serializable: %s", fnse.Member, typ, fnse.Reason)
}

// NotDocumentError is returned when a value expected to encode as a document
// encodes as some other BSON type.
type NotDocumentError struct {
	Type     reflect.Type
	BSONType string
}

func (nde *NotDocumentError) Error() string {
	typ := "<nil>"
	if nde.Type != nil {
		typ = nde.Type.String()
	}
	return fmt.Sprintf("value of type %s serializes to %s, not a document", typ, nde.BSONType)
}

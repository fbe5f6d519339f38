// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

import (
	"fmt"
	"reflect"
)

// DuplicateIndexKeyError is returned when combined index keys name the same
// field more than once.
type DuplicateIndexKeyError struct {
	Field string
}

func (dike *DuplicateIndexKeyError) Error() string {
	return fmt.Sprintf("the index keys definition contains multiple values for the field %q", dike.Field)
}

// StageSequenceError is returned when a pipeline is assembled from stages
// whose input and output types do not line up.
type StageSequenceError struct {
	// Index of the offending stage. It is -1 when the pipeline has no
	// stages and its input type differs from its output type.
	Index int
	// Output is true when the last stage's output does not match the
	// pipeline's output type. Otherwise the stage's input type is at fault.
	Output   bool
	Expected reflect.Type
	Actual   reflect.Type
}

func (sse *StageSequenceError) Error() string {
	if sse.Index < 0 {
		return fmt.Sprintf("invalid stage sequence: empty pipeline has output type %s, expected %s",
			typeName(sse.Actual), typeName(sse.Expected))
	}
	which := "input"
	if sse.Output {
		which = "output"
	}
	return fmt.Sprintf("invalid stage sequence: stage %d has %s type %s, expected %s",
		sse.Index, which, typeName(sse.Actual), typeName(sse.Expected))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package builders

// UnwindOptions represents options that can be used to configure an $unwind
// stage.
type UnwindOptions struct {
	// The name of a field that receives the array index of the element. The
	// default is nil, which means no index is recorded.
	IncludeArrayIndex *string

	// If true, documents whose array is null, missing or empty are passed
	// through. The default is nil, which means such documents are dropped.
	PreserveNullAndEmptyArrays *bool
}

// Unwind creates a new UnwindOptions instance.
func Unwind() *UnwindOptions {
	return &UnwindOptions{}
}

// SetIncludeArrayIndex sets the value for the IncludeArrayIndex field.
func (uo *UnwindOptions) SetIncludeArrayIndex(field string) *UnwindOptions {
	uo.IncludeArrayIndex = &field
	return uo
}

// SetPreserveNullAndEmptyArrays sets the value for the
// PreserveNullAndEmptyArrays field.
func (uo *UnwindOptions) SetPreserveNullAndEmptyArrays(b bool) *UnwindOptions {
	uo.PreserveNullAndEmptyArrays = &b
	return uo
}

// MergeUnwindOptions combines the given UnwindOptions instances into a single
// UnwindOptions in a last-one-wins fashion.
func MergeUnwindOptions(opts ...*UnwindOptions) *UnwindOptions {
	uo := Unwind()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.IncludeArrayIndex != nil {
			uo.IncludeArrayIndex = opt.IncludeArrayIndex
		}
		if opt.PreserveNullAndEmptyArrays != nil {
			uo.PreserveNullAndEmptyArrays = opt.PreserveNullAndEmptyArrays
		}
	}

	return uo
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var readConcernLevels = map[string]bool{
	"local":        true,
	"majority":     true,
	"linearizable": true,
	"available":    true,
	"snapshot":     true,
}

// WriteConcern describes the acknowledgement requested for writes.
type WriteConcern struct {
	// W is the number of nodes (int), "majority" or a tag set name (string).
	// Nil leaves the server default.
	W        interface{}
	Journal  *bool
	WTimeout time.Duration
}

// clone returns a deep copy of wc. W holds only ints and strings.
func (wc *WriteConcern) clone() *WriteConcern {
	if wc == nil {
		return nil
	}
	c := *wc
	if wc.Journal != nil {
		j := *wc.Journal
		c.Journal = &j
	}
	return &c
}

func (wc *WriteConcern) validate() error {
	switch w := wc.W.(type) {
	case nil, string:
	case int:
		if w < 0 {
			return &InvalidSettingError{Setting: "w", Reason: "must not be negative"}
		}
	default:
		return &InvalidSettingError{Setting: "w", Reason: fmt.Sprintf("must be an int or a string, got %T", wc.W)}
	}
	if wc.WTimeout < 0 {
		return &InvalidSettingError{Setting: "wtimeout", Reason: "must not be negative"}
	}
	if w, ok := wc.W.(int); ok && w == 0 && wc.Journal != nil && *wc.Journal {
		return &InvalidSettingError{Setting: "journal", Reason: "cannot be requested for unacknowledged writes"}
	}
	return nil
}

func (wc *WriteConcern) driver() *writeconcern.WriteConcern {
	var opts []writeconcern.Option
	switch w := wc.W.(type) {
	case int:
		opts = append(opts, writeconcern.W(w))
	case string:
		if w == "majority" {
			opts = append(opts, writeconcern.WMajority())
		} else {
			opts = append(opts, writeconcern.WTagSet(w))
		}
	}
	if wc.Journal != nil {
		opts = append(opts, writeconcern.J(*wc.Journal))
	}
	if wc.WTimeout > 0 {
		opts = append(opts, writeconcern.WTimeout(wc.WTimeout))
	}
	return writeconcern.New(opts...)
}

func (wc *WriteConcern) String() string {
	parts := make([]string, 0, 3)
	if wc.W != nil {
		parts = append(parts, fmt.Sprintf("w=%v", wc.W))
	}
	if wc.Journal != nil {
		parts = append(parts, fmt.Sprintf("j=%t", *wc.Journal))
	}
	if wc.WTimeout > 0 {
		parts = append(parts, "wtimeout="+wc.WTimeout.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// concernValues are the read and write settings shared by clients, databases
// and collections. Nil means inherited.
type concernValues struct {
	ReadConcern    *string
	WriteConcern   *WriteConcern
	ReadPreference *string
}

// inherit fills the unset values of c from parent.
func (c *concernValues) inherit(parent concernValues) {
	if c.ReadConcern == nil {
		c.ReadConcern = parent.ReadConcern
	}
	if c.WriteConcern == nil {
		c.WriteConcern = parent.WriteConcern.clone()
	}
	if c.ReadPreference == nil {
		c.ReadPreference = parent.ReadPreference
	}
}

// clone returns a copy of c that shares no memory with it.
func (c concernValues) clone() concernValues {
	out := concernValues{WriteConcern: c.WriteConcern.clone()}
	if c.ReadConcern != nil {
		out.ReadConcern = stringPtr(*c.ReadConcern)
	}
	if c.ReadPreference != nil {
		out.ReadPreference = stringPtr(*c.ReadPreference)
	}
	return out
}

func (c *concernValues) validate() error {
	if c.ReadConcern != nil && !readConcernLevels[*c.ReadConcern] {
		return &InvalidSettingError{Setting: "readConcern", Reason: fmt.Sprintf("unknown level %q", *c.ReadConcern)}
	}
	if c.WriteConcern != nil {
		if err := c.WriteConcern.validate(); err != nil {
			return err
		}
	}
	if c.ReadPreference != nil {
		if _, err := readpref.ModeFromString(*c.ReadPreference); err != nil {
			return &InvalidSettingError{Setting: "readPreference", Reason: err.Error()}
		}
	}
	return nil
}

func (c *concernValues) readConcern() *readconcern.ReadConcern {
	if c.ReadConcern == nil {
		return nil
	}
	return readconcern.New(readconcern.Level(*c.ReadConcern))
}

func (c *concernValues) writeConcern() *writeconcern.WriteConcern {
	if c.WriteConcern == nil {
		return nil
	}
	return c.WriteConcern.driver()
}

// readPref assumes validate succeeded.
func (c *concernValues) readPref() *readpref.ReadPref {
	if c.ReadPreference == nil {
		return nil
	}
	mode, err := readpref.ModeFromString(*c.ReadPreference)
	if err != nil {
		return nil
	}
	rp, err := readpref.New(mode)
	if err != nil {
		return nil
	}
	return rp
}

func (c *concernValues) describe(fw *fieldWriter) {
	if c.ReadConcern != nil {
		fw.add("readConcern", *c.ReadConcern)
	}
	if c.WriteConcern != nil {
		fw.add("writeConcern", c.WriteConcern.String())
	}
	if c.ReadPreference != nil {
		fw.add("readPreference", *c.ReadPreference)
	}
}

// fieldWriter formats settings as Name{key=value, ...}.
type fieldWriter struct {
	parts []string
}

func (fw *fieldWriter) add(key string, value interface{}) {
	fw.parts = append(fw.parts, fmt.Sprintf("%s=%v", key, value))
}

func (fw *fieldWriter) String(name string) string {
	return name + "{" + strings.Join(fw.parts, ", ") + "}"
}

func stringPtr(s string) *string { return &s }

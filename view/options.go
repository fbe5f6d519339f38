// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package view

import (
	"github.com/ikmak/mongo-go-builders/internal/logger"
	"github.com/ikmak/mongo-go-builders/serializer"
)

// Options represents options that can be used to configure a FilteredCollection.
type Options struct {
	// Registry resolves the serializers used to render definitions. The
	// default is serializer.Default().
	Registry serializer.Registry

	// Logger receives the rendered commands at debug level. The default is nil,
	// which disables logging.
	Logger *logger.Logger

	// Optimize collapses the implicit $match with a leading $match of the
	// caller's pipeline. The default is true.
	Optimize *bool
}

// NewOptions creates a new Options instance.
func NewOptions() *Options {
	return &Options{}
}

// SetRegistry sets the value for the Registry field.
func (o *Options) SetRegistry(r serializer.Registry) *Options {
	o.Registry = r
	return o
}

// SetLogger sets the value for the Logger field.
func (o *Options) SetLogger(l *logger.Logger) *Options {
	o.Logger = l
	return o
}

// SetOptimize sets the value for the Optimize field.
func (o *Options) SetOptimize(b bool) *Options {
	o.Optimize = &b
	return o
}

// MergeOptions combines the given Options instances into a single Options in
// a last-one-wins fashion.
func MergeOptions(opts ...*Options) *Options {
	o := NewOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.Registry != nil {
			o.Registry = opt.Registry
		}
		if opt.Logger != nil {
			o.Logger = opt.Logger
		}
		if opt.Optimize != nil {
			o.Optimize = opt.Optimize
		}
	}
	return o
}

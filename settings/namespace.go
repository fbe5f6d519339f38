// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package settings

import (
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type namespaceValues struct {
	Name     string
	Concerns concernValues
}

func (v *namespaceValues) build(kind string, invalid string) (uint64, error) {
	if v.Name == "" {
		return 0, &InvalidSettingError{Setting: "name", Reason: kind + " name must not be empty"}
	}
	if strings.ContainsAny(v.Name, invalid) {
		return 0, &InvalidSettingError{Setting: "name", Reason: kind + " name must not contain any of " + strings.TrimSpace(invalid)}
	}
	if err := v.Concerns.validate(); err != nil {
		return 0, err
	}
	hash, err := hashstructure.Hash(struct {
		Kind string
		V    namespaceValues
	}{kind, *v}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot hash %s settings", kind)
	}
	return hash, nil
}

func (v *namespaceValues) format(name string) string {
	var fw fieldWriter
	fw.add("name", v.Name)
	v.Concerns.describe(&fw)
	return fw.String(name)
}

// DatabaseSettings are the settings of a database. They are immutable.
type DatabaseSettings struct {
	v    namespaceValues
	hash uint64
	str  string
}

// DatabaseBuilder builds DatabaseSettings. It freezes on Build.
type DatabaseBuilder struct {
	v     namespaceValues
	built *DatabaseSettings
	err   error
}

// Database returns a builder for the settings of the database name.
func Database(name string) *DatabaseBuilder {
	return &DatabaseBuilder{v: namespaceValues{Name: name}}
}

func (b *DatabaseBuilder) set(fn func(*namespaceValues)) *DatabaseBuilder {
	if b.built != nil {
		b.err = ErrFrozen
		return b
	}
	fn(&b.v)
	return b
}

// SetReadConcern sets the read concern level.
func (b *DatabaseBuilder) SetReadConcern(level string) *DatabaseBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.ReadConcern = stringPtr(level) })
}

// SetWriteConcern sets the write concern.
func (b *DatabaseBuilder) SetWriteConcern(wc WriteConcern) *DatabaseBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.WriteConcern = wc.clone() })
}

// SetReadPreference sets the read preference mode.
func (b *DatabaseBuilder) SetReadPreference(mode string) *DatabaseBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.ReadPreference = stringPtr(mode) })
}

// ApplyDefaults inherits the concerns not set on the builder from parent.
func (b *DatabaseBuilder) ApplyDefaults(parent *ClientSettings) *DatabaseBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.inherit(parent.v.Concerns) })
}

// Err returns the first error recorded by the builder.
func (b *DatabaseBuilder) Err() error { return b.err }

// Build validates the settings and freezes the builder.
func (b *DatabaseBuilder) Build() (*DatabaseSettings, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built != nil {
		return b.built, nil
	}
	v := b.v
	v.Concerns = v.Concerns.clone()
	hash, err := v.build("database", "/\\. \"$")
	if err != nil {
		return nil, err
	}
	b.built = &DatabaseSettings{v: v, hash: hash, str: v.format("DatabaseSettings")}
	return b.built, nil
}

// Name returns the database name.
func (s *DatabaseSettings) Name() string { return s.v.Name }

// ReadConcern returns the read concern level.
func (s *DatabaseSettings) ReadConcern() (string, bool) { return deref(s.v.Concerns.ReadConcern) }

// ReadPreference returns the read preference mode.
func (s *DatabaseSettings) ReadPreference() (string, bool) { return deref(s.v.Concerns.ReadPreference) }

// WriteConcern returns a copy of the write concern, or nil.
func (s *DatabaseSettings) WriteConcern() *WriteConcern { return s.v.Concerns.WriteConcern.clone() }

// Hash returns a hash of the settings, memoized at Build.
func (s *DatabaseSettings) Hash() uint64 { return s.hash }

// String describes the settings.
func (s *DatabaseSettings) String() string { return s.str }

// DatabaseOptions converts s to the driver's database options.
func (s *DatabaseSettings) DatabaseOptions() *options.DatabaseOptions {
	do := options.Database()
	if rc := s.v.Concerns.readConcern(); rc != nil {
		do.SetReadConcern(rc)
	}
	if wc := s.v.Concerns.writeConcern(); wc != nil {
		do.SetWriteConcern(wc)
	}
	if rp := s.v.Concerns.readPref(); rp != nil {
		do.SetReadPreference(rp)
	}
	return do
}

// CollectionSettings are the settings of a collection. They are immutable.
type CollectionSettings struct {
	v    namespaceValues
	hash uint64
	str  string
}

// CollectionBuilder builds CollectionSettings. It freezes on Build.
type CollectionBuilder struct {
	v     namespaceValues
	built *CollectionSettings
	err   error
}

// Collection returns a builder for the settings of the collection name.
func Collection(name string) *CollectionBuilder {
	return &CollectionBuilder{v: namespaceValues{Name: name}}
}

func (b *CollectionBuilder) set(fn func(*namespaceValues)) *CollectionBuilder {
	if b.built != nil {
		b.err = ErrFrozen
		return b
	}
	fn(&b.v)
	return b
}

// SetReadConcern sets the read concern level.
func (b *CollectionBuilder) SetReadConcern(level string) *CollectionBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.ReadConcern = stringPtr(level) })
}

// SetWriteConcern sets the write concern.
func (b *CollectionBuilder) SetWriteConcern(wc WriteConcern) *CollectionBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.WriteConcern = wc.clone() })
}

// SetReadPreference sets the read preference mode.
func (b *CollectionBuilder) SetReadPreference(mode string) *CollectionBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.ReadPreference = stringPtr(mode) })
}

// ApplyDefaults inherits the concerns not set on the builder from parent.
func (b *CollectionBuilder) ApplyDefaults(parent *DatabaseSettings) *CollectionBuilder {
	return b.set(func(v *namespaceValues) { v.Concerns.inherit(parent.v.Concerns) })
}

// Err returns the first error recorded by the builder.
func (b *CollectionBuilder) Err() error { return b.err }

// Build validates the settings and freezes the builder.
func (b *CollectionBuilder) Build() (*CollectionSettings, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built != nil {
		return b.built, nil
	}
	v := b.v
	v.Concerns = v.Concerns.clone()
	hash, err := v.build("collection", "$")
	if err != nil {
		return nil, err
	}
	b.built = &CollectionSettings{v: v, hash: hash, str: v.format("CollectionSettings")}
	return b.built, nil
}

// Name returns the collection name.
func (s *CollectionSettings) Name() string { return s.v.Name }

// ReadConcern returns the read concern level.
func (s *CollectionSettings) ReadConcern() (string, bool) { return deref(s.v.Concerns.ReadConcern) }

// ReadPreference returns the read preference mode.
func (s *CollectionSettings) ReadPreference() (string, bool) { return deref(s.v.Concerns.ReadPreference) }

// WriteConcern returns a copy of the write concern, or nil.
func (s *CollectionSettings) WriteConcern() *WriteConcern { return s.v.Concerns.WriteConcern.clone() }

// Hash returns a hash of the settings, memoized at Build.
func (s *CollectionSettings) Hash() uint64 { return s.hash }

// String describes the settings.
func (s *CollectionSettings) String() string { return s.str }

// CollectionOptions converts s to the driver's collection options.
func (s *CollectionSettings) CollectionOptions() *options.CollectionOptions {
	co := options.Collection()
	if rc := s.v.Concerns.readConcern(); rc != nil {
		co.SetReadConcern(rc)
	}
	if wc := s.v.Concerns.writeConcern(); wc != nil {
		co.SetWriteConcern(wc)
	}
	if rp := s.v.Concerns.readPref(); rp != nil {
		co.SetReadPreference(rp)
	}
	return co
}

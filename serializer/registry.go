// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package serializer

import (
	"encoding/json"
	"net/url"
	"reflect"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCacheSize is the number of constructed serializers a registry keeps.
const DefaultCacheSize = 256

var (
	tEmpty            = reflect.TypeOf((*interface{})(nil)).Elem()
	tD                = reflect.TypeOf(bson.D{})
	tM                = reflect.TypeOf(bson.M{})
	tRaw              = reflect.TypeOf(bson.Raw(nil))
	tMarshaler        = reflect.TypeOf((*bson.Marshaler)(nil)).Elem()
	tValueMarshaler   = reflect.TypeOf((*bson.ValueMarshaler)(nil)).Elem()
	tByteSlice        = reflect.TypeOf([]byte(nil))
	tJSONNumber       = reflect.TypeOf(json.Number(""))
	tURL              = reflect.TypeOf(url.URL{})
	tTime             = reflect.TypeOf(time.Time{})
	tRawValue         = reflect.TypeOf(bson.RawValue{})
	tObjectID         = reflect.TypeOf(primitive.ObjectID{})
	tDecimal          = reflect.TypeOf(primitive.Decimal128{})
	tBinary           = reflect.TypeOf(primitive.Binary{})
	tRegex            = reflect.TypeOf(primitive.Regex{})
	tTimestamp        = reflect.TypeOf(primitive.Timestamp{})
	tCodeWithScope    = reflect.TypeOf(primitive.CodeWithScope{})
	tDBPointer        = reflect.TypeOf(primitive.DBPointer{})
	tMinKey           = reflect.TypeOf(primitive.MinKey{})
	tMaxKey           = reflect.TypeOf(primitive.MaxKey{})
	tUndefined        = reflect.TypeOf(primitive.Undefined{})
	tNull             = reflect.TypeOf(primitive.Null{})
	scalarStructTypes = map[reflect.Type]bool{
		tURL: true, tTime: true, tRawValue: true, tDecimal: true, tBinary: true,
		tRegex: true, tTimestamp: true, tCodeWithScope: true, tDBPointer: true,
		tMinKey: true, tMaxKey: true, tUndefined: true, tNull: true,
	}
)

// RegistryOptions represents all possible options for NewRegistry.
type RegistryOptions struct {
	CacheSize   *int
	Serializers []Serializer
}

// NewRegistryOptions creates a new RegistryOptions instance.
func NewRegistryOptions() *RegistryOptions {
	return &RegistryOptions{}
}

// SetCacheSize sets the number of constructed serializers to keep. Values
// less than one select DefaultCacheSize.
func (ro *RegistryOptions) SetCacheSize(i int) *RegistryOptions {
	ro.CacheSize = &i
	return ro
}

// RegisterSerializer registers s for s.ValueType(), taking precedence over
// the serializers built from the codec registry.
func (ro *RegistryOptions) RegisterSerializer(s Serializer) *RegistryOptions {
	ro.Serializers = append(ro.Serializers, s)
	return ro
}

// MergeRegistryOptions combines the given RegistryOptions instances into a
// single instance in a last-one-wins fashion.
func MergeRegistryOptions(opts ...*RegistryOptions) *RegistryOptions {
	ro := NewRegistryOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.CacheSize != nil {
			ro.CacheSize = opt.CacheSize
		}
		ro.Serializers = append(ro.Serializers, opt.Serializers...)
	}
	return ro
}

// CodecRegistry is a Registry that derives serializers from a bsoncodec
// registry. It is safe for concurrent use.
type CodecRegistry struct {
	codecs *bsoncodec.Registry
	custom map[reflect.Type]Serializer
	cache  *lru.Cache
}

var _ Registry = (*CodecRegistry)(nil)

// NewRegistry creates a CodecRegistry backed by codecs. A nil codecs uses
// bson.DefaultRegistry.
func NewRegistry(codecs *bsoncodec.Registry, opts ...*RegistryOptions) *CodecRegistry {
	ro := MergeRegistryOptions(opts...)
	if codecs == nil {
		codecs = bson.DefaultRegistry
	}

	size := DefaultCacheSize
	if ro.CacheSize != nil && *ro.CacheSize > 0 {
		size = *ro.CacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		// size is always positive here
		panic(err)
	}

	r := &CodecRegistry{
		codecs: codecs,
		custom: make(map[reflect.Type]Serializer, len(ro.Serializers)),
		cache:  cache,
	}
	for _, s := range ro.Serializers {
		r.custom[s.ValueType()] = s
	}
	return r
}

var (
	defaultRegistry     *CodecRegistry
	defaultRegistryOnce sync.Once
)

// Default returns a shared registry backed by bson.DefaultRegistry.
func Default() *CodecRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// Codecs implements the Registry interface.
func (r *CodecRegistry) Codecs() *bsoncodec.Registry { return r.codecs }

// Serializer implements the Registry interface.
func (r *CodecRegistry) Serializer(t reflect.Type) (Serializer, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if s, ok := r.custom[t]; ok {
		return s, nil
	}
	if cached, ok := r.cache.Get(t); ok {
		return cached.(Serializer), nil
	}

	s, err := r.build(t)
	if err != nil {
		return nil, err
	}
	r.cache.Add(t, s)
	return s, nil
}

func (r *CodecRegistry) build(t reflect.Type) (Serializer, error) {
	if t.Kind() == reflect.Interface {
		return &valueSerializer{t: t, registry: r}, nil
	}
	if _, err := r.codecs.LookupEncoder(t); err != nil {
		return nil, &NoSerializerError{Type: t, Err: err}
	}

	base := t
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}

	switch {
	case isScalar(base):
		return &valueSerializer{t: t, registry: r}, nil
	case base == tD || base == tM || base == tRaw:
		return &dynamicDocumentSerializer{t: t, elem: tEmpty, registry: r}, nil
	case base.Kind() == reflect.Map && base.Key().Kind() == reflect.String:
		return &dynamicDocumentSerializer{t: t, elem: base.Elem(), registry: r}, nil
	case base.Kind() == reflect.Struct:
		return newStructSerializer(t, base, r)
	case base.Kind() == reflect.Slice, base.Kind() == reflect.Array:
		return &arraySerializer{t: t, item: base.Elem(), registry: r}, nil
	default:
		return &valueSerializer{t: t, registry: r}, nil
	}
}

// isScalar reports whether values of t encode as a single non-document,
// non-array BSON value even though t may be a struct, slice or array.
func isScalar(t reflect.Type) bool {
	if scalarStructTypes[t] || t == tObjectID || t == tByteSlice || t == tJSONNumber {
		return true
	}
	if t.Implements(tValueMarshaler) || reflect.PtrTo(t).Implements(tValueMarshaler) {
		return true
	}
	if t == tD || t == tM || t == tRaw {
		return false
	}
	return t.Implements(tMarshaler) || reflect.PtrTo(t).Implements(tMarshaler)
}

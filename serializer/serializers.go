// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package serializer

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

type valueSerializer struct {
	t        reflect.Type
	registry Registry
}

func (vs *valueSerializer) ValueType() reflect.Type { return vs.t }

func (vs *valueSerializer) Serialize(val interface{}) (bson.RawValue, error) {
	return marshalValue(vs.registry.Codecs(), vs.t, val)
}

// dynamicDocumentSerializer describes documents without a fixed schema, such
// as bson.D or map[string]T. Every name is a member.
type dynamicDocumentSerializer struct {
	t        reflect.Type
	elem     reflect.Type
	registry Registry
}

var _ DocumentSerializer = (*dynamicDocumentSerializer)(nil)

func (dds *dynamicDocumentSerializer) ValueType() reflect.Type { return dds.t }

func (dds *dynamicDocumentSerializer) Serialize(val interface{}) (bson.RawValue, error) {
	return marshalValue(dds.registry.Codecs(), dds.t, val)
}

func (dds *dynamicDocumentSerializer) MemberSerializationInfo(name string) (MemberInfo, bool) {
	s, err := dds.registry.Serializer(dds.elem)
	if err != nil {
		return MemberInfo{}, false
	}
	return MemberInfo{ElementName: name, Serializer: s}, true
}

type arraySerializer struct {
	t        reflect.Type
	item     reflect.Type
	registry Registry
}

var _ ArraySerializer = (*arraySerializer)(nil)

func (as *arraySerializer) ValueType() reflect.Type { return as.t }

func (as *arraySerializer) Serialize(val interface{}) (bson.RawValue, error) {
	return marshalValue(as.registry.Codecs(), as.t, val)
}

func (as *arraySerializer) ItemSerializer() Serializer {
	s, err := as.registry.Serializer(as.item)
	if err != nil {
		return nil
	}
	return s
}

type structMember struct {
	goName      string
	elementName string
	typ         reflect.Type
}

// StructSerializer describes a Go struct using the same struct tags the bson
// struct codec honors.
type StructSerializer struct {
	t        reflect.Type
	members  []structMember
	byName   map[string]int
	registry Registry
}

var _ DocumentSerializer = (*StructSerializer)(nil)

func newStructSerializer(t, base reflect.Type, r Registry) (*StructSerializer, error) {
	ss := &StructSerializer{t: t, byName: make(map[string]int), registry: r}
	if err := ss.describe(base, make(map[reflect.Type]bool)); err != nil {
		return nil, err
	}
	for i, m := range ss.members {
		ss.byName[m.elementName] = i
	}
	// Go names take precedence over element names that happen to collide.
	for i, m := range ss.members {
		ss.byName[m.goName] = i
	}
	return ss, nil
}

func (ss *StructSerializer) describe(st reflect.Type, seen map[reflect.Type]bool) error {
	if seen[st] {
		return nil
	}
	seen[st] = true

	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		tags, err := bsoncodec.DefaultStructTagParser.ParseStructTags(sf)
		if err != nil {
			return &NoSerializerError{Type: st, Err: err}
		}
		if tags.Skip {
			continue
		}

		ft := sf.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if tags.Inline && ft.Kind() == reflect.Struct {
			if err := ss.describe(ft, seen); err != nil {
				return err
			}
			continue
		}
		if sf.PkgPath != "" {
			continue
		}
		ss.members = append(ss.members, structMember{
			goName:      sf.Name,
			elementName: tags.Name,
			typ:         sf.Type,
		})
	}
	return nil
}

// ValueType implements the Serializer interface.
func (ss *StructSerializer) ValueType() reflect.Type { return ss.t }

// Serialize implements the Serializer interface.
func (ss *StructSerializer) Serialize(val interface{}) (bson.RawValue, error) {
	return marshalValue(ss.registry.Codecs(), ss.t, val)
}

// MemberSerializationInfo implements the DocumentSerializer interface.
func (ss *StructSerializer) MemberSerializationInfo(name string) (MemberInfo, bool) {
	idx, ok := ss.byName[name]
	if !ok {
		return MemberInfo{}, false
	}
	m := ss.members[idx]
	s, err := ss.registry.Serializer(m.typ)
	if err != nil {
		return MemberInfo{}, false
	}
	return MemberInfo{ElementName: m.elementName, Serializer: s}, true
}

// ElementNames returns the element names of the struct's members in
// declaration order.
func (ss *StructSerializer) ElementNames() []string {
	names := make([]string, 0, len(ss.members))
	for _, m := range ss.members {
		names = append(names, m.elementName)
	}
	return names
}

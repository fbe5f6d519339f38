// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package serializer

import (
	"strconv"
	"strings"
)

// ResolveMemberPath translates a chain of Go member accesses starting at s
// into a dotted element path. Array serializers are descended implicitly, so
// a member of a slice element resolves against the slice's item serializer.
// It returns the serializer of the last member.
func ResolveMemberPath(s Serializer, members ...string) (string, Serializer, error) {
	segments := make([]string, 0, len(members))
	cur := s
	for _, member := range members {
		cur = itemOf(cur)
		if cur == nil {
			return "", nil, &FieldNotSerializableError{Member: member, Reason: "no serializer for the enclosing value"}
		}
		ds, ok := cur.(DocumentSerializer)
		if !ok {
			return "", nil, &FieldNotSerializableError{
				Member: member,
				Type:   cur.ValueType(),
				Reason: "serializer does not provide member serialization info",
			}
		}
		info, ok := ds.MemberSerializationInfo(member)
		if !ok {
			return "", nil, &FieldNotSerializableError{Member: member, Type: cur.ValueType(), Reason: "no such member"}
		}
		segments = append(segments, info.ElementName)
		cur = info.Serializer
	}
	return strings.Join(segments, "."), cur, nil
}

// ResolveFieldName resolves a dotted field name against s as far as member
// information allows. Segments that cannot be resolved are kept verbatim and
// the returned serializer is nil from that point on. It never fails.
func ResolveFieldName(s Serializer, name string) (string, Serializer) {
	if name == "" {
		return name, nil
	}
	parts := strings.Split(name, ".")
	cur := s
	for i, part := range parts {
		if cur == nil {
			break
		}
		if as, ok := cur.(ArraySerializer); ok {
			if isPositional(part) {
				cur = as.ItemSerializer()
				continue
			}
			cur = as.ItemSerializer()
		}
		ds, ok := cur.(DocumentSerializer)
		if !ok {
			cur = nil
			break
		}
		info, ok := ds.MemberSerializationInfo(part)
		if !ok {
			cur = nil
			break
		}
		parts[i] = info.ElementName
		cur = info.Serializer
	}
	return strings.Join(parts, "."), cur
}

func itemOf(s Serializer) Serializer {
	for {
		as, ok := s.(ArraySerializer)
		if !ok {
			return s
		}
		s = as.ItemSerializer()
	}
}

func isPositional(segment string) bool {
	if segment == "$" || strings.HasPrefix(segment, "$[") {
		return true
	}
	_, err := strconv.Atoi(segment)
	return err == nil
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package mqltest contains a small in-memory query evaluator used by tests to
// check that rendered filters select the documents they should. It covers the
// comparison, membership and boolean operators the builders emit and is only
// precise enough to compare filters against each other on test data.
package mqltest

import (
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnsupportedOperatorError is returned for operators the evaluator does not
// implement.
type UnsupportedOperatorError struct {
	Operator string
}

func (uoe UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("evaluator does not support %s", uoe.Operator)
}

// Normalize round-trips v through BSON so that raw values, typed structs and
// maps all become bson.D, bson.A and plain scalars.
func Normalize(v interface{}) (bson.D, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Matches reports whether doc satisfies filter. Both must be normalized.
func Matches(doc, filter bson.D) (bool, error) {
	for _, e := range filter {
		switch e.Key {
		case "$and", "$or", "$nor":
			clauses, ok := e.Value.(bson.A)
			if !ok {
				return false, fmt.Errorf("%s requires an array, got %T", e.Key, e.Value)
			}
			anyMatch, all := false, true
			for _, c := range clauses {
				clause, ok := c.(bson.D)
				if !ok {
					return false, fmt.Errorf("%s clause must be a document, got %T", e.Key, c)
				}
				m, err := Matches(doc, clause)
				if err != nil {
					return false, err
				}
				anyMatch = anyMatch || m
				all = all && m
			}
			if (e.Key == "$and" && !all) || (e.Key == "$or" && !anyMatch) || (e.Key == "$nor" && anyMatch) {
				return false, nil
			}
		case "$expr":
			if b, ok := e.Value.(bool); !ok || !b {
				return false, nil
			}
		default:
			if strings.HasPrefix(e.Key, "$") {
				return false, UnsupportedOperatorError{Operator: e.Key}
			}
			value, found := Lookup(doc, e.Key)
			ok, err := matchValue(value, found, e.Value)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	return true, nil
}

// Filter returns the documents of docs that match filter.
func Filter(docs []bson.D, filter bson.D) ([]bson.D, error) {
	var out []bson.D
	for _, doc := range docs {
		ok, err := Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Lookup resolves a dotted path in doc.
func Lookup(doc bson.D, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		d, ok := cur.(bson.D)
		if !ok {
			return nil, false
		}
		found := false
		for _, e := range d {
			if e.Key == part {
				cur, found = e.Value, true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return cur, true
}

func matchValue(value interface{}, found bool, cond interface{}) (bool, error) {
	ops, isDoc := cond.(bson.D)
	if !isDoc || len(ops) == 0 || !strings.HasPrefix(ops[0].Key, "$") {
		if re, ok := cond.(primitive.Regex); ok {
			s, isString := value.(string)
			return found && isString && regexMatch(re, s), nil
		}
		return found && equalValues(value, cond), nil
	}

	for _, op := range ops {
		var ok bool
		switch op.Key {
		case "$eq":
			ok = found && equalValues(value, op.Value)
		case "$ne":
			ok = !found || !equalValues(value, op.Value)
		case "$gt", "$gte", "$lt", "$lte":
			c, comparable := compare(value, op.Value)
			ok = found && comparable && map[string]bool{
				"$gt": c > 0, "$gte": c >= 0, "$lt": c < 0, "$lte": c <= 0,
			}[op.Key]
		case "$in", "$nin":
			candidates, isArray := op.Value.(bson.A)
			if !isArray {
				return false, fmt.Errorf("%s requires an array, got %T", op.Key, op.Value)
			}
			in := false
			for _, candidate := range candidates {
				if found && equalValues(value, candidate) {
					in = true
				}
			}
			ok = in == (op.Key == "$in")
		case "$exists":
			exists, _ := op.Value.(bool)
			ok = found == exists
		case "$not":
			inner, err := matchValue(value, found, op.Value)
			if err != nil {
				return false, err
			}
			ok = !inner
		default:
			return false, UnsupportedOperatorError{Operator: op.Key}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// regexMatch understands anchored literal prefixes and suffixes and plain
// substrings.
func regexMatch(re primitive.Regex, s string) bool {
	p := re.Pattern
	switch {
	case strings.HasPrefix(p, "^"):
		return strings.HasPrefix(s, strings.TrimPrefix(p, "^"))
	case strings.HasSuffix(p, "$"):
		return strings.HasSuffix(s, strings.TrimSuffix(p, "$"))
	}
	return strings.Contains(s, p)
}

func equalValues(a, b interface{}) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	if arr, ok := a.(bson.A); ok {
		for _, item := range arr {
			if equalValues(item, b) {
				return true
			}
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b interface{}) (int, bool) {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package expr

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/ikmak/mongo-go-builders/internal/docutil"
	"github.com/ikmak/mongo-go-builders/serializer"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnsupportedExpressionError is returned when an expression uses a node the
// translator cannot express.
type UnsupportedExpressionError struct {
	Kind   Kind
	Reason string
}

func (uee *UnsupportedExpressionError) Error() string {
	if uee.Reason == "" {
		return fmt.Sprintf("unsupported expression: %s", uee.Kind)
	}
	return fmt.Sprintf("unsupported expression: %s: %s", uee.Kind, uee.Reason)
}

// Translator turns expressions into query language documents.
type Translator interface {
	// TranslatePredicate translates a boolean expression into a query filter.
	TranslatePredicate(e Expr, s serializer.Serializer, r serializer.Registry) (bson.D, error)
	// TranslateProjection translates a member or New expression into a
	// projection document.
	TranslateProjection(e Expr, s serializer.Serializer, r serializer.Registry) (bson.D, error)
}

// DefaultTranslator is the translator used when none is configured.
var DefaultTranslator Translator = translator{}

type translator struct{}

var comparisonOperators = map[Kind]string{
	KindEqual:        "$eq",
	KindNotEqual:     "$ne",
	KindGreater:      "$gt",
	KindGreaterEqual: "$gte",
	KindLess:         "$lt",
	KindLessEqual:    "$lte",
}

// mirrored swaps the sides of a comparison, so that 18 < Age becomes Age > 18.
var mirrored = map[Kind]Kind{
	KindEqual:        KindEqual,
	KindNotEqual:     KindNotEqual,
	KindGreater:      KindLess,
	KindGreaterEqual: KindLessEqual,
	KindLess:         KindGreater,
	KindLessEqual:    KindGreaterEqual,
}

var arithmeticOperators = map[Kind]string{
	KindAdd:      "$add",
	KindSubtract: "$subtract",
	KindMultiply: "$multiply",
	KindDivide:   "$divide",
}

// nilExprError reports a nil node, including typed nil pointers such as
// (*MemberExpr)(nil).
func nilExprError() error {
	return &UnsupportedExpressionError{Kind: "<nil>", Reason: "nil expression"}
}

func isNil(e Expr) bool {
	if e == nil {
		return true
	}
	rv := reflect.ValueOf(e)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func (t translator) TranslatePredicate(e Expr, s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	if isNil(e) {
		return nil, nilExprError()
	}
	switch n := e.(type) {
	case *BinaryExpr:
		switch n.Op {
		case KindAndAlso, KindOrElse:
			left, err := t.TranslatePredicate(n.Left, s, r)
			if err != nil {
				return nil, err
			}
			right, err := t.TranslatePredicate(n.Right, s, r)
			if err != nil {
				return nil, err
			}
			if n.Op == KindAndAlso {
				return docutil.And(left, right), nil
			}
			return docutil.Or(left, right), nil
		}
		if _, ok := comparisonOperators[n.Op]; ok {
			return t.comparison(n, s, r)
		}
		return nil, &UnsupportedExpressionError{Kind: n.Op, Reason: "not a predicate"}
	case *NotExpr:
		inner, err := t.TranslatePredicate(n.Operand, s, r)
		if err != nil {
			return nil, err
		}
		return docutil.Not(inner), nil
	case *MemberExpr:
		field, fs, err := serializer.ResolveMemberPath(s, n.Members...)
		if err != nil {
			return nil, err
		}
		if fs == nil || fs.ValueType().Kind() != reflect.Bool {
			return nil, &UnsupportedExpressionError{Kind: KindMember, Reason: "member " + field + " is not a bool"}
		}
		return bson.D{{Key: field, Value: true}}, nil
	case *ConstantExpr:
		b, ok := n.Value.(bool)
		if !ok {
			return nil, &UnsupportedExpressionError{Kind: KindConstant, Reason: "constant predicates must be bool"}
		}
		if b {
			return bson.D{}, nil
		}
		return bson.D{{Key: "$expr", Value: false}}, nil
	case *CallExpr:
		return t.call(n, s, r)
	}
	return nil, &UnsupportedExpressionError{Kind: e.Kind(), Reason: "not a predicate"}
}

func (t translator) comparison(n *BinaryExpr, s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	if isNil(n.Left) || isNil(n.Right) {
		return nil, nilExprError()
	}
	op := n.Op
	member, okL := n.Left.(*MemberExpr)
	constant, okR := n.Right.(*ConstantExpr)
	if !okL || !okR {
		member, okL = n.Right.(*MemberExpr)
		constant, okR = n.Left.(*ConstantExpr)
		op = mirrored[op]
	}
	if !okL || !okR {
		return nil, &UnsupportedExpressionError{Kind: n.Op, Reason: "comparisons need one member and one constant"}
	}

	field, fs, err := serializer.ResolveMemberPath(s, member.Members...)
	if err != nil {
		return nil, err
	}
	value, err := serializer.SerializeFor(fs, r, constant.Value)
	if err != nil {
		return nil, err
	}
	if op == KindEqual {
		return bson.D{{Key: field, Value: value}}, nil
	}
	return bson.D{{Key: field, Value: bson.D{{Key: comparisonOperators[op], Value: value}}}}, nil
}

func (t translator) call(n *CallExpr, s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	if isNil(n.Target) {
		return nil, nilExprError()
	}
	for _, arg := range n.Args {
		if isNil(arg) {
			return nil, nilExprError()
		}
	}
	switch n.Method {
	case MethodContains:
		if len(n.Args) != 1 {
			break
		}
		if member, ok := n.Target.(*MemberExpr); ok {
			return t.regex(member, n.Args[0], s, func(v string) string { return regexp.QuoteMeta(v) })
		}
		values, ok := n.Target.(*ConstantExpr)
		member, okM := n.Args[0].(*MemberExpr)
		if !ok || !okM {
			break
		}
		field, fs, err := serializer.ResolveMemberPath(s, member.Members...)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(values.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, &UnsupportedExpressionError{Kind: KindCall, Reason: "Contains target must be a slice"}
		}
		in := make(bson.A, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := serializer.SerializeFor(fs, r, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
		return bson.D{{Key: field, Value: bson.D{{Key: "$in", Value: in}}}}, nil
	case MethodStartsWith:
		if member, ok := n.Target.(*MemberExpr); ok && len(n.Args) == 1 {
			return t.regex(member, n.Args[0], s, func(v string) string { return "^" + regexp.QuoteMeta(v) })
		}
	case MethodEndsWith:
		if member, ok := n.Target.(*MemberExpr); ok && len(n.Args) == 1 {
			return t.regex(member, n.Args[0], s, func(v string) string { return regexp.QuoteMeta(v) + "$" })
		}
	case MethodAny:
		member, ok := n.Target.(*MemberExpr)
		if !ok || len(n.Args) != 1 {
			break
		}
		field, fs, err := serializer.ResolveMemberPath(s, member.Members...)
		if err != nil {
			return nil, err
		}
		as, ok := fs.(serializer.ArraySerializer)
		if !ok {
			return nil, &UnsupportedExpressionError{Kind: KindCall, Reason: "Any requires an array member, got " + field}
		}
		inner, err := t.TranslatePredicate(n.Args[0], as.ItemSerializer(), r)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: field, Value: bson.D{{Key: "$elemMatch", Value: inner}}}}, nil
	default:
		return nil, &UnsupportedExpressionError{Kind: KindCall, Reason: "unknown method " + n.Method}
	}
	return nil, &UnsupportedExpressionError{Kind: KindCall, Reason: "unsupported form of " + n.Method}
}

func (t translator) regex(member *MemberExpr, arg Expr, s serializer.Serializer, pattern func(string) string) (bson.D, error) {
	if isNil(arg) {
		return nil, nilExprError()
	}
	c, ok := arg.(*ConstantExpr)
	if !ok {
		return nil, &UnsupportedExpressionError{Kind: arg.Kind(), Reason: "string methods need a constant argument"}
	}
	str, ok := c.Value.(string)
	if !ok {
		return nil, &UnsupportedExpressionError{Kind: KindConstant, Reason: "string methods need a string argument"}
	}
	field, _, err := serializer.ResolveMemberPath(s, member.Members...)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: field, Value: primitive.Regex{Pattern: pattern(str)}}}, nil
}

func (t translator) TranslateProjection(e Expr, s serializer.Serializer, r serializer.Registry) (bson.D, error) {
	if isNil(e) {
		return nil, nilExprError()
	}
	switch n := e.(type) {
	case *MemberExpr:
		field, _, err := serializer.ResolveMemberPath(s, n.Members...)
		if err != nil {
			return nil, err
		}
		return withoutID(bson.D{{Key: field, Value: 1}}), nil
	case *NewExpr:
		out := make(bson.D, 0, len(n.Fields)+1)
		for _, f := range n.Fields {
			if m, ok := f.Value.(*MemberExpr); ok && m != nil {
				field, _, err := serializer.ResolveMemberPath(s, m.Members...)
				if err != nil {
					return nil, err
				}
				if field == f.Name {
					out = docutil.Set(out, f.Name, 1)
					continue
				}
			}
			v, err := t.aggregation(f.Value, s, r)
			if err != nil {
				return nil, err
			}
			out = docutil.Set(out, f.Name, v)
		}
		return withoutID(out), nil
	}
	return nil, &UnsupportedExpressionError{Kind: e.Kind(), Reason: "not a projection"}
}

// aggregation translates e into an aggregation expression.
func (t translator) aggregation(e Expr, s serializer.Serializer, r serializer.Registry) (interface{}, error) {
	if isNil(e) {
		return nil, nilExprError()
	}
	switch n := e.(type) {
	case *MemberExpr:
		field, _, err := serializer.ResolveMemberPath(s, n.Members...)
		if err != nil {
			return nil, err
		}
		return "$" + field, nil
	case *ConstantExpr:
		v, err := serializer.SerializeDynamic(r, n.Value)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$literal", Value: v}}, nil
	case *BinaryExpr:
		op, ok := arithmeticOperators[n.Op]
		if !ok {
			op, ok = comparisonOperators[n.Op]
		}
		switch n.Op {
		case KindAndAlso:
			op, ok = "$and", true
		case KindOrElse:
			op, ok = "$or", true
		}
		if !ok {
			return nil, &UnsupportedExpressionError{Kind: n.Op}
		}
		left, err := t.aggregation(n.Left, s, r)
		if err != nil {
			return nil, err
		}
		right, err := t.aggregation(n.Right, s, r)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: op, Value: bson.A{left, right}}}, nil
	case *NotExpr:
		inner, err := t.aggregation(n.Operand, s, r)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$not", Value: bson.A{inner}}}, nil
	}
	return nil, &UnsupportedExpressionError{Kind: e.Kind(), Reason: "not an aggregation expression"}
}

func withoutID(projection bson.D) bson.D {
	if _, ok := docutil.Lookup(projection, "_id"); ok {
		return projection
	}
	return append(projection, bson.E{Key: "_id", Value: 0})
}

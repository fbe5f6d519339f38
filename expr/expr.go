// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package expr is a small expression tree over the members of a document
// type. Expressions are built in Go code, stay inert until rendered, and are
// translated into query, projection or aggregation documents by a
// Translator.
//
// Members are referenced by their Go field names, for example
//
//	expr.And(
//	    expr.Gte(expr.Field("Age"), expr.Const(18)),
//	    expr.StartsWith(expr.Field("Address", "City"), "San"),
//	)
package expr

// Kind identifies the node type of an expression.
type Kind string

// These are the node kinds produced by the constructors in this package.
const (
	KindMember       Kind = "Member"
	KindConstant     Kind = "Constant"
	KindEqual        Kind = "Equal"
	KindNotEqual     Kind = "NotEqual"
	KindGreater      Kind = "GreaterThan"
	KindGreaterEqual Kind = "GreaterThanOrEqual"
	KindLess         Kind = "LessThan"
	KindLessEqual    Kind = "LessThanOrEqual"
	KindAndAlso      Kind = "AndAlso"
	KindOrElse       Kind = "OrElse"
	KindNot          Kind = "Not"
	KindAdd          Kind = "Add"
	KindSubtract     Kind = "Subtract"
	KindMultiply     Kind = "Multiply"
	KindDivide       Kind = "Divide"
	KindCall         Kind = "Call"
	KindNew          Kind = "New"
)

// Expr is a node of an expression tree.
type Expr interface {
	Kind() Kind
}

// MemberExpr accesses a chain of Go members of the source document.
type MemberExpr struct {
	Members []string
}

// Kind implements the Expr interface.
func (*MemberExpr) Kind() Kind { return KindMember }

// ConstantExpr is a literal value.
type ConstantExpr struct {
	Value interface{}
}

// Kind implements the Expr interface.
func (*ConstantExpr) Kind() Kind { return KindConstant }

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op          Kind
	Left, Right Expr
}

// Kind implements the Expr interface.
func (b *BinaryExpr) Kind() Kind { return b.Op }

// NotExpr negates a boolean expression.
type NotExpr struct {
	Operand Expr
}

// Kind implements the Expr interface.
func (*NotExpr) Kind() Kind { return KindNot }

// CallExpr calls a well known method on Target.
type CallExpr struct {
	Method string
	Target Expr
	Args   []Expr
}

// Kind implements the Expr interface.
func (*CallExpr) Kind() Kind { return KindCall }

// NamedExpr is a single member of a NewExpr.
type NamedExpr struct {
	Name  string
	Value Expr
}

// NewExpr constructs a new document from named expressions.
type NewExpr struct {
	Fields []NamedExpr
}

// Kind implements the Expr interface.
func (*NewExpr) Kind() Kind { return KindNew }

// Methods understood by the default translator.
const (
	MethodContains   = "Contains"
	MethodStartsWith = "StartsWith"
	MethodEndsWith   = "EndsWith"
	MethodAny        = "Any"
)

// Field references a chain of Go members.
func Field(members ...string) *MemberExpr { return &MemberExpr{Members: members} }

// Const wraps a literal value.
func Const(v interface{}) *ConstantExpr { return &ConstantExpr{Value: v} }

func binary(op Kind, l, r Expr) *BinaryExpr { return &BinaryExpr{Op: op, Left: l, Right: r} }

// Eq compares two expressions for equality.
func Eq(l, r Expr) Expr { return binary(KindEqual, l, r) }

// Ne compares two expressions for inequality.
func Ne(l, r Expr) Expr { return binary(KindNotEqual, l, r) }

// Gt is l > r.
func Gt(l, r Expr) Expr { return binary(KindGreater, l, r) }

// Gte is l >= r.
func Gte(l, r Expr) Expr { return binary(KindGreaterEqual, l, r) }

// Lt is l < r.
func Lt(l, r Expr) Expr { return binary(KindLess, l, r) }

// Lte is l <= r.
func Lte(l, r Expr) Expr { return binary(KindLessEqual, l, r) }

// Add is l + r.
func Add(l, r Expr) Expr { return binary(KindAdd, l, r) }

// Subtract is l - r.
func Subtract(l, r Expr) Expr { return binary(KindSubtract, l, r) }

// Multiply is l * r.
func Multiply(l, r Expr) Expr { return binary(KindMultiply, l, r) }

// Divide is l / r.
func Divide(l, r Expr) Expr { return binary(KindDivide, l, r) }

// And folds exprs into a left-associated chain of AndAlso nodes.
func And(exprs ...Expr) Expr { return fold(KindAndAlso, exprs) }

// Or folds exprs into a left-associated chain of OrElse nodes.
func Or(exprs ...Expr) Expr { return fold(KindOrElse, exprs) }

func fold(op Kind, exprs []Expr) Expr {
	if len(exprs) == 0 {
		return Const(op == KindAndAlso)
	}
	acc := exprs[0]
	for _, e := range exprs[1:] {
		acc = binary(op, acc, e)
	}
	return acc
}

// Not negates e.
func Not(e Expr) Expr { return &NotExpr{Operand: e} }

// Contains is a substring test when target is a string member, or a
// membership test when target is a constant slice and value is a member.
func Contains(target, value Expr) Expr {
	return &CallExpr{Method: MethodContains, Target: target, Args: []Expr{value}}
}

// In tests whether member equals any of values.
func In(member *MemberExpr, values interface{}) Expr {
	return Contains(Const(values), member)
}

// StartsWith tests a string member for a prefix.
func StartsWith(member *MemberExpr, prefix string) Expr {
	return &CallExpr{Method: MethodStartsWith, Target: member, Args: []Expr{Const(prefix)}}
}

// EndsWith tests a string member for a suffix.
func EndsWith(member *MemberExpr, suffix string) Expr {
	return &CallExpr{Method: MethodEndsWith, Target: member, Args: []Expr{Const(suffix)}}
}

// Any tests whether some element of an array member satisfies predicate.
// The predicate's members are resolved against the element type.
func Any(member *MemberExpr, predicate Expr) Expr {
	return &CallExpr{Method: MethodAny, Target: member, Args: []Expr{predicate}}
}

// New builds a document from named expressions.
func New(fields ...NamedExpr) *NewExpr { return &NewExpr{Fields: fields} }

// Named pairs an output name with an expression.
func Named(name string, value Expr) NamedExpr { return NamedExpr{Name: name, Value: value} }

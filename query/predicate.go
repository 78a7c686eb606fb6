/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"

	"github.com/suparena/entityrecord/errors"
	"github.com/suparena/entityrecord/storagemodels"
)

// Operator is a comparison operator of a predicate leaf.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
)

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	}
	return "?"
}

// ParseOperator parses the textual form returned by String.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "==", "=", "eq":
		return OpEqual, nil
	case "!=", "<>", "ne":
		return OpNotEqual, nil
	case "<", "lt":
		return OpLessThan, nil
	case "<=", "le", "lte":
		return OpLessOrEqual, nil
	case ">", "gt":
		return OpGreaterThan, nil
	case ">=", "ge", "gte":
		return OpGreaterOrEqual, nil
	}
	return OpEqual, errors.NewValidationError("operator", "unknown operator "+s)
}

func (op Operator) ordering() bool {
	return op != OpEqual && op != OpNotEqual
}

// Node is a predicate tree node: a Comparison, AndNode, OrNode or NotNode.
// A nil Node matches every entity.
type Node interface {
	node()
}

// Comparison compares the value at Path with Value.
type Comparison struct {
	Path  string
	Op    Operator
	Value storagemodels.Value
}

// AndNode matches when every child matches. An empty AndNode matches everything.
type AndNode struct {
	Children []Node
}

// OrNode matches when any child matches. An empty OrNode matches nothing.
type OrNode struct {
	Children []Node
}

// NotNode inverts its child.
type NotNode struct {
	Child Node
}

func (Comparison) node() {}
func (AndNode) node()    {}
func (OrNode) node()     {}
func (NotNode) node()    {}

// Compare builds a comparison leaf.
func Compare(path string, op Operator, v storagemodels.Value) Node {
	return Comparison{Path: path, Op: op, Value: v}
}

// Eq matches entities whose value at path equals v.
func Eq(path string, v storagemodels.Value) Node { return Compare(path, OpEqual, v) }

// Ne matches entities whose value at path differs from v.
func Ne(path string, v storagemodels.Value) Node { return Compare(path, OpNotEqual, v) }

// Lt matches entities whose value at path is less than v.
func Lt(path string, v storagemodels.Value) Node { return Compare(path, OpLessThan, v) }

// Le matches entities whose value at path is at most v.
func Le(path string, v storagemodels.Value) Node { return Compare(path, OpLessOrEqual, v) }

// Gt matches entities whose value at path is greater than v.
func Gt(path string, v storagemodels.Value) Node { return Compare(path, OpGreaterThan, v) }

// Ge matches entities whose value at path is at least v.
func Ge(path string, v storagemodels.Value) Node { return Compare(path, OpGreaterOrEqual, v) }

// And combines children with logical AND.
func And(children ...Node) Node { return AndNode{Children: children} }

// Or combines children with logical OR.
func Or(children ...Node) Node { return OrNode{Children: children} }

// Not negates a node.
func Not(child Node) Node { return NotNode{Child: child} }

// deref returns the value form of a node built by address, so &AndNode{...}
// and AndNode{...} behave the same. A nil pointer is the nil Node.
func deref(n Node) Node {
	switch tn := n.(type) {
	case *Comparison:
		if tn == nil {
			return nil
		}
		return *tn
	case *AndNode:
		if tn == nil {
			return nil
		}
		return *tn
	case *OrNode:
		if tn == nil {
			return nil
		}
		return *tn
	case *NotNode:
		if tn == nil {
			return nil
		}
		return *tn
	}
	return n
}

// Evaluate reports whether e satisfies n. Logical nodes short-circuit.
// Ordering comparisons against a null entity value are false; equality
// treats null as equal only to null.
func Evaluate(ctx context.Context, r Resolver, n Node, e *storagemodels.Entity) (bool, error) {
	switch tn := deref(n).(type) {
	case nil:
		return true, nil
	case Comparison:
		return evaluateComparison(ctx, r, tn, e)
	case AndNode:
		for _, child := range tn.Children {
			ok, err := Evaluate(ctx, r, child, e)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OrNode:
		for _, child := range tn.Children {
			ok, err := Evaluate(ctx, r, child, e)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case NotNode:
		ok, err := Evaluate(ctx, r, tn.Child, e)
		return !ok && err == nil, err
	}
	return false, errors.NewValidationError("predicate", "unsupported node type")
}

func evaluateComparison(ctx context.Context, r Resolver, c Comparison, e *storagemodels.Entity) (bool, error) {
	actual, err := ResolvePath(ctx, r, e, c.Path)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case OpEqual, OpNotEqual:
		eq, err := storagemodels.Equal(actual, c.Value)
		if err != nil {
			return false, err
		}
		return eq == (c.Op == OpEqual), nil
	}

	if c.Value.IsNull() {
		return false, errors.NewTypeMismatchError(c.Op.String(), storagemodels.KindNull.String(), "")
	}
	if actual.IsNull() {
		return false, nil
	}
	cmp, err := storagemodels.Compare(actual, c.Value)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpLessThan:
		return cmp < 0, nil
	case OpLessOrEqual:
		return cmp <= 0, nil
	case OpGreaterThan:
		return cmp > 0, nil
	case OpGreaterOrEqual:
		return cmp >= 0, nil
	}
	return false, errors.NewValidationError("operator", "unknown operator")
}

// Validate checks every path of n against the schema of entityType and that
// each comparison value can be compared with the kind the path yields. It
// lets callers fail deterministically before any entity is read.
func Validate(r Resolver, entityType string, n Node) error {
	switch tn := deref(n).(type) {
	case nil:
		return nil
	case Comparison:
		return validateComparison(r, entityType, tn)
	case AndNode:
		return validateAll(r, entityType, tn.Children)
	case OrNode:
		return validateAll(r, entityType, tn.Children)
	case NotNode:
		return Validate(r, entityType, tn.Child)
	}
	return errors.NewValidationError("predicate", "unsupported node type")
}

func validateAll(r Resolver, entityType string, children []Node) error {
	for _, child := range children {
		if err := Validate(r, entityType, child); err != nil {
			return err
		}
	}
	return nil
}

func validateComparison(r Resolver, entityType string, c Comparison) error {
	kind, err := CheckPath(r, entityType, c.Path)
	if err != nil {
		return err
	}
	vk := c.Value.Kind()
	if c.Op.ordering() {
		if vk == storagemodels.KindNull || kind == storagemodels.KindRef {
			return errors.NewTypeMismatchError(c.Op.String(), kind.String(), vk.String())
		}
	}
	if vk == storagemodels.KindNull || vk == kind || (vk.IsNumeric() && kind.IsNumeric()) {
		return nil
	}
	return errors.NewTypeMismatchError(c.Op.String(), kind.String(), vk.String())
}

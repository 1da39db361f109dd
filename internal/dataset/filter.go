package dataset

import (
	"fmt"
	"strings"

	"github.com/yaroslaff/sashimidb/internal/expr"
)

var suffixOps = map[string]string{
	"lt": "<",
	"le": "<=",
	"gt": ">",
	"ge": ">=",
}

// desugarFilter turns a SearchQuery.Filter mapping into an AND-joined
// expr.Node, per spec §4.2 "Filter desugaring":
//
//	k bare, v scalar  => k == literal(v)
//	k bare, v list    => k in list-literal(v)
//	k = "field__lt|le|gt|ge" => field <op> literal(v)  (unknown suffix is an error)
func desugarFilter(filter map[string]any) (expr.Node, error) {
	var node expr.Node
	for k, v := range filter {
		clause, err := desugarClause(k, v)
		if err != nil {
			return nil, err
		}
		if node == nil {
			node = clause
		} else {
			node = expr.BoolOpNode{Op: "and", Left: node, Right: clause}
		}
	}
	return node, nil
}

func desugarClause(key string, v any) (expr.Node, error) {
	if idx := strings.LastIndex(key, "__"); idx > 0 {
		field, suffix := key[:idx], key[idx+2:]
		if op, ok := suffixOps[suffix]; ok {
			return expr.CompareNode{Op: op, Left: expr.NameNode{Name: field}, Right: literalNode(v)}, nil
		}
		return nil, fmt.Errorf("unknown filter suffix %q in key %q", suffix, key)
	}

	if list, ok := v.([]any); ok {
		items := make([]expr.Node, len(list))
		for i, item := range list {
			items[i] = literalNode(item)
		}
		return expr.InNode{Left: expr.NameNode{Name: key}, Right: expr.ListLitNode{Items: items}}, nil
	}

	return expr.CompareNode{Op: "==", Left: expr.NameNode{Name: key}, Right: literalNode(v)}, nil
}

func literalNode(v any) expr.Node {
	return expr.LiteralNode{Value: expr.FromAny(v)}
}

// combineAnd AND-joins two expr.Node trees, treating a nil left as the
// identity (no-op filter).
func combineAnd(left, right expr.Node) expr.Node {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return expr.BoolOpNode{Op: "and", Left: left, Right: right}
}

package expr

import "fmt"

// CompiledExpr is the reusable, validated form produced by Compile. It is
// compiled once per (src, model) pair and evaluated once per record.
type CompiledExpr struct {
	src  string
	root Node
}

// Source returns the original expression text.
func (c *CompiledExpr) Source() string { return c.src }

// Compile parses src into a syntax tree and validates every node against
// model: any node kind not in model.Nodes, any attribute not in
// model.Attributes, or any called name not in model.Functions causes
// Compile to fail. Name references that are not in the function list are
// left as record-field lookups, resolved at Eval time.
func Compile(src string, model EvalModel) (*CompiledExpr, error) {
	root, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("cannot parse expression %q: %w", src, err)
	}
	if err := validate(root, model); err != nil {
		return nil, err
	}
	return &CompiledExpr{src: src, root: root}, nil
}

// CompileNode validates and wraps an already-built AST node, for callers
// (such as the Dataset Engine's filter desugaring) that construct nodes
// programmatically instead of parsing source text.
func CompileNode(root Node, model EvalModel) (*CompiledExpr, error) {
	if err := validate(root, model); err != nil {
		return nil, err
	}
	return &CompiledExpr{src: "", root: root}, nil
}

// Root exposes the validated AST root, so combinators (AND-joining a
// desugared filter with a parsed `expr`) can build a new tree from
// existing CompiledExpr values.
func (c *CompiledExpr) Root() Node { return c.root }

func validate(n Node, model EvalModel) error {
	if !model.Nodes[n.Kind()] {
		return fmt.Errorf("node kind %s is not allowed by the active expression model", n.Kind())
	}

	switch node := n.(type) {
	case LiteralNode:
		return nil
	case NameNode:
		return nil
	case ListLitNode:
		for _, item := range node.Items {
			if err := validate(item, model); err != nil {
				return err
			}
		}
		return nil
	case BoolOpNode:
		if err := validate(node.Left, model); err != nil {
			return err
		}
		return validate(node.Right, model)
	case UnaryNotNode:
		return validate(node.Operand, model)
	case UnaryNegNode:
		return validate(node.Operand, model)
	case CompareNode:
		if err := validate(node.Left, model); err != nil {
			return err
		}
		return validate(node.Right, model)
	case InNode:
		if err := validate(node.Left, model); err != nil {
			return err
		}
		return validate(node.Right, model)
	case BinOpNode:
		if err := validate(node.Left, model); err != nil {
			return err
		}
		return validate(node.Right, model)
	case AttrNode:
		if !model.Attributes[node.Attr] {
			return fmt.Errorf("attribute %q is not allowed by the active expression model", node.Attr)
		}
		if err := validate(node.Receiver, model); err != nil {
			return err
		}
		for _, a := range node.Args {
			if err := validate(a, model); err != nil {
				return err
			}
		}
		return nil
	case CallNode:
		if !model.Functions[node.Func] {
			return fmt.Errorf("function %q is not allowed by the active expression model", node.Func)
		}
		for _, a := range node.Args {
			if err := validate(a, model); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unrecognized node type %T", n)
	}
}

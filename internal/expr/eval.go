package expr

import (
	"fmt"
	"math"
	"strings"
)

// Eval evaluates a compiled expression against record, which binds free
// names (record field lookups). A missing name, a type mismatch, or any
// other runtime failure is returned as an error — callers treat this as a
// per-record exception, not a fatal condition.
func Eval(c *CompiledExpr, record map[string]any) (Value, error) {
	return evalNode(c.root, record)
}

func evalNode(n Node, record map[string]any) (Value, error) {
	switch node := n.(type) {
	case LiteralNode:
		return node.Value, nil

	case NameNode:
		v, ok := record[node.Name]
		if !ok {
			return Null, fmt.Errorf("name %q is not defined", node.Name)
		}
		return FromAny(v), nil

	case ListLitNode:
		items := make([]Value, len(node.Items))
		for i, item := range node.Items {
			v, err := evalNode(item, record)
			if err != nil {
				return Null, err
			}
			items[i] = v
		}
		return List(items), nil

	case BoolOpNode:
		left, err := evalNode(node.Left, record)
		if err != nil {
			return Null, err
		}
		switch node.Op {
		case "and":
			if !left.Truthy() {
				return left, nil
			}
			return evalNode(node.Right, record)
		case "or":
			if left.Truthy() {
				return left, nil
			}
			return evalNode(node.Right, record)
		default:
			return Null, fmt.Errorf("unknown boolean operator %q", node.Op)
		}

	case UnaryNotNode:
		v, err := evalNode(node.Operand, record)
		if err != nil {
			return Null, err
		}
		return Bool(!v.Truthy()), nil

	case UnaryNegNode:
		v, err := evalNode(node.Operand, record)
		if err != nil {
			return Null, err
		}
		switch v.Kind {
		case KindInt:
			return Int(-v.Int), nil
		case KindFloat:
			return Float(-v.Flt), nil
		default:
			return Null, fmt.Errorf("cannot negate value of kind %s", v.Kind)
		}

	case CompareNode:
		left, err := evalNode(node.Left, record)
		if err != nil {
			return Null, err
		}
		right, err := evalNode(node.Right, record)
		if err != nil {
			return Null, err
		}
		return evalCompare(node.Op, left, right)

	case InNode:
		left, err := evalNode(node.Left, record)
		if err != nil {
			return Null, err
		}
		right, err := evalNode(node.Right, record)
		if err != nil {
			return Null, err
		}
		switch right.Kind {
		case KindList:
			for _, item := range right.List {
				if Equal(left, item) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		case KindString:
			if left.Kind != KindString {
				return Null, fmt.Errorf("'in' on a string requires a string operand")
			}
			return Bool(strings.Contains(right.Str, left.Str)), nil
		case KindMap:
			_, ok := right.Map[left.Str]
			return Bool(ok), nil
		default:
			return Null, fmt.Errorf("right-hand side of 'in' must be a list, string or map, got %s", right.Kind)
		}

	case BinOpNode:
		left, err := evalNode(node.Left, record)
		if err != nil {
			return Null, err
		}
		right, err := evalNode(node.Right, record)
		if err != nil {
			return Null, err
		}
		return evalBinOp(node.Op, left, right)

	case AttrNode:
		recv, err := evalNode(node.Receiver, record)
		if err != nil {
			return Null, err
		}
		args := make([]Value, len(node.Args))
		for i, a := range node.Args {
			v, err := evalNode(a, record)
			if err != nil {
				return Null, err
			}
			args[i] = v
		}
		return evalAttr(node.Attr, recv, args)

	case CallNode:
		args := make([]Value, len(node.Args))
		for i, a := range node.Args {
			v, err := evalNode(a, record)
			if err != nil {
				return Null, err
			}
			args[i] = v
		}
		return evalCall(node.Func, args)

	default:
		return Null, fmt.Errorf("unrecognized node type %T", n)
	}
}

func evalCompare(op string, left, right Value) (Value, error) {
	if op == "==" {
		return Bool(Equal(left, right)), nil
	}
	if op == "!=" {
		return Bool(!Equal(left, right)), nil
	}
	cmp, err := Compare(left, right)
	if err != nil {
		return Null, err
	}
	switch op {
	case "<":
		return Bool(cmp < 0), nil
	case "<=":
		return Bool(cmp <= 0), nil
	case ">":
		return Bool(cmp > 0), nil
	case ">=":
		return Bool(cmp >= 0), nil
	default:
		return Null, fmt.Errorf("unknown comparison operator %q", op)
	}
}

func evalBinOp(op string, left, right Value) (Value, error) {
	if op == "+" && left.Kind == KindString && right.Kind == KindString {
		return String(left.Str + right.Str), nil
	}
	if !left.isNumeric() || !right.isNumeric() {
		return Null, fmt.Errorf("arithmetic operator %q requires numeric operands, got %s and %s", op, left.Kind, right.Kind)
	}
	if left.Kind == KindInt && right.Kind == KindInt && op != "/" {
		switch op {
		case "+":
			return Int(left.Int + right.Int), nil
		case "-":
			return Int(left.Int - right.Int), nil
		case "*":
			return Int(left.Int * right.Int), nil
		case "%":
			if right.Int == 0 {
				return Null, fmt.Errorf("modulo by zero")
			}
			return Int(left.Int % right.Int), nil
		}
	}
	a, b := left.asFloat(), right.asFloat()
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	case "/":
		if b == 0 {
			return Null, fmt.Errorf("division by zero")
		}
		return Float(a / b), nil
	case "%":
		if b == 0 {
			return Null, fmt.Errorf("modulo by zero")
		}
		return Float(math.Mod(a, b)), nil
	default:
		return Null, fmt.Errorf("unknown arithmetic operator %q", op)
	}
}

func evalAttr(attr string, recv Value, args []Value) (Value, error) {
	if recv.Kind != KindString {
		return Null, fmt.Errorf("attribute %q is only defined on strings, got %s", attr, recv.Kind)
	}
	switch attr {
	case "upper":
		return String(strings.ToUpper(recv.Str)), nil
	case "lower":
		return String(strings.ToLower(recv.Str)), nil
	case "startswith":
		if len(args) != 1 || args[0].Kind != KindString {
			return Null, fmt.Errorf("startswith expects a single string argument")
		}
		return Bool(strings.HasPrefix(recv.Str, args[0].Str)), nil
	case "endswith":
		if len(args) != 1 || args[0].Kind != KindString {
			return Null, fmt.Errorf("endswith expects a single string argument")
		}
		return Bool(strings.HasSuffix(recv.Str, args[0].Str)), nil
	default:
		return Null, fmt.Errorf("unknown attribute %q", attr)
	}
}

func evalCall(fn string, args []Value) (Value, error) {
	switch fn {
	case "int":
		if len(args) != 1 {
			return Null, fmt.Errorf("int() expects exactly one argument")
		}
		switch args[0].Kind {
		case KindInt:
			return args[0], nil
		case KindFloat:
			return Int(int64(args[0].Flt)), nil
		case KindString:
			var i int64
			_, err := fmt.Sscanf(args[0].Str, "%d", &i)
			if err != nil {
				return Null, fmt.Errorf("cannot convert %q to int", args[0].Str)
			}
			return Int(i), nil
		case KindBool:
			if args[0].Bool {
				return Int(1), nil
			}
			return Int(0), nil
		default:
			return Null, fmt.Errorf("cannot convert %s to int", args[0].Kind)
		}

	case "round":
		if len(args) < 1 || len(args) > 2 {
			return Null, fmt.Errorf("round() expects one or two arguments")
		}
		if !args[0].isNumeric() {
			return Null, fmt.Errorf("round() requires a numeric argument")
		}
		ndigits := 0
		if len(args) == 2 {
			if args[1].Kind != KindInt {
				return Null, fmt.Errorf("round() precision must be an integer")
			}
			ndigits = int(args[1].Int)
		}
		factor := math.Pow(10, float64(ndigits))
		rounded := math.Round(args[0].asFloat()*factor) / factor
		if ndigits <= 0 {
			return Int(int64(rounded)), nil
		}
		return Float(rounded), nil

	default:
		return Null, fmt.Errorf("unknown function %q", fn)
	}
}

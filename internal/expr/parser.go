package expr

import (
	"fmt"
	"strconv"
)

// parser is a small recursive-descent parser over the token stream
// produced by lex. Precedence, loosest to tightest:
//
//	or
//	and
//	not
//	comparison (== != < <= > >= in)
//	additive (+ -)
//	multiplicative (* / %)
//	unary (-)
//	postfix (.attr(...), call(...))
//	primary (literal, name, list, parenthesized)
type parser struct {
	toks []token
	pos  int
}

func parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.cur().text, p.cur().pos)
	}
	return n, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isIdent(text string) bool {
	return p.cur().kind == tokIdent && p.cur().text == text
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isIdent("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BoolOpNode{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isIdent("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BoolOpNode{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.isIdent("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryNotNode{Operand: operand}, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokOp && compareOps[p.cur().text] {
		op := p.advance().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return CompareNode{Op: op, Left: left, Right: right}, nil
	}
	if p.isIdent("in") {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return InNode{Left: left, Right: right}, nil
	}
	if p.isIdent("not") {
		// "x not in y"
		save := p.pos
		p.advance()
		if p.isIdent("in") {
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return UnaryNotNode{Operand: InNode{Left: left, Right: right}}, nil
		}
		p.pos = save
	}
	return left, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinOpNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "/" || p.cur().text == "%") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinOpNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur().kind == tokOp && p.cur().text == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryNegNode{Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokDot {
		p.advance()
		if p.cur().kind != tokIdent {
			return nil, fmt.Errorf("expected attribute name at position %d", p.cur().pos)
		}
		attr := p.advance().text
		var args []Node
		if p.cur().kind == tokLParen {
			p.advance()
			args, err = p.parseArgs()
			if err != nil {
				return nil, err
			}
		}
		node = AttrNode{Receiver: node, Attr: attr, Args: args}
	}
	return node, nil
}

func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.cur().kind == tokRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if p.cur().kind != tokRParen {
		return nil, fmt.Errorf("expected ')' at position %d", p.cur().pos)
	}
	p.advance()
	return args, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		i, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q", t.text)
		}
		return LiteralNode{Value: Int(i)}, nil

	case tokFloat:
		p.advance()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q", t.text)
		}
		return LiteralNode{Value: Float(f)}, nil

	case tokString:
		p.advance()
		return LiteralNode{Value: String(t.text)}, nil

	case tokLBracket:
		p.advance()
		var items []Node
		if p.cur().kind != tokRBracket {
			for {
				item, err := p.parseOr()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if p.cur().kind == tokComma {
					p.advance()
					continue
				}
				break
			}
		}
		if p.cur().kind != tokRBracket {
			return nil, fmt.Errorf("expected ']' at position %d", p.cur().pos)
		}
		p.advance()
		return ListLitNode{Items: items}, nil

	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at position %d", p.cur().pos)
		}
		p.advance()
		return inner, nil

	case tokIdent:
		switch t.text {
		case "True":
			p.advance()
			return LiteralNode{Value: Bool(true)}, nil
		case "False":
			p.advance()
			return LiteralNode{Value: Bool(false)}, nil
		case "None", "null":
			p.advance()
			return LiteralNode{Value: Null}, nil
		}
		name := p.advance().text
		if p.cur().kind == tokLParen {
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return CallNode{Func: name, Args: args}, nil
		}
		return NameNode{Name: name}, nil

	default:
		return nil, fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
	}
}

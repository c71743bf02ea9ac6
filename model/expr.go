package model

import (
	"fmt"
	"math"
	"strconv"
	"unicode"

	"rethink/errors"
)

// Env resolves an identifier to a value during evaluation
type Env func(name string) (float64, bool)

// Expr is an arithmetic expression appearing on the right-hand side of a
// deterministic statement or inside a distribution argument.
type Expr interface {
	// Eval computes the expression under env. Unresolvable identifiers
	// evaluate to NaN; Compile validates names up front so this only
	// happens on misuse.
	Eval(env Env) float64
	// Vars appends every identifier referenced by the expression
	Vars(dst []string) []string
	String() string
}

type numLit struct{ val float64 }

func (n numLit) Eval(Env) float64            { return n.val }
func (n numLit) Vars(dst []string) []string  { return dst }
func (n numLit) String() string              { return strconv.FormatFloat(n.val, 'g', -1, 64) }

type ident struct{ name string }

func (id ident) Eval(env Env) float64 {
	if v, ok := env(id.name); ok {
		return v
	}
	return math.NaN()
}
func (id ident) Vars(dst []string) []string { return append(dst, id.name) }
func (id ident) String() string             { return id.name }

type unary struct{ operand Expr }

func (u unary) Eval(env Env) float64           { return -u.operand.Eval(env) }
func (u unary) Vars(dst []string) []string     { return u.operand.Vars(dst) }
func (u unary) String() string                 { return "-" + u.operand.String() }

type binary struct {
	op          byte // one of + - * /
	left, right Expr
}

func (b binary) Eval(env Env) float64 {
	l, r := b.left.Eval(env), b.right.Eval(env)
	switch b.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	default:
		return l / r
	}
}
func (b binary) Vars(dst []string) []string { return b.right.Vars(b.left.Vars(dst)) }
func (b binary) String() string {
	return fmt.Sprintf("(%s %c %s)", b.left.String(), b.op, b.right.String())
}

type call struct {
	fn  string // exp or log
	arg Expr
}

func (c call) Eval(env Env) float64 {
	v := c.arg.Eval(env)
	if c.fn == "exp" {
		return math.Exp(v)
	}
	return math.Log(v)
}
func (c call) Vars(dst []string) []string { return c.arg.Vars(dst) }
func (c call) String() string             { return c.fn + "(" + c.arg.String() + ")" }

// exprParser is a recursive-descent parser over a single expression string.
// Grammar:
//
//	expr   := term (('+'|'-') term)*
//	term   := factor (('*'|'/') factor)*
//	factor := NUMBER | IDENT | IDENT '(' expr ')' | '(' expr ')' | '-' factor
type exprParser struct {
	src string
	pos int
}

func parseExpr(src string) (Expr, error) {
	p := &exprParser{src: src}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, errors.NewInvalidSpecError("unexpected %q in expression %q", p.src[p.pos:], src)
	}
	return e, nil
}

func (p *exprParser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || (p.src[p.pos] != '+' && p.src[p.pos] != '-') {
			return left, nil
		}
		op := p.src[p.pos]
		p.pos++
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *exprParser) term() (Expr, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || (p.src[p.pos] != '*' && p.src[p.pos] != '/') {
			return left, nil
		}
		op := p.src[p.pos]
		p.pos++
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *exprParser) factor() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, errors.NewInvalidSpecError("unexpected end of expression %q", p.src)
	}
	c := p.src[p.pos]

	switch {
	case c == '-':
		p.pos++
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return unary{operand: operand}, nil

	case c == '(':
		p.pos++
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return inner, nil

	case c >= '0' && c <= '9' || c == '.':
		return p.number()

	case isIdentStart(rune(c)):
		name := p.ident()
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '(' {
			if name != "exp" && name != "log" {
				return nil, errors.NewInvalidSpecError("unknown function %q (only exp and log are supported)", name)
			}
			p.pos++
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(')'); err != nil {
				return nil, err
			}
			return call{fn: name, arg: arg}, nil
		}
		return ident{name: name}, nil
	}

	return nil, errors.NewInvalidSpecError("unexpected %q in expression %q", string(c), p.src)
}

func (p *exprParser) number() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		// exponent sign
		if (c == '+' || c == '-') && p.pos > start && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	val, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, errors.NewInvalidSpecError("bad number %q", p.src[start:p.pos])
	}
	return numLit{val: val}, nil
}

func (p *exprParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return errors.NewInvalidSpecError("expected %q in expression %q", string(c), p.src)
	}
	p.pos++
	return nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// uniqueVars returns the deduplicated identifiers of an expression in first-seen order
func uniqueVars(e Expr) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range e.Vars(nil) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

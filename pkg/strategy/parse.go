package strategy

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	src   string
	pos   int
	table *Table
}

// Parse parses a strategy string against a method table.
func Parse(table *Table, text string) (Node, error) {
	p := &parser{src: text, table: table}
	n, err := p.strat()
	if err != nil {
		return nil, err
	}
	if c := p.peek(); c != 0 {
		return nil, p.errorf("unexpected %q", c)
	}
	return n, nil
}

// MustParse is like Parse but panics on error. It is meant for built-in
// default strategies.
func MustParse(table *Table, text string) Node {
	n, err := Parse(table, text)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: at offset %d in %q: %s", ErrSyntax, p.pos, p.src, fmt.Sprintf(format, args...))
}

// peek returns the next non-blank byte, or 0 at the end of the input.
func (p *parser) peek() byte {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) accept(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if !p.accept(c) {
		if got := p.peek(); got != 0 {
			return p.errorf("expected %q, got %q", c, got)
		}
		return p.errorf("expected %q at end of input", c)
	}
	return nil
}

func (p *parser) strat() (Node, error) {
	left, err := p.concat()
	if err != nil {
		return nil, err
	}
	for p.accept('|') {
		right, err := p.concat()
		if err != nil {
			return nil, err
		}
		left = &Select{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) concat() (Node, error) {
	var n Node
	for {
		switch p.peek() {
		case 0, '|', ')', ':', ';', ',', '}':
			if n == nil {
				return &Empty{}, nil
			}
			return n, nil
		}
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		if n == nil {
			n = item
		} else {
			n = &Concat{Left: n, Right: item}
		}
	}
}

func (p *parser) item() (Node, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		n, err := p.strat()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return n, nil
	case c == '/':
		p.pos++
		return p.cond()
	case isLetter(c):
		return p.method()
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *parser) cond() (Node, error) {
	test, err := p.or()
	if err != nil {
		return nil, err
	}
	if err := p.expect('?'); err != nil {
		return nil, err
	}
	then, err := p.strat()
	if err != nil {
		return nil, err
	}
	var els Node = &Empty{}
	if p.accept(':') {
		if els, err = p.strat(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	return &Cond{Test: test, Then: then, Else: els}, nil
}

func (p *parser) method() (Node, error) {
	name := p.src[p.pos]
	spec, ok := p.table.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s strategy %q", ErrUnknownMethod, name, p.table.Name, p.src)
	}
	p.pos++

	m := &Method{Spec: spec, Params: make(map[string]any)}
	if !p.accept('{') || p.accept('}') {
		return m, nil
	}
	for {
		key := p.ident()
		ps, ok := spec.Param(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q for method %c", ErrUnknownParam, key, name)
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		v, err := p.value(ps)
		if err != nil {
			return nil, err
		}
		m.Params[key] = v
		if p.accept(',') {
			continue
		}
		if err := p.expect('}'); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (p *parser) value(ps *ParamSpec) (any, error) {
	switch ps.Kind {
	case KindInt:
		tok := p.number()
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, p.errorf("parameter %s wants an integer, got %q", ps.Name, tok)
		}
		return v, nil
	case KindFloat:
		tok := p.number()
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, p.errorf("parameter %s wants a number, got %q", ps.Name, tok)
		}
		return v, nil
	case KindCase:
		c := p.peek()
		if c == 0 || !isLetter(c) || strings.IndexByte(ps.Cases, c) < 0 {
			return nil, p.errorf("parameter %s wants one of %q", ps.Name, ps.Cases)
		}
		p.pos++
		return string(c), nil
	case KindStrat:
		sub := &parser{src: p.src, pos: p.pos, table: ps.Table}
		n, err := sub.strat()
		if err != nil {
			return nil, err
		}
		p.pos = sub.pos
		return n, nil
	}
	return nil, p.errorf("parameter %s has unknown kind %d", ps.Name, ps.Kind)
}

func (p *parser) ident() string {
	p.peek()
	start := p.pos
	for p.pos < len(p.src) && (isLetter(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) number() string {
	p.peek()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isDigit(c) || c == '.' {
			p.pos++
			continue
		}
		if (c == 'e' || c == 'E') && p.pos > start {
			p.pos++
			if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
				p.pos++
			}
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) or() (Expr, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept('|') {
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: '|', X: x, Y: y}
	}
	return x, nil
}

func (p *parser) and() (Expr, error) {
	x, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.accept('&') {
		y, err := p.not()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: '&', X: x, Y: y}
	}
	return x, nil
}

func (p *parser) not() (Expr, error) {
	if p.accept('!') {
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: '!', X: x}, nil
	}
	return p.rel()
}

func (p *parser) rel() (Expr, error) {
	x, err := p.sum()
	if err != nil {
		return nil, err
	}
	switch op := p.peek(); op {
	case '<', '=', '>':
		p.pos++
		y, err := p.sum()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, X: x, Y: y}, nil
	}
	return x, nil
}

func (p *parser) sum() (Expr, error) {
	x, err := p.prod()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return x, nil
		}
		p.pos++
		y, err := p.prod()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) prod() (Expr, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return x, nil
		}
		p.pos++
		y, err := p.atom()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) atom() (Expr, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		x, err := p.or()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return x, nil
	case isDigit(c) || c == '.':
		tok := p.number()
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", tok)
		}
		return &Num{Value: v}, nil
	case isLetter(c):
		name := p.ident()
		if !p.table.HasVar(name) {
			return nil, fmt.Errorf("%w: %q in %s strategy %q", ErrUnknownVar, name, p.table.Name, p.src)
		}
		return &Var{Name: name}, nil
	default:
		return nil, p.errorf("unexpected %q in condition", c)
	}
}

func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// Package xpathexpr is a minimal XPath 1.0-compatible expression evaluator,
// scoped to what an XPath Filter 2.0 engine and the plain XPath transform
// need: location paths over element node-sets, combined with predicates
// built from equality/boolean logic and a small function library
// (local-name, name, position, last, not, count, starts-with, here). It is deliberately not a
// general XPath evaluator; anything outside this subset returns a parse
// error rather than a wrong answer.
package xpathexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Context supplies the evaluation environment for an expression: the
// document root, the element exposed as here(), and the namespace
// prefix bindings in scope at the expression's origin.
type Context struct {
	Root *etree.Element
	// HereElement approximates the here() XPath function: the element
	// that owns the attribute carrying the reference's URI. XPath's
	// here() returns the attribute node itself; this package only tracks
	// element node-sets, so here() resolves to that attribute's owning
	// element instead.
	HereElement *etree.Element
	Namespaces  map[string]string // prefix -> URI
}

// Eval parses and evaluates expr against a single context node, returning
// the resulting node-set. contextNode is typically ctx.Root for a
// document-level filter expression.
func Eval(expr string, ctx Context, contextNode *etree.Element) ([]*etree.Element, error) {
	ast, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	ev := &evaluator{ctx: ctx}
	nodes, err := ev.evalPath(ast, []*etree.Element{contextNode})
	if err != nil {
		return nil, err
	}
	return dedupe(nodes), nil
}

// ---- AST ----

type locationPath struct {
	absolute bool
	steps    []step
}

type axisKind int

const (
	axisChild axisKind = iota
	axisSelf
	axisParent
	axisAncestor
	axisAncestorOrSelf
	axisDescendant
	axisDescendantOrSelf
)

type step struct {
	axis       axisKind
	nodeTest   string // "*", "node()", "text()", "comment()", or a QName
	predicates []expr
	// descendantStep marks a "//" separator before this step (shorthand
	// for descendant-or-self::node()/ prefixed to the following step).
	descendantStep bool
}

// expr is the predicate expression AST.
type expr interface{ isExpr() }

type orExpr struct{ lhs, rhs expr }
type andExpr struct{ lhs, rhs expr }
type eqExpr struct {
	lhs, rhs expr
	negate   bool
}
type notExpr struct{ operand expr }
type litExpr struct{ val string }
type numExpr struct{ val float64 }
type attrExpr struct{ name string }
type funcExpr struct {
	name string
	args []expr
}
type pathExpr struct{ path *locationPath }

func (orExpr) isExpr()   {}
func (andExpr) isExpr()  {}
func (eqExpr) isExpr()   {}
func (notExpr) isExpr()  {}
func (litExpr) isExpr()  {}
func (numExpr) isExpr()  {}
func (attrExpr) isExpr() {}
func (funcExpr) isExpr() {}
func (pathExpr) isExpr() {}

// ---- Parser ----

// Parse compiles an XPath expression into the subset AST this package
// understands.
func Parse(s string) (*locationPath, error) {
	p := &parser{toks: tokenize(s)}
	path, err := p.parseLocationPath()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("xpathexpr: unexpected trailing input at %q", p.rest())
	}
	return path, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) rest() string {
	var sb strings.Builder
	for _, t := range p.toks[p.pos:] {
		sb.WriteString(t.text)
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (p *parser) parseLocationPath() (*locationPath, error) {
	path := &locationPath{}
	if p.peek().kind == tokSlash {
		p.next()
		path.absolute = true
		if p.peek().kind == tokSlash {
			p.next()
			path.absolute = true
			s, err := p.parseStep(true)
			if err != nil {
				return nil, err
			}
			path.steps = append(path.steps, s)
		}
	}
	if p.peek().kind == tokEOF || p.peek().kind == tokRBracket {
		return path, nil
	}
	if len(path.steps) == 0 {
		s, err := p.parseStep(false)
		if err != nil {
			return nil, err
		}
		path.steps = append(path.steps, s)
	}
	for p.peek().kind == tokSlash {
		p.next()
		descendant := false
		if p.peek().kind == tokSlash {
			p.next()
			descendant = true
		}
		s, err := p.parseStep(descendant)
		if err != nil {
			return nil, err
		}
		path.steps = append(path.steps, s)
	}
	return path, nil
}

func (p *parser) parseStep(descendant bool) (step, error) {
	s := step{descendantStep: descendant}

	if p.peek().kind == tokDotDot {
		p.next()
		s.axis = axisParent
		s.nodeTest = "node()"
		return s, nil
	}
	if p.peek().kind == tokDot {
		p.next()
		s.axis = axisSelf
		s.nodeTest = "node()"
		return s, nil
	}

	s.axis = axisChild
	if p.peek().kind == tokAt {
		p.next()
		s.axis = axisAttribute
		s.nodeTest, _ = p.parseQName()
	} else if p.peek().kind == tokIdent && p.peekAhead(1).kind == tokAxisSep {
		axisName := p.next().text
		p.next() // "::"
		axis, err := axisFromName(axisName)
		if err != nil {
			return s, err
		}
		s.axis = axis
		name, err := p.parseNodeTest()
		if err != nil {
			return s, err
		}
		s.nodeTest = name
	} else {
		name, err := p.parseNodeTest()
		if err != nil {
			return s, err
		}
		s.nodeTest = name
	}

	for p.peek().kind == tokLBracket {
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return s, err
		}
		if p.peek().kind != tokRBracket {
			return s, fmt.Errorf("xpathexpr: expected ']'")
		}
		p.next()
		s.predicates = append(s.predicates, e)
	}

	return s, nil
}

const axisAttribute axisKind = 100

func axisFromName(name string) (axisKind, error) {
	switch name {
	case "child":
		return axisChild, nil
	case "self":
		return axisSelf, nil
	case "parent":
		return axisParent, nil
	case "ancestor":
		return axisAncestor, nil
	case "ancestor-or-self":
		return axisAncestorOrSelf, nil
	case "descendant":
		return axisDescendant, nil
	case "descendant-or-self":
		return axisDescendantOrSelf, nil
	case "attribute":
		return axisAttribute, nil
	default:
		return 0, fmt.Errorf("xpathexpr: unsupported axis %q", name)
	}
}

func (p *parser) parseNodeTest() (string, error) {
	switch p.peek().kind {
	case tokStar:
		p.next()
		return "*", nil
	case tokIdent:
		name, err := p.parseQName()
		if err != nil {
			return "", err
		}
		if p.peek().kind == tokLParen {
			p.next()
			if p.peek().kind != tokRParen {
				return "", fmt.Errorf("xpathexpr: unsupported node-test arguments for %s()", name)
			}
			p.next()
			switch name {
			case "node", "text", "comment":
				return name + "()", nil
			default:
				return "", fmt.Errorf("xpathexpr: unsupported node-test %s()", name)
			}
		}
		return name, nil
	default:
		return "", fmt.Errorf("xpathexpr: expected node test, got %q", p.peek().text)
	}
}

func (p *parser) parseQName() (string, error) {
	if p.peek().kind != tokIdent {
		return "", fmt.Errorf("xpathexpr: expected name, got %q", p.peek().text)
	}
	name := p.next().text
	if p.peek().kind == tokColon {
		p.next()
		if p.peek().kind != tokIdent && p.peek().kind != tokStar {
			return "", fmt.Errorf("xpathexpr: expected local name after ':'")
		}
		local := p.next().text
		name = name + ":" + local
	}
	return name, nil
}

func (p *parser) peekAhead(n int) token {
	if p.pos+n >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos+n]
}

// ---- predicate expression parsing ----

func (p *parser) parseExpr() (expr, error) { return p.parseOr() }

func (p *parser) parseOr() (expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "or" {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = orExpr{lhs, rhs}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (expr, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIdent && p.peek().text == "and" {
		p.next()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = andExpr{lhs, rhs}
	}
	return lhs, nil
}

func (p *parser) parseEquality() (expr, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokEq || p.peek().kind == tokNeq {
		neg := p.peek().kind == tokNeq
		p.next()
		rhs, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		lhs = eqExpr{lhs: lhs, rhs: rhs, negate: neg}
	}
	return lhs, nil
}

func (p *parser) parsePrimary() (expr, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.next()
		return litExpr{t.text}, nil
	case tokNumber:
		p.next()
		f, _ := strconv.ParseFloat(t.text, 64)
		return numExpr{f}, nil
	case tokAt:
		p.next()
		name, err := p.parseQName()
		if err != nil {
			return nil, err
		}
		return attrExpr{name}, nil
	case tokLParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("xpathexpr: expected ')'")
		}
		p.next()
		return e, nil
	case tokIdent:
		if t.text == "not" && p.peekAhead(1).kind == tokLParen {
			p.next()
			p.next()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.peek().kind != tokRParen {
				return nil, fmt.Errorf("xpathexpr: expected ')'")
			}
			p.next()
			return notExpr{e}, nil
		}
		if p.peekAhead(1).kind == tokLParen {
			name, _ := p.parseQName()
			p.next() // "("
			var args []expr
			for p.peek().kind != tokRParen {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.peek().kind == tokComma {
					p.next()
					continue
				}
				break
			}
			if p.peek().kind != tokRParen {
				return nil, fmt.Errorf("xpathexpr: expected ')'")
			}
			p.next()
			return funcExpr{name: name, args: args}, nil
		}
		// Fall through to a nested location path (e.g. parent::Foo[@Id='x']).
		path, err := p.parseLocationPath()
		if err != nil {
			return nil, err
		}
		return pathExpr{path}, nil
	case tokSlash, tokDot, tokDotDot:
		path, err := p.parseLocationPath()
		if err != nil {
			return nil, err
		}
		return pathExpr{path}, nil
	default:
		return nil, fmt.Errorf("xpathexpr: unexpected token %q", t.text)
	}
}

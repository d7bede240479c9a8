package odata

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var comparisonOps = map[string]struct{}{
	"eq": {}, "ne": {}, "lt": {}, "le": {}, "gt": {}, "ge": {},
}

type parser struct {
	tokens []token
	pos    int
}

// ParseExpression parses a $filter expression into its tree form.
//
// Precedence from loosest to tightest is or, and, not, then comparisons.
func ParseExpression(expr string) (*Node, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, syntaxError(1, "empty filter expression")
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.typ != tokenEOF {
		return nil, syntaxError(tok.pos, "unexpected token %q", tok.text)
	}
	return root, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) peekKeyword(word string) bool {
	tok := p.peek()
	return tok.typ == tokenIdent && tok.text == word
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekKeyword("or") {
		tok := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindLogical, Op: "or", Left: left, Right: right, Pos: tok.pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peekKeyword("and") {
		tok := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: KindLogical, Op: "and", Left: left, Right: right, Pos: tok.pos}
	}
	return left, nil
}

func (p *parser) parseNot() (*Node, error) {
	if p.peekKeyword("not") {
		tok := p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindNot, Left: operand, Pos: tok.pos}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.typ != tokenIdent {
		return left, nil
	}
	if _, ok := comparisonOps[tok.text]; !ok {
		return left, nil
	}
	p.next()

	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindComparison, Op: tok.text, Left: left, Right: right, Pos: tok.pos}, nil
}

func (p *parser) parsePrimary() (*Node, error) {
	tok := p.next()

	switch tok.typ {
	case tokenLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.typ != tokenRParen {
			return nil, syntaxError(closing.pos, "expected ')' but found %q", closing.text)
		}
		return inner, nil

	case tokenString:
		return &Node{Kind: KindLiteral, Value: tok.text, Pos: tok.pos}, nil

	case tokenNumber:
		value, err := parseNumber(tok.text)
		if err != nil {
			return nil, syntaxError(tok.pos, "invalid number %q", tok.text)
		}
		return &Node{Kind: KindLiteral, Value: value, Pos: tok.pos}, nil

	case tokenTyped:
		value, err := parseTypedLiteral(tok.prefix, tok.text)
		if err != nil {
			return nil, syntaxError(tok.pos, "invalid %s literal %q", tok.prefix, tok.text)
		}
		return &Node{Kind: KindLiteral, Value: value, Pos: tok.pos}, nil

	case tokenIdent:
		switch tok.text {
		case "null":
			return &Node{Kind: KindLiteral, Value: nil, Pos: tok.pos}, nil
		case "true":
			return &Node{Kind: KindLiteral, Value: true, Pos: tok.pos}, nil
		case "false":
			return &Node{Kind: KindLiteral, Value: false, Pos: tok.pos}, nil
		case "and", "or", "not", "eq", "ne", "lt", "le", "gt", "ge":
			return nil, syntaxError(tok.pos, "unexpected keyword %q", tok.text)
		}
		if p.peek().typ == tokenLParen {
			return p.parseCall(tok)
		}
		return &Node{Kind: KindProperty, Name: tok.text, Pos: tok.pos}, nil

	case tokenEOF:
		return nil, syntaxError(tok.pos, "unexpected end of filter expression")

	default:
		return nil, syntaxError(tok.pos, "unexpected token %q", tok.text)
	}
}

func (p *parser) parseCall(name token) (*Node, error) {
	p.next() // (
	call := &Node{Kind: KindFunctionCall, Name: name.text, Pos: name.pos}

	if p.peek().typ == tokenRParen {
		p.next()
		return call, nil
	}

	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		tok := p.next()
		switch tok.typ {
		case tokenComma:
			continue
		case tokenRParen:
			return call, nil
		default:
			return nil, syntaxError(tok.pos, "expected ',' or ')' in call to %s", name.text)
		}
	}
}

// parseNumber honours the OData type suffixes: L for Int64, d/f for
// floating point and m for Decimal.
func parseNumber(text string) (any, error) {
	switch last := text[len(text)-1]; last {
	case 'L', 'l':
		return strconv.ParseInt(text[:len(text)-1], 10, 64)
	case 'd', 'D', 'f', 'F':
		return strconv.ParseFloat(text[:len(text)-1], 64)
	case 'm', 'M':
		return bson.ParseDecimal128(text[:len(text)-1])
	}

	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
	}
	return strconv.ParseFloat(text, 64)
}

func parseTypedLiteral(prefix string, body string) (any, error) {
	switch prefix {
	case "datetime", "datetimeoffset":
		t, err := cast.ToTimeInDefaultLocationE(body, time.UTC)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	default:
		return body, nil
	}
}

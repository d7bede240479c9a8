package odata

import (
	"strings"

	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenTyped // prefixed literal such as datetime'2020-01-01T00:00:00'
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	typ    tokenType
	text   string // identifier, unquoted string body, or number text
	prefix string // literal prefix for tokenTyped
	pos    int
}

// typed literal prefixes accepted directly before a quoted string
var literalPrefixes = map[string]struct{}{
	"datetime":       {},
	"datetimeoffset": {},
	"guid":           {},
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '/' || ch == '.'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func syntaxError(pos int, format string, args ...any) error {
	return exceptions.NewQueryErrorf(exceptions.ErrFilterSyntax, format, args...).WithPosition(pos)
}

// tokenize splits a filter expression into tokens, respecting quoted strings
// and the '' escape inside them.
func tokenize(input string) ([]token, error) {
	var tokens []token

	i := 0
	for i < len(input) {
		ch := input[i]
		pos := i + 1

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{typ: tokenLParen, text: "(", pos: pos})
			i++
		case ch == ')':
			tokens = append(tokens, token{typ: tokenRParen, text: ")", pos: pos})
			i++
		case ch == ',':
			tokens = append(tokens, token{typ: tokenComma, text: ",", pos: pos})
			i++
		case ch == '\'':
			body, next, err := readQuoted(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokenString, text: body, pos: pos})
			i = next
		case isDigit(ch) || (ch == '-' && i+1 < len(input) && isDigit(input[i+1])):
			start := i
			i++
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			// exponent
			if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
				j := i + 1
				if j < len(input) && (input[j] == '+' || input[j] == '-') {
					j++
				}
				if j < len(input) && isDigit(input[j]) {
					i = j
					for i < len(input) && isDigit(input[i]) {
						i++
					}
				}
			}
			// type suffix
			if i < len(input) && strings.IndexByte("LlDdFfMm", input[i]) >= 0 {
				i++
			}
			if i < len(input) && isIdentPart(input[i]) {
				return nil, syntaxError(pos, "malformed number %q", input[start:i+1])
			}
			tokens = append(tokens, token{typ: tokenNumber, text: input[start:i], pos: pos})
		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			word := input[start:i]
			if i < len(input) && input[i] == '\'' {
				if _, ok := literalPrefixes[word]; !ok {
					return nil, syntaxError(pos, "unsupported literal prefix %q", word)
				}
				body, next, err := readQuoted(input, i)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, token{typ: tokenTyped, prefix: word, text: body, pos: pos})
				i = next
				continue
			}
			if strings.HasSuffix(word, "/") || strings.Contains(word, "//") {
				return nil, syntaxError(pos, "malformed member path %q", word)
			}
			tokens = append(tokens, token{typ: tokenIdent, text: word, pos: pos})
		default:
			return nil, syntaxError(pos, "unexpected character %q", ch)
		}
	}

	tokens = append(tokens, token{typ: tokenEOF, pos: len(input) + 1})
	return tokens, nil
}

// readQuoted reads a single-quoted string starting at input[start] and
// returns its unescaped body and the offset just past the closing quote.
func readQuoted(input string, start int) (string, int, error) {
	var body strings.Builder
	i := start + 1
	for i < len(input) {
		if input[i] == '\'' {
			// doubled quote is an escaped quote
			if i+1 < len(input) && input[i+1] == '\'' {
				body.WriteByte('\'')
				i += 2
				continue
			}
			return body.String(), i + 1, nil
		}
		body.WriteByte(input[i])
		i++
	}
	return "", 0, syntaxError(start+1, "unterminated string literal")
}

// Package exprtext is a human-writable front end for the core: a tokeniser
// and Pratt parser that turns a one-line expression string into an
// expr.UnboundNode tree, then binds it against a batch.Schema. The core
// compiler never calls this package - only cmd/bench, cmd/server and
// cmd/lambda-handler do, since the SQL parser proper is an explicit external collaborator.
package exprtext

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errUnknownToken      = errors.New("exprtext: unknown token")
	errInvalidInteger    = errors.New("exprtext: invalid integer literal")
	errInvalidFloat      = errors.New("exprtext: invalid floating point literal")
	errInvalidIdentifier = errors.New("exprtext: invalid identifier")
)

type tokenType uint8

const (
	tokenInvalid tokenType = iota
	tokenIdentifier
	// keywords
	tokenAnd
	tokenOr
	tokenNot
	tokenTrue
	tokenFalse
	tokenCast
	tokenAs
	// operators
	tokenAdd
	tokenSub
	tokenMul
	tokenQuo
	tokenRem
	tokenEq
	tokenGt
	tokenLt
	tokenGte
	tokenLte
	tokenLparen
	tokenRparen
	tokenComma
	tokenLiteralInt
	tokenLiteralFloat
	tokenEOF
)

var keywords = map[string]tokenType{
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"true":  tokenTrue,
	"false": tokenFalse,
	"cast":  tokenCast,
	"as":    tokenAs,
}

type token struct {
	ttype tokenType
	value []byte
}

func (t token) String() string {
	if t.value != nil {
		return string(t.value)
	}
	return fmt.Sprintf("token(%d)", t.ttype)
}

type tokenScanner struct {
	code     []byte
	position int
}

func newTokenScanner(s string) *tokenScanner {
	return &tokenScanner{code: []byte(s)}
}

func tokenise(s string) ([]token, error) {
	scanner := newTokenScanner(s)
	var tokens []token
	for {
		tok, err := scanner.scan()
		if err != nil {
			return nil, err
		}
		if tok.ttype == tokenEOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (ts *tokenScanner) peek(n int) []byte {
	ret := make([]byte, n)
	newpos := ts.position + n
	if newpos > len(ts.code) {
		newpos = len(ts.code)
	}
	copy(ret, ts.code[ts.position:newpos])
	return ret
}

func (ts *tokenScanner) peekOne() byte {
	return ts.peek(1)[0]
}

func (ts *tokenScanner) scan() (token, error) {
	if ts.position >= len(ts.code) {
		return token{tokenEOF, nil}, nil
	}
	char := ts.code[ts.position]
	switch char {
	case ' ', '\t', '\n':
		ts.position++
		return ts.scan()
	case ',':
		ts.position++
		return token{tokenComma, nil}, nil
	case '+':
		ts.position++
		return token{tokenAdd, nil}, nil
	case '-':
		ts.position++
		return token{tokenSub, nil}, nil
	case '*':
		ts.position++
		return token{tokenMul, nil}, nil
	case '/':
		ts.position++
		return token{tokenQuo, nil}, nil
	case '%':
		ts.position++
		return token{tokenRem, nil}, nil
	case '=':
		ts.position++
		return token{tokenEq, nil}, nil
	case '(':
		ts.position++
		return token{tokenLparen, nil}, nil
	case ')':
		ts.position++
		return token{tokenRparen, nil}, nil
	case '>':
		if bytes.Equal(ts.peek(2), []byte(">=")) {
			ts.position += 2
			return token{tokenGte, nil}, nil
		}
		ts.position++
		return token{tokenGt, nil}, nil
	case '<':
		if bytes.Equal(ts.peek(2), []byte("<=")) {
			ts.position += 2
			return token{tokenLte, nil}, nil
		}
		ts.position++
		return token{tokenLt, nil}, nil
	case '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return ts.consumeNumber()
	default:
		return ts.consumeIdentifier()
	}
}

func (ts *tokenScanner) consumeNumber() (token, error) {
	var seenDecPoint bool
	start := ts.position
	intChars := []byte("0123456789")
	if ts.code[ts.position] == '.' {
		seenDecPoint = true
	}
	ts.position++
	ts.position += len(sliceUntil(ts.code[ts.position:], intChars))
	if !seenDecPoint && ts.position < len(ts.code) && ts.code[ts.position] == '.' {
		seenDecPoint = true
		ts.position++
		ts.position += len(sliceUntil(ts.code[ts.position:], intChars))
	}
	val := ts.code[start:ts.position]
	if seenDecPoint {
		if _, err := strconv.ParseFloat(string(val), 64); err != nil {
			return token{}, fmt.Errorf("%w: %q", errInvalidFloat, val)
		}
		return token{tokenLiteralFloat, val}, nil
	}
	if _, err := strconv.ParseInt(string(val), 10, 64); err != nil {
		return token{}, fmt.Errorf("%w: %q", errInvalidInteger, val)
	}
	return token{tokenLiteralInt, val}, nil
}

func (ts *tokenScanner) consumeIdentifier() (token, error) {
	identChars := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_0123456789")
	val := sliceUntil(ts.code[ts.position:], identChars)
	if len(val) == 0 {
		bad := ts.peekOne()
		ts.position++
		return token{}, fmt.Errorf("%w: unexpected byte %q", errUnknownToken, bad)
	}
	ts.position += len(val)
	if kw, ok := keywords[strings.ToLower(string(val))]; ok {
		return token{ttype: kw, value: val}, nil
	}
	return token{ttype: tokenIdentifier, value: val}, nil
}

// sliceUntil returns the longest prefix of s whose bytes are all in chars.
func sliceUntil(s []byte, chars []byte) []byte {
	for j, c := range s {
		if bytes.IndexByte(chars, c) == -1 {
			return s[:j]
		}
	}
	return s
}

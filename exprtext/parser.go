package exprtext

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vortexdb/colexec/expr"
	"github.com/vortexdb/colexec/vector"
)

// thank you, Thorsten - same precedence ladder as smda's unfinished sketch,
// trimmed to OR/AND above EQUALS (smda's sketch only went down to EQUALS; a
// bare AND/OR deserves to bind looser than a comparison, so this parser adds
// those two rungs above the borrowed ladder) since this grammar has no CALL.
const (
	_ int = iota
	lowest
	orPrec
	andPrec
	equals      // =
	lessgreater // > or <
	sum         // +
	product     // * or %
	prefix      // not x
)

var precedences = map[tokenType]int{
	tokenOr:    orPrec,
	tokenAnd:   andPrec,
	tokenEq:    equals,
	tokenGt:    lessgreater,
	tokenLt:    lessgreater,
	tokenGte:   lessgreater,
	tokenLte:   lessgreater,
	tokenAdd:   sum,
	tokenSub:   sum,
	tokenMul:   product,
	tokenQuo:   product,
	tokenRem:   product,
}

var errUnexpectedToken = errors.New("exprtext: unexpected token")
var errUnknownType = errors.New("exprtext: unknown type name")

type parser struct {
	tokens   []token
	position int
}

// Parse tokenises and parses s into an unbound expression tree. s must be a
// single expression - no statements, no SELECT, no keywords beyond the
// operators and CAST/AS/AND/OR/NOT/TRUE/FALSE this grammar supports.
func Parse(s string) (*expr.UnboundNode, error) {
	tokens, err := tokenise(s)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.atEOF() {
		return nil, fmt.Errorf("%w: empty expression", errUnexpectedToken)
	}
	n, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("%w: trailing input at %v", errUnexpectedToken, p.cur())
	}
	return n, nil
}

func (p *parser) atEOF() bool { return p.position >= len(p.tokens) }

func (p *parser) cur() token {
	if p.atEOF() {
		return token{ttype: tokenEOF}
	}
	return p.tokens[p.position]
}

func (p *parser) advance() token {
	t := p.cur()
	p.position++
	return t
}

func (p *parser) curPrecedence() int {
	if prec, ok := precedences[p.cur().ttype]; ok {
		return prec
	}
	return lowest
}

func (p *parser) parseExpression(precedence int) (*expr.UnboundNode, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for !p.atEOF() && precedence < p.curPrecedence() {
		op := p.advance()
		right, err := p.parseExpression(precedences[op.ttype])
		if err != nil {
			return nil, err
		}
		left, err = infixNode(op.ttype, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parsePrefix() (*expr.UnboundNode, error) {
	tok := p.advance()
	switch tok.ttype {
	case tokenIdentifier:
		return expr.UnboundRef(string(tok.value)), nil
	case tokenLiteralInt:
		v, err := strconv.ParseInt(string(tok.value), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errInvalidInteger, tok.value)
		}
		return expr.UnboundLiteral(int32(v), vector.DtypeInt32), nil
	case tokenLiteralFloat:
		v, err := strconv.ParseFloat(string(tok.value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errInvalidFloat, tok.value)
		}
		return expr.UnboundLiteral(v, vector.DtypeFloat64), nil
	case tokenTrue:
		return expr.UnboundLiteral(true, vector.DtypeBool), nil
	case tokenFalse:
		return expr.UnboundLiteral(false, vector.DtypeBool), nil
	case tokenNot:
		child, err := p.parseExpression(prefix)
		if err != nil {
			return nil, err
		}
		return expr.UnboundNot(child), nil
	case tokenLparen:
		inner, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		if p.cur().ttype != tokenRparen {
			return nil, fmt.Errorf("%w: expected ')', got %v", errUnexpectedToken, p.cur())
		}
		p.advance()
		return inner, nil
	case tokenCast:
		return p.parseCast()
	default:
		return nil, fmt.Errorf("%w: %v", errUnexpectedToken, tok)
	}
}

// parseCast parses `CAST(<expr> AS <TypeName>)`, the one function-call-
// shaped construct this grammar supports - spec.md's Cast(child, toType)
// has no natural infix spelling.
func (p *parser) parseCast() (*expr.UnboundNode, error) {
	if p.cur().ttype != tokenLparen {
		return nil, fmt.Errorf("%w: expected '(' after CAST, got %v", errUnexpectedToken, p.cur())
	}
	p.advance()
	child, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if p.cur().ttype != tokenAs {
		return nil, fmt.Errorf("%w: expected AS in CAST, got %v", errUnexpectedToken, p.cur())
	}
	p.advance()
	if p.cur().ttype != tokenIdentifier {
		return nil, fmt.Errorf("%w: expected a type name after AS, got %v", errUnexpectedToken, p.cur())
	}
	typeName := string(p.advance().value)
	to, err := dtypeFromName(typeName)
	if err != nil {
		return nil, err
	}
	if p.cur().ttype != tokenRparen {
		return nil, fmt.Errorf("%w: expected ')' to close CAST, got %v", errUnexpectedToken, p.cur())
	}
	p.advance()
	return expr.UnboundCast(child, to), nil
}

func dtypeFromName(name string) (vector.Dtype, error) {
	switch name {
	case "Int32":
		return vector.DtypeInt32, nil
	case "Int64":
		return vector.DtypeInt64, nil
	case "Float32":
		return vector.DtypeFloat32, nil
	case "Float64":
		return vector.DtypeFloat64, nil
	case "Bool":
		return vector.DtypeBool, nil
	case "String":
		return vector.DtypeString, nil
	default:
		return vector.DtypeInvalid, fmt.Errorf("%w: %q", errUnknownType, name)
	}
}

func infixNode(ttype tokenType, l, r *expr.UnboundNode) (*expr.UnboundNode, error) {
	switch ttype {
	case tokenAdd:
		return expr.UnboundAdd(l, r), nil
	case tokenSub:
		return expr.UnboundSub(l, r), nil
	case tokenMul:
		return expr.UnboundMul(l, r), nil
	case tokenQuo:
		return expr.UnboundDiv(l, r), nil
	case tokenRem:
		return expr.UnboundRem(l, r), nil
	case tokenEq:
		return expr.UnboundEq(l, r), nil
	case tokenGt:
		return expr.UnboundGt(l, r), nil
	case tokenGte:
		return expr.UnboundGe(l, r), nil
	case tokenLt:
		return expr.UnboundLt(l, r), nil
	case tokenLte:
		return expr.UnboundLe(l, r), nil
	case tokenAnd:
		return expr.UnboundAnd(l, r), nil
	case tokenOr:
		return expr.UnboundOr(l, r), nil
	default:
		return nil, fmt.Errorf("%w: operator token %v", errUnexpectedToken, ttype)
	}
}

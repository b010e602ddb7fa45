package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// CalculatorTool evaluates arithmetic expressions with a small,
// closed grammar. Input is parsed before anything is evaluated, so
// arbitrary code can never run through it.
type CalculatorTool struct{}

// NewCalculatorTool creates a calculator tool.
func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) Name() string { return "calculator" }

func (t *CalculatorTool) Description() string {
	return "Evaluate a mathematical expression. Supports + - * / ^, parentheses, and the functions sqrt, sin, cos, tan, log, exp, pow."
}

func (t *CalculatorTool) Spec() *Spec {
	return &Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]Param{
			"expression": {
				Type:        "string",
				Description: "The expression to evaluate, e.g. \"sqrt(16) + 2^3\"",
			},
		},
		Required: []string{"expression"},
	}
}

func (t *CalculatorTool) Validate(input *Input) error {
	expr, ok := StringArg(input, "expression")
	if !ok || strings.TrimSpace(expr) == "" {
		return errors.New("expression is required")
	}
	return nil
}

func (t *CalculatorTool) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	expr, _ := StringArg(input, "expression")
	result, err := evalExpression(expr)
	if err != nil {
		return &Output{
			Error:    fmt.Sprintf("invalid expression: %v", err),
			Duration: time.Since(start),
		}, nil
	}

	return &Output{
		Success:  true,
		Output:   fmt.Sprintf("%s = %s", strings.TrimSpace(expr), formatNumber(result)),
		Duration: time.Since(start),
	}, nil
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Single-argument functions on the allow list.
var calcFuncs = map[string]func(float64) float64{
	"sqrt": math.Sqrt,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"log":  math.Log,
	"exp":  math.Exp,
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(string(runes[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", string(runes[i:j]))
			}
			toks = append(toks, token{kind: tokNumber, num: n})
			i = j

		case unicode.IsLetter(r):
			j := i
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j

		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++

		case r == '(':
			toks = append(toks, token{kind: tokLParen})
			i++

		case r == ')':
			toks = append(toks, token{kind: tokRParen})
			i++

		case r == ',':
			toks = append(toks, token{kind: tokComma})
			i++

		default:
			return nil, fmt.Errorf("unexpected character %q", string(r))
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

type exprParser struct {
	toks []token
	pos  int
}

func evalExpression(expr string) (float64, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return 0, err
	}

	p := &exprParser{toks: toks}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, fmt.Errorf("unexpected trailing input")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("result is not a finite number")
	}
	return v, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return v, nil
		}
		p.next()
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return v, nil
		}
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, errors.New("division by zero")
			}
			v /= rhs
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	t := p.peek()
	if t.kind == tokOp && t.text == "^" {
		p.next()
		// Right-associative: 2^3^2 == 2^(3^2).
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil

	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.next().kind != tokRParen {
			return 0, errors.New("missing closing parenthesis")
		}
		return v, nil

	case tokIdent:
		return p.parseCall(t.text)

	default:
		return 0, errors.New("unexpected token")
	}
}

func (p *exprParser) parseCall(name string) (float64, error) {
	if p.next().kind != tokLParen {
		return 0, fmt.Errorf("unknown identifier %q", name)
	}

	if name == "pow" {
		base, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.next().kind != tokComma {
			return 0, errors.New("pow requires two arguments")
		}
		exp, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.next().kind != tokRParen {
			return 0, errors.New("missing closing parenthesis")
		}
		return math.Pow(base, exp), nil
	}

	fn, ok := calcFuncs[name]
	if !ok {
		return 0, fmt.Errorf("unknown function %q", name)
	}
	arg, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.next().kind != tokRParen {
		return 0, errors.New("missing closing parenthesis")
	}
	return fn(arg), nil
}

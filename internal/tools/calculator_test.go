package tools

import (
	"context"
	"strings"
	"testing"
)

func TestCalculatorEvaluates(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"addition", "2 + 2", "4"},
		{"precedence", "2 + 3 * 4", "14"},
		{"parentheses", "(2 + 3) * 4", "20"},
		{"sqrt", "sqrt(16)", "4"},
		{"power", "2^10", "1024"},
		{"power right assoc", "2^3^2", "512"},
		{"pow function", "pow(2, 8)", "256"},
		{"unary minus", "-3 + 5", "2"},
		{"nested functions", "sqrt(sqrt(16))", "2"},
		{"float division", "7 / 2", "3.5"},
	}

	calc := NewCalculatorTool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := calc.Execute(context.Background(), &Input{Args: map[string]any{"expression": tt.expr}})
			if err != nil {
				t.Fatalf("Execute(%q) error: %v", tt.expr, err)
			}
			if !out.Success {
				t.Fatalf("Execute(%q) failed: %s", tt.expr, out.Error)
			}
			if !strings.HasSuffix(out.Output, "= "+tt.want) {
				t.Errorf("Execute(%q) = %q, want result %s", tt.expr, out.Output, tt.want)
			}
		})
	}
}

func TestCalculatorRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"code injection", "import os"},
		{"call expression", "os.system('ls')"},
		{"unknown function", "eval(1)"},
		{"unknown identifier", "x + 1"},
		{"unbalanced parens", "(2 + 3"},
		{"trailing garbage", "2 + 2 abc"},
		{"empty parens", "()"},
		{"division by zero", "1 / 0"},
		{"log of zero", "log(0)"},
		{"stray characters", "2 $ 2"},
	}

	calc := NewCalculatorTool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := calc.Execute(context.Background(), &Input{Args: map[string]any{"expression": tt.expr}})
			if err != nil {
				t.Fatalf("Execute(%q) returned a hard error: %v", tt.expr, err)
			}
			if out.Success {
				t.Errorf("Execute(%q) succeeded with %q, want rejection", tt.expr, out.Output)
			}
			if out.Error == "" {
				t.Errorf("Execute(%q) rejected without an error message", tt.expr)
			}
		})
	}
}

func TestCalculatorValidate(t *testing.T) {
	calc := NewCalculatorTool()

	if err := calc.Validate(&Input{Args: map[string]any{"expression": "1+1"}}); err != nil {
		t.Errorf("Validate(valid) = %v, want nil", err)
	}
	if err := calc.Validate(&Input{Args: map[string]any{}}); err == nil {
		t.Error("Validate(missing expression) = nil, want error")
	}
	if err := calc.Validate(&Input{Args: map[string]any{"expression": "   "}}); err == nil {
		t.Error("Validate(blank expression) = nil, want error")
	}
}

// Calculator tool.
//
// Information Hiding:
// - Expression evaluation delegated to expr-lang/expr
// - Character whitelist and step generation hidden

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

var (
	// ErrInvalidCharacters rejects anything but digits, + - * / ( ) . and spaces.
	ErrInvalidCharacters = errors.New("invalid characters in expression")

	allowedExpression = regexp.MustCompile(`^[0-9+\-*/(). ]*$`)
	innerParens       = regexp.MustCompile(`\(([^()]+)\)`)
)

// Calculation is the outcome of Calculate.
type Calculation struct {
	Result float64  `json:"result"`
	Steps  []string `json:"steps,omitempty"`
}

// Calculate evaluates an arithmetic expression. With includeSteps it also
// explains the first innermost parenthesised group and the final result.
func Calculate(expression string, includeSteps bool) (Calculation, error) {
	result, err := evaluate(expression)
	if err != nil {
		return Calculation{}, err
	}
	out := Calculation{Result: result}
	if includeSteps {
		if out.Steps, err = solutionSteps(expression); err != nil {
			return Calculation{}, err
		}
	}
	return out, nil
}

func evaluate(expression string) (float64, error) {
	if !allowedExpression.MatchString(expression) {
		return 0, fmt.Errorf("invalid mathematical expression: %w", ErrInvalidCharacters)
	}
	if strings.TrimSpace(expression) == "" {
		return 0, errors.New("invalid mathematical expression: empty expression")
	}

	program, err := expr.Compile(expression, expr.AsFloat64())
	if err != nil {
		return 0, fmt.Errorf("invalid mathematical expression: %w", err)
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid mathematical expression: %w", err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid mathematical expression: unexpected result %T", out)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("invalid mathematical expression: result is not a finite number")
	}
	return v, nil
}

func solutionSteps(expression string) ([]string, error) {
	var steps []string
	if loc := innerParens.FindStringSubmatchIndex(expression); loc != nil {
		inner := expression[loc[2]:loc[3]]
		steps = append(steps, "Evaluate inner expression: "+inner)

		innerResult, err := evaluate(inner)
		if err != nil {
			return nil, err
		}
		steps = append(steps, "Inner result: "+FormatNumber(innerResult))
		substituted := expression[:loc[0]] + FormatNumber(innerResult) + expression[loc[1]:]
		steps = append(steps, "Substitute back: "+substituted)
	}

	final, err := evaluate(expression)
	if err != nil {
		return nil, err
	}
	return append(steps, "Final result: "+FormatNumber(final)), nil
}

// FormatNumber prints v in its shortest form, without a trailing ".0".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CalculatorTool exposes Calculate to the model.
type CalculatorTool struct{}

// NewCalculatorTool creates the calculate tool.
func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

// Metadata returns the tool metadata.
func (t *CalculatorTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "calculate",
		Description: "Calculate mathematical expressions and provide step-by-step solutions",
		Parameters: []ToolParameter{
			{Name: "expression", ParamType: "string", Description: "Mathematical expression to evaluate (e.g., '2 * (3 + 4)')", Required: true},
			{Name: "includeSteps", ParamType: "boolean", Description: "Whether to include step-by-step solution", Required: false},
		},
	}
}

type calculatorArgs struct {
	Expression   string `json:"expression"`
	IncludeSteps bool   `json:"includeSteps"`
}

// Validate validates the arguments.
func (t *CalculatorTool) Validate(args json.RawMessage) error {
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.Expression) == "" {
		return errors.New("expression cannot be empty")
	}
	return nil
}

// Execute evaluates the expression.
func (t *CalculatorTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}
	calc, err := Calculate(a.Expression, a.IncludeSteps)
	if err != nil {
		return FailureResult(err), nil
	}
	return JSONResult(calc), nil
}

var _ Tool = (*CalculatorTool)(nil)

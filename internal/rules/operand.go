// internal/rules/operand.go
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/solatis/formulatree/internal/types"
)

/*
 * Operand checks and formatting.
 *
 * Two character sets govern free-form operands:
 *   - Arithmetic (+ - * / and Number): digits, decimal point, + - * /, parentheses, spaces
 *   - String: letters, underscore, dash, words separated by exactly one space
 *
 * Comparison operands are rendered by their type tag:
 *   - PARAM ID: [v]
 *   - TEXT:     'v'
 *   - NUMBER:   v
 *
 * NUMBER comparison values must coerce to float64 (whitespace trimmed, empty rejected).
 */

var (
	arithmeticOperand = regexp.MustCompile(`^[0-9.+\-*/()\s]+$`)
	textOperand       = regexp.MustCompile(`^[A-Za-z_-]+( [A-Za-z_-]+)*$`)
)

// CheckOperand validates operand against the character set implied by op.
func CheckOperand(op types.Operation, operand string) error {
	switch op {
	case types.OpString:
		if !textOperand.MatchString(operand) {
			return fmt.Errorf("%w: text operand may contain letters, underscore, dash and single spaces", types.ErrInvalidValue)
		}
	case types.OpAdd, types.OpSub, types.OpMul, types.OpDiv, types.OpNumber:
		if !arithmeticOperand.MatchString(operand) {
			return fmt.Errorf("%w: operand may contain digits and arithmetic characters only", types.ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: operation %q", types.ErrInvalidValue, op)
	}
	return nil
}

// CoerceNumber converts a NUMBER value to float64.
// Whitespace-only strings are not valid numbers.
func CoerceNumber(value string) (float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, fmt.Errorf("%w: empty number", types.ErrInvalidValue)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", types.ErrInvalidValue, value)
	}
	return f, nil
}

// IsZeroOperand reports whether an arithmetic operand is blank or numerically zero.
func IsZeroOperand(operand string) bool {
	v := strings.TrimSpace(operand)
	if v == "" {
		return true
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f == 0
}

// FormatOperand renders one side of a comparison by its type tag.
func FormatOperand(o types.Operand) string {
	v := strings.TrimSpace(o.Value)
	switch o.Type {
	case types.OperandParamID:
		return "[" + v + "]"
	case types.OperandText:
		return "'" + v + "'"
	default:
		return v
	}
}

// SplitParamIDs splits a comma-joined Param ID list, dropping blanks.
func SplitParamIDs(value string) []string {
	var ids []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

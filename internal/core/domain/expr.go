package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ExpandProperties replaces every $(Name) reference in s with the value
// returned by lookup. Unset properties expand to the empty string. Expansion
// is a single pass: values are not re-expanded.
func ExpandProperties(s string, lookup func(string) string) string {
	if !strings.Contains(s, "$(") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for {
		start := strings.Index(s, "$(")
		if start < 0 {
			b.WriteString(s)
			break
		}
		end := strings.Index(s[start:], ")")
		if end < 0 {
			b.WriteString(s)
			break
		}

		b.WriteString(s[:start])
		b.WriteString(lookup(s[start+2 : start+end]))
		s = s[start+end+1:]
	}

	return b.String()
}

// EvalCondition evaluates a target or task condition against the given
// property environment. The grammar is deliberately small:
//
//	""                      true (no condition)
//	'left' == 'right'       case-insensitive equality
//	'left' != 'right'       case-insensitive inequality
//	'value'                 boolean literal after expansion
//
// Property references are expanded before comparison. Anything outside the
// grammar fails with ErrInvalidCondition.
func EvalCondition(cond string, lookup func(string) string) (bool, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true, nil
	}

	if idx := strings.Index(cond, "=="); idx >= 0 {
		left, err := conditionOperand(cond[:idx], lookup)
		if err != nil {
			return false, err
		}
		right, err := conditionOperand(cond[idx+2:], lookup)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(left, right), nil
	}

	if idx := strings.Index(cond, "!="); idx >= 0 {
		left, err := conditionOperand(cond[:idx], lookup)
		if err != nil {
			return false, err
		}
		right, err := conditionOperand(cond[idx+2:], lookup)
		if err != nil {
			return false, err
		}
		return !strings.EqualFold(left, right), nil
	}

	val, err := conditionOperand(cond, lookup)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(val) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, zerr.With(ErrInvalidCondition, "condition", cond)
	}
}

// conditionOperand trims and unquotes one side of a comparison, then expands
// property references inside it.
func conditionOperand(raw string, lookup func(string) string) (string, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "'") {
		if len(s) < 2 || !strings.HasSuffix(s, "'") {
			return "", zerr.With(ErrInvalidCondition, "operand", raw)
		}
		s = s[1 : len(s)-1]
		if strings.Contains(s, "'") {
			return "", zerr.With(ErrInvalidCondition, "operand", raw)
		}
	}

	return ExpandProperties(s, lookup), nil
}

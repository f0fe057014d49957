package validator

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Rule is a named predicate with the message reported when it fails.
type Rule struct {
	Name    string
	Message string
	Check   func(v any) bool
}

// Field lists the ordered rules for one payload key. Evaluation of a field
// stops at its first failing rule.
type Field struct {
	Name string
	// Optional fields that are absent or null skip every rule.
	Optional bool
	Rules    []Rule
	// Each element of a list field is validated against Nested.
	Nested *Schema
}

// Schema is a rule table for one request shape.
type Schema struct {
	Name   string
	Fields []Field
}

func (s Schema) check(prefix string, payload map[string]any) []Violation {
	var out []Violation
	for _, f := range s.Fields {
		path := prefix + f.Name
		v := payload[f.Name]

		if f.Optional && v == nil {
			continue
		}

		if r, failed := firstFailure(f.Rules, v); failed {
			out = append(out, Violation{Field: path, Rule: r.Name, Message: r.Message})
			continue
		}

		if f.Nested != nil {
			items, _ := asList(v)
			for i, item := range items {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				obj, ok := item.(map[string]any)
				if !ok {
					out = append(out, Violation{Field: itemPath, Rule: "nested", Message: "must be an object"})
					continue
				}
				out = append(out, f.Nested.check(itemPath+".", obj)...)
			}
		}
	}
	return out
}

func firstFailure(rules []Rule, v any) (Rule, bool) {
	for _, r := range rules {
		if !r.Check(v) {
			return r, true
		}
	}
	return Rule{}, false
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Defined rejects absent and null values.
func Defined() Rule {
	return Rule{
		Name:    "defined",
		Message: "is required",
		Check:   func(v any) bool { return v != nil },
	}
}

// String requires a string value.
func String() Rule {
	return Rule{
		Name:    "string",
		Message: "must be a string",
		Check: func(v any) bool {
			_, ok := v.(string)
			return ok
		},
	}
}

// NotEmpty rejects the empty string.
func NotEmpty() Rule {
	return Rule{
		Name:    "not_empty",
		Message: "must not be empty",
		Check: func(v any) bool {
			s, ok := v.(string)
			return !ok || s != ""
		},
	}
}

// Email requires a syntactically valid email address.
func Email() Rule {
	return Rule{
		Name:    "email",
		Message: "must be a valid email address",
		Check: func(v any) bool {
			s, ok := v.(string)
			return ok && validate.Var(s, "email") == nil
		},
	}
}

// Length requires a string of exactly n characters.
func Length(n int) Rule {
	return Rule{
		Name:    "length",
		Message: fmt.Sprintf("must be exactly %d characters", n),
		Check: func(v any) bool {
			s, ok := v.(string)
			return ok && len([]rune(s)) == n
		},
	}
}

// StrongPassword requires a string that satisfies policy.
func StrongPassword(policy PasswordPolicy) Rule {
	return Rule{
		Name:    "strong_password",
		Message: policy.Describe(),
		Check: func(v any) bool {
			s, ok := v.(string)
			return ok && policy.Allows(s)
		},
	}
}

// Array requires a list value.
func Array() Rule {
	return Rule{
		Name:    "array",
		Message: "must be an array",
		Check: func(v any) bool {
			_, ok := asList(v)
			return ok
		},
	}
}

// EachString requires every list element to be a string.
func EachString() Rule {
	return Rule{
		Name:    "each_string",
		Message: "each value must be a string",
		Check: func(v any) bool {
			items, _ := asList(v)
			for _, item := range items {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		},
	}
}

// EachIn requires every list element to be one of allowed.
func EachIn(allowed []string) Rule {
	return Rule{
		Name:    "each_in",
		Message: "each value must be one of: " + strings.Join(allowed, ", "),
		Check: func(v any) bool {
			items, _ := asList(v)
			for _, item := range items {
				s, _ := item.(string)
				if !slices.Contains(allowed, s) {
					return false
				}
			}
			return true
		},
	}
}

// ArraySize requires a list with between minLen and maxLen elements inclusive.
func ArraySize(minLen, maxLen int, message string) Rule {
	return Rule{
		Name:    "array_size",
		Message: message,
		Check: func(v any) bool {
			items, _ := asList(v)
			return len(items) >= minLen && len(items) <= maxLen
		},
	}
}

// MinSize requires a list with at least minLen elements. It reports under the
// same rule name as ArraySize.
func MinSize(minLen int, message string) Rule {
	return Rule{
		Name:    "array_size",
		Message: message,
		Check: func(v any) bool {
			items, _ := asList(v)
			return len(items) >= minLen
		},
	}
}

// PasswordPolicy is the strong password rule set.
type PasswordPolicy struct {
	MinLength    int `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	MinLowercase int `env:"PASSWORD_MIN_LOWERCASE" envDefault:"1"`
	MinUppercase int `env:"PASSWORD_MIN_UPPERCASE" envDefault:"1"`
	MinNumbers   int `env:"PASSWORD_MIN_NUMBERS" envDefault:"1"`
	MinSymbols   int `env:"PASSWORD_MIN_SYMBOLS" envDefault:"1"`
}

// DefaultPasswordPolicy returns the policy used when none is configured.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    8,
		MinLowercase: 1,
		MinUppercase: 1,
		MinNumbers:   1,
		MinSymbols:   1,
	}
}

// Allows reports whether password satisfies every threshold of the policy.
func (p PasswordPolicy) Allows(password string) bool {
	var length, lower, upper, digits, symbols int
	for _, r := range password {
		length++
		switch {
		case unicode.IsLower(r):
			lower++
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			// caseless letters count toward length only
		default:
			symbols++
		}
	}
	return length >= p.MinLength &&
		lower >= p.MinLowercase &&
		upper >= p.MinUppercase &&
		digits >= p.MinNumbers &&
		symbols >= p.MinSymbols
}

// Describe renders the policy as a violation message.
func (p PasswordPolicy) Describe() string {
	return fmt.Sprintf(
		"is not strong enough: needs at least %d characters with %d lowercase, %d uppercase, %d digit and %d symbol",
		p.MinLength, p.MinLowercase, p.MinUppercase, p.MinNumbers, p.MinSymbols,
	)
}

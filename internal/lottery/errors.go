package lottery

import "fmt"

// Rule names the validation rule a manual entry violated.
type Rule string

const (
	RuleUnparseable Rule = "unparseable"
	RuleCount       Rule = "wrong_count"
	RuleDuplicates  Rule = "duplicates"
	RuleRange       Rule = "out_of_range"
)

// ValidationError reports a rejected number selection.
type ValidationError struct {
	Rule  Rule
	Rules Rules
	// Got is the offending count for RuleCount and the offending number otherwise.
	Got   int
	Token string
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case RuleUnparseable:
		return fmt.Sprintf("%q is not a number", e.Token)
	case RuleCount:
		return fmt.Sprintf("expected %d numbers, got %d", e.Rules.Pick, e.Got)
	case RuleDuplicates:
		return fmt.Sprintf("number %d appears more than once", e.Got)
	case RuleRange:
		return fmt.Sprintf("number %d is outside 1..%d", e.Got, e.Rules.Pool)
	default:
		return string(e.Rule)
	}
}

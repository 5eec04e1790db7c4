package lottery

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Rules 描述一张彩票的选号规则：从 [1, Pool] 中选出 Pick 个互不相同的号码。
type Rules struct {
	Pick int
	Pool int
}

// DefaultRules is 6 of 45.
var DefaultRules = Rules{Pick: 6, Pool: 45}

// Numbers is a number selection. It is stored as a JSON array in a text
// column; a nil selection is stored as NULL.
type Numbers []int

// GormDataType implements gorm's schema.GormDataTypeInterface.
func (Numbers) GormDataType() string {
	return "text"
}

// Value implements driver.Valuer.
func (n Numbers) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	b, err := json.Marshal([]int(n))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (n *Numbers) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*n = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("lottery: cannot scan %T into Numbers", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*n = nil
		return nil
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("lottery: cannot decode numbers %q: %w", raw, err)
	}
	*n = out
	return nil
}

// Sorted returns an ascending copy.
func (n Numbers) Sorted() Numbers {
	if n == nil {
		return nil
	}
	out := slices.Clone(n)
	slices.Sort(out)
	return out
}

// String renders the selection as "1, 5, 12".
func (n Numbers) String() string {
	parts := make([]string, len(n))
	for i, v := range n {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// Generate draws Pick unique numbers uniformly from [1, Pool] without
// replacement. A nil r uses the package-level source.
func (r Rules) Generate(rng *rand.Rand) Numbers {
	var perm []int
	if rng == nil {
		perm = rand.Perm(r.Pool)
	} else {
		perm = rng.Perm(r.Pool)
	}
	out := make(Numbers, r.Pick)
	for i := range out {
		out[i] = perm[i] + 1
	}
	slices.Sort(out)
	return out
}

// ParseNumbers splits free-form text on commas and whitespace. It checks
// only that every token is an integer; use Rules.Validate for the rest.
func ParseNumbers(text string) (Numbers, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	out := make(Numbers, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, &ValidationError{Rule: RuleUnparseable, Token: f}
		}
		out = append(out, v)
	}
	return out, nil
}

// Validate checks count, then uniqueness, then range, and reports the first
// violated rule.
func (r Rules) Validate(nums Numbers) error {
	if len(nums) != r.Pick {
		return &ValidationError{Rule: RuleCount, Rules: r, Got: len(nums)}
	}
	seen := make(map[int]struct{}, len(nums))
	for _, v := range nums {
		if _, dup := seen[v]; dup {
			return &ValidationError{Rule: RuleDuplicates, Rules: r, Got: v}
		}
		seen[v] = struct{}{}
	}
	for _, v := range nums {
		if v < 1 || v > r.Pool {
			return &ValidationError{Rule: RuleRange, Rules: r, Got: v}
		}
	}
	return nil
}

// ParseAndValidate is ParseNumbers followed by Validate. The result is sorted.
func (r Rules) ParseAndValidate(text string) (Numbers, error) {
	nums, err := ParseNumbers(text)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(nums); err != nil {
		return nil, err
	}
	return nums.Sorted(), nil
}

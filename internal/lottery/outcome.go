package lottery

import "github.com/shopspring/decimal"

// prizeTable maps a match count to the informational prize amount.
var prizeTable = map[int]decimal.Decimal{
	6: decimal.NewFromInt(200000),
	5: decimal.NewFromInt(125000),
	4: decimal.NewFromInt(100000),
	3: decimal.NewFromInt(75000),
}

// Outcome is the result of checking one selection against winning numbers.
type Outcome struct {
	Matches int             `json:"matches"`
	Prize   decimal.Decimal `json:"prize"`
}

// Won reports whether the outcome carries a prize.
func (o Outcome) Won() bool {
	return o.Prize.IsPositive()
}

// PrizeFor returns the prize for a match count; counts outside the table pay zero.
func PrizeFor(matches int) decimal.Decimal {
	if p, ok := prizeTable[matches]; ok {
		return p
	}
	return decimal.Zero
}

// MatchCount returns |ticket ∩ winning|. Both are treated as sets.
func MatchCount(ticket, winning []int) int {
	if len(ticket) == 0 || len(winning) == 0 {
		return 0
	}
	win := make(map[int]struct{}, len(winning))
	for _, v := range winning {
		win[v] = struct{}{}
	}
	matches := 0
	seen := make(map[int]struct{}, len(ticket))
	for _, v := range ticket {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := win[v]; ok {
			matches++
		}
	}
	return matches
}

// Calculate computes the match count and prize of a selection.
func Calculate(ticket, winning []int) Outcome {
	m := MatchCount(ticket, winning)
	return Outcome{Matches: m, Prize: PrizeFor(m)}
}

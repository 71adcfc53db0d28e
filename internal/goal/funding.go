// Package goal computes suggested monthly assignments for categories with a
// funding goal, capped by the ledger's Ready-to-Assign.
package goal

import (
	"fmt"
	"sort"
	"time"

	"budgetledger/internal/schedule"
)

// Type 目标类型
type Type string

const (
	MonthlyFunding Type = "monthly_funding"
	TargetBalance  Type = "target_balance"
	TargetByDate   Type = "target_by_date"
)

func (t Type) Valid() bool {
	switch t {
	case MonthlyFunding, TargetBalance, TargetByDate:
		return true
	}
	return false
}

// urgency orders goal types when funds run short.
func (t Type) urgency() int {
	switch t {
	case TargetByDate:
		return 0
	case MonthlyFunding:
		return 1
	default:
		return 2
	}
}

// Input is one category's goal together with its current figures.
type Input struct {
	CategoryID  int64
	Type        Type
	TargetCents int64
	TargetDate  time.Time
	// Repeat rolls a passed TargetDate forward; empty means no repeat.
	Repeat            schedule.Frequency
	Balance           int64
	AssignedThisMonth int64
}

type Suggestion struct {
	CategoryID     int64  `json:"category_id"`
	SuggestedCents int64  `json:"suggested_amount_cents"`
	NeededCents    int64  `json:"needed_cents"`
	Reason         string `json:"reason"`
	Truncated      bool   `json:"truncated"`
}

// EffectiveTargetDate returns the target date, rolled forward past today
// when the goal repeats.
func EffectiveTargetDate(in Input, today time.Time) time.Time {
	target := schedule.Day(in.TargetDate)
	if in.Repeat == "" || !in.Repeat.Valid() {
		return target
	}
	today = schedule.Day(today)
	for k := 1; target.Before(today); k++ {
		next, err := schedule.AddPeriods(schedule.Day(in.TargetDate), in.Repeat, k)
		if err != nil {
			break
		}
		target = next
	}
	return target
}

// Needed returns how much the goal still needs this month, and why.
func Needed(in Input, today time.Time) (int64, string) {
	switch in.Type {
	case MonthlyFunding:
		needed := max64(0, in.TargetCents-in.AssignedThisMonth)
		return needed, fmt.Sprintf("monthly funding of %d, %d assigned this month", in.TargetCents, in.AssignedThisMonth)

	case TargetBalance:
		needed := max64(0, in.TargetCents-in.Balance)
		return needed, fmt.Sprintf("target balance of %d, balance is %d", in.TargetCents, in.Balance)

	case TargetByDate:
		target := EffectiveTargetDate(in, today)
		months := schedule.MonthsBetween(today, target)
		if months < 1 {
			months = 1
		}
		remaining := in.TargetCents - in.Balance
		if remaining <= 0 {
			return 0, fmt.Sprintf("target of %d by %s reached", in.TargetCents, target.Format(time.DateOnly))
		}
		// 余数留到最后一个月
		needed := remaining / int64(months)
		if months == 1 {
			needed = remaining
		}
		return needed, fmt.Sprintf("%d needed by %s over %d month(s)", remaining, target.Format(time.DateOnly), months)
	}
	return 0, fmt.Sprintf("unknown goal type %q", in.Type)
}

// Suggest returns the goals still needing money, most urgent first, with
// amounts capped so their sum never exceeds readyToAssign. Fully funded
// goals are left out, and so are goals the remaining funds cannot reach.
func Suggest(inputs []Input, readyToAssign int64, today time.Time) []Suggestion {
	type ranked struct {
		in     Input
		target time.Time
		needed int64
		reason string
	}

	candidates := make([]ranked, 0, len(inputs))
	for _, in := range inputs {
		needed, reason := Needed(in, today)
		if needed <= 0 {
			continue
		}
		candidates = append(candidates, ranked{
			in:     in,
			target: EffectiveTargetDate(in, today),
			needed: needed,
			reason: reason,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.in.Type.urgency() != b.in.Type.urgency() {
			return a.in.Type.urgency() < b.in.Type.urgency()
		}
		if a.in.Type == TargetByDate && !a.target.Equal(b.target) {
			return a.target.Before(b.target)
		}
		return a.in.CategoryID < b.in.CategoryID
	})

	available := readyToAssign
	var out []Suggestion
	for _, c := range candidates {
		if available <= 0 {
			break
		}
		s := Suggestion{
			CategoryID:     c.in.CategoryID,
			SuggestedCents: c.needed,
			NeededCents:    c.needed,
			Reason:         c.reason,
		}
		if s.SuggestedCents > available {
			s.SuggestedCents = available
			s.Truncated = true
			s.Reason += "; limited by Ready-to-Assign"
		}
		available -= s.SuggestedCents
		out = append(out, s)
	}
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

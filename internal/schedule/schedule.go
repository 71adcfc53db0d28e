// Package schedule generates due-dated payment schedules: equal installment
// splits whose amounts always sum to the purchase total, and loan
// amortization tables split into principal and interest.
//
// All amounts are integer cents. Dates are calendar days in UTC.
package schedule

import (
	"fmt"
	"time"

	"budgetledger/internal/errs"
)

// Frequency 周期频率
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddPeriods returns start moved forward by k periods of f.
//
// Month-based frequencies are computed from start, not chained, so a
// schedule anchored on the 31st lands on the last day of shorter months and
// returns to the 31st afterwards.
func AddPeriods(start time.Time, f Frequency, k int) (time.Time, error) {
	start = Day(start)
	switch f {
	case Daily:
		return start.AddDate(0, 0, k), nil
	case Weekly:
		return start.AddDate(0, 0, 7*k), nil
	case Biweekly:
		return start.AddDate(0, 0, 14*k), nil
	case Monthly:
		return addMonthsClamped(start, k), nil
	case Quarterly:
		return addMonthsClamped(start, 3*k), nil
	case Yearly:
		return addMonthsClamped(start, 12*k), nil
	}
	return time.Time{}, errs.New(errs.KindInvalidArgument, "unknown frequency %q", f)
}

// DueDate returns the due date of the i-th occurrence (1-based).
func DueDate(start time.Time, f Frequency, i int) (time.Time, error) {
	if i < 1 {
		return time.Time{}, errs.New(errs.KindInvalidArgument, "occurrence number must be >= 1, got %d", i)
	}
	return AddPeriods(start, f, i-1)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthsBetween counts calendar months from from's month to to's month.
// Negative when to is earlier.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MaxInstallments bounds the number of installments in one plan.
const MaxInstallments = 360

// SplitInstallments divides total into n amounts. The first n-1 are
// total/n truncated; the last absorbs the remainder, so the amounts always
// sum to total exactly.
func SplitInstallments(total int64, n int) ([]int64, error) {
	if total <= 0 {
		return nil, errs.New(errs.KindZeroOrNegativeAmount, "total must be positive, got %d", total)
	}
	if n < 1 {
		return nil, errs.New(errs.KindInvalidArgument, "number of installments must be >= 1, got %d", n)
	}
	if n > MaxInstallments {
		return nil, errs.New(errs.KindInvalidArgument, "number of installments must be <= %d, got %d", MaxInstallments, n)
	}

	regular := total / int64(n)
	amounts := make([]int64, n)
	for i := 0; i < n-1; i++ {
		amounts[i] = regular
	}
	amounts[n-1] = total - regular*int64(n-1)
	return amounts, nil
}

// Installment 分期明细
type Installment struct {
	Number      int       `json:"installment_number"`
	DueDate     time.Time `json:"due_date"`
	AmountCents int64     `json:"amount_cents"`
}

// GenerateInstallments builds the full installment schedule of a purchase.
func GenerateInstallments(total int64, n int, f Frequency, start time.Time) ([]Installment, error) {
	if !f.Valid() {
		return nil, errs.New(errs.KindInvalidArgument, "unknown frequency %q", f)
	}
	amounts, err := SplitInstallments(total, n)
	if err != nil {
		return nil, err
	}

	items := make([]Installment, n)
	for i, amount := range amounts {
		due, err := DueDate(start, f, i+1)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", i+1, err)
		}
		items[i] = Installment{Number: i + 1, DueDate: due, AmountCents: amount}
	}
	return items, nil
}

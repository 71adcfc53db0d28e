// Package envelope derives envelope (category) balances and Ready-to-Assign
// from assignment records and posted activity.
//
// A category balance rolls month to month:
//
//	balance(m) = balance(m-1) + budgeted(m) + activity(m)
//
// Negative balances carry forward until they are covered. The calculator is
// pure; loading its input is the caller's job.
package envelope

import "sort"

// State 信封状态，驱动界面配色
type State string

const (
	StateOverspent State = "overspent"
	StateZero      State = "zero"
	StateFunded    State = "funded"
)

// Classify maps a balance to its state. Zero is its own state, never
// funded or overspent.
func Classify(balance int64) State {
	switch {
	case balance < 0:
		return StateOverspent
	case balance > 0:
		return StateFunded
	default:
		return StateZero
	}
}

type Category struct {
	ID   int64
	Name string
}

// Amount is a signed cents figure attributed to a month, and to a category
// when CategoryID is set.
type Amount struct {
	CategoryID int64
	Month      Month
	Cents      int64
}

// Input is everything the calculator needs for one ledger.
type Input struct {
	Categories  []Category
	Assignments []Amount
	// Activity 分类当月资金流动：贷记为正，借记为负
	Activity []Amount
	// Income 收入：贷记收入账户为正，借记为负
	Income []Amount
}

type CategoryStatus struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Budgeted   int64  `json:"budgeted"`
	Activity   int64  `json:"activity"`
	Balance    int64  `json:"balance"`
	State      State  `json:"state"`
}

type Status struct {
	Month         Month            `json:"-"`
	Categories    []CategoryStatus `json:"categories"`
	ReadyToAssign int64            `json:"ready_to_assign"`
	IncomeToDate  int64            `json:"income_to_date"`
	AssignedTotal int64            `json:"assigned_to_date"`
}

// Overspent returns the categories with a negative balance.
func (s Status) Overspent() []CategoryStatus {
	var out []CategoryStatus
	for _, c := range s.Categories {
		if c.State == StateOverspent {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the status of one category.
func (s Status) Find(categoryID int64) (CategoryStatus, bool) {
	for _, c := range s.Categories {
		if c.CategoryID == categoryID {
			return c, true
		}
	}
	return CategoryStatus{}, false
}

// Calculate computes every category's figures for month and the ledger's
// Ready-to-Assign as of the end of month. Data dated after month is ignored.
func Calculate(in Input, month Month) Status {
	type figures struct {
		carry, budgeted, activity int64
	}
	byCategory := make(map[int64]*figures, len(in.Categories))
	for _, c := range in.Categories {
		byCategory[c.ID] = &figures{}
	}

	add := func(a Amount, budgeted bool) {
		f, ok := byCategory[a.CategoryID]
		if !ok || a.Month.After(month) {
			return
		}
		switch {
		case a.Month.Before(month):
			f.carry += a.Cents
		case budgeted:
			f.budgeted += a.Cents
		default:
			f.activity += a.Cents
		}
	}
	for _, a := range in.Assignments {
		add(a, true)
	}
	for _, a := range in.Activity {
		add(a, false)
	}

	status := Status{Month: month, Categories: make([]CategoryStatus, 0, len(in.Categories))}
	for _, c := range in.Categories {
		f := byCategory[c.ID]
		balance := f.carry + f.budgeted + f.activity
		status.Categories = append(status.Categories, CategoryStatus{
			CategoryID: c.ID,
			Name:       c.Name,
			Budgeted:   f.budgeted,
			Activity:   f.activity,
			Balance:    balance,
			State:      Classify(balance),
		})
	}
	sort.SliceStable(status.Categories, func(i, j int) bool {
		return status.Categories[i].CategoryID < status.Categories[j].CategoryID
	})

	status.IncomeToDate = sumThrough(in.Income, month)
	status.AssignedTotal = sumThrough(in.Assignments, month)
	status.ReadyToAssign = status.IncomeToDate - status.AssignedTotal
	return status
}

// ReadyToAssign is all income minus all assignments regardless of month,
// including assignments already made for future months.
func ReadyToAssign(in Input) int64 {
	var total int64
	for _, a := range in.Income {
		total += a.Cents
	}
	for _, a := range in.Assignments {
		total -= a.Cents
	}
	return total
}

// Balance returns one category's rolling balance at the end of month.
func Balance(in Input, categoryID int64, month Month) int64 {
	var balance int64
	for _, a := range in.Assignments {
		if a.CategoryID == categoryID && !a.Month.After(month) {
			balance += a.Cents
		}
	}
	for _, a := range in.Activity {
		if a.CategoryID == categoryID && !a.Month.After(month) {
			balance += a.Cents
		}
	}
	return balance
}

func sumThrough(amounts []Amount, month Month) int64 {
	var total int64
	for _, a := range amounts {
		if !a.Month.After(month) {
			total += a.Cents
		}
	}
	return total
}

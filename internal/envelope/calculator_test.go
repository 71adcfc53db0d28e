package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan = Month{Year: 2024, Month: time.January}
	feb = Month{Year: 2024, Month: time.February}
	mar = Month{Year: 2024, Month: time.March}
)

func TestClassify(t *testing.T) {
	assert.Equal(t, StateOverspent, Classify(-1))
	assert.Equal(t, StateZero, Classify(0))
	assert.Equal(t, StateFunded, Classify(1))
}

func TestCalculate_RollingCarryForward(t *testing.T) {
	in := Input{
		Categories: []Category{{ID: 1, Name: "Groceries"}},
		Assignments: []Amount{
			{CategoryID: 1, Month: jan, Cents: 1000},
			{CategoryID: 1, Month: feb, Cents: 300},
		},
		Activity: []Amount{
			{CategoryID: 1, Month: jan, Cents: -1500},
			{CategoryID: 1, Month: feb, Cents: -200},
		},
		Income: []Amount{{Month: jan, Cents: 5000}},
	}

	janStatus := Calculate(in, jan)
	groceries, ok := janStatus.Find(1)
	require.True(t, ok)
	assert.Equal(t, int64(-500), groceries.Balance)
	assert.Equal(t, StateOverspent, groceries.State)

	// 未覆盖的超支结转到下月
	febStatus := Calculate(in, feb)
	groceries, _ = febStatus.Find(1)
	assert.Equal(t, int64(300), groceries.Budgeted)
	assert.Equal(t, int64(-200), groceries.Activity)
	assert.Equal(t, int64(-500+300-200), groceries.Balance)
}

func TestCalculate_EqualsRecursiveDefinition(t *testing.T) {
	in := Input{
		Categories: []Category{{ID: 1}, {ID: 2}},
		Assignments: []Amount{
			{CategoryID: 1, Month: jan, Cents: 400},
			{CategoryID: 2, Month: jan, Cents: 100},
			{CategoryID: 1, Month: mar, Cents: 50},
		},
		Activity: []Amount{
			{CategoryID: 1, Month: feb, Cents: -120},
			{CategoryID: 2, Month: feb, Cents: 30},
			{CategoryID: 2, Month: mar, Cents: -700},
		},
	}

	for _, id := range []int64{1, 2} {
		var previous int64
		for _, m := range []Month{jan, feb, mar} {
			st, _ := Calculate(in, m).Find(id)
			assert.Equal(t, previous+st.Budgeted+st.Activity, st.Balance, "category %d month %s", id, m)
			assert.Equal(t, st.Balance, Balance(in, id, m))
			previous = st.Balance
		}
	}
}

func TestCalculate_IgnoresFutureMonths(t *testing.T) {
	in := Input{
		Categories:  []Category{{ID: 1}},
		Assignments: []Amount{{CategoryID: 1, Month: mar, Cents: 900}},
		Activity:    []Amount{{CategoryID: 1, Month: mar, Cents: -100}},
		Income:      []Amount{{Month: mar, Cents: 1000}},
	}

	st := Calculate(in, jan)
	c, _ := st.Find(1)
	assert.Zero(t, c.Balance)
	assert.Equal(t, StateZero, c.State)
	assert.Zero(t, st.ReadyToAssign)
}

func TestCalculate_ReadyToAssign(t *testing.T) {
	in := Input{
		Categories: []Category{{ID: 1}, {ID: 2}},
		Assignments: []Amount{
			{CategoryID: 1, Month: jan, Cents: 3000},
			{CategoryID: 2, Month: feb, Cents: 2500},
		},
		Income: []Amount{
			{Month: jan, Cents: 5000},
			{Month: feb, Cents: 1000},
			{Month: feb, Cents: -200},
		},
	}

	assert.Equal(t, int64(2000), Calculate(in, jan).ReadyToAssign)

	st := Calculate(in, feb)
	assert.Equal(t, int64(5800), st.IncomeToDate)
	assert.Equal(t, int64(5500), st.AssignedTotal)
	assert.Equal(t, int64(300), st.ReadyToAssign)
	assert.Equal(t, int64(300), ReadyToAssign(in))
}

func TestCalculate_Overspent(t *testing.T) {
	in := Input{
		Categories: []Category{{ID: 3}, {ID: 1}, {ID: 2}},
		Activity: []Amount{
			{CategoryID: 1, Month: jan, Cents: -10},
			{CategoryID: 3, Month: jan, Cents: -1},
		},
		Assignments: []Amount{{CategoryID: 2, Month: jan, Cents: 10}},
	}

	st := Calculate(in, jan)
	ids := []int64{}
	for _, c := range st.Categories {
		ids = append(ids, c.CategoryID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)

	over := st.Overspent()
	require.Len(t, over, 2)
	assert.Equal(t, int64(1), over[0].CategoryID)
	assert.Equal(t, int64(3), over[1].CategoryID)
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2024-12")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.December}, m)
	assert.Equal(t, "2025-01", m.Next().String())
	assert.Equal(t, "2024-11", m.Prev().String())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), m.End())
	assert.True(t, m.Prev().Before(m))
	assert.True(t, m.Next().After(m))

	_, err = ParseMonth("2024-13")
	assert.Error(t, err)
}

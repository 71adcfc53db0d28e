package goal

import (
	"testing"
	"time"

	"budgetledger/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNeeded(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int64
	}{
		{
			name: "monthly funding partially assigned",
			in:   Input{Type: MonthlyFunding, TargetCents: 5000, AssignedThisMonth: 2000},
			want: 3000,
		},
		{
			name: "monthly funding over assigned",
			in:   Input{Type: MonthlyFunding, TargetCents: 5000, AssignedThisMonth: 6000},
			want: 0,
		},
		{
			name: "target balance",
			in:   Input{Type: TargetBalance, TargetCents: 100000, Balance: 25000},
			want: 75000,
		},
		{
			name: "target balance from overspent",
			in:   Input{Type: TargetBalance, TargetCents: 1000, Balance: -500},
			want: 1500,
		},
		{
			name: "target by date spreads over months",
			in:   Input{Type: TargetByDate, TargetCents: 1000, TargetDate: day(2024, 6, 1)},
			want: 333,
		},
		{
			name: "target by date final month takes remainder",
			in:   Input{Type: TargetByDate, TargetCents: 1000, Balance: 666, TargetDate: day(2024, 4, 1)},
			want: 334,
		},
		{
			name: "target by date this month",
			in:   Input{Type: TargetByDate, TargetCents: 1000, Balance: 100, TargetDate: day(2024, 3, 31)},
			want: 900,
		},
		{
			name: "target by date passed without repeat needs it all",
			in:   Input{Type: TargetByDate, TargetCents: 1000, TargetDate: day(2023, 12, 1)},
			want: 1000,
		},
		{
			name: "target by date reached",
			in:   Input{Type: TargetByDate, TargetCents: 1000, Balance: 1200, TargetDate: day(2024, 12, 1)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Needed(tt.in, today)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestEffectiveTargetDate_Repeats(t *testing.T) {
	in := Input{Type: TargetByDate, TargetDate: day(2023, 1, 15), Repeat: schedule.Yearly}
	assert.Equal(t, day(2025, 1, 15), EffectiveTargetDate(in, today))

	in.Repeat = ""
	assert.Equal(t, day(2023, 1, 15), EffectiveTargetDate(in, today))
}

func TestSuggest_Priority(t *testing.T) {
	inputs := []Input{
		{CategoryID: 1, Type: TargetBalance, TargetCents: 100},
		{CategoryID: 2, Type: MonthlyFunding, TargetCents: 100},
		{CategoryID: 3, Type: TargetByDate, TargetCents: 100, TargetDate: day(2024, 3, 20)},
		{CategoryID: 4, Type: TargetByDate, TargetCents: 100, TargetDate: day(2024, 3, 15)},
		{CategoryID: 5, Type: MonthlyFunding, TargetCents: 100, AssignedThisMonth: 100},
	}

	got := Suggest(inputs, 10000, today)
	ids := make([]int64, len(got))
	for i, s := range got {
		ids[i] = s.CategoryID
		assert.False(t, s.Truncated)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)
}

func TestSuggest_CappedByReadyToAssign(t *testing.T) {
	inputs := []Input{
		{CategoryID: 1, Type: MonthlyFunding, TargetCents: 400},
		{CategoryID: 2, Type: TargetBalance, TargetCents: 400},
		{CategoryID: 3, Type: TargetByDate, TargetCents: 400, TargetDate: day(2024, 3, 31)},
	}

	got := Suggest(inputs, 600, today)
	require.Len(t, got, 2)

	assert.Equal(t, int64(3), got[0].CategoryID)
	assert.Equal(t, int64(400), got[0].SuggestedCents)
	assert.Equal(t, int64(1), got[1].CategoryID)
	assert.Equal(t, int64(200), got[1].SuggestedCents)
	assert.Equal(t, int64(400), got[1].NeededCents)
	assert.True(t, got[1].Truncated)

	var total int64
	for _, s := range got {
		total += s.SuggestedCents
	}
	assert.LessOrEqual(t, total, int64(600))
}

func TestSuggest_NothingAvailable(t *testing.T) {
	inputs := []Input{{CategoryID: 1, Type: MonthlyFunding, TargetCents: 400}}
	assert.Empty(t, Suggest(inputs, 0, today))
	assert.Empty(t, Suggest(inputs, -50, today))
}

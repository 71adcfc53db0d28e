package service

import (
	"testing"
	"time"

	"budgetledger/internal/envelope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeStatus_CarryForward(t *testing.T) {
	e := newTestEnv(t)
	jan := envelope.Month{Year: 2024, Month: time.January}
	feb := jan.Next()

	e.income(t, 10000, day(2024, 1, 1))
	_, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan, 1000, AssignOptions{})
	require.NoError(t, err)
	e.spend(t, e.groceries, 1500, day(2024, 1, 20))

	st, err := e.envelopes.Status(ctx, e.lc, jan)
	require.NoError(t, err)
	g, ok := st.Find(e.groceries)
	require.True(t, ok)
	assert.Equal(t, int64(1000), g.Budgeted)
	assert.Equal(t, int64(-1500), g.Activity)
	assert.Equal(t, int64(-500), g.Balance)
	assert.Equal(t, envelope.StateOverspent, g.State)
	assert.Equal(t, int64(9000), st.ReadyToAssign)

	r, _ := st.Find(e.rent)
	assert.Equal(t, envelope.StateZero, r.State)

	_, err = e.allocation.Assign(ctx, e.lc, e.groceries, feb, 300, AssignOptions{})
	require.NoError(t, err)
	e.spend(t, e.groceries, 200, day(2024, 2, 5))

	st, err = e.envelopes.Status(ctx, e.lc, feb)
	require.NoError(t, err)
	g, _ = st.Find(e.groceries)
	assert.Equal(t, int64(-500+300-200), g.Balance)
	assert.Equal(t, int64(8700), st.ReadyToAssign)

	// 一月视图不受二月数据影响
	st, err = e.envelopes.Status(ctx, e.lc, jan)
	require.NoError(t, err)
	g, _ = st.Find(e.groceries)
	assert.Equal(t, int64(-500), g.Balance)
}

func TestEnvelopeStatus_InflowToCategory(t *testing.T) {
	e := newTestEnv(t)
	mar := envelope.Month{Year: 2024, Month: time.March}

	// 退款贷记分类，计为正向活动
	e.post(t, e.checking, e.groceries, 250, day(2024, 3, 3))

	st, err := e.envelopes.Status(ctx, e.lc, mar)
	require.NoError(t, err)
	g, _ := st.Find(e.groceries)
	assert.Equal(t, int64(250), g.Activity)
	assert.Equal(t, envelope.StateFunded, g.State)
	assert.Zero(t, st.ReadyToAssign)
}

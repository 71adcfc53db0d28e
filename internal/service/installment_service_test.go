package service

import (
	"testing"

	"budgetledger/internal/errs"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallmentPlan_CreateAndProcess(t *testing.T) {
	e := newTestEnv(t)

	plan, err := e.installments.CreateInstallmentPlan(ctx, e.lc, CreatePlanRequest{
		Description:          "Laptop",
		PurchaseAmountCents:  1000,
		NumberOfInstallments: 3,
		Frequency:            schedule.Monthly,
		StartDate:            day(2024, 1, 31),
		CategoryID:           e.groceries,
		PaymentAccountID:     e.card,
	})
	require.NoError(t, err)
	require.Len(t, plan.Items, 3)

	var sum int64
	for _, item := range plan.Items {
		sum += item.ScheduledAmountCents
	}
	assert.Equal(t, int64(1000), sum)
	assert.Equal(t, int64(334), plan.Items[2].ScheduledAmountCents)
	assert.True(t, plan.Items[1].DueDate.Equal(day(2024, 2, 29)))

	res, err := e.installments.ProcessDueInstallments(ctx, e.lc, day(2024, 2, 29))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Failed)
	assert.Equal(t, int64(-666), e.balance(t, e.card))

	// 已处理的明细不会再次记账
	res, err = e.installments.ProcessDueInstallments(ctx, e.lc, day(2024, 2, 29))
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	got, err := e.installments.GetInstallmentPlan(ctx, e.lc, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, model.ScheduleItemStatusPaid, got.Items[0].Status)
	assert.NotNil(t, got.Items[0].TransactionID)
	assert.Equal(t, model.ScheduleItemStatusScheduled, got.Items[2].Status)

	_, err = e.installments.GetInstallmentPlan(ctx, e.lc, plan.ID+100)
	assert.ErrorIs(t, err, errs.ErrScheduleNotFound)
}

func TestInstallmentPlan_FailedItemDoesNotStopOthers(t *testing.T) {
	e := newTestEnv(t)

	plan, err := e.installments.CreateInstallmentPlan(ctx, e.lc, CreatePlanRequest{
		Description: "Sofa", PurchaseAmountCents: 900, NumberOfInstallments: 3,
		Frequency: schedule.Weekly, StartDate: day(2024, 1, 1),
		CategoryID: e.groceries, PaymentAccountID: e.card,
	})
	require.NoError(t, err)
	other, err := e.installments.CreateInstallmentPlan(ctx, e.lc, CreatePlanRequest{
		Description: "Desk", PurchaseAmountCents: 200, NumberOfInstallments: 2,
		Frequency: schedule.Weekly, StartDate: day(2024, 1, 1),
		CategoryID: e.rent, PaymentAccountID: e.checking,
	})
	require.NoError(t, err)

	require.NoError(t, e.ledgers.DeactivateAccount(ctx, e.lc, e.card))

	res, err := e.installments.ProcessDueInstallments(ctx, e.lc, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
	for _, item := range res.Items {
		if item.Status == ItemFailed {
			assert.Equal(t, errs.KindInvalidAccount, item.ErrorKind)
			assert.Equal(t, plan.Items[0].ID, item.ID)
		} else {
			assert.Equal(t, other.Items[0].ID, item.ID)
		}
	}
}

func TestInstallmentPlan_Invalid(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.installments.CreateInstallmentPlan(ctx, e.lc, CreatePlanRequest{
		PurchaseAmountCents: 0, NumberOfInstallments: 3, Frequency: schedule.Monthly,
		StartDate: day(2024, 1, 1), CategoryID: e.groceries, PaymentAccountID: e.card,
	})
	assert.ErrorIs(t, err, errs.ErrZeroOrNegativeAmount)

	_, err = e.installments.CreateInstallmentPlan(ctx, e.lc, CreatePlanRequest{
		PurchaseAmountCents: 100, NumberOfInstallments: 2, Frequency: schedule.Monthly,
		StartDate: day(2024, 1, 1), CategoryID: e.checking, PaymentAccountID: e.card,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)
}

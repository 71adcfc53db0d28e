package service

import (
	"sync"
	"testing"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/envelope"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan24 = envelope.Month{Year: 2024, Month: time.January}

func TestAssign_ReadyToAssignPolicy(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 1000, day(2024, 1, 1))

	res, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 800, AssignOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(800), res.AssignedCents)
	assert.Equal(t, int64(800), res.BalanceCents)
	assert.Equal(t, int64(200), res.ReadyToAssign)
	assert.Empty(t, res.Warning)

	_, err = e.allocation.Assign(ctx, e.lc, e.rent, jan24, 300, AssignOptions{})
	assert.ErrorIs(t, err, errs.ErrReadyToAssignWouldGoNegative)

	// 被拒绝的分配整体回滚
	assigned, err := e.allocation.assignments.Get(ctx, nil, e.rent, jan24.String())
	require.NoError(t, err)
	assert.Zero(t, assigned)

	res, err = e.allocation.Assign(ctx, e.lc, e.rent, jan24, 300, AssignOptions{AllowOverdraft: true})
	require.NoError(t, err)
	assert.Equal(t, int64(-100), res.ReadyToAssign)
	assert.NotEmpty(t, res.Warning)

	// 减少分配总是允许
	res, err = e.allocation.Assign(ctx, e.lc, e.groceries, jan24, -500, AssignOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.AssignedCents)
	assert.Equal(t, int64(400), res.ReadyToAssign)
}

func TestAssign_FutureMonthCountsAgainstReadyToAssign(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 1000, day(2024, 1, 1))

	_, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24.Next().Next(), 1000, AssignOptions{})
	require.NoError(t, err)

	_, err = e.allocation.Assign(ctx, e.lc, e.rent, jan24, 1, AssignOptions{})
	assert.ErrorIs(t, err, errs.ErrReadyToAssignWouldGoNegative)
}

func TestAssign_ConfigAllowsNegative(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) {
		c.Ledger.AllowNegativeReadyToAssign = true
	})

	res, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 500, AssignOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(-500), res.ReadyToAssign)
	assert.Contains(t, res.Warning, string(errs.KindReadyToAssignWouldGoNegative))
}

func TestAssign_Invalid(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.allocation.Assign(ctx, e.lc, e.checking, jan24, 100, AssignOptions{AllowOverdraft: true})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)

	_, err = e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 0, AssignOptions{})
	assert.ErrorIs(t, err, errs.ErrZeroOrNegativeAmount)

	_, err = e.allocation.Assign(ctx, LedgerContext{UserID: 1, LedgerID: e.ledger.ID}, e.groceries, jan24, 100, AssignOptions{})
	assert.ErrorIs(t, err, errs.ErrLedgerNotFound)

	assert.Zero(t, e.count(t, &model.CategoryAssignment{}))
}

func TestMove_Bounds(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 2000, day(2024, 1, 1))
	_, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 800, AssignOptions{})
	require.NoError(t, err)
	e.spend(t, e.groceries, 300, day(2024, 1, 10))

	// 可用余额 500
	for _, amount := range []int64{501, 800, 1_000_000} {
		_, err := e.allocation.Move(ctx, e.lc, MoveRequest{
			FromCategoryID: e.groceries, ToCategoryID: e.rent, Month: jan24, AmountCents: amount,
		})
		assert.ErrorIs(t, err, errs.ErrInsufficientCategoryBalance, "amount %d", amount)
	}

	res, err := e.allocation.Move(ctx, e.lc, MoveRequest{
		FromCategoryID: e.groceries, ToCategoryID: e.rent, Month: jan24, AmountCents: 500,
	})
	require.NoError(t, err)
	assert.Zero(t, res.FromBalance)
	assert.Equal(t, int64(500), res.ToBalance)

	// 转移不改变 Ready-to-Assign
	rta, err := e.envelopes.ReadyToAssign(ctx, e.lc)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), rta)

	_, err = e.allocation.Move(ctx, e.lc, MoveRequest{
		FromCategoryID: e.groceries, ToCategoryID: e.rent, Month: jan24, AmountCents: 1,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientCategoryBalance)
}

func TestMove_Invalid(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.allocation.Move(ctx, e.lc, MoveRequest{FromCategoryID: e.groceries, ToCategoryID: e.rent, Month: jan24})
	assert.ErrorIs(t, err, errs.ErrZeroOrNegativeAmount)

	_, err = e.allocation.Move(ctx, e.lc, MoveRequest{FromCategoryID: e.groceries, ToCategoryID: e.groceries, Month: jan24, AmountCents: 1})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)

	_, err = e.allocation.Move(ctx, e.lc, MoveRequest{FromCategoryID: e.groceries, ToCategoryID: e.checking, Month: jan24, AmountCents: 1})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)
}

func TestCoverOverspending(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 3000, day(2024, 1, 1))
	_, err := e.allocation.Assign(ctx, e.lc, e.rent, jan24, 1000, AssignOptions{})
	require.NoError(t, err)
	e.spend(t, e.groceries, 500, day(2024, 1, 12))

	deferred, err := e.allocation.CoverOverspending(ctx, e.lc, CoverRequest{
		OverspentCategoryID: e.groceries, SourceCategoryID: e.rent, Month: jan24, Policy: CoverDefer,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), deferred.RolledForwardCents)
	assert.Zero(t, deferred.CoveredCents)
	assert.Equal(t, int64(1), e.count(t, &model.CategoryAssignment{}))

	res, err := e.allocation.CoverOverspending(ctx, e.lc, CoverRequest{
		OverspentCategoryID: e.groceries, SourceCategoryID: e.rent, Month: jan24,
	})
	require.NoError(t, err)
	assert.Equal(t, CoverMove, res.Policy)
	assert.Equal(t, int64(500), res.CoveredCents)
	assert.Zero(t, res.BalanceCents)
	require.NotNil(t, res.SourceBalanceCents)
	assert.Equal(t, int64(500), *res.SourceBalanceCents)

	// 已无超支，未指定金额时不做变更
	res, err = e.allocation.CoverOverspending(ctx, e.lc, CoverRequest{
		OverspentCategoryID: e.groceries, SourceCategoryID: e.rent, Month: jan24,
	})
	require.NoError(t, err)
	assert.Zero(t, res.CoveredCents)
	assert.Nil(t, res.SourceBalanceCents)
}

func TestCoverOverspending_SourceTooSmall(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 3000, day(2024, 1, 1))
	_, err := e.allocation.Assign(ctx, e.lc, e.rent, jan24, 100, AssignOptions{})
	require.NoError(t, err)
	e.spend(t, e.groceries, 500, day(2024, 1, 12))

	_, err = e.allocation.CoverOverspending(ctx, e.lc, CoverRequest{
		OverspentCategoryID: e.groceries, SourceCategoryID: e.rent, Month: jan24,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientCategoryBalance)

	partial := int64(100)
	res, err := e.allocation.CoverOverspending(ctx, e.lc, CoverRequest{
		OverspentCategoryID: e.groceries, SourceCategoryID: e.rent, Month: jan24, AmountCents: &partial,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-400), res.BalanceCents)
	assert.Equal(t, int64(400), res.RolledForwardCents)
}

func TestAssign_InactiveCategory(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 1000, day(2024, 1, 1))
	_, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 300, AssignOptions{})
	require.NoError(t, err)
	require.NoError(t, e.ledgers.DeactivateAccount(ctx, e.lc, e.groceries))

	_, err = e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 100, AssignOptions{})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)

	// 停用分类仍可减少分配或转出余额
	res, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24, -100, AssignOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.AssignedCents)

	_, err = e.allocation.Move(ctx, e.lc, MoveRequest{
		FromCategoryID: e.rent, ToCategoryID: e.groceries, Month: jan24, AmountCents: 1,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)

	moved, err := e.allocation.Move(ctx, e.lc, MoveRequest{
		FromCategoryID: e.groceries, ToCategoryID: e.rent, Month: jan24, AmountCents: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), moved.ToBalance)

	one := int64(1)
	_, err = e.allocation.CoverOverspending(ctx, e.lc, CoverRequest{
		OverspentCategoryID: e.groceries, SourceCategoryID: e.rent, Month: jan24, AmountCents: &one,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)
}

func TestMove_ConcurrentNeverOverdraws(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 100, day(2024, 1, 1))
	_, err := e.allocation.Assign(ctx, e.lc, e.groceries, jan24, 100, AssignOptions{})
	require.NoError(t, err)

	const workers = 8
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.allocation.Move(ctx, e.lc, MoveRequest{
				FromCategoryID: e.groceries, ToCategoryID: e.rent, Month: jan24, AmountCents: 60,
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	successes := 0
	for err := range errCh {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrInsufficientCategoryBalance)
	}
	assert.Equal(t, 1, successes)

	status, err := e.envelopes.Status(ctx, e.lc, jan24)
	require.NoError(t, err)
	balances := map[int64]int64{}
	for _, c := range status.Categories {
		balances[c.CategoryID] = c.Balance
	}
	assert.Equal(t, int64(40), balances[e.groceries])
	assert.Equal(t, int64(60), balances[e.rent])
}

func TestAssign_ConcurrentRespectsReadyToAssign(t *testing.T) {
	e := newTestEnv(t)
	e.income(t, 100, day(2024, 1, 1))

	const workers = 8
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			category := e.groceries
			if i%2 == 1 {
				category = e.rent
			}
			_, err := e.allocation.Assign(ctx, e.lc, category, jan24, 60, AssignOptions{})
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)

	successes := 0
	for err := range errCh {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrReadyToAssignWouldGoNegative)
	}
	assert.Equal(t, 1, successes)

	rta, err := e.envelopes.ReadyToAssign(ctx, e.lc)
	require.NoError(t, err)
	assert.Equal(t, int64(40), rta)
}

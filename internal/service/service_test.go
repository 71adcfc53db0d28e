package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/infrastructure/database"
	"budgetledger/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testEnv 每个测试独立的 sqlite 文件和一个带常用账户的账本
type testEnv struct {
	db  *gorm.DB
	cfg *config.Config
	lc  LedgerContext

	ledger *model.Ledger

	ledgers      *LedgerService
	posting      *PostingService
	envelopes    *EnvelopeService
	allocation   *AllocationService
	goals        *GoalService
	installments *InstallmentService
	loans        *LoanService
	recurring    *RecurringService
	reconcile    *ReconcileService

	checking  int64
	card      int64
	groceries int64
	rent      int64
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "ledger.db")
	for _, m := range mutate {
		m(cfg)
	}
	db, err := database.Init(&cfg.Database)
	require.NoError(t, err)

	e := &testEnv{
		db:           db,
		cfg:          cfg,
		ledgers:      NewLedgerService(db, cfg),
		posting:      NewPostingService(db, cfg),
		envelopes:    NewEnvelopeService(db, cfg),
		allocation:   NewAllocationService(db, cfg),
		goals:        NewGoalService(db, cfg),
		installments: NewInstallmentService(db, cfg),
		loans:        NewLoanService(db, cfg),
		recurring:    NewRecurringService(db, nil, cfg),
		reconcile:    NewReconcileService(db, cfg),
	}

	e.ledger, err = e.ledgers.CreateLedger(ctx, 42, "Household")
	require.NoError(t, err)
	e.lc = LedgerContext{UserID: 42, LedgerID: e.ledger.ID}

	e.checking = e.account(t, "Checking", model.AccountTypeAsset)
	e.card = e.account(t, "Visa", model.AccountTypeLiability)
	e.groceries = e.account(t, "Groceries", model.AccountTypeEquity)
	e.rent = e.account(t, "Rent", model.AccountTypeEquity)
	return e
}

func (e *testEnv) account(t *testing.T, name, typ string) int64 {
	t.Helper()
	a, err := e.ledgers.CreateAccount(ctx, e.lc, CreateAccountRequest{Name: name, Type: typ})
	require.NoError(t, err)
	return a.ID
}

func (e *testEnv) post(t *testing.T, debit, credit, amount int64, date time.Time) *model.Transaction {
	t.Helper()
	tx, err := e.posting.Post(ctx, e.lc, PostRequest{
		DebitAccountID:  debit,
		CreditAccountID: credit,
		AmountCents:     amount,
		Date:            date,
	})
	require.NoError(t, err)
	return tx
}

// income 收入存入支票账户
func (e *testEnv) income(t *testing.T, amount int64, date time.Time) *model.Transaction {
	t.Helper()
	return e.post(t, e.checking, e.ledger.IncomeAccountID, amount, date)
}

// spend 从支票账户支出并计入分类
func (e *testEnv) spend(t *testing.T, category, amount int64, date time.Time) *model.Transaction {
	t.Helper()
	return e.post(t, category, e.checking, amount, date)
}

func (e *testEnv) balance(t *testing.T, accountID int64) int64 {
	t.Helper()
	a, err := e.ledgers.GetAccountBalance(ctx, e.lc, accountID)
	require.NoError(t, err)
	return a.Balance
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

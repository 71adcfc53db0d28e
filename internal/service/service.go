// Package service implements the ledger operations on top of the
// repositories. Every mutating operation runs in one database transaction
// and locks the rows it reads for its preconditions.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/envelope"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"
	"budgetledger/internal/repository"

	"gorm.io/gorm"
)

// LedgerContext 显式传入每个操作的用户与账本，取代全局的当前用户
type LedgerContext struct {
	UserID   int64
	LedgerID int64
}

func (lc LedgerContext) validate() error {
	if lc.UserID <= 0 || lc.LedgerID <= 0 {
		return errs.New(errs.KindLedgerNotFound, "user and ledger are required")
	}
	return nil
}

// store 各服务共享的仓储和事务内辅助方法
type store struct {
	db              *gorm.DB
	cfg             *config.Config
	ledgers         *repository.LedgerRepository
	accounts        *repository.AccountRepository
	transactions    *repository.TransactionRepository
	assignments     *repository.AssignmentRepository
	goals           *repository.GoalRepository
	recurring       *repository.RecurringRepository
	schedules       *repository.ScheduleRepository
	reconciliations *repository.ReconciliationRepository
	outbox          *repository.OutboxRepository
}

func newStore(db *gorm.DB, cfg *config.Config) *store {
	if cfg == nil {
		cfg = config.Default()
	}
	return &store{
		db:              db,
		cfg:             cfg,
		ledgers:         repository.NewLedgerRepository(db),
		accounts:        repository.NewAccountRepository(db),
		transactions:    repository.NewTransactionRepository(db),
		assignments:     repository.NewAssignmentRepository(db),
		goals:           repository.NewGoalRepository(db),
		recurring:       repository.NewRecurringRepository(db),
		schedules:       repository.NewScheduleRepository(db),
		reconciliations: repository.NewReconciliationRepository(db),
		outbox:          repository.NewOutboxRepository(db),
	}
}

// ledger 校验账本归属，tx 为空时使用默认连接
func (s *store) ledger(ctx context.Context, tx *gorm.DB, lc LedgerContext) (*model.Ledger, error) {
	if err := lc.validate(); err != nil {
		return nil, err
	}
	ledger, err := s.ledgers.GetForUser(ctx, tx, lc.UserID, lc.LedgerID)
	if err != nil {
		return nil, notFound(err, errs.KindLedgerNotFound, "ledger %d not found", lc.LedgerID)
	}
	return ledger, nil
}

func (s *store) lockLedger(ctx context.Context, tx *gorm.DB, lc LedgerContext) (*model.Ledger, error) {
	if err := lc.validate(); err != nil {
		return nil, err
	}
	ledger, err := s.ledgers.GetForUserForUpdate(ctx, tx, lc.UserID, lc.LedgerID)
	if err != nil {
		return nil, notFound(err, errs.KindLedgerNotFound, "ledger %d not found", lc.LedgerID)
	}
	return ledger, nil
}

// lockCategories 按 ID 升序锁定分类行，任一不是分类时返回 InvalidAccount
func (s *store) lockCategories(ctx context.Context, tx *gorm.DB, ledgerID int64, ids ...int64) (map[int64]*model.Account, error) {
	locked, err := s.accounts.GetByIDsForUpdate(ctx, tx, ledgerID, ids...)
	if err != nil {
		return nil, fmt.Errorf("lock categories: %w", err)
	}
	byID := make(map[int64]*model.Account, len(locked))
	for _, a := range locked {
		byID[a.ID] = a
	}
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, errs.New(errs.KindInvalidAccount, "category %d not found in ledger %d", id, ledgerID)
		}
		if !a.IsCategory() {
			return nil, errs.New(errs.KindInvalidAccount, "account %d is not a category", id)
		}
	}
	return byID, nil
}

// requireActive 停用的分类可以转出余额，但不能再接收资金
func requireActive(categories map[int64]*model.Account, id int64) error {
	if a := categories[id]; a == nil || !a.Active {
		return errs.New(errs.KindInvalidAccount, "category %d is inactive", id)
	}
	return nil
}

// envelopeInput 加载信封计算所需数据，before 为空时加载全部流水
func (s *store) envelopeInput(ctx context.Context, tx *gorm.DB, ledgerID int64, before *time.Time) (envelope.Input, error) {
	var in envelope.Input

	accounts, err := s.accounts.ListByLedger(ctx, tx, ledgerID)
	if err != nil {
		return in, fmt.Errorf("list accounts: %w", err)
	}
	categories := make(map[int64]bool)
	income := make(map[int64]bool)
	for _, a := range accounts {
		switch {
		case a.IsCategory():
			categories[a.ID] = true
			in.Categories = append(in.Categories, envelope.Category{ID: a.ID, Name: a.Name})
		case a.Type == model.AccountTypeIncome && !a.IsGroup:
			income[a.ID] = true
		}
	}

	rows, err := s.assignments.ListByLedger(ctx, tx, ledgerID)
	if err != nil {
		return in, fmt.Errorf("list assignments: %w", err)
	}
	for _, row := range rows {
		m, err := envelope.ParseMonth(row.Month)
		if err != nil {
			return in, fmt.Errorf("assignment %d: %w", row.ID, err)
		}
		in.Assignments = append(in.Assignments, envelope.Amount{CategoryID: row.CategoryID, Month: m, Cents: row.AssignedCents})
	}

	postings, err := s.transactions.ListPostings(ctx, tx, ledgerID, before)
	if err != nil {
		return in, fmt.Errorf("list postings: %w", err)
	}
	for _, p := range postings {
		m := envelope.MonthOf(p.Date)
		if categories[p.CreditAccountID] {
			in.Activity = append(in.Activity, envelope.Amount{CategoryID: p.CreditAccountID, Month: m, Cents: p.AmountCents})
		}
		if categories[p.DebitAccountID] {
			in.Activity = append(in.Activity, envelope.Amount{CategoryID: p.DebitAccountID, Month: m, Cents: -p.AmountCents})
		}
		if income[p.CreditAccountID] {
			in.Income = append(in.Income, envelope.Amount{Month: m, Cents: p.AmountCents})
		}
		if income[p.DebitAccountID] {
			in.Income = append(in.Income, envelope.Amount{Month: m, Cents: -p.AmountCents})
		}
	}
	return in, nil
}

// ledgerEvent 发件箱消息体
type ledgerEvent struct {
	Type       string      `json:"type"`
	LedgerID   int64       `json:"ledger_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// emit 在业务事务内写入发件箱
func (s *store) emit(ctx context.Context, tx *gorm.DB, ledgerID int64, eventType, key string, data interface{}) error {
	payload, err := json.Marshal(ledgerEvent{
		Type:       eventType,
		LedgerID:   ledgerID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	msg := &model.OutboxMessage{
		LedgerID:   ledgerID,
		EventType:  eventType,
		MessageKey: key,
		Topic:      s.cfg.Kafka.Topic.LedgerEvents,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outbox.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

func notFound(err error, kind errs.Kind, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.New(kind, format, args...)
	}
	return err
}

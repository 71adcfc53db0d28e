package repository

import (
	"context"
	"time"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return use(r.db, tx).WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByUUID(ctx context.Context, tx *gorm.DB, ledgerID int64, uuid string) (*model.Transaction, error) {
	var t model.Transaction
	err := use(r.db, tx).WithContext(ctx).
		Where("uuid = ? AND ledger_id = ?", uuid, ledgerID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) ListByUUIDs(ctx context.Context, tx *gorm.DB, ledgerID int64, uuids []string) ([]*model.Transaction, error) {
	var list []*model.Transaction
	if len(uuids) == 0 {
		return list, nil
	}
	err := use(r.db, tx).WithContext(ctx).
		Where("ledger_id = ? AND uuid IN ?", ledgerID, uuids).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// TransactionFilter 流水查询条件，零值表示不限
type TransactionFilter struct {
	AccountID int64
	From      *time.Time
	// Before 不含当天
	Before *time.Time
	Limit  int
}

func (r *TransactionRepository) List(ctx context.Context, tx *gorm.DB, ledgerID int64, f TransactionFilter) ([]*model.Transaction, error) {
	q := use(r.db, tx).WithContext(ctx).Where("ledger_id = ?", ledgerID)
	if f.AccountID != 0 {
		q = q.Where("(debit_account_id = ? OR credit_account_id = ?)", f.AccountID, f.AccountID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.Before != nil {
		q = q.Where("date < ?", *f.Before)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var list []*model.Transaction
	err := q.Order("date ASC, id ASC").Find(&list).Error
	return list, err
}

// Posting 计算信封余额所需的流水字段
type Posting struct {
	Date            time.Time
	AmountCents     int64
	DebitAccountID  int64
	CreditAccountID int64
}

// ListPostings 查询账本全部流水的记账字段，before 为空表示不限日期
func (r *TransactionRepository) ListPostings(ctx context.Context, tx *gorm.DB, ledgerID int64, before *time.Time) ([]Posting, error) {
	q := use(r.db, tx).WithContext(ctx).
		Model(&model.Transaction{}).
		Select("date, amount_cents, debit_account_id, credit_account_id").
		Where("ledger_id = ?", ledgerID)
	if before != nil {
		q = q.Where("date < ?", *before)
	}
	var postings []Posting
	err := q.Scan(&postings).Error
	return postings, err
}

func (r *TransactionRepository) UpdateClearedStatus(ctx context.Context, tx *gorm.DB, ids []int64, status string) error {
	if len(ids) == 0 {
		return nil
	}
	return use(r.db, tx).WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id IN ?", ids).
		Update("cleared_status", status).Error
}

func (r *TransactionRepository) GetOccurrence(ctx context.Context, tx *gorm.DB, templateID int64, occurrence time.Time) (*model.Transaction, error) {
	var t model.Transaction
	err := use(r.db, tx).WithContext(ctx).
		Where("recurring_template_id = ? AND occurrence_date = ?", templateID, occurrence).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

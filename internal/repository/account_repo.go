package repository

import (
	"context"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	return use(r.db, tx).WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, tx *gorm.DB, ledgerID, id int64) (*model.Account, error) {
	var account model.Account
	err := use(r.db, tx).WithContext(ctx).
		Where("id = ? AND ledger_id = ?", id, ledgerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByIDsForUpdate 按 ID 升序加锁，所有调用方遵循同一顺序以避免死锁
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx *gorm.DB, ledgerID int64, ids ...int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := forUpdate(tx.WithContext(ctx)).
		Where("ledger_id = ? AND id IN ?", ledgerID, ids).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *AccountRepository) ListByLedger(ctx context.Context, tx *gorm.DB, ledgerID int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := use(r.db, tx).WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

// ListCategories 预算分类：非分组、无系统角色的权益账户
func (r *AccountRepository) ListCategories(ctx context.Context, tx *gorm.DB, ledgerID int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := use(r.db, tx).WithContext(ctx).
		Where("ledger_id = ? AND type = ? AND is_group = ? AND role = ?", ledgerID, model.AccountTypeEquity, false, "").
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

// AddBalance 调整缓存余额，必须在持有行锁的事务内调用
func (r *AccountRepository) AddBalance(ctx context.Context, tx *gorm.DB, id int64, delta int64) error {
	return tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", delta),
			"version": gorm.Expr("version + 1"),
		}).Error
}

func (r *AccountRepository) SetActive(ctx context.Context, tx *gorm.DB, ledgerID, id int64, active bool) (int64, error) {
	result := use(r.db, tx).WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND ledger_id = ?", id, ledgerID).
		Update("active", active)
	return result.RowsAffected, result.Error
}

// SumPostings 由流水重新计算借方合计和贷方合计
func (r *AccountRepository) SumPostings(ctx context.Context, tx *gorm.DB, id int64) (debits, credits int64, err error) {
	db := use(r.db, tx).WithContext(ctx)
	if err = db.Model(&model.Transaction{}).
		Where("debit_account_id = ?", id).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&debits).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&model.Transaction{}).
		Where("credit_account_id = ?", id).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&credits).Error; err != nil {
		return 0, 0, err
	}
	return debits, credits, nil
}

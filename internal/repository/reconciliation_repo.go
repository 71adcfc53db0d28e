package repository

import (
	"context"
	"time"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Create(ctx context.Context, tx *gorm.DB, rec *model.ReconciliationRecord) error {
	return use(r.db, tx).WithContext(ctx).Create(rec).Error
}

func (r *ReconciliationRepository) GetByFingerprint(ctx context.Context, tx *gorm.DB, accountID int64, statementDate time.Time, fingerprint string) (*model.ReconciliationRecord, error) {
	var rec model.ReconciliationRecord
	err := use(r.db, tx).WithContext(ctx).
		Where("account_id = ? AND statement_date = ? AND fingerprint = ?", accountID, statementDate, fingerprint).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ReconciliationRepository) ListByAccount(ctx context.Context, ledgerID, accountID int64) ([]*model.ReconciliationRecord, error) {
	q := r.db.WithContext(ctx).Where("ledger_id = ?", ledgerID)
	if accountID != 0 {
		q = q.Where("account_id = ?", accountID)
	}
	var list []*model.ReconciliationRecord
	err := q.Order("statement_date DESC, id DESC").Find(&list).Error
	return list, err
}

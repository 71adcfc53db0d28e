package repository

import (
	"context"
	"time"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

// ScheduleRepository 分期计划与贷款还款计划
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// CreatePlan 同时写入计划及其明细
func (r *ScheduleRepository) CreatePlan(ctx context.Context, tx *gorm.DB, plan *model.InstallmentPlan) error {
	return use(r.db, tx).WithContext(ctx).Create(plan).Error
}

func (r *ScheduleRepository) GetPlan(ctx context.Context, ledgerID, id int64) (*model.InstallmentPlan, error) {
	var plan model.InstallmentPlan
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		Where("id = ? AND ledger_id = ?", id, ledgerID).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *ScheduleRepository) ListDueItems(ctx context.Context, ledgerID int64, asOf time.Time) ([]*model.InstallmentItem, error) {
	var items []*model.InstallmentItem
	err := r.db.WithContext(ctx).
		Where("ledger_id = ? AND status = ? AND due_date <= ?", ledgerID, model.ScheduleItemStatusScheduled, asOf).
		Order("due_date ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *ScheduleRepository) GetItemForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.InstallmentItem, error) {
	var item model.InstallmentItem
	if err := forUpdate(tx.WithContext(ctx)).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ScheduleRepository) GetPlanByID(ctx context.Context, tx *gorm.DB, id int64) (*model.InstallmentPlan, error) {
	var plan model.InstallmentPlan
	if err := use(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *ScheduleRepository) MarkItemPaid(ctx context.Context, tx *gorm.DB, id, transactionID int64, paidAt time.Time) error {
	return tx.WithContext(ctx).
		Model(&model.InstallmentItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         model.ScheduleItemStatusPaid,
			"transaction_id": transactionID,
			"paid_at":        paidAt,
		}).Error
}

// CreateLoan 同时写入贷款及其还款计划
func (r *ScheduleRepository) CreateLoan(ctx context.Context, tx *gorm.DB, loan *model.Loan) error {
	return use(r.db, tx).WithContext(ctx).Create(loan).Error
}

func (r *ScheduleRepository) GetLoan(ctx context.Context, tx *gorm.DB, ledgerID, id int64) (*model.Loan, error) {
	var loan model.Loan
	err := use(r.db, tx).WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_number ASC")
		}).
		Where("id = ? AND ledger_id = ?", id, ledgerID).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *ScheduleRepository) GetLoanPaymentForUpdate(ctx context.Context, tx *gorm.DB, loanID int64, number int) (*model.LoanPayment, error) {
	var p model.LoanPayment
	err := forUpdate(tx.WithContext(ctx)).
		Where("loan_id = ? AND payment_number = ?", loanID, number).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ScheduleRepository) MarkLoanPaymentPaid(ctx context.Context, tx *gorm.DB, p *model.LoanPayment) error {
	return tx.WithContext(ctx).
		Model(&model.LoanPayment{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"status":                   model.ScheduleItemStatusPaid,
			"principal_transaction_id": p.PrincipalTransactionID,
			"interest_transaction_id":  p.InterestTransactionID,
			"paid_at":                  p.PaidAt,
		}).Error
}

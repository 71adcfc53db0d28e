package model

import (
	"time"
)

const (
	ScheduleItemStatusScheduled = "scheduled"
	ScheduleItemStatusPaid      = "paid"
)

// InstallmentPlan 分期购买计划，明细金额之和恒等于购买总额
type InstallmentPlan struct {
	ID                   int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID             int64             `gorm:"index;not null" json:"ledger_id"`
	Description          string            `gorm:"type:varchar(256)" json:"description"`
	PurchaseAmountCents  int64             `gorm:"not null" json:"purchase_amount_cents"`
	NumberOfInstallments int               `gorm:"not null" json:"number_of_installments"`
	Frequency            string            `gorm:"type:varchar(16);not null" json:"frequency"`
	StartDate            time.Time         `gorm:"type:date;not null" json:"start_date"`
	CategoryID           int64             `gorm:"not null" json:"category_id"`
	PaymentAccountID     int64             `gorm:"not null" json:"payment_account_id"`
	Items                []InstallmentItem `gorm:"foreignKey:PlanID" json:"schedule"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (InstallmentPlan) TableName() string {
	return "installment_plan"
}

type InstallmentItem struct {
	ID                   int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID               int64      `gorm:"uniqueIndex:uk_plan_installment;not null" json:"plan_id"`
	LedgerID             int64      `gorm:"index;not null" json:"ledger_id"`
	InstallmentNumber    int        `gorm:"uniqueIndex:uk_plan_installment;not null" json:"installment_number"`
	DueDate              time.Time  `gorm:"type:date;index;not null" json:"due_date"`
	ScheduledAmountCents int64      `gorm:"not null" json:"scheduled_amount_cents"`
	Status               string     `gorm:"type:varchar(16);index;not null" json:"status"`
	TransactionID        *int64     `json:"transaction_id,omitempty"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
}

func (InstallmentItem) TableName() string {
	return "installment_item"
}

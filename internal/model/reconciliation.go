package model

import (
	"time"
)

// ReconciliationRecord 对账记录，创建后不可修改
//
// Fingerprint 由对账单余额和已清算流水集合计算，相同输入的重试命中同一条记录。
type ReconciliationRecord struct {
	ID                        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID                  int64     `gorm:"index;not null" json:"ledger_id"`
	AccountID                 int64     `gorm:"uniqueIndex:uk_reconcile_attempt;not null" json:"account_id"`
	StatementDate             time.Time `gorm:"type:date;uniqueIndex:uk_reconcile_attempt;not null" json:"statement_date"`
	Fingerprint               string    `gorm:"type:varchar(64);uniqueIndex:uk_reconcile_attempt;not null" json:"-"`
	StatementBalanceCents     int64     `gorm:"not null" json:"statement_balance_cents"`
	LedgerBalanceCents        int64     `gorm:"not null" json:"ledger_balance_cents"`
	DifferenceCents           int64     `gorm:"not null" json:"difference_cents"`
	ClearedTransactionUUIDs   string    `gorm:"type:text;not null" json:"-"`
	AdjustmentTransactionID   *int64    `json:"adjustment_transaction_id,omitempty"`
	AdjustmentTransactionUUID *string   `gorm:"type:varchar(36)" json:"adjustment_transaction_uuid,omitempty"`
	CreatedAt                 time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReconciliationRecord) TableName() string {
	return "reconciliation_record"
}

package model

import (
	"time"
)

const (
	ClearedStatusUncleared  = "uncleared"
	ClearedStatusCleared    = "cleared"
	ClearedStatusReconciled = "reconciled"
)

const (
	TransactionSourceManual      = "manual"
	TransactionSourceRecurring   = "recurring"
	TransactionSourceInstallment = "installment"
	TransactionSourceLoan        = "loan"
	TransactionSourceAdjustment  = "adjustment"
)

// Transaction 复式记账凭证
//
// 【流水设计原则】
// 1. 只追加，不修改金额和账户：唯一允许变化的是清算状态
// 2. 借贷两条腿在同一个数据库事务中落地，不存在部分生效
// 3. 金额为正整数（分），方向由借贷账户决定
//
// (RecurringTemplateID, OccurrenceDate) 唯一索引保证同一期周期交易只会生成一次。
type Transaction struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID                string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	LedgerID            int64      `gorm:"index;not null" json:"ledger_id"`
	Date                time.Time  `gorm:"type:date;index;not null" json:"date"`
	AmountCents         int64      `gorm:"not null" json:"amount_cents"`
	DebitAccountID      int64      `gorm:"index;not null" json:"debit_account_id"`
	CreditAccountID     int64      `gorm:"index;not null" json:"credit_account_id"`
	Description         string     `gorm:"type:varchar(256)" json:"description"`
	ClearedStatus       string     `gorm:"type:varchar(16);not null" json:"cleared_status"`
	Source              string     `gorm:"type:varchar(16);not null" json:"source"`
	RecurringTemplateID *int64     `gorm:"uniqueIndex:uk_recurring_occurrence" json:"recurring_template_id,omitempty"`
	OccurrenceDate      *time.Time `gorm:"type:date;uniqueIndex:uk_recurring_occurrence" json:"occurrence_date,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "ledger_transaction"
}

package model

import (
	"time"
)

const (
	// FlowOutflow 借记分类，贷记账户（支出）
	FlowOutflow = "outflow"
	// FlowInflow 借记账户，贷记分类或收入账户
	FlowInflow = "inflow"
)

// RecurringTemplate 周期交易模板
//
// NextDate 每成功生成一次交易推进一次，推进与交易写入在同一个事务内。
// 下一期日期由 StartDate 与 OccurrenceCount 计算，月末日期不会漂移。
type RecurringTemplate struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID          int64      `gorm:"index;not null" json:"ledger_id"`
	AccountID         int64      `gorm:"not null" json:"account_id"`
	CategoryID        *int64     `json:"category_id,omitempty"`
	Flow              string     `gorm:"type:varchar(8);not null" json:"flow"`
	AmountCents       int64      `gorm:"not null" json:"amount_cents"`
	Description       string     `gorm:"type:varchar(256)" json:"description"`
	Frequency         string     `gorm:"type:varchar(16);not null" json:"frequency"`
	StartDate         time.Time  `gorm:"type:date;not null" json:"start_date"`
	NextDate          time.Time  `gorm:"type:date;index;not null" json:"next_date"`
	OccurrenceCount   int        `gorm:"not null;default:0" json:"occurrence_count"`
	EndDate           *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	Enabled           bool       `gorm:"not null" json:"enabled"`
	AutoCreate        bool       `gorm:"not null" json:"auto_create"`
	LastTransactionID *int64     `json:"last_transaction_id,omitempty"`
	// FailureCount 连续生成失败次数，成功一次清零，达到上限后模板停用
	FailureCount      int        `gorm:"not null;default:0" json:"failure_count"`
	LastError         string     `gorm:"type:varchar(512)" json:"last_error,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecurringTemplate) TableName() string {
	return "recurring_template"
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan 固定利率贷款及其还款计划
type Loan struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID           int64           `gorm:"index;not null" json:"ledger_id"`
	Name               string          `gorm:"type:varchar(128);not null" json:"name"`
	PrincipalCents     int64           `gorm:"not null" json:"principal_cents"`
	AnnualRatePercent  decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"annual_rate_percent"`
	TermMonths         int             `gorm:"not null" json:"term_months"`
	StartDate          time.Time       `gorm:"type:date;not null" json:"start_date"`
	PaymentCents       int64           `gorm:"not null" json:"payment_cents"`
	LiabilityAccountID int64           `gorm:"not null" json:"liability_account_id"`
	PaymentAccountID   int64           `gorm:"not null" json:"payment_account_id"`
	InterestCategoryID int64           `gorm:"not null" json:"interest_category_id"`
	Payments           []LoanPayment   `gorm:"foreignKey:LoanID" json:"schedule"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Loan) TableName() string {
	return "loan"
}

type LoanPayment struct {
	ID                     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID                 int64      `gorm:"uniqueIndex:uk_loan_payment;not null" json:"loan_id"`
	PaymentNumber          int        `gorm:"uniqueIndex:uk_loan_payment;not null" json:"payment_number"`
	DueDate                time.Time  `gorm:"type:date;not null" json:"due_date"`
	PaymentCents           int64      `gorm:"not null" json:"payment_cents"`
	PrincipalCents         int64      `gorm:"not null" json:"principal_cents"`
	InterestCents          int64      `gorm:"not null" json:"interest_cents"`
	RemainingBalanceCents  int64      `gorm:"not null" json:"remaining_balance_cents"`
	Status                 string     `gorm:"type:varchar(16);not null" json:"status"`
	PrincipalTransactionID *int64     `json:"principal_transaction_id,omitempty"`
	InterestTransactionID  *int64     `json:"interest_transaction_id,omitempty"`
	PaidAt                 *time.Time `json:"paid_at,omitempty"`
}

func (LoanPayment) TableName() string {
	return "loan_payment"
}

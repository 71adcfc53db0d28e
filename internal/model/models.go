package model

// All 参与自动迁移的全部表
func All() []interface{} {
	return []interface{}{
		&Ledger{},
		&Account{},
		&Transaction{},
		&CategoryAssignment{},
		&Goal{},
		&RecurringTemplate{},
		&InstallmentPlan{},
		&InstallmentItem{},
		&Loan{},
		&LoanPayment{},
		&ReconciliationRecord{},
		&OutboxMessage{},
	}
}

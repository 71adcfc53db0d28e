package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanService 固定利率贷款
type LoanService struct {
	*store
	log *slog.Logger
}

func NewLoanService(db *gorm.DB, cfg *config.Config) *LoanService {
	return &LoanService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "loan"),
	}
}

type CreateLoanRequest struct {
	Name               string          `json:"name"`
	PrincipalCents     int64           `json:"principal_cents"`
	AnnualRatePercent  decimal.Decimal `json:"annual_rate_percent"`
	TermMonths         int             `json:"term_months"`
	StartDate          time.Time       `json:"start_date"`
	LiabilityAccountID int64           `json:"liability_account_id"`
	PaymentAccountID   int64           `json:"payment_account_id"`
	InterestCategoryID int64           `json:"interest_category_id"`
}

// CreateLoan 保存贷款及其摊还计划
func (s *LoanService) CreateLoan(ctx context.Context, lc LedgerContext, req CreateLoanRequest) (*model.Loan, error) {
	rows, err := schedule.Amortize(req.PrincipalCents, req.AnnualRatePercent, req.TermMonths, req.StartDate)
	if err != nil {
		return nil, err
	}

	loan := &model.Loan{
		Name:               req.Name,
		PrincipalCents:     req.PrincipalCents,
		AnnualRatePercent:  req.AnnualRatePercent,
		TermMonths:         req.TermMonths,
		StartDate:          schedule.Day(req.StartDate),
		PaymentCents:       rows[0].PaymentCents,
		LiabilityAccountID: req.LiabilityAccountID,
		PaymentAccountID:   req.PaymentAccountID,
		InterestCategoryID: req.InterestCategoryID,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		liability, err := s.accounts.GetByID(ctx, tx, ledger.ID, req.LiabilityAccountID)
		if err != nil {
			return notFound(err, errs.KindInvalidAccount, "liability account %d not found", req.LiabilityAccountID)
		}
		if liability.Type != model.AccountTypeLiability || !liability.Postable() {
			return errs.New(errs.KindInvalidAccount, "account %d is not a postable liability", req.LiabilityAccountID)
		}
		if err := s.checkAccounts(ctx, tx, ledger.ID, req.InterestCategoryID, req.PaymentAccountID); err != nil {
			return err
		}

		loan.LedgerID = ledger.ID
		loan.Payments = make([]model.LoanPayment, len(rows))
		for i, row := range rows {
			loan.Payments[i] = model.LoanPayment{
				PaymentNumber:         row.Period,
				DueDate:               row.DueDate,
				PaymentCents:          row.PaymentCents,
				PrincipalCents:        row.PrincipalCents,
				InterestCents:         row.InterestCents,
				RemainingBalanceCents: row.BalanceCents,
				Status:                model.ScheduleItemStatusScheduled,
			}
		}
		return s.schedules.CreateLoan(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("loan created", "ledger_id", loan.LedgerID, "loan_id", loan.ID, "payment_cents", loan.PaymentCents)
	return loan, nil
}

func (s *LoanService) GetLoan(ctx context.Context, lc LedgerContext, id int64) (*model.Loan, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	loan, err := s.schedules.GetLoan(ctx, nil, ledger.ID, id)
	if err != nil {
		return nil, notFound(err, errs.KindScheduleNotFound, "loan %d not found", id)
	}
	return loan, nil
}

// RecordLoanPayment 记录第 number 期还款：
// 本金借记负债账户，利息借记利息分类，均贷记付款账户，同一事务内完成
func (s *LoanService) RecordLoanPayment(ctx context.Context, lc LedgerContext, loanID int64, number int) (*model.LoanPayment, error) {
	var payment *model.LoanPayment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		loan, err := s.schedules.GetLoan(ctx, tx, ledger.ID, loanID)
		if err != nil {
			return notFound(err, errs.KindScheduleNotFound, "loan %d not found", loanID)
		}
		payment, err = s.schedules.GetLoanPaymentForUpdate(ctx, tx, loan.ID, number)
		if err != nil {
			return notFound(err, errs.KindScheduleNotFound, "loan %d has no payment %d", loanID, number)
		}
		if payment.Status == model.ScheduleItemStatusPaid {
			return errs.New(errs.KindDuplicateMaterialization, "payment %d of loan %d already recorded", number, loanID)
		}

		// 两笔记账涉及的三个账户一次性按 ID 升序加锁
		if _, err := s.accounts.GetByIDsForUpdate(ctx, tx, ledger.ID,
			loan.LiabilityAccountID, loan.PaymentAccountID, loan.InterestCategoryID); err != nil {
			return fmt.Errorf("lock loan accounts: %w", err)
		}

		desc := fmt.Sprintf("%s payment %d/%d", loan.Name, number, loan.TermMonths)
		if payment.PrincipalCents > 0 {
			t, err := s.post(ctx, tx, ledger.ID, PostRequest{
				DebitAccountID:  loan.LiabilityAccountID,
				CreditAccountID: loan.PaymentAccountID,
				AmountCents:     payment.PrincipalCents,
				Date:            payment.DueDate,
				Description:     desc + " principal",
			}, postOptions{source: model.TransactionSourceLoan})
			if err != nil {
				return err
			}
			payment.PrincipalTransactionID = &t.ID
		}
		if payment.InterestCents > 0 {
			t, err := s.post(ctx, tx, ledger.ID, PostRequest{
				DebitAccountID:  loan.InterestCategoryID,
				CreditAccountID: loan.PaymentAccountID,
				AmountCents:     payment.InterestCents,
				Date:            payment.DueDate,
				Description:     desc + " interest",
			}, postOptions{source: model.TransactionSourceLoan})
			if err != nil {
				return err
			}
			payment.InterestTransactionID = &t.ID
		}

		now := time.Now()
		payment.Status = model.ScheduleItemStatusPaid
		payment.PaidAt = &now
		return s.schedules.MarkLoanPaymentPaid(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("loan payment recorded", "ledger_id", lc.LedgerID, "loan_id", loanID, "payment", number)
	return payment, nil
}

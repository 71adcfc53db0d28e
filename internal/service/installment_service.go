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

	"gorm.io/gorm"
)

// InstallmentService 分期购买计划
type InstallmentService struct {
	*store
	log *slog.Logger
}

func NewInstallmentService(db *gorm.DB, cfg *config.Config) *InstallmentService {
	return &InstallmentService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "installment"),
	}
}

type CreatePlanRequest struct {
	Description          string             `json:"description"`
	PurchaseAmountCents  int64              `json:"purchase_amount_cents"`
	NumberOfInstallments int                `json:"number_of_installments"`
	Frequency            schedule.Frequency `json:"frequency"`
	StartDate            time.Time          `json:"start_date"`
	CategoryID           int64              `json:"category_id"`
	PaymentAccountID     int64              `json:"payment_account_id"`
}

// CreateInstallmentPlan 生成并保存分期明细，明细之和等于购买总额
func (s *InstallmentService) CreateInstallmentPlan(ctx context.Context, lc LedgerContext, req CreatePlanRequest) (*model.InstallmentPlan, error) {
	installments, err := schedule.GenerateInstallments(req.PurchaseAmountCents, req.NumberOfInstallments, req.Frequency, req.StartDate)
	if err != nil {
		return nil, err
	}

	plan := &model.InstallmentPlan{
		Description:          req.Description,
		PurchaseAmountCents:  req.PurchaseAmountCents,
		NumberOfInstallments: req.NumberOfInstallments,
		Frequency:            string(req.Frequency),
		StartDate:            schedule.Day(req.StartDate),
		CategoryID:           req.CategoryID,
		PaymentAccountID:     req.PaymentAccountID,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		if err := s.checkAccounts(ctx, tx, ledger.ID, req.CategoryID, req.PaymentAccountID); err != nil {
			return err
		}

		plan.LedgerID = ledger.ID
		plan.Items = make([]model.InstallmentItem, len(installments))
		for i, in := range installments {
			plan.Items[i] = model.InstallmentItem{
				LedgerID:             ledger.ID,
				InstallmentNumber:    in.Number,
				DueDate:              in.DueDate,
				ScheduledAmountCents: in.AmountCents,
				Status:               model.ScheduleItemStatusScheduled,
			}
		}
		return s.schedules.CreatePlan(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("installment plan created",
		"ledger_id", plan.LedgerID,
		"plan_id", plan.ID,
		"total_cents", plan.PurchaseAmountCents,
		"installments", plan.NumberOfInstallments)
	return plan, nil
}

// checkAccounts 分类必须是预算分类，付款账户必须可记账且不是分类
func (s *store) checkAccounts(ctx context.Context, tx *gorm.DB, ledgerID, categoryID, paymentAccountID int64) error {
	category, err := s.accounts.GetByID(ctx, tx, ledgerID, categoryID)
	if err != nil {
		return notFound(err, errs.KindInvalidAccount, "category %d not found", categoryID)
	}
	if !category.IsCategory() {
		return errs.New(errs.KindInvalidAccount, "account %d is not a category", categoryID)
	}
	payment, err := s.accounts.GetByID(ctx, tx, ledgerID, paymentAccountID)
	if err != nil {
		return notFound(err, errs.KindInvalidAccount, "payment account %d not found", paymentAccountID)
	}
	if !payment.Postable() || payment.IsCategory() {
		return errs.New(errs.KindInvalidAccount, "account %d cannot pay installments", paymentAccountID)
	}
	return nil
}

func (s *InstallmentService) GetInstallmentPlan(ctx context.Context, lc LedgerContext, id int64) (*model.InstallmentPlan, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	plan, err := s.schedules.GetPlan(ctx, ledger.ID, id)
	if err != nil {
		return nil, notFound(err, errs.KindScheduleNotFound, "installment plan %d not found", id)
	}
	return plan, nil
}

// ProcessDueInstallments 逐项记账到期明细（借记分类，贷记付款账户），每项一个事务
func (s *InstallmentService) ProcessDueInstallments(ctx context.Context, lc LedgerContext, asOf time.Time) (*BatchResult, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	due, err := s.schedules.ListDueItems(ctx, ledger.ID, schedule.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due installments: %w", err)
	}

	result := &BatchResult{Items: make([]ItemResult, 0, len(due))}
	for _, item := range due {
		r := s.processItem(ctx, ledger.ID, item.ID)
		if r.Status == ItemFailed {
			s.log.Error("installment failed", "ledger_id", ledger.ID, "item_id", item.ID, "err", r.Error)
		}
		result.add(r)
	}

	s.log.Info("installments processed",
		"ledger_id", ledger.ID,
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

func (s *InstallmentService) processItem(ctx context.Context, ledgerID, itemID int64) ItemResult {
	var posted *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.schedules.GetItemForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.Status != model.ScheduleItemStatusScheduled {
			return errs.New(errs.KindDuplicateMaterialization, "installment %d already %s", item.InstallmentNumber, item.Status)
		}
		plan, err := s.schedules.GetPlanByID(ctx, tx, item.PlanID)
		if err != nil {
			return err
		}

		posted, err = s.post(ctx, tx, ledgerID, PostRequest{
			DebitAccountID:  plan.CategoryID,
			CreditAccountID: plan.PaymentAccountID,
			AmountCents:     item.ScheduledAmountCents,
			Date:            item.DueDate,
			Description:     fmt.Sprintf("%s (%d/%d)", plan.Description, item.InstallmentNumber, plan.NumberOfInstallments),
		}, postOptions{source: model.TransactionSourceInstallment})
		if err != nil {
			return err
		}
		return s.schedules.MarkItemPaid(ctx, tx, item.ID, posted.ID, time.Now())
	})
	if err != nil {
		return failure(itemID, err)
	}
	return ItemResult{ID: itemID, Status: ItemCreated, TransactionID: posted.ID, TransactionUUID: posted.UUID}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/errs"
	"budgetledger/internal/infrastructure/lock"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxErrorLength 与 recurring_template.last_error 列宽一致
const maxErrorLength = 512

// RecurringService 周期交易模板及到期生成
//
// 【防重复生成】
// 1. 每个模板一个事务：锁模板行 → 复核 next_date → 记账 → 推进 next_date
// 2. (template_id, occurrence_date) 唯一索引兜底
// 3. 配置了 Redis 时，同一账本的整次扫描再加一把分布式锁，锁被占用时本次扫描直接返回
//
// 连续失败 RecurringMaxFailures 次的模板自动停用，重新启用后清零。
type RecurringService struct {
	*store
	sweepLock func(ledgerID int64) sweepLocker
	log       *slog.Logger
}

// sweepLocker 账本级扫描锁
type sweepLocker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	Key() string
}

// NewRecurringService redisClient 可以为 nil，此时只依赖行锁和唯一索引
func NewRecurringService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RecurringService {
	s := &RecurringService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "recurring"),
	}
	if redisClient != nil {
		ttl := time.Duration(cfg.Ledger.SweepLockSeconds) * time.Second
		s.sweepLock = func(ledgerID int64) sweepLocker {
			return lock.NewSweepLock(redisClient, ledgerID, uuid.NewString(), ttl)
		}
	}
	return s
}

type CreateTemplateRequest struct {
	AccountID   int64              `json:"account_id"`
	CategoryID  *int64             `json:"category_id"`
	Flow        string             `json:"flow"`
	AmountCents int64              `json:"amount_cents"`
	Frequency   schedule.Frequency `json:"frequency"`
	StartDate   time.Time          `json:"start_date"`
	EndDate     *time.Time         `json:"end_date"`
	AutoCreate  bool               `json:"auto_create"`
	Description string             `json:"description"`
}

func (s *RecurringService) CreateRecurringTemplate(ctx context.Context, lc LedgerContext, req CreateTemplateRequest) (*model.RecurringTemplate, error) {
	if req.AmountCents <= 0 {
		return nil, errs.New(errs.KindZeroOrNegativeAmount, "amount must be positive, got %d", req.AmountCents)
	}
	if !req.Frequency.Valid() {
		return nil, errs.New(errs.KindInvalidArgument, "unknown frequency %q", req.Frequency)
	}
	if req.Flow == "" {
		req.Flow = model.FlowOutflow
	}
	if req.Flow != model.FlowOutflow && req.Flow != model.FlowInflow {
		return nil, errs.New(errs.KindInvalidArgument, "unknown flow %q", req.Flow)
	}
	if req.Flow == model.FlowOutflow && req.CategoryID == nil {
		return nil, errs.New(errs.KindInvalidAccount, "outflow template requires a category")
	}
	if req.StartDate.IsZero() {
		return nil, errs.New(errs.KindInvalidArgument, "start date is required")
	}
	start := schedule.Day(req.StartDate)
	if req.EndDate != nil {
		end := schedule.Day(*req.EndDate)
		if end.Before(start) {
			return nil, errs.New(errs.KindInvalidArgument, "end date is before start date")
		}
		req.EndDate = &end
	}

	tpl := &model.RecurringTemplate{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Flow:        req.Flow,
		AmountCents: req.AmountCents,
		Description: req.Description,
		Frequency:   string(req.Frequency),
		StartDate:   start,
		NextDate:    start,
		EndDate:     req.EndDate,
		Enabled:     true,
		AutoCreate:  req.AutoCreate,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		account, err := s.accounts.GetByID(ctx, tx, ledger.ID, req.AccountID)
		if err != nil {
			return notFound(err, errs.KindInvalidAccount, "account %d not found", req.AccountID)
		}
		if !account.Postable() || account.IsCategory() {
			return errs.New(errs.KindInvalidAccount, "account %d cannot carry recurring transactions", req.AccountID)
		}
		if req.CategoryID != nil {
			category, err := s.accounts.GetByID(ctx, tx, ledger.ID, *req.CategoryID)
			if err != nil {
				return notFound(err, errs.KindInvalidAccount, "category %d not found", *req.CategoryID)
			}
			if !category.IsCategory() {
				return errs.New(errs.KindInvalidAccount, "account %d is not a category", *req.CategoryID)
			}
		}
		tpl.LedgerID = ledger.ID
		return s.recurring.Create(ctx, tx, tpl)
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *RecurringService) ListRecurringTemplates(ctx context.Context, lc LedgerContext) ([]*model.RecurringTemplate, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	return s.recurring.ListByLedger(ctx, ledger.ID)
}

func (s *RecurringService) SetTemplateEnabled(ctx context.Context, lc LedgerContext, templateID int64, enabled bool) error {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return err
	}
	n, err := s.recurring.SetEnabled(ctx, ledger.ID, templateID, enabled)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.New(errs.KindScheduleNotFound, "recurring template %d not found", templateID)
	}
	return nil
}

// MaterializeDueRecurring 为每个到期模板生成一期交易，单个模板失败不影响其他模板。
// 每次调用每个模板最多生成一期。
func (s *RecurringService) MaterializeDueRecurring(ctx context.Context, lc LedgerContext, asOf time.Time) (*BatchResult, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	asOf = schedule.Day(asOf)

	if s.sweepLock != nil {
		sweepLock := s.sweepLock(ledger.ID)
		ok, err := sweepLock.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			// 另一次扫描会处理同一批模板
			s.log.Info("recurring sweep already running", "ledger_id", ledger.ID, "key", sweepLock.Key())
			return &BatchResult{Items: []ItemResult{}, Busy: true}, nil
		}
		defer func() {
			if err := sweepLock.Unlock(ctx); err != nil {
				s.log.Warn("release sweep lock", "key", sweepLock.Key(), "err", err)
			}
		}()
	}

	due, err := s.recurring.ListDue(ctx, ledger.ID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}

	result := &BatchResult{Items: make([]ItemResult, 0, len(due))}
	for _, tpl := range due {
		r := s.materialize(ctx, ledger, tpl.ID, asOf)
		switch r.Status {
		case ItemFailed:
			s.log.Error("recurring template failed", "ledger_id", ledger.ID, "template_id", tpl.ID, "err", r.Error)
			suspended, err := s.recordFailure(ctx, ledger.ID, tpl.ID, r.Error)
			if err != nil {
				s.log.Error("record template failure", "ledger_id", ledger.ID, "template_id", tpl.ID, "err", err)
			}
			if suspended {
				r.Suspended = true
				s.log.Warn("recurring template suspended", "ledger_id", ledger.ID, "template_id", tpl.ID,
					"max_failures", s.cfg.Ledger.RecurringMaxFailures)
			}
		case ItemSkipped:
			s.log.Info("recurring template skipped", "ledger_id", ledger.ID, "template_id", tpl.ID, "reason", r.Error)
		}
		result.add(r)
	}

	s.log.Info("recurring sweep finished",
		"ledger_id", ledger.ID,
		"as_of", asOf.Format(time.DateOnly),
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// materialize 生成模板的下一期，交易写入与 next_date 推进在同一事务内
func (s *RecurringService) materialize(ctx context.Context, ledger *model.Ledger, templateID int64, asOf time.Time) ItemResult {
	var posted *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tpl, err := s.recurring.GetByIDForUpdate(ctx, tx, ledger.ID, templateID)
		if err != nil {
			return notFound(err, errs.KindScheduleNotFound, "recurring template %d not found", templateID)
		}

		// 锁内复核：并发扫描已推进 next_date 时跳过
		occurrence := schedule.Day(tpl.NextDate)
		if !tpl.Enabled || !tpl.AutoCreate || occurrence.After(asOf) {
			return errs.New(errs.KindDuplicateMaterialization, "template %d already materialized through %s",
				tpl.ID, occurrence.Format(time.DateOnly))
		}
		if tpl.EndDate != nil && occurrence.After(schedule.Day(*tpl.EndDate)) {
			tpl.Enabled = false
			if err := s.recurring.Advance(ctx, tx, tpl); err != nil {
				return err
			}
			return nil
		}

		debit, credit := tpl.AccountID, ledger.IncomeAccountID
		if tpl.CategoryID != nil {
			credit = *tpl.CategoryID
		}
		if tpl.Flow == model.FlowOutflow {
			debit, credit = credit, tpl.AccountID
		}

		posted, err = s.post(ctx, tx, ledger.ID, PostRequest{
			DebitAccountID:  debit,
			CreditAccountID: credit,
			AmountCents:     tpl.AmountCents,
			Date:            occurrence,
			Description:     tpl.Description,
		}, postOptions{
			source:     model.TransactionSourceRecurring,
			templateID: &tpl.ID,
			occurrence: &occurrence,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.New(errs.KindDuplicateMaterialization, "template %d occurrence %s already exists",
					tpl.ID, occurrence.Format(time.DateOnly))
			}
			return err
		}

		next, err := schedule.AddPeriods(tpl.StartDate, schedule.Frequency(tpl.Frequency), tpl.OccurrenceCount+1)
		if err != nil {
			return err
		}
		tpl.OccurrenceCount++
		tpl.NextDate = next
		tpl.LastTransactionID = &posted.ID
		if tpl.EndDate != nil && next.After(schedule.Day(*tpl.EndDate)) {
			tpl.Enabled = false
		}
		if err := s.recurring.Advance(ctx, tx, tpl); err != nil {
			return fmt.Errorf("advance template: %w", err)
		}
		return s.emit(ctx, tx, ledger.ID, model.EventRecurringMaterialized, posted.UUID, map[string]interface{}{
			"template_id":      tpl.ID,
			"occurrence_date":  occurrence.Format(time.DateOnly),
			"transaction_uuid": posted.UUID,
			"next_date":        next.Format(time.DateOnly),
		})
	})
	if err != nil {
		return failure(templateID, err)
	}
	if posted == nil {
		return ItemResult{ID: templateID, Status: ItemSkipped, Error: "template ended"}
	}
	return ItemResult{ID: templateID, Status: ItemCreated, TransactionID: posted.ID, TransactionUUID: posted.UUID}
}

// recordFailure 在独立事务内累加失败次数，达到上限时停用模板，返回是否已停用
func (s *RecurringService) recordFailure(ctx context.Context, ledgerID, templateID int64, reason string) (bool, error) {
	suspended := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tpl, err := s.recurring.GetByIDForUpdate(ctx, tx, ledgerID, templateID)
		if err != nil {
			return err
		}
		if len(reason) > maxErrorLength {
			reason = reason[:maxErrorLength]
		}
		tpl.FailureCount++
		tpl.LastError = reason
		if tpl.FailureCount >= s.cfg.Ledger.RecurringMaxFailures {
			tpl.Enabled = false
			suspended = true
		}
		return s.recurring.RecordFailure(ctx, tx, tpl)
	})
	if err != nil {
		return false, err
	}
	return suspended, nil
}

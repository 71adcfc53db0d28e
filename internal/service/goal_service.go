package service

import (
	"context"
	"log/slog"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/envelope"
	"budgetledger/internal/errs"
	"budgetledger/internal/goal"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"

	"gorm.io/gorm"
)

type GoalService struct {
	*store
	allocation *AllocationService
	log        *slog.Logger
}

func NewGoalService(db *gorm.DB, cfg *config.Config) *GoalService {
	return &GoalService{
		store:      newStore(db, cfg),
		allocation: NewAllocationService(db, cfg),
		log:        slog.Default().With("component", "goal"),
	}
}

type SetGoalRequest struct {
	CategoryID        int64      `json:"category_id"`
	Type              goal.Type  `json:"type"`
	TargetAmountCents int64      `json:"target_amount_cents"`
	TargetDate        *time.Time `json:"target_date"`
	RepeatFrequency   string     `json:"repeat_frequency"`
}

// SetGoal 创建或替换分类的目标
func (s *GoalService) SetGoal(ctx context.Context, lc LedgerContext, req SetGoalRequest) (*model.Goal, error) {
	if !req.Type.Valid() {
		return nil, errs.New(errs.KindInvalidArgument, "unknown goal type %q", req.Type)
	}
	if req.TargetAmountCents <= 0 {
		return nil, errs.New(errs.KindZeroOrNegativeAmount, "target amount must be positive, got %d", req.TargetAmountCents)
	}
	if req.Type == goal.TargetByDate && req.TargetDate == nil {
		return nil, errs.New(errs.KindInvalidArgument, "%s goal requires a target date", goal.TargetByDate)
	}
	if req.RepeatFrequency != "" && !schedule.Frequency(req.RepeatFrequency).Valid() {
		return nil, errs.New(errs.KindInvalidArgument, "unknown repeat frequency %q", req.RepeatFrequency)
	}

	g := &model.Goal{
		CategoryID:        req.CategoryID,
		Type:              string(req.Type),
		TargetAmountCents: req.TargetAmountCents,
		RepeatFrequency:   req.RepeatFrequency,
	}
	if req.TargetDate != nil {
		d := schedule.Day(*req.TargetDate)
		g.TargetDate = &d
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		category, err := s.accounts.GetByID(ctx, tx, ledger.ID, req.CategoryID)
		if err != nil {
			return notFound(err, errs.KindInvalidAccount, "category %d not found", req.CategoryID)
		}
		if !category.IsCategory() {
			return errs.New(errs.KindInvalidAccount, "account %d is not a category", req.CategoryID)
		}
		g.LedgerID = ledger.ID
		return s.goals.Upsert(ctx, tx, g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GoalService) GetGoal(ctx context.Context, lc LedgerContext, categoryID int64) (*model.Goal, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	g, err := s.goals.GetByCategory(ctx, ledger.ID, categoryID)
	if err != nil {
		return nil, notFound(err, errs.KindGoalNotFound, "no goal for category %d", categoryID)
	}
	return g, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, lc LedgerContext, categoryID int64) error {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return err
	}
	n, err := s.goals.Delete(ctx, ledger.ID, categoryID)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.New(errs.KindGoalNotFound, "no goal for category %d", categoryID)
	}
	return nil
}

func (s *GoalService) ListGoals(ctx context.Context, lc LedgerContext) ([]*model.Goal, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	return s.goals.ListByLedger(ctx, nil, ledger.ID)
}

type GoalSuggestions struct {
	Month         string            `json:"month"`
	ReadyToAssign int64             `json:"ready_to_assign"`
	Suggestions   []goal.Suggestion `json:"suggestions"`
}

// SuggestGoalFunding 计算 today 所在月份的建议分配，总额不超过 Ready-to-Assign
func (s *GoalService) SuggestGoalFunding(ctx context.Context, lc LedgerContext, today time.Time) (*GoalSuggestions, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.ListByLedger(ctx, nil, ledger.ID)
	if err != nil {
		return nil, err
	}
	in, err := s.envelopeInput(ctx, nil, ledger.ID, nil)
	if err != nil {
		return nil, err
	}

	month := envelope.MonthOf(today)
	status := envelope.Calculate(in, month)
	rta := envelope.ReadyToAssign(in)

	inputs := make([]goal.Input, 0, len(goals))
	for _, g := range goals {
		cs, ok := status.Find(g.CategoryID)
		if !ok {
			continue
		}
		gi := goal.Input{
			CategoryID:        g.CategoryID,
			Type:              goal.Type(g.Type),
			TargetCents:       g.TargetAmountCents,
			Repeat:            schedule.Frequency(g.RepeatFrequency),
			Balance:           cs.Balance,
			AssignedThisMonth: cs.Budgeted,
		}
		if g.TargetDate != nil {
			gi.TargetDate = *g.TargetDate
		}
		inputs = append(inputs, gi)
	}

	return &GoalSuggestions{
		Month:         month.String(),
		ReadyToAssign: rta,
		Suggestions:   goal.Suggest(inputs, rta, today),
	}, nil
}

type ApplyGoalResult struct {
	CategoryID     int64     `json:"category_id"`
	SuggestedCents int64     `json:"suggested_amount_cents"`
	Applied        bool      `json:"applied"`
	BalanceCents   int64     `json:"balance_cents,omitempty"`
	ErrorKind      errs.Kind `json:"error_kind,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// ApplyGoalFunding 逐项分配建议金额，单项失败不影响其他项
func (s *GoalService) ApplyGoalFunding(ctx context.Context, lc LedgerContext, today time.Time) ([]ApplyGoalResult, error) {
	suggestions, err := s.SuggestGoalFunding(ctx, lc, today)
	if err != nil {
		return nil, err
	}

	month := envelope.MonthOf(today)
	results := make([]ApplyGoalResult, 0, len(suggestions.Suggestions))
	for _, sg := range suggestions.Suggestions {
		r := ApplyGoalResult{CategoryID: sg.CategoryID, SuggestedCents: sg.SuggestedCents}
		assigned, err := s.allocation.Assign(ctx, lc, sg.CategoryID, month, sg.SuggestedCents, AssignOptions{})
		if err != nil {
			r.Error = err.Error()
			if kind, ok := errs.KindOf(err); ok {
				r.ErrorKind = kind
			}
			s.log.Warn("goal funding not applied", "ledger_id", lc.LedgerID, "category_id", sg.CategoryID, "err", err)
		} else {
			r.Applied = true
			r.BalanceCents = assigned.BalanceCents
		}
		results = append(results, r)
	}
	return results, nil
}

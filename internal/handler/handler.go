package handler

import (
	"strconv"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/envelope"
	"budgetledger/internal/goal"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"
	"budgetledger/internal/service"
	"budgetledger/pkg/money"
	"budgetledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	ledgers      *service.LedgerService
	posting      *service.PostingService
	envelopes    *service.EnvelopeService
	allocation   *service.AllocationService
	goals        *service.GoalService
	installments *service.InstallmentService
	loans        *service.LoanService
	recurring    *service.RecurringService
	reconcile    *service.ReconcileService
}

// NewHandler 创建处理器实例，rdb 可以为 nil
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		ledgers:      service.NewLedgerService(db, cfg),
		posting:      service.NewPostingService(db, cfg),
		envelopes:    service.NewEnvelopeService(db, cfg),
		allocation:   service.NewAllocationService(db, cfg),
		goals:        service.NewGoalService(db, cfg),
		installments: service.NewInstallmentService(db, cfg),
		loans:        service.NewLoanService(db, cfg),
		recurring:    service.NewRecurringService(db, rdb, cfg),
		reconcile:    service.NewReconcileService(db, cfg),
	}
}

// ============================================================
// 请求参数转换
// ============================================================

// amountCents 金额可以用整数分或十进制字符串给出，字符串优先
func amountCents(cents int64, amount string) (int64, error) {
	if amount == "" {
		return cents, nil
	}
	return money.ParseCents(amount)
}

// signedCents 同 amountCents，但允许零和负数
func signedCents(cents int64, amount string) (int64, error) {
	if amount == "" {
		return cents, nil
	}
	return money.ParseSignedCents(amount)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// asOfDate 缺省为今天
func asOfDate(s string) (time.Time, error) {
	if s == "" {
		return schedule.Day(time.Now()), nil
	}
	return parseDate(s)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" 参数错误")
		return 0, false
	}
	return id, true
}

// transactionView 交易输出，附带十进制金额
type transactionView struct {
	*model.Transaction
	Amount string `json:"amount"`
}

func viewOf(t *model.Transaction) transactionView {
	return transactionView{Transaction: t, Amount: money.FormatCents(t.AmountCents)}
}

// ============================================================
// 账本与账户
// ============================================================

type CreateLedgerRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateLedger POST /api/v1/ledgers
func (h *Handler) CreateLedger(c *gin.Context) {
	var req CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	ledger, err := h.ledgers.CreateLedger(c.Request.Context(), c.GetInt64(ctxUserID), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, ledger)
}

// ListLedgers GET /api/v1/ledgers
func (h *Handler) ListLedgers(c *gin.Context) {
	list, err := h.ledgers.ListLedgers(c.Request.Context(), c.GetInt64(ctxUserID))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	IsGroup  bool   `json:"is_group"`
	ParentID *int64 `json:"parent_id"`
}

// CreateAccount POST /api/v1/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	account, err := h.ledgers.CreateAccount(c.Request.Context(), ledgerContext(c), service.CreateAccountRequest{
		Name:     req.Name,
		Type:     req.Type,
		IsGroup:  req.IsGroup,
		ParentID: req.ParentID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, account)
}

// ListAccounts GET /api/v1/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	list, err := h.ledgers.ListAccounts(c.Request.Context(), ledgerContext(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// DeactivateAccount POST /api/v1/accounts/:id/deactivate
func (h *Handler) DeactivateAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledgers.DeactivateAccount(c.Request.Context(), ledgerContext(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"account_id": id, "active": false})
}

// GetAccountBalance GET /api/v1/accounts/:id/balance
func (h *Handler) GetAccountBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	account, err := h.ledgers.GetAccountBalance(c.Request.Context(), ledgerContext(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{
		"account_id":    account.ID,
		"type":          account.Type,
		"balance_cents": account.Balance,
		"balance":       money.FormatCents(account.Balance),
	})
}

// VerifyAccountBalance GET /api/v1/accounts/:id/verify
func (h *Handler) VerifyAccountBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	check, err := h.ledgers.VerifyAccountBalance(c.Request.Context(), ledgerContext(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, check)
}

// ============================================================
// 记账
// ============================================================

type PostTransactionRequest struct {
	DebitAccountID  int64  `json:"debit_account_id" binding:"required"`
	CreditAccountID int64  `json:"credit_account_id" binding:"required"`
	AmountCents     int64  `json:"amount_cents"`
	Amount          string `json:"amount"`
	Date            string `json:"date"`
	Description     string `json:"description"`
}

// PostTransaction POST /api/v1/transactions
func (h *Handler) PostTransaction(c *gin.Context) {
	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, err := amountCents(req.AmountCents, req.Amount)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	date, err := asOfDate(req.Date)
	if err != nil {
		response.ParamError(c, "date 格式应为 YYYY-MM-DD")
		return
	}

	t, err := h.posting.Post(c.Request.Context(), ledgerContext(c), service.PostRequest{
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		AmountCents:     cents,
		Date:            date,
		Description:     req.Description,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, viewOf(t))
}

// ListTransactions GET /api/v1/transactions?account_id=&from=&to=&limit=
func (h *Handler) ListTransactions(c *gin.Context) {
	var req service.ListTransactionsRequest
	var err error
	if s := c.Query("account_id"); s != "" {
		if req.AccountID, err = strconv.ParseInt(s, 10, 64); err != nil {
			response.ParamError(c, "account_id 参数错误")
			return
		}
	}
	if s := c.Query("limit"); s != "" {
		if req.Limit, err = strconv.Atoi(s); err != nil {
			response.ParamError(c, "limit 参数错误")
			return
		}
	}
	if req.From, err = parseOptionalDate(c.Query("from")); err != nil {
		response.ParamError(c, "from 格式应为 YYYY-MM-DD")
		return
	}
	if req.To, err = parseOptionalDate(c.Query("to")); err != nil {
		response.ParamError(c, "to 格式应为 YYYY-MM-DD")
		return
	}

	list, err := h.posting.ListTransactions(c.Request.Context(), ledgerContext(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	views := make([]transactionView, len(list))
	for i, t := range list {
		views[i] = viewOf(t)
	}
	response.Success(c, views)
}

// GetTransaction GET /api/v1/transactions/:uuid
func (h *Handler) GetTransaction(c *gin.Context) {
	t, err := h.posting.GetTransaction(c.Request.Context(), ledgerContext(c), c.Param("uuid"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, viewOf(t))
}

type SetClearedRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetCleared POST /api/v1/transactions/:uuid/cleared
func (h *Handler) SetCleared(c *gin.Context) {
	var req SetClearedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	t, err := h.posting.SetCleared(c.Request.Context(), ledgerContext(c), c.Param("uuid"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, viewOf(t))
}

// ============================================================
// 信封与分配
// ============================================================

// GetEnvelopeStatus GET /api/v1/envelopes?month=YYYY-MM
func (h *Handler) GetEnvelopeStatus(c *gin.Context) {
	month := envelope.MonthOf(time.Now())
	if s := c.Query("month"); s != "" {
		m, err := envelope.ParseMonth(s)
		if err != nil {
			response.ParamError(c, err.Error())
			return
		}
		month = m
	}
	status, err := h.envelopes.Status(c.Request.Context(), ledgerContext(c), month)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{
		"month":            month.String(),
		"ready_to_assign":  status.ReadyToAssign,
		"income_to_date":   status.IncomeToDate,
		"assigned_to_date": status.AssignedTotal,
		"categories":       status.Categories,
	})
}

type AssignRequest struct {
	CategoryID     int64  `json:"category_id" binding:"required"`
	Month          string `json:"month" binding:"required"`
	AmountCents    int64  `json:"amount_cents"`
	Amount         string `json:"amount"`
	AllowOverdraft bool   `json:"allow_overdraft"`
}

// Assign POST /api/v1/allocations/assign，金额为增量，可以为负
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	month, err := envelope.ParseMonth(req.Month)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	delta, err := signedCents(req.AmountCents, req.Amount)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	res, err := h.allocation.Assign(c.Request.Context(), ledgerContext(c), req.CategoryID, month, delta,
		service.AssignOptions{AllowOverdraft: req.AllowOverdraft})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type MoveRequest struct {
	FromCategoryID int64  `json:"from_category_id" binding:"required"`
	ToCategoryID   int64  `json:"to_category_id" binding:"required"`
	Month          string `json:"month" binding:"required"`
	AmountCents    int64  `json:"amount_cents"`
	Amount         string `json:"amount"`
}

// Move POST /api/v1/allocations/move
func (h *Handler) Move(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	month, err := envelope.ParseMonth(req.Month)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	cents, err := amountCents(req.AmountCents, req.Amount)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	res, err := h.allocation.Move(c.Request.Context(), ledgerContext(c), service.MoveRequest{
		FromCategoryID: req.FromCategoryID,
		ToCategoryID:   req.ToCategoryID,
		Month:          month,
		AmountCents:    cents,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type CoverRequest struct {
	CategoryID       int64  `json:"category_id" binding:"required"`
	SourceCategoryID int64  `json:"source_category_id"`
	Month            string `json:"month" binding:"required"`
	AmountCents      *int64 `json:"amount_cents"`
	Amount           string `json:"amount"`
	Policy           string `json:"policy"`
}

// Cover POST /api/v1/allocations/cover，不给金额时补足全部超支
func (h *Handler) Cover(c *gin.Context) {
	var req CoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	month, err := envelope.ParseMonth(req.Month)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if req.Amount != "" {
		cents, err := money.ParseCents(req.Amount)
		if err != nil {
			response.ParamError(c, err.Error())
			return
		}
		req.AmountCents = &cents
	}

	res, err := h.allocation.CoverOverspending(c.Request.Context(), ledgerContext(c), service.CoverRequest{
		OverspentCategoryID: req.CategoryID,
		SourceCategoryID:    req.SourceCategoryID,
		Month:               month,
		AmountCents:         req.AmountCents,
		Policy:              service.CoverPolicy(req.Policy),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// ============================================================
// 目标
// ============================================================

type SetGoalRequest struct {
	CategoryID        int64  `json:"category_id" binding:"required"`
	Type              string `json:"type" binding:"required"`
	TargetAmountCents int64  `json:"target_amount_cents"`
	TargetAmount      string `json:"target_amount"`
	TargetDate        string `json:"target_date"`
	RepeatFrequency   string `json:"repeat_frequency"`
}

// SetGoal PUT /api/v1/goals
func (h *Handler) SetGoal(c *gin.Context) {
	var req SetGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, err := amountCents(req.TargetAmountCents, req.TargetAmount)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	target, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		response.ParamError(c, "target_date 格式应为 YYYY-MM-DD")
		return
	}

	g, err := h.goals.SetGoal(c.Request.Context(), ledgerContext(c), service.SetGoalRequest{
		CategoryID:        req.CategoryID,
		Type:              goal.Type(req.Type),
		TargetAmountCents: cents,
		TargetDate:        target,
		RepeatFrequency:   req.RepeatFrequency,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, g)
}

// ListGoals GET /api/v1/goals，带 category_id 时只返回该分类的目标
func (h *Handler) ListGoals(c *gin.Context) {
	if s := c.Query("category_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			response.ParamError(c, "category_id 参数错误")
			return
		}
		g, err := h.goals.GetGoal(c.Request.Context(), ledgerContext(c), id)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, g)
		return
	}
	list, err := h.goals.ListGoals(c.Request.Context(), ledgerContext(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// DeleteGoal DELETE /api/v1/goals/:category_id
func (h *Handler) DeleteGoal(c *gin.Context) {
	id, ok := pathID(c, "category_id")
	if !ok {
		return
	}
	if err := h.goals.DeleteGoal(c.Request.Context(), ledgerContext(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"category_id": id})
}

// SuggestGoalFunding GET /api/v1/goals/suggestions?today=YYYY-MM-DD
func (h *Handler) SuggestGoalFunding(c *gin.Context) {
	today, err := asOfDate(c.Query("today"))
	if err != nil {
		response.ParamError(c, "today 格式应为 YYYY-MM-DD")
		return
	}
	res, err := h.goals.SuggestGoalFunding(c.Request.Context(), ledgerContext(c), today)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type AsOfRequest struct {
	AsOf string `json:"as_of"`
}

// ApplyGoalFunding POST /api/v1/goals/apply
func (h *Handler) ApplyGoalFunding(c *gin.Context) {
	today, ok := bindAsOf(c)
	if !ok {
		return
	}
	res, err := h.goals.ApplyGoalFunding(c.Request.Context(), ledgerContext(c), today)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// bindAsOf 请求体可以为空
func bindAsOf(c *gin.Context) (time.Time, bool) {
	var req AsOfRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, "参数错误: "+err.Error())
			return time.Time{}, false
		}
	}
	asOf, err := asOfDate(req.AsOf)
	if err != nil {
		response.ParamError(c, "as_of 格式应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return asOf, true
}

// ============================================================
// 分期、贷款与周期交易
// ============================================================

type InstallmentPreviewRequest struct {
	TotalCents   int64  `json:"total_cents"`
	Total        string `json:"total"`
	Installments int    `json:"installments" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	StartDate    string `json:"start_date" binding:"required"`
}

// PreviewInstallments POST /api/v1/schedules/installments/preview
func (h *Handler) PreviewInstallments(c *gin.Context) {
	var req InstallmentPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	total, err := amountCents(req.TotalCents, req.Total)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		response.ParamError(c, "start_date 格式应为 YYYY-MM-DD")
		return
	}
	items, err := schedule.GenerateInstallments(total, req.Installments, schedule.Frequency(req.Frequency), start)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, items)
}

type AmortizationPreviewRequest struct {
	PrincipalCents    int64           `json:"principal_cents"`
	Principal         string          `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months" binding:"required"`
	StartDate         string          `json:"start_date" binding:"required"`
}

// PreviewAmortization POST /api/v1/schedules/amortization/preview
func (h *Handler) PreviewAmortization(c *gin.Context) {
	var req AmortizationPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	principal, err := amountCents(req.PrincipalCents, req.Principal)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		response.ParamError(c, "start_date 格式应为 YYYY-MM-DD")
		return
	}
	rows, err := schedule.Amortize(principal, req.AnnualRatePercent, req.TermMonths, start)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rows)
}

type CreatePlanRequest struct {
	Description          string `json:"description"`
	PurchaseAmountCents  int64  `json:"purchase_amount_cents"`
	PurchaseAmount       string `json:"purchase_amount"`
	NumberOfInstallments int    `json:"number_of_installments" binding:"required"`
	Frequency            string `json:"frequency" binding:"required"`
	StartDate            string `json:"start_date" binding:"required"`
	CategoryID           int64  `json:"category_id" binding:"required"`
	PaymentAccountID     int64  `json:"payment_account_id" binding:"required"`
}

// CreateInstallmentPlan POST /api/v1/installment-plans
func (h *Handler) CreateInstallmentPlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	total, err := amountCents(req.PurchaseAmountCents, req.PurchaseAmount)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		response.ParamError(c, "start_date 格式应为 YYYY-MM-DD")
		return
	}

	plan, err := h.installments.CreateInstallmentPlan(c.Request.Context(), ledgerContext(c), service.CreatePlanRequest{
		Description:          req.Description,
		PurchaseAmountCents:  total,
		NumberOfInstallments: req.NumberOfInstallments,
		Frequency:            schedule.Frequency(req.Frequency),
		StartDate:            start,
		CategoryID:           req.CategoryID,
		PaymentAccountID:     req.PaymentAccountID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, plan)
}

// GetInstallmentPlan GET /api/v1/installment-plans/:id
func (h *Handler) GetInstallmentPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, err := h.installments.GetInstallmentPlan(c.Request.Context(), ledgerContext(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, plan)
}

// ProcessInstallments POST /api/v1/installment-plans/process
func (h *Handler) ProcessInstallments(c *gin.Context) {
	asOf, ok := bindAsOf(c)
	if !ok {
		return
	}
	res, err := h.installments.ProcessDueInstallments(c.Request.Context(), ledgerContext(c), asOf)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

type CreateLoanRequest struct {
	Name               string          `json:"name" binding:"required"`
	PrincipalCents     int64           `json:"principal_cents"`
	Principal          string          `json:"principal"`
	AnnualRatePercent  decimal.Decimal `json:"annual_rate_percent"`
	TermMonths         int             `json:"term_months" binding:"required"`
	StartDate          string          `json:"start_date" binding:"required"`
	LiabilityAccountID int64           `json:"liability_account_id" binding:"required"`
	PaymentAccountID   int64           `json:"payment_account_id" binding:"required"`
	InterestCategoryID int64           `json:"interest_category_id" binding:"required"`
}

// CreateLoan POST /api/v1/loans
func (h *Handler) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	principal, err := amountCents(req.PrincipalCents, req.Principal)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		response.ParamError(c, "start_date 格式应为 YYYY-MM-DD")
		return
	}

	loan, err := h.loans.CreateLoan(c.Request.Context(), ledgerContext(c), service.CreateLoanRequest{
		Name:               req.Name,
		PrincipalCents:     principal,
		AnnualRatePercent:  req.AnnualRatePercent,
		TermMonths:         req.TermMonths,
		StartDate:          start,
		LiabilityAccountID: req.LiabilityAccountID,
		PaymentAccountID:   req.PaymentAccountID,
		InterestCategoryID: req.InterestCategoryID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, loan)
}

// GetLoan GET /api/v1/loans/:id
func (h *Handler) GetLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	loan, err := h.loans.GetLoan(c.Request.Context(), ledgerContext(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, loan)
}

// RecordLoanPayment POST /api/v1/loans/:id/payments/:number
func (h *Handler) RecordLoanPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	number, ok := pathID(c, "number")
	if !ok {
		return
	}
	payment, err := h.loans.RecordLoanPayment(c.Request.Context(), ledgerContext(c), id, int(number))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, payment)
}

type CreateTemplateRequest struct {
	AccountID   int64  `json:"account_id" binding:"required"`
	CategoryID  *int64 `json:"category_id"`
	Flow        string `json:"flow"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date"`
	AutoCreate  *bool  `json:"auto_create"`
	Description string `json:"description"`
}

// CreateRecurringTemplate POST /api/v1/recurring，auto_create 缺省为 true
func (h *Handler) CreateRecurringTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	cents, err := amountCents(req.AmountCents, req.Amount)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		response.ParamError(c, "start_date 格式应为 YYYY-MM-DD")
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		response.ParamError(c, "end_date 格式应为 YYYY-MM-DD")
		return
	}
	autoCreate := req.AutoCreate == nil || *req.AutoCreate

	tpl, err := h.recurring.CreateRecurringTemplate(c.Request.Context(), ledgerContext(c), service.CreateTemplateRequest{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Flow:        req.Flow,
		AmountCents: cents,
		Frequency:   schedule.Frequency(req.Frequency),
		StartDate:   start,
		EndDate:     end,
		AutoCreate:  autoCreate,
		Description: req.Description,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tpl)
}

// ListRecurringTemplates GET /api/v1/recurring
func (h *Handler) ListRecurringTemplates(c *gin.Context) {
	list, err := h.recurring.ListRecurringTemplates(c.Request.Context(), ledgerContext(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetTemplateEnabled POST /api/v1/recurring/:id/enabled
func (h *Handler) SetTemplateEnabled(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	if err := h.recurring.SetTemplateEnabled(c.Request.Context(), ledgerContext(c), id, req.Enabled); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"template_id": id, "enabled": req.Enabled})
}

// MaterializeRecurring POST /api/v1/recurring/materialize
func (h *Handler) MaterializeRecurring(c *gin.Context) {
	asOf, ok := bindAsOf(c)
	if !ok {
		return
	}
	res, err := h.recurring.MaterializeDueRecurring(c.Request.Context(), ledgerContext(c), asOf)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// ============================================================
// 对账
// ============================================================

type ReconcileRequest struct {
	AccountID               int64    `json:"account_id" binding:"required"`
	StatementDate           string   `json:"statement_date" binding:"required"`
	StatementBalanceCents   *int64   `json:"statement_balance_cents"`
	StatementBalance        string   `json:"statement_balance"`
	ClearedTransactionUUIDs []string `json:"cleared_transaction_uuids"`
}

// Reconcile POST /api/v1/reconciliations
func (h *Handler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	statementDate, err := parseDate(req.StatementDate)
	if err != nil {
		response.ParamError(c, "statement_date 格式应为 YYYY-MM-DD")
		return
	}
	if req.StatementBalanceCents == nil && req.StatementBalance == "" {
		response.ParamError(c, "statement_balance_cents 不能为空")
		return
	}
	var cents int64
	if req.StatementBalanceCents != nil {
		cents = *req.StatementBalanceCents
	}
	if cents, err = signedCents(cents, req.StatementBalance); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	res, err := h.reconcile.Reconcile(c.Request.Context(), ledgerContext(c), service.ReconcileRequest{
		AccountID:               req.AccountID,
		StatementDate:           statementDate,
		StatementBalanceCents:   cents,
		ClearedTransactionUUIDs: req.ClearedTransactionUUIDs,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// ListReconciliations GET /api/v1/reconciliations?account_id=
func (h *Handler) ListReconciliations(c *gin.Context) {
	var accountID int64
	if s := c.Query("account_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			response.ParamError(c, "account_id 参数错误")
			return
		}
		accountID = id
	}
	list, err := h.reconcile.ListReconciliations(c.Request.Context(), ledgerContext(c), accountID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

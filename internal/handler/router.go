package handler

import (
	"log/slog"
	"time"

	"budgetledger/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	log := slog.Default().With("component", "http")

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", HeaderUserID, HeaderLedgerID},
		MaxAge:          12 * time.Hour,
	}))

	h := NewHandler(db, rdb, cfg)

	api := r.Group("/api/v1", UserMiddleware())
	{
		api.POST("/ledgers", h.CreateLedger)
		api.GET("/ledgers", h.ListLedgers)

		// 纯计算预览，不需要账本
		api.POST("/schedules/installments/preview", h.PreviewInstallments)
		api.POST("/schedules/amortization/preview", h.PreviewAmortization)
	}

	ledger := api.Group("", LedgerMiddleware())
	{
		accounts := ledger.Group("/accounts")
		{
			accounts.GET("", h.ListAccounts)
			accounts.POST("", h.CreateAccount)
			accounts.POST("/:id/deactivate", h.DeactivateAccount)
			accounts.GET("/:id/balance", h.GetAccountBalance)
			accounts.GET("/:id/verify", h.VerifyAccountBalance)
		}

		transactions := ledger.Group("/transactions")
		{
			transactions.POST("", h.PostTransaction)
			transactions.GET("", h.ListTransactions)
			transactions.GET("/:uuid", h.GetTransaction)
			transactions.POST("/:uuid/cleared", h.SetCleared)
		}

		ledger.GET("/envelopes", h.GetEnvelopeStatus)

		allocations := ledger.Group("/allocations")
		{
			allocations.POST("/assign", h.Assign)
			allocations.POST("/move", h.Move)
			allocations.POST("/cover", h.Cover)
		}

		goals := ledger.Group("/goals")
		{
			goals.GET("", h.ListGoals)
			goals.PUT("", h.SetGoal)
			goals.DELETE("/:category_id", h.DeleteGoal)
			goals.GET("/suggestions", h.SuggestGoalFunding)
			goals.POST("/apply", h.ApplyGoalFunding)
		}

		plans := ledger.Group("/installment-plans")
		{
			plans.POST("", h.CreateInstallmentPlan)
			plans.POST("/process", h.ProcessInstallments)
			plans.GET("/:id", h.GetInstallmentPlan)
		}

		loans := ledger.Group("/loans")
		{
			loans.POST("", h.CreateLoan)
			loans.GET("/:id", h.GetLoan)
			loans.POST("/:id/payments/:number", h.RecordLoanPayment)
		}

		recurring := ledger.Group("/recurring")
		{
			recurring.POST("", h.CreateRecurringTemplate)
			recurring.GET("", h.ListRecurringTemplates)
			recurring.POST("/materialize", h.MaterializeRecurring)
			recurring.POST("/:id/enabled", h.SetTemplateEnabled)
		}

		reconciliations := ledger.Group("/reconciliations")
		{
			reconciliations.POST("", h.Reconcile)
			reconciliations.GET("", h.ListReconciliations)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

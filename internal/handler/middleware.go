package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"budgetledger/internal/service"
	"budgetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderLedgerID = "X-Ledger-ID"

	ctxUserID = "user_id"
	ctxLedger = "ledger_context"
)

// LoggerMiddleware 请求日志
func LoggerMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		c.Next()

		log.Info("http request",
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered", "err", err, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Code:    response.CodeServerError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// UserMiddleware 从 X-User-ID 读取调用方，认证由上游网关完成
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
		if err != nil || userID <= 0 {
			response.Unauthorized(c, HeaderUserID+" header is required")
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// LedgerMiddleware 在 UserMiddleware 之后使用，组装账本上下文
func LedgerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ledgerID, err := strconv.ParseInt(c.GetHeader(HeaderLedgerID), 10, 64)
		if err != nil || ledgerID <= 0 {
			c.Abort()
			response.ParamError(c, HeaderLedgerID+" header is required")
			return
		}
		c.Set(ctxLedger, service.LedgerContext{UserID: c.GetInt64(ctxUserID), LedgerID: ledgerID})
		c.Next()
	}
}

func ledgerContext(c *gin.Context) service.LedgerContext {
	v, _ := c.Get(ctxLedger)
	lc, _ := v.(service.LedgerContext)
	return lc
}

package response

import (
	"log/slog"
	"net/http"

	"budgetledger/internal/errs"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 业务错误码，与 errs.Kind 一一对应
const (
	CodeInvalidAccount               = 1001
	CodeZeroOrNegativeAmount         = 1002
	CodeInsufficientCategoryBalance  = 1003
	CodeReadyToAssignWouldGoNegative = 1004
	CodeGoalNotFound                 = 1005
	CodeScheduleNotFound             = 1006
	CodeDuplicateMaterialization     = 1007
	CodeLedgerNotFound               = 1008
	CodeTransactionNotFound          = 1009
)

var kindCodes = map[errs.Kind]int{
	errs.KindInvalidAccount:               CodeInvalidAccount,
	errs.KindZeroOrNegativeAmount:         CodeZeroOrNegativeAmount,
	errs.KindInsufficientCategoryBalance:  CodeInsufficientCategoryBalance,
	errs.KindReadyToAssignWouldGoNegative: CodeReadyToAssignWouldGoNegative,
	errs.KindGoalNotFound:                 CodeGoalNotFound,
	errs.KindScheduleNotFound:             CodeScheduleNotFound,
	errs.KindDuplicateMaterialization:     CodeDuplicateMaterialization,
	errs.KindLedgerNotFound:               CodeLedgerNotFound,
	errs.KindTransactionNotFound:          CodeTransactionNotFound,
	errs.KindInvalidArgument:              CodeParamError,
}

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    errs.Kind   `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusOK, Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

// CodeFor 错误类别对应的业务码，未知类别归为 CodeBusinessError
func CodeFor(kind errs.Kind) int {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return CodeBusinessError
}

// FromError 输出服务层错误：已知类别返回对应业务码和原因，其余按服务器错误处理且不暴露细节
func FromError(c *gin.Context, err error) {
	kind, ok := errs.KindOf(err)
	if !ok {
		slog.Error("request failed",
			"component", "http",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err)
		ServerError(c, "internal server error")
		return
	}
	c.JSON(http.StatusOK, Response{
		Code:    CodeFor(kind),
		Message: err.Error(),
		Kind:    kind,
	})
}

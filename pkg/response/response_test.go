package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetledger/internal/errs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, fn func(c *gin.Context)) Response {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind errs.Kind
	}{
		{"insufficient", errs.New(errs.KindInsufficientCategoryBalance, "groceries has 10"), CodeInsufficientCategoryBalance, errs.KindInsufficientCategoryBalance},
		{"wrapped", fmt.Errorf("post: %w", errs.New(errs.KindInvalidAccount, "inactive")), CodeInvalidAccount, errs.KindInvalidAccount},
		{"invalid argument", errs.New(errs.KindInvalidArgument, "bad month"), CodeParamError, errs.KindInvalidArgument},
		{"infrastructure", errors.New("dial tcp: connection refused"), CodeServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := render(t, func(c *gin.Context) { FromError(c, tt.err) })
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.kind, resp.Kind)
			if tt.kind == "" {
				assert.NotContains(t, resp.Message, "dial tcp")
			} else {
				assert.Equal(t, tt.err.Error(), resp.Message)
			}
		})
	}
}

func TestSuccess(t *testing.T) {
	resp := render(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, resp.Data)
}

func TestCodeForUnknownKind(t *testing.T) {
	assert.Equal(t, CodeBusinessError, CodeFor("Whatever"))
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/response"
	"github.com/linzhaoyu/referral-mall-backend/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestHandleError_Nil(t *testing.T) {
	c, _ := createTestContext()
	assert.False(t, HandleError(c, nil))
}

func TestHandleError_AppError(t *testing.T) {
	c, w := createTestContext()

	handled := HandleError(c, errors.ErrCycleDetected)

	assert.True(t, handled)
	// 推荐域业务错误经 HTTP 200 返回，由 code 区分
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	assert.Equal(t, errors.ErrCycleDetected.Code, resp.Code)
	assert.Equal(t, errors.ErrCycleDetected.Message, resp.Message)
}

func TestHandleError_GenericError(t *testing.T) {
	c, w := createTestContext()

	handled := HandleError(c, assert.AnError)

	assert.True(t, handled)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := parseResponse(w)
	assert.Equal(t, errors.ErrInternalError.Code, resp.Code)
}

func TestMustSucceed(t *testing.T) {
	c, w := createTestContext()

	MustSucceed(c, nil, gin.H{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
}

func TestMustSucceedPage(t *testing.T) {
	c, w := createTestContext()

	MustSucceedPage(c, nil, []string{"a", "b"}, 20, 1, 10)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	dataMap := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(20), dataMap["total"])
	assert.Equal(t, float64(1), dataMap["page"])
}

func TestRequireUserID(t *testing.T) {
	t.Run("已登录", func(t *testing.T) {
		c, _ := createTestContext()
		c.Set(middleware.ContextKeyUserID, int64(42))

		userID, ok := RequireUserID(c)
		assert.True(t, ok)
		assert.Equal(t, int64(42), userID)
	})

	t.Run("未登录", func(t *testing.T) {
		c, w := createTestContext()

		_, ok := RequireUserID(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestParseID(t *testing.T) {
	t.Run("合法ID", func(t *testing.T) {
		c, _ := createTestContext()
		c.Params = gin.Params{{Key: "id", Value: "123"}}

		id, ok := ParseID(c, "订单")
		assert.True(t, ok)
		assert.Equal(t, int64(123), id)
	})

	t.Run("非法ID", func(t *testing.T) {
		c, w := createTestContext()
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		_, ok := ParseID(c, "订单")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := parseResponse(w)
		assert.Equal(t, "无效的订单ID", resp.Message)
	})
}

func TestBindPagination(t *testing.T) {
	t.Run("默认值", func(t *testing.T) {
		c, _ := createTestContext()

		p := BindPagination(c)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 10, p.PageSize)
	})

	t.Run("自定义与上限", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil)

		p := BindPagination(c)
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 100, p.PageSize)
		assert.Equal(t, 200, p.GetOffset())
	})
}

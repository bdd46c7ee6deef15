// Package handle 提供 HTTP 请求处理器，负责参数绑定、调用 service 与错误到状态码的映射.
package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/log"
	"github.com/yeisme/dataroom/pkg/middleware"
	"github.com/yeisme/dataroom/pkg/rule"
)

// respondError 把 service 错误映射为状态码与 {"error": "..."}.
func respondError(c *gin.Context, err error) {
	l := log.FromContext(c.Request.Context())

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrCycle),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInvalidName):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	default:
		l.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
	}
}

// badRequest 参数错误，校验失败时附带字段明细.
func badRequest(c *gin.Context, err error) {
	log.FromContext(c.Request.Context()).Warn().Err(err).Msg("invalid request")

	if fields := rule.Errors(err); fields != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request", Fields: fields})
		return
	}

	c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
}

// bindJSON 绑定并校验 JSON 请求体，失败时已写出 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindWith(req, binding.JSON); err != nil {
		badRequest(c, err)
		return false
	}

	if err := rule.ValidateStruct(req); err != nil {
		badRequest(c, err)
		return false
	}

	return true
}

// pathID 解析 :id 路径参数，失败时写出 404.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
		return 0, false
	}

	return uint(id), true
}

// currentUser 已认证用户的 ID，AuthMiddleware 保证非零.
func currentUser(c *gin.Context) uint {
	return middleware.GetUserID(c)
}

func deleted(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, types.MessageResponse{Msg: msg})
}

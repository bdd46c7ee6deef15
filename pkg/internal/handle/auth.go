package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/types"
)

// Login 按用户名登录，未知用户名自动注册.
//
//	@Summary		登录
//	@Description	按用户名签发访问令牌；用户不存在时以 <username>@example.com 自动注册
//	@Tags			用户
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.LoginRequest	true	"登录请求"
//	@Success		200		{object}	types.TokenResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Router			/login [post]
func Login(c *gin.Context) {
	var req types.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := service.NewAuthService(c.Request.Context()).Login(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.TokenResponse{AccessToken: token})
}

// GetUser 返回当前用户.
//
//	@Summary	当前用户
//	@Tags		用户
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.UserView
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/user [get]
func GetUser(c *gin.Context) {
	u, err := service.NewUserService(c.Request.Context()).Get(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// CreateUser 注册用户并返回访问令牌.
//
//	@Summary	注册
//	@Tags		用户
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.CreateUserRequest	true	"注册请求"
//	@Success	200		{object}	types.TokenResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Router		/user [post]
func CreateUser(c *gin.Context) {
	var req types.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := service.NewUserService(c.Request.Context()).Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.TokenResponse{AccessToken: token})
}

// UpdateUser 修改当前用户的用户名与邮箱.
//
//	@Summary	更新当前用户
//	@Tags		用户
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		types.UpdateUserRequest	true	"更新请求"
//	@Success	200		{object}	types.UserView
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	401		{object}	types.ErrorResponse
//	@Router		/user [put]
func UpdateUser(c *gin.Context) {
	var req types.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := service.NewUserService(c.Request.Context()).Update(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// DeleteUser 删除当前用户及其全部数据室.
//
//	@Summary	删除当前用户
//	@Tags		用户
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.MessageResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/user [delete]
func DeleteUser(c *gin.Context) {
	if err := service.NewUserService(c.Request.Context()).Delete(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}

	deleted(c, "User deleted")
}

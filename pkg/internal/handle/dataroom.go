package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/types"
)

// ListDataRooms 列出当前用户的数据室.
//
//	@Summary	数据室列表
//	@Tags		数据室
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.DataRoomListResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/data-room [get]
func ListDataRooms(c *gin.Context) {
	rooms, err := service.NewDataRoomService(c.Request.Context()).List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.DataRoomListResponse{UserDataRooms: rooms})
}

// GetDataRoom 返回数据室及其根目录下的子项.
//
//	@Summary	数据室详情
//	@Tags		数据室
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"数据室 ID"
//	@Success	200	{object}	types.DataRoomView
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/data-room/{id} [get]
func GetDataRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	dr, err := service.NewDataRoomService(c.Request.Context()).Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dr)
}

// CreateDataRoom 创建数据室，同一用户下名称唯一.
//
//	@Summary	创建数据室
//	@Tags		数据室
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		types.CreateDataRoomRequest	true	"名称"
//	@Success	201		{object}	types.DataRoomView
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	401		{object}	types.ErrorResponse
//	@Router		/data-room [post]
func CreateDataRoom(c *gin.Context) {
	var req types.CreateDataRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	dr, err := service.NewDataRoomService(c.Request.Context()).Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dr)
}

// RenameDataRoom 重命名数据室.
//
//	@Summary	重命名数据室
//	@Tags		数据室
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int							true	"数据室 ID"
//	@Param		body	body		types.RenameDataRoomRequest	true	"新名称"
//	@Success	200		{object}	types.DataRoomView
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	401		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/data-room/{id} [put]
func RenameDataRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.RenameDataRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	dr, err := service.NewDataRoomService(c.Request.Context()).Rename(c.Request.Context(), currentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dr)
}

// DeleteDataRoom 删除数据室及其全部内容.
//
//	@Summary	删除数据室
//	@Tags		数据室
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"数据室 ID"
//	@Success	200	{object}	types.MessageResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/data-room/{id} [delete]
func DeleteDataRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := service.NewDataRoomService(c.Request.Context()).Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	deleted(c, "Data room deleted")
}

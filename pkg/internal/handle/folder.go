package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/types"
)

// GetFolder 返回文件夹及其直接子项.
//
//	@Summary	文件夹详情
//	@Tags		文件夹
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"文件夹 ID"
//	@Success	200	{object}	types.FolderView
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/folder/{id} [get]
func GetFolder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	f, err := service.NewFolderService(c.Request.Context()).Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}

// CreateFolder 在数据室根目录或某个文件夹下创建文件夹.
//
//	@Summary	创建文件夹
//	@Tags		文件夹
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		types.CreateFolderRequest	true	"名称与位置"
//	@Success	201		{object}	types.FolderView
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	401		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/folder [post]
func CreateFolder(c *gin.Context) {
	var req types.CreateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := service.NewFolderService(c.Request.Context()).Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

// MoveFolder 重命名并移动文件夹，省略 parent_folder_id 表示移到数据室根目录.
//
//	@Summary	移动文件夹
//	@Tags		文件夹
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int							true	"文件夹 ID"
//	@Param		body	body		types.MoveFolderRequest	true	"名称与位置"
//	@Success	200		{object}	types.FolderView
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	401		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/folder/{id} [put]
func MoveFolder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.MoveFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := service.NewFolderService(c.Request.Context()).Move(c.Request.Context(), currentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}

// DeleteFolder 删除文件夹及其整个子树.
//
//	@Summary	删除文件夹
//	@Tags		文件夹
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"文件夹 ID"
//	@Success	200	{object}	types.MessageResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/folder/{id} [delete]
func DeleteFolder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := service.NewFolderService(c.Request.Context()).Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	deleted(c, "Folder deleted")
}

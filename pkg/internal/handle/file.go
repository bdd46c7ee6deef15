package handle

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/service"
	"github.com/yeisme/dataroom/pkg/internal/types"
	"github.com/yeisme/dataroom/pkg/log"
	"github.com/yeisme/dataroom/pkg/rule"
)

// uploadField multipart 中文件内容的字段名.
const uploadField = "files"

// DownloadFile 以附件形式返回文件内容.
//
//	@Summary	下载文件
//	@Tags		文件
//	@Produce	octet-stream
//	@Security	BearerAuth
//	@Param		id	path		int	true	"文件 ID"
//	@Success	200	{file}		binary
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/file/{id} [get]
func DownloadFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	dl, err := service.NewFileService(c.Request.Context()).Open(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer dl.Content.Close()

	contentType := dl.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, dl.File.Size, contentType, dl.Content, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": dl.File.Name}),
	})
}

// UploadFile 上传文件到数据室根目录或某个文件夹.
//
//	@Summary	上传文件
//	@Tags		文件
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		files				formData	file	true	"文件内容"
//	@Param		name				formData	string	false	"名称，默认取文件名"
//	@Param		parent_data_room_id	formData	int		true	"数据室 ID"
//	@Param		parent_folder_id	formData	int		false	"文件夹 ID"
//	@Success	201					{object}	types.FileView
//	@Failure	400					{object}	types.ErrorResponse
//	@Failure	401					{object}	types.ErrorResponse
//	@Failure	404					{object}	types.ErrorResponse
//	@Failure	413					{object}	types.ErrorResponse
//	@Router		/file [post]
func UploadFile(c *gin.Context) {
	l := log.FromContext(c.Request.Context())

	if limit := configs.GetConfig().Server.GetMaxUploadBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var form types.UploadFileForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		uploadError(c, err)
		return
	}

	if err := rule.ValidateStruct(&form); err != nil {
		badRequest(c, err)
		return
	}

	folderID, err := form.FolderID()
	if err != nil {
		badRequest(c, fmt.Errorf("parent_folder_id: %w", err))
		return
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		uploadError(c, err)
		return
	}

	content, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer content.Close()

	in := &service.UploadInput{
		Name:             form.Name,
		ParentDataRoomID: form.ParentDataRoomID,
		ParentFolderID:   folderID,
		FileName:         header.Filename,
		ContentType:      detectContentType(header.Header.Get("Content-Type"), header.Filename),
		Size:             header.Size,
		Content:          content,
	}

	f, err := service.NewFileService(c.Request.Context()).Upload(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	l.Info().Uint("file_id", f.ID).Int64("size", f.Size).Msg("file uploaded")
	c.JSON(http.StatusCreated, f)
}

// uploadError 区分超出大小限制与缺少字段.
func uploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
			Error: "upload exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
		})

		return
	}

	if errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "no file provided"})
		return
	}

	badRequest(c, err)
}

// detectContentType 客户端未声明具体类型时按扩展名推断.
func detectContentType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}

	return "application/octet-stream"
}

// MoveFile 重命名并移动文件.
//
//	@Summary	移动文件
//	@Tags		文件
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"文件 ID"
//	@Param		body	body		types.MoveFileRequest	true	"名称与位置"
//	@Success	200		{object}	types.FileView
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	401		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/file/{id} [put]
func MoveFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.MoveFileRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := service.NewFileService(c.Request.Context()).Move(c.Request.Context(), currentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}

// DeleteFile 删除文件及其内容.
//
//	@Summary	删除文件
//	@Tags		文件
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"文件 ID"
//	@Success	200	{object}	types.MessageResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/file/{id} [delete]
func DeleteFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := service.NewFileService(c.Request.Context()).Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	deleted(c, "File deleted")
}

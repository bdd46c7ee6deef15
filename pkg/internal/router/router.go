// Package router 管理路由配置，只负责把路径与 handle 包中的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/internal/handle"
)

// Register 绑定数据室 API（根路径）与运维 API（/api/v1）.
// authed 为受保护路由依次使用的中间件，通常是 AuthMiddleware 加上按用户的限流.
//
//	POST   /login
//	GET    /user            POST /user        PUT /user        DELETE /user
//	GET    /data-room       GET  /data-room/:id   POST /data-room   PUT|DELETE /data-room/:id
//	GET    /folder/:id      POST /folder      PUT|DELETE /folder/:id
//	GET    /file/:id        POST /file        PUT|DELETE /file/:id
func Register(e *gin.Engine, authed ...gin.HandlerFunc) {
	RegisterAuthRoutes(e.Group(""), authed...)

	protected := e.Group("", authed...)
	RegisterDataRoomRoutes(protected)
	RegisterFolderRoutes(protected)
	RegisterFileRoutes(protected)

	RegisterOpsRoutes(e.Group("/api/v1"), authed...)
}

// RegisterAuthRoutes 注册登录与用户路由，POST /user 为公开注册.
func RegisterAuthRoutes(g *gin.RouterGroup, authed ...gin.HandlerFunc) {
	g.POST("/login", handle.Login)
	g.POST("/user", handle.CreateUser)

	user := g.Group("/user", authed...)
	{
		user.GET("", handle.GetUser)
		user.PUT("", handle.UpdateUser)
		user.DELETE("", handle.DeleteUser)
	}
}

// RegisterDataRoomRoutes 注册数据室路由.
func RegisterDataRoomRoutes(g *gin.RouterGroup) {
	rooms := g.Group("/data-room")
	{
		rooms.GET("", handle.ListDataRooms)
		rooms.POST("", handle.CreateDataRoom)
		rooms.GET("/:id", handle.GetDataRoom)
		rooms.PUT("/:id", handle.RenameDataRoom)
		rooms.DELETE("/:id", handle.DeleteDataRoom)
	}
}

// RegisterFolderRoutes 注册文件夹路由.
func RegisterFolderRoutes(g *gin.RouterGroup) {
	folders := g.Group("/folder")
	{
		folders.POST("", handle.CreateFolder)
		folders.GET("/:id", handle.GetFolder)
		folders.PUT("/:id", handle.MoveFolder)
		folders.DELETE("/:id", handle.DeleteFolder)
	}
}

// RegisterFileRoutes 注册文件路由.
func RegisterFileRoutes(g *gin.RouterGroup) {
	files := g.Group("/file")
	{
		files.POST("", handle.UploadFile)
		files.GET("/:id", handle.DownloadFile)
		files.PUT("/:id", handle.MoveFile)
		files.DELETE("/:id", handle.DeleteFile)
	}
}

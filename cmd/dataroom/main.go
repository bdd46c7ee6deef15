// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/dataroom/pkg/cmd"
)

//	@title			DataRoom API
//	@version		1.0
//	@description	DataRoom 管理用户的数据室、嵌套文件夹与文件，提供登录、上传、下载、移动与级联删除.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

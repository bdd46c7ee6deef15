//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/dataroom/pkg/configs"
)

// createSQLiteDialector 创建SQLite dialector（纯 Go 版本，无需 CGo）.
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}

// 未启用 CGo 时注册纯 Go 的 SQLite 驱动.
func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}

// Package model 定义数据库模型.
//
// 层级结构：User 拥有多个 DataRoom；Folder 与 File 都属于某个 DataRoom，
// ParentFolderID 为空时位于数据室根目录.
package model

import (
	"fmt"

	"gorm.io/gorm"
)

// All 返回需要迁移的全部模型.
func All() []any {
	return []any{&User{}, &DataRoom{}, &Folder{}, &File{}}
}

// AutoMigrate 迁移全部表结构.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

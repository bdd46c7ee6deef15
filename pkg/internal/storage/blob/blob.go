// Package blob 存放文件内容，元数据保存在数据库中，这里只按 key 读写字节流.
//
// 支持的后端：
//   - local：本地目录（基于 afero，测试可替换为内存文件系统）
//   - s3：MinIO / S3 兼容对象存储
//
// key 使用 "/" 分隔，例如 user-1/data-room-2/folder-root/01J...-report.pdf.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/yeisme/dataroom/pkg/configs"
)

var (
	// ErrNotExist 对象不存在.
	ErrNotExist = errors.New("blob: object does not exist")
	// ErrInvalidKey key 为空、是绝对路径或包含 ".." 段.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Object 描述一个已存储的对象.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store 内容存储接口.
type Store interface {
	// Put 写入对象，size 为 -1 表示未知长度.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open 读取对象，调用方负责关闭返回的 ReadCloser.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// Delete 删除对象，不存在时不报错.
	Delete(ctx context.Context, key string) error
	// List 列出前缀下的所有对象.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Health 检查后端是否可用.
	Health(ctx context.Context) error
	// Close 释放资源.
	Close() error
}

// Factory 创建 Store 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.BlobConfig) (Store, error)

var factories = map[configs.BlobType]Factory{}

// RegisterFactory 注册内容存储工厂.
func RegisterFactory(t configs.BlobType, f Factory) {
	factories[t] = f
}

// GetRegisteredTypes 返回已注册的后端类型（有序）.
func GetRegisteredTypes() []configs.BlobType {
	types := make([]configs.BlobType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// New 根据配置创建 Store.
func New(ctx context.Context, cfg *configs.BlobConfig) (Store, error) {
	f, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported blob type: %s", cfg.Type)
	}

	return f(ctx, cfg)
}

// CleanKey 规范化并校验 key.
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsRune(key, '\\') {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return cleaned, nil
}

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/yeisme/dataroom/pkg/configs"
)

func init() {
	RegisterFactory(configs.BlobTypeLocal, newLocalFromConfig)
}

// LocalStore 以目录树保存对象，key 中的 "/" 对应子目录.
type LocalStore struct {
	fs afero.Fs
}

// NewLocalStore 在 fs 上创建存储，fs 的根即存储根目录.
func NewLocalStore(fsys afero.Fs) *LocalStore {
	return &LocalStore{fs: fsys}
}

// NewMemoryStore 基于内存文件系统的存储，用于测试.
func NewMemoryStore() *LocalStore {
	return NewLocalStore(afero.NewMemMapFs())
}

func newLocalFromConfig(_ context.Context, cfg *configs.BlobConfig) (Store, error) {
	root := cfg.Local.Root
	if root == "" {
		root = configs.DefaultBlobLocalRoot
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", root, err)
	}

	return NewLocalStore(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// toFsPath 使用以根目录为起点的绝对路径，BasePathFs 与 MemMapFs 的行为一致.
func toFsPath(key string) string {
	return filepath.FromSlash("/" + key)
}

// Put 先写临时文件再重命名，读者不会看到写了一半的对象.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	dst := toFsPath(key)
	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", key, err)
	}

	tmp := dst + ".part-" + uuid.NewString()
	if err := afero.WriteReader(s.fs, tmp, r); err != nil {
		_ = s.fs.Remove(tmp)

		return fmt.Errorf("write %s: %w", key, err)
	}

	if err := s.fs.Rename(tmp, dst); err != nil {
		_ = s.fs.Remove(tmp)

		return fmt.Errorf("rename %s: %w", key, err)
	}

	return nil
}

// Open 读取对象.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, Object, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, Object{}, err
	}

	f, err := s.fs.Open(toFsPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, ErrNotExist
	}

	if err != nil {
		return nil, Object{}, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, Object{}, err
	}

	if info.IsDir() {
		_ = f.Close()

		return nil, Object{}, ErrNotExist
	}

	return f, Object{
		Key:         key,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(path.Ext(key)),
		ModTime:     info.ModTime(),
	}, nil
}

// Delete 删除对象.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	err = s.fs.Remove(toFsPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// List 遍历目录树，跳过写入中的临时文件.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object

	err := afero.Walk(s.fs, string(filepath.Separator), func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() || strings.Contains(info.Name(), ".part-") {
			return nil
		}

		key := strings.TrimPrefix(filepath.ToSlash(p), "/")

		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		out = append(out, Object{Key: key, Size: info.Size(), ModTime: info.ModTime()})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	return out, nil
}

// Health 检查根目录是否可访问.
func (s *LocalStore) Health(_ context.Context) error {
	_, err := s.fs.Stat(string(filepath.Separator))

	return err
}

// Close 无需释放资源.
func (s *LocalStore) Close() error {
	return nil
}

package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/dataroom/pkg/configs"
	nlog "github.com/yeisme/dataroom/pkg/log"
)

func init() {
	RegisterFactory(configs.BlobTypeS3, newS3FromConfig)
}

// S3Store 基于 MinIO 客户端的对象存储.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// newS3FromConfig 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func newS3FromConfig(ctx context.Context, cfg *configs.BlobConfig) (Store, error) {
	s3 := cfg.S3

	endpoint := s3.Endpoint
	// 允许传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			s3.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3.AccessKeyID, s3.SecretAccessKey, ""),
		Secure: s3.UseSSL,
		Region: s3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	store := &S3Store{client: cli, bucket: s3.BucketName, region: s3.Region}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	nlog.Logger().Info().Str("endpoint", s3.Endpoint).Str("bucket", s3.BucketName).Msg("s3 connected")

	return store, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}

	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	nlog.Logger().Info().Str("bucket", s.bucket).Msg("bucket created")

	return nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code

	return code == "NoSuchKey" || code == "NoSuchObject"
}

// Put 写入对象.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

// Open 读取对象，先 Stat 以便把不存在映射为 ErrNotExist.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, Object{}, err
	}

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if isNoSuchKey(err) {
		return nil, Object{}, ErrNotExist
	}

	if err != nil {
		return nil, Object{}, fmt.Errorf("stat %s: %w", key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, fmt.Errorf("get %s: %w", key, err)
	}

	return obj, Object{Key: key, Size: info.Size, ContentType: info.ContentType, ModTime: info.LastModified}, nil
}

// Delete 删除对象，S3 对不存在的 key 同样返回成功.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// List 列出前缀下的对象.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, info.Err)
		}

		out = append(out, Object{Key: info.Key, Size: info.Size, ContentType: info.ContentType, ModTime: info.LastModified})
	}

	return out, nil
}

// Health 检查 bucket 是否可访问.
func (s *S3Store) Health(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)

	return err
}

// Close MinIO 客户端无需显式关闭.
func (s *S3Store) Close() error {
	return nil
}
